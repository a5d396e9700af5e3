// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tombee/cigen/pkg/errors"
	"github.com/tombee/cigen/pkg/pipeline/expression"
)

// Validate checks that the configuration is valid. All problems are reported
// together as errors.ValidationErrors.
func (c *Config) Validate() error {
	var errs errors.ValidationErrors
	add := func(field, msg, suggestion string) {
		errs = append(errs, &errors.ValidationError{Field: field, Message: msg, Suggestion: suggestion})
	}

	required := []struct{ field, value string }{
		{"name", c.Name},
		{"workflows_dir", c.WorkflowsDir},
		{"runner", c.Runner},
		{"build_tool", c.BuildTool},
		{"default_java", c.DefaultJava},
		{"java_distribution", c.JavaDistribution},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			add(r.field, "must not be empty", "")
		}
	}

	if len(c.JavaPlatforms) == 0 {
		add("java_platforms", "at least one platform is required", `e.g. java_platforms: ["11", "17"]`)
	}
	seen := make(map[string]bool, len(c.JavaPlatforms))
	for _, p := range c.JavaPlatforms {
		if strings.TrimSpace(p) == "" {
			add("java_platforms", "empty platform identifier", "")
		}
		if seen[p] {
			add("java_platforms", fmt.Sprintf("platform %q listed twice", p), "")
		}
		seen[p] = true
	}

	if len(c.VersionMatrix) == 0 {
		add("version_matrix", "no modules configured", "declare each module with the versions it is built for")
	}
	for _, module := range sortedKeys(c.VersionMatrix) {
		field := "version_matrix." + module
		if strings.TrimSpace(module) == "" {
			add("version_matrix", "module id is empty", "")
		}
		versions := c.VersionMatrix[module]
		if len(versions) == 0 {
			add(field, "module has no versions", "")
		}
		for _, v := range versions {
			if strings.TrimSpace(v) == "" {
				add(field, "empty version identifier", "")
			}
		}
	}

	for _, module := range sortedKeys(c.PlatformMatrix) {
		field := "platform_matrix." + module
		if _, ok := c.VersionMatrix[module]; !ok {
			add(field, "module is not declared in version_matrix", "remove the entry or add the module to version_matrix")
		}
		if strings.TrimSpace(c.PlatformMatrix[module]) == "" {
			add(field, "minimum platform is empty", "")
		}
	}

	if c.Docs.Versioning != VersioningSemantic && c.Docs.Versioning != VersioningHash {
		add("docs.versioning", fmt.Sprintf("must be one of [%s, %s], got %q", VersioningSemantic, VersioningHash, c.Docs.Versioning), "")
	}

	if c.SwapSizeGB < 0 {
		add("swap_size_gb", fmt.Sprintf("must not be negative, got %d", c.SwapSizeGB), "use 0 to disable provisioning")
	}

	if c.ReadmeCondition != "" {
		if err := expression.Lint(c.ReadmeCondition); err != nil {
			add("readme_condition", err.Error(), "")
		}
	}

	if ac := c.ArtifactCheck; ac != nil && ac.Skip && (ac.Name != "" || ac.Run != "") {
		add("artifact_check", "skip cannot be combined with name or run", "")
	}

	envNames := make(map[string]bool, len(c.Env))
	for i, e := range c.Env {
		if strings.TrimSpace(e.Name) == "" {
			add(fmt.Sprintf("env[%d]", i), "variable name is empty", "")
		}
		if envNames[e.Name] {
			add("env."+e.Name, "variable declared twice", "")
		}
		envNames[e.Name] = true
	}

	for i, s := range c.ExtraTestSteps {
		field := fmt.Sprintf("extra_test_steps[%d]", i)
		if s.Uses == "" && s.Run == "" {
			add(field, "step must have either uses or run", "")
		}
		if s.Uses != "" && s.Run != "" {
			add(field, "step cannot have both uses and run", "")
		}
		if s.If != "" {
			if err := expression.Lint(s.If); err != nil {
				add(field+".if", err.Error(), "")
			}
		}
	}

	return errs.OrNil()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
