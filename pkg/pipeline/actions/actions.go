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

// Package actions is the catalog of third-party actions and common steps the
// generated workflow is built from.
package actions

import (
	"strconv"
	"strings"

	"github.com/tombee/cigen/pkg/pipeline"
)

// Pinned action references.
var (
	Checkout          = pipeline.ActionRef{Repo: "actions/checkout", Version: "v3.3.0"}
	SetupJava         = pipeline.ActionRef{Repo: "actions/setup-java", Version: "v3.10.0"}
	CacheDependencies = pipeline.ActionRef{Repo: "coursier/cache-action", Version: "v6"}
	SetupNode         = pipeline.ActionRef{Repo: "actions/setup-node", Version: "v3"}
	SetSwapSpace      = pipeline.ActionRef{Repo: "pierotofy/set-swap-space", Version: "master"}
	CreatePullRequest = pipeline.ActionRef{Repo: "peter-evans/create-pull-request", Version: "v4.2.3"}
)

// BuildTool renders build-tool invocations. Flags and tasks are opaque.
type BuildTool struct {
	// Command is the executable, e.g. "sbt"
	Command string

	// Flags are inserted between the executable and the tasks
	Flags string
}

// Run joins the executable, flags and tasks, skipping empty parts.
func (b BuildTool) Run(tasks ...string) string {
	parts := []string{b.Command}
	if f := strings.TrimSpace(b.Flags); f != "" {
		parts = append(parts, f)
	}
	for _, t := range tasks {
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// CheckoutStep clones the repository with full history.
func CheckoutStep() *pipeline.SingleStep {
	return &pipeline.SingleStep{
		Name: "Git Checkout",
		Uses: &Checkout,
		With: pipeline.Env{{Name: "fetch-depth", Value: "0"}},
	}
}

// CheckoutRefStep clones the repository at the given ref.
func CheckoutRefStep(ref string) *pipeline.SingleStep {
	step := CheckoutStep()
	step.With = append(pipeline.Env{{Name: "ref", Value: ref}}, step.With...)
	return step
}

// SetupPlatform installs a Java distribution and restores the dependency cache.
// javaVersion may be a literal ("17") or a matrix reference.
func SetupPlatform(distribution, javaVersion string) pipeline.Sequence {
	return pipeline.Sequence{
		&pipeline.SingleStep{
			Name: "Setup Scala",
			Uses: &SetupJava,
			With: pipeline.Env{
				{Name: "distribution", Value: distribution},
				{Name: "java-version", Value: javaVersion},
				{Name: "check-latest", Value: "true"},
			},
		},
		&pipeline.SingleStep{
			Name: "Cache Dependencies",
			Uses: &CacheDependencies,
		},
	}
}

// SetupNodeStep installs Node.js configured for the npm registry.
func SetupNodeStep(version string) *pipeline.SingleStep {
	return &pipeline.SingleStep{
		Name: "Setup NodeJs",
		Uses: &SetupNode,
		With: pipeline.Env{
			{Name: "node-version", Value: version},
			{Name: "registry-url", Value: "https://registry.npmjs.org"},
		},
	}
}

// ProvisionStep enlarges the runner's swap space. It returns nil when
// sizeGB is not positive, meaning no provisioning.
func ProvisionStep(sizeGB int) *pipeline.SingleStep {
	if sizeGB <= 0 {
		return nil
	}
	return &pipeline.SingleStep{
		Name: "Set Swap Space",
		Uses: &SetSwapSpace,
		With: pipeline.Env{{Name: "swap-size-gb", Value: strconv.Itoa(sizeGB)}},
	}
}

// WithProvision prepends the provisioning step to steps when sizeGB > 0.
func WithProvision(sizeGB int, steps ...pipeline.Step) []pipeline.Step {
	if p := ProvisionStep(sizeGB); p != nil {
		return append([]pipeline.Step{p}, steps...)
	}
	return steps
}
