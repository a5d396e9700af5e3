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

// Package config loads the project configuration that drives workflow
// generation.
//
// Configuration is resolved in order: Default, then the config file (YAML,
// or JSON/JSONC by extension), then CIGEN_* environment overrides, then
// Validate.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	cigenerrors "github.com/tombee/cigen/pkg/errors"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = ".cigen.yaml"

// Docs publishing versioning schemes.
const (
	VersioningSemantic = "semantic"
	VersioningHash     = "hash"
)

// Config is the project configuration.
type Config struct {
	// Name is the workflow display name; the artifact file name derives from it
	Name string `yaml:"name"`

	// WorkflowsDir is where the artifact is written
	WorkflowsDir string `yaml:"workflows_dir"`

	// Runner is the runs-on label of every job
	Runner string `yaml:"runner"`

	// EnabledBranches restricts push triggers; empty means every branch
	EnabledBranches []string `yaml:"enabled_branches"`

	// Parallel fans tests out over matrix axes instead of grouped steps
	Parallel bool `yaml:"parallel"`

	BuildTool      string `yaml:"build_tool"`
	BuildToolFlags string `yaml:"build_tool_flags"`

	// JavaPlatforms is the ordered list of platforms tests run on
	JavaPlatforms []string `yaml:"java_platforms"`

	// DefaultJava is the platform used by jobs outside the test matrix
	DefaultJava      string `yaml:"default_java"`
	JavaDistribution string `yaml:"java_distribution"`

	// Env is the workflow-level environment, in declared order
	Env OrderedMap `yaml:"env"`

	// VersionMatrix maps each module to the versions it is built for
	VersionMatrix map[string][]string `yaml:"version_matrix"`

	// PlatformMatrix maps modules to their minimum platform
	PlatformMatrix map[string]string `yaml:"platform_matrix"`

	Docs DocsConfig `yaml:"docs"`

	// ReadmeCondition overrides when the README job runs
	ReadmeCondition string `yaml:"readme_condition"`

	ArtifactCheck *ArtifactCheckConfig `yaml:"artifact_check"`

	// ExtraTestSteps run after the generated test steps
	ExtraTestSteps []StepConfig `yaml:"extra_test_steps"`

	// SwapSizeGB provisions swap on every job when positive
	SwapSizeGB int `yaml:"swap_size_gb"`

	// CheckCommand is run by the build job to detect a stale workflow
	CheckCommand string `yaml:"check_command"`

	NodeVersion string `yaml:"node_version"`

	// Tasks overrides individual build-tool task names
	Tasks TasksConfig `yaml:"tasks"`
}

// DocsConfig configures documentation publishing.
type DocsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Project    string `yaml:"project"`
	Versioning string `yaml:"versioning"`
}

// ArtifactCheckConfig customizes the artifact-build verification step.
type ArtifactCheckConfig struct {
	Skip bool   `yaml:"skip"`
	Name string `yaml:"name"`
	Run  string `yaml:"run"`
}

// StepConfig is a user-supplied step.
type StepConfig struct {
	Name string     `yaml:"name"`
	Uses string     `yaml:"uses"`
	With OrderedMap `yaml:"with"`
	Run  string     `yaml:"run"`
	Env  OrderedMap `yaml:"env"`
	If   string     `yaml:"if"`
}

// TasksConfig overrides build-tool task names. Empty fields keep the default.
type TasksConfig struct {
	Lint          string `yaml:"lint"`
	Test          string `yaml:"test"`
	Release       string `yaml:"release"`
	ArtifactCheck string `yaml:"artifact_check"`
	Website       string `yaml:"website"`
	Readme        string `yaml:"readme"`
	PublishDocs   string `yaml:"publish_docs"`
	PublishHashed string `yaml:"publish_hashed_docs"`
}

// Default returns a configuration with default values. VersionMatrix is left
// empty; every project must declare its modules.
func Default() *Config {
	return &Config{
		Name:             "CI",
		WorkflowsDir:     ".github/workflows",
		Runner:           "ubuntu-latest",
		BuildTool:        "sbt",
		JavaPlatforms:    []string{"8", "11", "17"},
		DefaultJava:      "17",
		JavaDistribution: "temurin",
		Docs: DocsConfig{
			Enabled:    true,
			Versioning: VersioningSemantic,
		},
		CheckCommand: "cigen check",
		NodeVersion:  "16.x",
	}
}

// Load loads configuration from configPath, then applies environment
// overrides and validates the result. An empty configPath skips the file.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			return nil, &cigenerrors.ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", configPath),
				Cause:  err,
			}
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, &cigenerrors.ConfigError{
			Key:    "validation",
			Reason: "configuration validation failed",
			Cause:  err,
		}
	}

	return cfg, nil
}

// Parse decodes configuration data on top of the defaults without applying
// environment overrides or validation. JSON input may contain comments and
// trailing commas.
func Parse(data []byte, jsonInput bool) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(data, jsonInput); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile loads configuration from a YAML or JSON(C) file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &cigenerrors.NotFoundError{Resource: "config file", ID: path}
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	return c.decode(data, ext == ".json" || ext == ".jsonc")
}

func (c *Config) decode(data []byte, jsonInput bool) error {
	if jsonInput {
		// JSON is a subset of YAML once comments and trailing commas are gone.
		data = jsonc.ToJSON(data)
	}

	var probe yaml.Node
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if len(probe.Content) == 0 {
		// empty file keeps every default
		return nil
	}
	if err := probe.Decode(c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// loadFromEnv loads configuration overrides from environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("CIGEN_WORKFLOW_NAME"); val != "" {
		c.Name = val
	}
	if val := os.Getenv("CIGEN_WORKFLOWS_DIR"); val != "" {
		c.WorkflowsDir = val
	}
	if val := os.Getenv("CIGEN_PARALLEL"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Parallel = b
		}
	}
}
