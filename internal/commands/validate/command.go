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

package validate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/cigen/internal/commands/shared"
	"github.com/tombee/cigen/internal/output"
	"github.com/tombee/cigen/pkg/generator"
	"github.com/tombee/cigen/pkg/pipeline"
	"github.com/tombee/cigen/pkg/pipeline/expression"
)

// Summary describes a valid configuration.
type Summary struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Jobs     []string   `json:"jobs"`
	Stages   [][]string `json:"stages"`
	Warnings []string   `json:"warnings,omitempty"`
}

// NewCommand creates the validate command
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and the generated job graph",
		Annotations: map[string]string{
			"group": "workflow",
		},
		Long: `Validate loads the configuration, checks every option, assembles the
workflow and checks its job graph. Nothing is written.

Warnings are non-blocking: conditions that reference unknown contexts and
values that look like literal credentials instead of secrets references.

See also: cigen generate, cigen plan`,
		Example: `  # Example 1: Validate .cigen.yaml
  cigen validate

  # Example 2: Validate with JSON output for parsing
  cigen validate --json | jq '.result.stages'`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}
	wf, err := generator.New(shared.Logger(cmd)).Build(cfg)
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}
	stages, err := pipeline.Stages(wf)
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}

	summary := Summary{
		Name:     wf.Name,
		Path:     generator.Path(cfg),
		Jobs:     wf.JobIDs(),
		Stages:   stages,
		Warnings: append(lintConditions(wf), pipeline.DetectEmbeddedCredentials(wf)...),
	}

	if shared.GetJSON() {
		return output.EmitSuccess(cmd.OutOrStdout(), cmd.Name(), summary)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Validation Results:")
	fmt.Fprintln(out, "  "+shared.RenderOK("Configuration valid"))
	fmt.Fprintln(out, "  "+shared.RenderOK(fmt.Sprintf("Job graph valid (%d jobs in %d stages)", len(summary.Jobs), len(stages))))
	fmt.Fprintln(out, "  "+shared.RenderLabel("Output: "+summary.Path))
	if len(summary.Warnings) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range summary.Warnings {
			fmt.Fprintln(out, "  "+shared.RenderWarn(w))
		}
		fmt.Fprintln(out, "\nNote: Warnings are non-blocking but should be reviewed.")
	}
	return nil
}

// lintConditions compiles every job and step condition of wf.
func lintConditions(wf *pipeline.Workflow) []string {
	var warnings []string
	for _, job := range wf.Jobs {
		if job.If != nil {
			if err := expression.Lint(job.If.String()); err != nil {
				warnings = append(warnings, fmt.Sprintf("job %s: %v", job.ID, err))
			}
		}
		for _, step := range job.AllSteps() {
			if step.If == nil {
				continue
			}
			if err := expression.Lint(step.If.String()); err != nil {
				warnings = append(warnings, fmt.Sprintf("job %s step %q: %v", job.ID, step.Name, err))
			}
		}
	}
	return warnings
}
