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

package plan

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/cigen/internal/commands/shared"
	"github.com/tombee/cigen/internal/output"
	"github.com/tombee/cigen/pkg/generator"
	"github.com/tombee/cigen/pkg/pipeline/expression"
	"github.com/tombee/cigen/pkg/plan"
)

// Result is the JSON result of the plan command.
type Result struct {
	*plan.Plan
	Instances map[string][]plan.Instance `json:"instances,omitempty"`
}

// NewCommand creates the plan command
func NewCommand() *cobra.Command {
	var (
		event  expression.Context
		matrix bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show which jobs would run for an event",
		Annotations: map[string]string{
			"group": "workflow",
		},
		Long: `Plan simulates the generated workflow for a triggering event. Job
conditions are evaluated against a synthetic github context; jobs whose
condition is false, or that need a skipped job, are skipped. The remaining
jobs are listed by dependency stage.

With --matrix every matrix instance of the running jobs is listed together
with the steps it would execute.

See also: cigen render`,
		Example: `  # Example 1: Pull request build
  cigen plan --event pull_request

  # Example 2: Published release, with matrix instances
  cigen plan --event release --action published --matrix

  # Example 3: Push to a branch
  cigen plan --event push --ref refs/heads/main`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, event, matrix)
		},
	}

	cmd.Flags().StringVar(&event.EventName, "event", "push", "Triggering event name")
	cmd.Flags().StringVar(&event.Action, "action", "", "Event activity type, e.g. published")
	cmd.Flags().StringVar(&event.Ref, "ref", "", "Value of github.ref")
	cmd.Flags().StringVar(&event.HeadRef, "head-ref", "", "Value of github.head_ref")
	cmd.Flags().BoolVar(&matrix, "matrix", false, "List matrix instances of running jobs")

	return cmd
}

func runPlan(cmd *cobra.Command, event expression.Context, matrix bool) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}
	wf, err := generator.New(shared.Logger(cmd)).Build(cfg)
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}

	planner := plan.New()
	p, err := planner.Build(wf, event)
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}

	res := Result{Plan: p}
	if matrix {
		res.Instances = make(map[string][]plan.Instance)
		for _, id := range p.Running() {
			job, _ := wf.Job(id)
			if job.Strategy == nil {
				continue
			}
			instances, err := planner.ExpandMatrix(job, event)
			if err != nil {
				return shared.Fail(cmd, err, nil)
			}
			res.Instances[id] = instances
		}
	}

	if shared.GetJSON() {
		return output.EmitSuccess(cmd.OutOrStdout(), cmd.Name(), res)
	}
	printPlan(cmd.OutOrStdout(), res)
	return nil
}

func printPlan(w io.Writer, res Result) {
	event := res.Event
	if res.Action != "" {
		event += " (" + res.Action + ")"
	}
	fmt.Fprintln(w, shared.RenderHeader(fmt.Sprintf("%s on %s", res.Workflow, event)))

	for i, ids := range res.Stages {
		fmt.Fprintf(w, "%s %s\n", shared.RenderLabel(fmt.Sprintf("Stage %d:", i+1)), strings.Join(ids, ", "))
		for _, id := range ids {
			for _, inst := range res.Instances[id] {
				values := make([]string, 0, len(inst.Values))
				for _, v := range inst.Values {
					values = append(values, v.Name+"="+v.Value)
				}
				fmt.Fprintf(w, "  %s [%s]: %s\n", id, strings.Join(values, " "), strings.Join(inst.Steps, ", "))
			}
		}
	}

	var skipped []plan.JobPlan
	for _, j := range res.Jobs {
		if !j.WillRun {
			skipped = append(skipped, j)
		}
	}
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintln(w, shared.RenderLabel("Skipped:"))
	for _, j := range skipped {
		reason := "needs " + j.SkippedBecause
		if j.SkippedBecause == "" && j.Condition != nil {
			reason = "condition is false: " + j.Condition.Expression
		}
		fmt.Fprintln(w, shared.RenderInfo(fmt.Sprintf("%s (%s)", j.ID, reason)))
	}
}
