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

package render

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/cigen/internal/commands/shared"
	"github.com/tombee/cigen/internal/jq"
	"github.com/tombee/cigen/internal/output"
	"github.com/tombee/cigen/pkg/generator"
	pipelinerender "github.com/tombee/cigen/pkg/pipeline/render"
)

// NewCommand creates the render command
func NewCommand() *cobra.Command {
	var (
		query   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the generated workflow without writing it",
		Annotations: map[string]string{
			"group": "workflow",
		},
		Long: `Render prints the document that generate would write, header included.

With --query the document is passed through a jq expression and every value
it produces is printed as YAML (or as a JSON array with --json).

See also: cigen generate, cigen plan`,
		Example: `  # Example 1: Preview the workflow
  cigen render

  # Example 2: List the job ids
  cigen render --query '.jobs | keys_unsorted'

  # Example 3: Show the test matrix as JSON
  cigen render --query '.jobs.test.strategy.matrix' --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, query, timeout)
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "jq expression applied to the document")
	cmd.Flags().DurationVar(&timeout, "query-timeout", jq.DefaultTimeout, "Maximum time a query may run")

	return cmd
}

func runRender(cmd *cobra.Command, query string, timeout time.Duration) error {
	executor := jq.NewExecutor(timeout)
	if err := executor.Validate(query); err != nil {
		return shared.Fail(cmd, err, nil)
	}

	cfg, err := shared.LoadConfig()
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}
	wf, err := generator.New(shared.Logger(cmd)).Build(cfg)
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}

	out := cmd.OutOrStdout()
	if query == "" && !shared.GetJSON() {
		data, err := pipelinerender.Marshal(wf)
		if err != nil {
			return shared.Fail(cmd, err, nil)
		}
		_, err = out.Write(data)
		return err
	}

	doc, err := pipelinerender.Value(wf)
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	results, err := executor.Execute(ctx, query, doc)
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}

	if shared.GetJSON() {
		return output.EmitSuccess(out, cmd.Name(), results)
	}
	for _, v := range results {
		if s, ok := v.(string); ok {
			fmt.Fprintln(out, s)
			continue
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	}
	return nil
}
