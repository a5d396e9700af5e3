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

package generate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tombee/cigen/internal/commands/shared"
	"github.com/tombee/cigen/internal/filewatcher"
	"github.com/tombee/cigen/internal/log"
	"github.com/tombee/cigen/internal/output"
	"github.com/tombee/cigen/pkg/drift"
	"github.com/tombee/cigen/pkg/generator"
)

// Result is the JSON result of a generation.
type Result struct {
	Path    string   `json:"path"`
	Orphans []string `json:"orphans,omitempty"`
}

// NewCommand creates the generate command
func NewCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the workflow file from the configuration",
		Annotations: map[string]string{
			"group": "workflow",
		},
		Long: `Generate assembles the CI workflow described by the configuration and
writes it to <workflows_dir>/<name>.yml. The file is replaced atomically and
the workflows directory is created when missing.

Other workflow files carrying the autogenerated header are reported as
orphans, typically left behind after renaming the workflow.

See also: cigen check, cigen render`,
		Example: `  # Example 1: Generate from .cigen.yaml
  cigen generate

  # Example 2: Use another configuration file
  cigen generate --config ci/cigen.jsonc

  # Example 3: Regenerate whenever the configuration changes
  cigen generate --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return runWatch(cmd)
			}
			return runGenerate(cmd)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Regenerate when the configuration file changes")

	return cmd
}

func runGenerate(cmd *cobra.Command) error {
	logger := shared.Logger(cmd)
	res, err := generateOnce(cmd.Context(), logger)
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}
	return report(cmd, res)
}

func generateOnce(ctx context.Context, logger *slog.Logger) (*Result, error) {
	var res *Result
	err := log.Operation(ctx, logger, "generate", func() error {
		cfg, err := shared.LoadConfig()
		if err != nil {
			return err
		}
		path, err := generator.New(logger).Write(cfg)
		if err != nil {
			return err
		}
		orphans, err := drift.FindOrphans(cfg.WorkflowsDir, path)
		if err != nil {
			logger.Warn("failed to scan for orphaned workflows", log.Error(err))
		}
		res = &Result{Path: path, Orphans: orphans}
		return nil
	})
	return res, err
}

func report(cmd *cobra.Command, res *Result) error {
	if shared.GetJSON() {
		return output.EmitSuccess(cmd.OutOrStdout(), cmd.Name(), res)
	}
	out := cmd.OutOrStdout()
	for _, o := range res.Orphans {
		fmt.Fprintln(out, shared.RenderWarn(fmt.Sprintf("%s was generated by cigen but is no longer produced", o)))
	}
	if !shared.GetQuiet() {
		fmt.Fprintln(out, shared.RenderOK("Generated "+res.Path))
	}
	return nil
}

// runWatch generates once, then again on every configuration change until
// the command context is cancelled. Failures after the first generation are
// reported and watching continues.
func runWatch(cmd *cobra.Command) error {
	logger := shared.Logger(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	regenerate := func() {
		res, err := generateOnce(ctx, logger)
		if err != nil {
			if shared.GetJSON() {
				_ = shared.Fail(cmd, err, nil)
				return
			}
			fmt.Fprintln(cmd.ErrOrStderr(), shared.RenderError(err.Error()))
			return
		}
		if err := report(cmd, res); err != nil {
			logger.Warn("failed to report result", log.Error(err))
		}
	}

	regenerate()

	w, err := filewatcher.New(filewatcher.Config{
		Paths:    []string{shared.GetConfigPath()},
		OnChange: func(filewatcher.Event) { regenerate() },
		Logger:   logger,
	})
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}
	if !shared.GetQuiet() && !shared.GetJSON() {
		fmt.Fprintln(cmd.ErrOrStderr(), shared.RenderLabel("Watching "+shared.GetConfigPath()+" for changes. Press Ctrl+C to stop."))
	}
	return w.Run(ctx)
}
