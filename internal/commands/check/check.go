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

package check

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/cigen/internal/commands/shared"
	"github.com/tombee/cigen/internal/gitdiff"
	"github.com/tombee/cigen/internal/output"
	"github.com/tombee/cigen/pkg/drift"
	pkgerrors "github.com/tombee/cigen/pkg/errors"
	"github.com/tombee/cigen/pkg/generator"
)

// NewCommand creates the check command
func NewCommand() *cobra.Command {
	var git bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fail when the workflow file is out of date",
		Annotations: map[string]string{
			"group": "workflow",
		},
		Long: `Check regenerates the workflow in memory and compares it byte for byte
with the file on disk. Nothing is written. When they differ the command prints
a unified diff and exits with status 1.

With --git the file must also be tracked and unchanged relative to the git
index, so a regenerated but uncommitted file still fails the check.

Exit codes:
  0  the workflow is up to date
  1  the workflow is out of date
  2  the configuration is invalid
  4  git could not be run

See also: cigen generate`,
		Example: `  # Example 1: Verify the workflow in CI
  cigen check

  # Example 2: Also require the workflow to be committed
  cigen check --git

  # Example 3: Machine-readable report
  cigen check --json | jq '.result.diff'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, git)
		},
	}

	cmd.Flags().BoolVar(&git, "git", false, "Also require the workflow to be committed")

	return cmd
}

func runCheck(cmd *cobra.Command, git bool) error {
	cfg, err := shared.LoadConfig()
	if err != nil {
		return shared.Fail(cmd, err, nil)
	}

	res, err := drift.New(generator.New(shared.Logger(cmd))).CheckFile(cfg)
	if err != nil {
		var de *pkgerrors.DriftError
		if errors.As(err, &de) && !shared.GetJSON() && !shared.GetQuiet() {
			fmt.Fprint(cmd.OutOrStdout(), res.Diff)
		}
		return shared.Fail(cmd, err, res)
	}

	if git {
		if err := drift.VerifyCommitted(cmd.Context(), &gitdiff.Git{}, cfg); err != nil {
			return shared.Fail(cmd, err, res)
		}
	}

	if shared.GetJSON() {
		return output.EmitSuccess(cmd.OutOrStdout(), cmd.Name(), res)
	}
	if !shared.GetQuiet() {
		fmt.Fprintln(cmd.OutOrStdout(), shared.RenderOK(res.Path+" is up to date"))
	}
	return nil
}
