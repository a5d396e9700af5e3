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

package cli

import (
	"github.com/spf13/cobra"

	"github.com/tombee/cigen/internal/commands/check"
	"github.com/tombee/cigen/internal/commands/generate"
	"github.com/tombee/cigen/internal/commands/plan"
	"github.com/tombee/cigen/internal/commands/render"
	"github.com/tombee/cigen/internal/commands/shared"
	"github.com/tombee/cigen/internal/commands/validate"
	versioncmd "github.com/tombee/cigen/internal/commands/version"
)

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	shared.SetVersion(v, c, b)
}

// NewRootCommand creates the root Cobra command for cigen with every
// subcommand registered.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cigen",
		Short: "cigen - CI workflow generator",
		Long: `cigen generates the GitHub Actions workflow of a multi-module Scala
project from a small configuration file. The build, lint and test jobs, the
cross-version test matrix, release and documentation publishing are derived
from the declared modules, versions and platforms.

Run 'cigen generate' to write the workflow and 'cigen check' in CI to fail
when the committed workflow is out of date.`,
		SilenceUsage:  true, // Don't show usage on errors
		SilenceErrors: true, // We handle errors ourselves for proper exit codes
	}

	shared.RegisterGlobalFlags(cmd)

	cmd.AddGroup(&cobra.Group{ID: "workflow", Title: "Workflow Commands:"})
	for _, sub := range []*cobra.Command{
		generate.NewCommand(),
		check.NewCommand(),
		render.NewCommand(),
		plan.NewCommand(),
		validate.NewCommand(),
	} {
		sub.GroupID = sub.Annotations["group"]
		cmd.AddCommand(sub)
	}
	cmd.AddCommand(versioncmd.NewVersionCommand())

	return cmd
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return shared.GetVersion()
}

// HandleExitError handles exit errors with proper exit codes
func HandleExitError(err error) {
	shared.HandleExitError(err)
}
