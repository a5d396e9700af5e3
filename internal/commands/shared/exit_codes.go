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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tombee/cigen/internal/output"
	pkgerrors "github.com/tombee/cigen/pkg/errors"
)

// Exit codes for cigen commands
const (
	ExitSuccess       = 0
	ExitFailure       = 1 // drift or any unclassified failure
	ExitInvalidConfig = 2
	ExitWriteError    = 3
	ExitToolError     = 4
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error

	// Silent suppresses printing, set when the error was already reported
	// through the JSON envelope
	Silent bool
}

func (e *ExitError) Error() string {
	switch {
	case e.Message != "" && e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	case e.Cause != nil:
		return e.Cause.Error()
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// ExitCodeFor classifies err into a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	switch pkgerrors.Category(err) {
	case "config", "validation", "not_found":
		return ExitInvalidConfig
	case "write":
		return ExitWriteError
	case "external_tool":
		return ExitToolError
	}
	return ExitFailure
}

// Fail reports err for cmd and returns the error the command should return.
// In JSON mode the error envelope is written to stdout, with result attached
// when non-nil, and the returned error is silent.
func Fail(cmd *cobra.Command, err error, result interface{}) error {
	exitErr := &ExitError{Code: ExitCodeFor(err), Cause: err}
	if GetJSON() {
		if emitErr := output.EmitError(cmd.OutOrStdout(), cmd.Name(), JSONErrors(err), result); emitErr != nil {
			return emitErr
		}
		exitErr.Silent = true
	}
	return exitErr
}

// HandleExitError prints err and exits with the appropriate code
func HandleExitError(err error) {
	if err == nil {
		return
	}
	os.Exit(reportError(os.Stderr, err))
}

// reportError writes err and its suggestion to w and returns the exit code.
func reportError(w io.Writer, err error) int {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.Silent {
		fmt.Fprintln(w, RenderError("Error: "+err.Error()))
		printUserVisibleSuggestion(w, err)
	}
	return ExitCodeFor(err)
}

// printUserVisibleSuggestion checks if an error implements UserVisibleError
// and prints the suggestion if available.
func printUserVisibleSuggestion(w io.Writer, err error) {
	var userErr pkgerrors.UserVisibleError
	if !errors.As(err, &userErr) || !userErr.IsUserVisible() {
		return
	}
	if suggestion := userErr.Suggestion(); suggestion != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", suggestion)
	}
}
