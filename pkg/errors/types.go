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

package errors

import (
	"fmt"
	"strings"
)

// ValidationError represents a single constraint violation in generator input.
// Use this for malformed configuration values and for graph violations such as
// duplicate job ids, dangling needs edges or dependency cycles.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "config file", "workflow file")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigError represents configuration problems that stop generation before
// any output is produced.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "version_matrix", "java_platforms")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Key != "" {
		msg = fmt.Sprintf("config error at %s", e.Key)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ValidationErrors aggregates several validation failures so callers see every
// problem in one pass.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	parts := make([]string, 0, len(e))
	for _, ve := range e {
		parts = append(parts, ve.Error())
	}
	return fmt.Sprintf("%d validation errors: %s", len(e), strings.Join(parts, "; "))
}

// OrNil returns nil when there are no errors, so a nil slice never ends up in
// a non-nil error interface.
func (e ValidationErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// DriftError reports that the committed workflow artifact no longer matches
// what the current configuration generates.
type DriftError struct {
	// Path is the persisted artifact that was compared
	Path string

	// Diff is a unified diff from the persisted artifact to the regenerated one
	Diff string

	// Remediation tells the operator how to fix the drift
	Remediation string
}

// Error implements the error interface.
func (e *DriftError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("workflow %s is out of date", e.Path)
	}
	return "workflow is out of date"
}

// IsUserVisible implements UserVisibleError.
func (e *DriftError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *DriftError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *DriftError) Suggestion() string { return e.Remediation }

// ErrorType implements ErrorClassifier.
func (e *DriftError) ErrorType() string { return "drift" }

// IsRetryable implements ErrorClassifier. Regeneration is deterministic, so
// retrying an identical check yields an identical result.
func (e *DriftError) IsRetryable() bool { return false }

// WriteError represents a failure to persist the generated artifact.
type WriteError struct {
	// Path is the destination that could not be written
	Path string

	// Cause is the underlying filesystem error
	Cause error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *WriteError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *WriteError) ErrorType() string { return "write" }

// IsRetryable implements ErrorClassifier.
func (e *WriteError) IsRetryable() bool { return false }

// ExternalToolError represents a failure of an external program (such as git)
// that is unrelated to the content being checked.
type ExternalToolError struct {
	// Tool is the program name (e.g., "git")
	Tool string

	// Args are the arguments the tool was invoked with
	Args []string

	// ExitCode is the process exit status, or -1 if the process never ran
	ExitCode int

	// Stderr is the captured standard error output
	Stderr string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ExternalToolError) Error() string {
	msg := fmt.Sprintf("%s %s failed", e.Tool, strings.Join(e.Args, " "))
	if e.ExitCode >= 0 {
		msg = fmt.Sprintf("%s (exit %d)", msg, e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	} else if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ExternalToolError) Unwrap() error {
	return e.Cause
}

// IsUserVisible implements UserVisibleError.
func (e *ExternalToolError) IsUserVisible() bool { return true }

// UserMessage implements UserVisibleError.
func (e *ExternalToolError) UserMessage() string { return e.Error() }

// Suggestion implements UserVisibleError.
func (e *ExternalToolError) Suggestion() string {
	return fmt.Sprintf("make sure %s is installed and the command runs inside a repository; this is not a drift failure", e.Tool)
}

// ErrorType implements ErrorClassifier.
func (e *ExternalToolError) ErrorType() string { return "external_tool" }

// IsRetryable implements ErrorClassifier.
func (e *ExternalToolError) IsRetryable() bool { return false }
