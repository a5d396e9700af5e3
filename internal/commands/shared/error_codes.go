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

	"github.com/tombee/cigen/internal/output"
	pkgerrors "github.com/tombee/cigen/pkg/errors"
)

// Error codes for structured JSON output
const (
	// Configuration errors (E001-E099)
	ErrorCodeInvalidConfig  = "E001" // Invalid configuration value
	ErrorCodeInvalidGraph   = "E002" // Job graph violation
	ErrorCodeConfigNotFound = "E003" // Config file not found

	// Drift errors (E100-E199)
	ErrorCodeDrift = "E101" // Persisted workflow differs from generated

	// Output errors (E200-E299)
	ErrorCodeWriteFailed = "E201" // Workflow could not be written

	// Tool errors (E300-E399)
	ErrorCodeToolFailed = "E301" // External tool failed

	// Other errors (E400-E499)
	ErrorCodeInternal = "E401" // Unclassified failure
)

// JSONErrors converts err into envelope entries. Validation failures are
// expanded into one entry per field.
func JSONErrors(err error) []output.Error {
	var verrs pkgerrors.ValidationErrors
	if errors.As(err, &verrs) {
		code := ErrorCodeInvalidConfig
		var cfgErr *pkgerrors.ConfigError
		if errors.As(err, &cfgErr) && cfgErr.Key == "jobs" {
			code = ErrorCodeInvalidGraph
		}
		out := make([]output.Error, 0, len(verrs))
		for _, ve := range verrs {
			out = append(out, output.Error{
				Code:       code,
				Message:    ve.Message,
				Field:      ve.Field,
				Suggestion: ve.Suggestion,
			})
		}
		return out
	}

	entry := output.Error{Code: errorCode(err), Message: err.Error()}
	var ve *pkgerrors.ValidationError
	if errors.As(err, &ve) {
		entry.Field = ve.Field
		entry.Message = ve.Message
		entry.Suggestion = ve.Suggestion
	}
	var de *pkgerrors.DriftError
	if errors.As(err, &de) {
		entry.Path = de.Path
	}
	var we *pkgerrors.WriteError
	if errors.As(err, &we) {
		entry.Path = we.Path
	}
	var userErr pkgerrors.UserVisibleError
	if errors.As(err, &userErr) && entry.Suggestion == "" {
		entry.Suggestion = userErr.Suggestion()
	}
	return []output.Error{entry}
}

func errorCode(err error) string {
	switch pkgerrors.Category(err) {
	case "drift":
		return ErrorCodeDrift
	case "write":
		return ErrorCodeWriteFailed
	case "external_tool":
		return ErrorCodeToolFailed
	case "not_found":
		return ErrorCodeConfigNotFound
	case "config", "validation":
		var nf *pkgerrors.NotFoundError
		if errors.As(err, &nf) {
			return ErrorCodeConfigNotFound
		}
		return ErrorCodeInvalidConfig
	}
	return ErrorCodeInternal
}
