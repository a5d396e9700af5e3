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

// Package output writes the versioned JSON envelope used by --json.
package output

import (
	"encoding/json"
	"io"
)

// Version is the envelope schema version.
const Version = "1.0"

// Response is the base envelope for all JSON output
type Response struct {
	Version string `json:"@version"`
	Command string `json:"command"`
	Success bool   `json:"success"`
}

// Error represents a structured error with code, message, field, and suggestion
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	Path       string `json:"path,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Emit writes response to w as indented JSON.
func Emit(w io.Writer, response interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// EmitSuccess writes a successful envelope carrying result.
func EmitSuccess(w io.Writer, command string, result interface{}) error {
	type successResponse struct {
		Response
		Result interface{} `json:"result,omitempty"`
	}
	return Emit(w, successResponse{
		Response: Response{Version: Version, Command: command, Success: true},
		Result:   result,
	})
}

// EmitError writes a failed envelope listing errs. result carries partial
// output, such as a drift report, and may be nil.
func EmitError(w io.Writer, command string, errs []Error, result interface{}) error {
	type errorResponse struct {
		Response
		Errors []Error     `json:"errors"`
		Result interface{} `json:"result,omitempty"`
	}
	return Emit(w, errorResponse{
		Response: Response{Version: Version, Command: command, Success: false},
		Errors:   errs,
		Result:   result,
	})
}
