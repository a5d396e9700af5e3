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
	"errors"
	"fmt"
)

// Wrap adds context to err. If err is nil, returns nil.
//
//	if err := render(wf); err != nil {
//	    return errors.Wrap(err, "rendering workflow")
//	}
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf adds formatted context to err. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Category returns the ErrorType of the first classifier in err's chain, or
// "config" / "validation" / "not_found" for the structural error types.
// Returns "unknown" when nothing in the chain is recognized.
func Category(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorType()
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return "config"
	}
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return "validation"
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return "validation"
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return "not_found"
	}
	return "unknown"
}
