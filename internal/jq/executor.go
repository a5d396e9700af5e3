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

// Package jq runs jq queries against generated workflow documents.
package jq

import (
	"context"
	"fmt"
	"time"

	"github.com/itchyny/gojq"

	"github.com/tombee/cigen/pkg/errors"
)

// DefaultTimeout bounds the execution time of a single query.
const DefaultTimeout = 1 * time.Second

// Executor compiles and runs jq queries with a timeout.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an executor. A zero timeout uses DefaultTimeout.
func NewExecutor(timeout time.Duration) *Executor {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Executor{timeout: timeout}
}

// Execute runs expression against data and returns every value it emits.
// An empty expression yields data unchanged. data must be built from
// map[string]any, []any and scalars, as produced by render.Value.
func (e *Executor) Execute(ctx context.Context, expression string, data any) ([]any, error) {
	if expression == "" {
		return []any{data}, nil
	}

	code, err := compile(expression)
	if err != nil {
		return nil, err
	}

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var results []any
	iter := code.RunWithContext(execCtx, data)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			if execCtx.Err() != nil {
				return nil, fmt.Errorf("query timed out after %v", e.timeout)
			}
			if halt, ok := err.(*gojq.HaltError); ok && halt.Value() == nil {
				break
			}
			return nil, fmt.Errorf("query %q failed: %w", expression, err)
		}
		results = append(results, v)
	}
	return results, nil
}

// Validate checks that expression parses and compiles.
func (e *Executor) Validate(expression string) error {
	if expression == "" {
		return nil
	}
	_, err := compile(expression)
	return err
}

func compile(expression string) (*gojq.Code, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "query",
			Message: fmt.Sprintf("invalid jq expression: %v", err),
		}
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, &errors.ValidationError{
			Field:   "query",
			Message: fmt.Sprintf("jq compilation failed: %v", err),
		}
	}
	return code, nil
}
