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

package expression

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/tombee/cigen/pkg/errors"
	"github.com/tombee/cigen/pkg/pipeline/condition"
)

// Evaluator evaluates condition expressions against a runner context.
// It caches compiled expressions and is safe for concurrent use.
type Evaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

// New creates a new expression evaluator.
func New() *Evaluator {
	return &Evaluator{
		cache: make(map[string]*vm.Program),
	}
}

// functions are available to every expression.
var functions = map[string]interface{}{
	"has":      containsFunc,
	"includes": containsFunc,
	"length":   lenFunc,
}

// Evaluate evaluates a runner expression against ctx and returns its
// boolean result. An empty expression is true.
//
// Example:
//
//	ctx := Context{EventName: "push", Matrix: map[string]string{"java": "11"}}.Map()
//	ok, err := eval.Evaluate(`github.event_name != 'pull_request'`, ctx)
func (e *Evaluator) Evaluate(expression string, ctx map[string]interface{}) (bool, error) {
	if strings.TrimSpace(Unwrap(expression)) == "" {
		return true, nil
	}

	program, err := e.compile(expression)
	if err != nil {
		return false, &errors.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("failed to compile expression: %s", err.Error()),
			Suggestion: "check expression syntax and ensure all referenced contexts exist",
		}
	}

	evalCtx := make(map[string]interface{}, len(ctx)+len(functions))
	for k, v := range ctx {
		evalCtx[k] = v
	}
	for k, v := range functions {
		evalCtx[k] = v
	}

	result, err := expr.Run(program, evalCtx)
	if err != nil {
		return false, &errors.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("expression evaluation failed: %s", err.Error()),
			Suggestion: "verify that all referenced contexts exist for this event",
		}
	}

	boolResult, ok := result.(bool)
	if !ok {
		return false, &errors.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("expression must return boolean, got %T (%v)", result, result),
			Suggestion: "use comparison operators (==, !=) or boolean functions",
		}
	}
	return boolResult, nil
}

// EvaluateCondition evaluates a condition tree. A nil condition is true.
func (e *Evaluator) EvaluateCondition(n *condition.Node, ctx map[string]interface{}) (bool, error) {
	if n == nil {
		return true, nil
	}
	return e.Evaluate(n.String(), ctx)
}

// compile translates and compiles an expression and caches the result.
func (e *Evaluator) compile(expression string) (*vm.Program, error) {
	e.mu.RLock()
	if prog, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	prog, err := expr.Compile(Translate(expression),
		expr.Env(functions),
		// contexts are supplied at runtime
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[expression] = prog
	e.mu.Unlock()

	return prog, nil
}

// ClearCache clears the expression cache.
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string]*vm.Program)
	e.mu.Unlock()
}

// CacheSize returns the number of cached expressions.
func (e *Evaluator) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// KnownContexts are the top-level names a runner expression may reference.
var KnownContexts = []string{
	"env", "github", "inputs", "job", "matrix", "needs", "runner", "secrets", "steps", "strategy", "vars",
}

var contextPattern = regexp.MustCompile(`(^|[^.\w'])([a-zA-Z_][a-zA-Z0-9_]*)\s*(\.|\[)`)

// Lint compiles expression and checks that it only references known
// contexts. It does not evaluate anything.
func Lint(expression string) error {
	if strings.TrimSpace(Unwrap(expression)) == "" {
		return nil
	}

	if _, err := expr.Compile(Translate(expression),
		expr.Env(functions),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	); err != nil {
		return &errors.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("invalid expression %q: %s", Unwrap(expression), err.Error()),
			Suggestion: "check expression syntax",
		}
	}

	known := make(map[string]bool, len(KnownContexts))
	for _, c := range KnownContexts {
		known[c] = true
	}

	unknown := make(map[string]bool)
	for _, m := range contextPattern.FindAllStringSubmatch(stripStrings(Unwrap(expression)), -1) {
		if !known[m[2]] {
			unknown[m[2]] = true
		}
	}
	if len(unknown) > 0 {
		names := make([]string, 0, len(unknown))
		for n := range unknown {
			names = append(names, n)
		}
		sort.Strings(names)
		return &errors.ValidationError{
			Field:      "expression",
			Message:    fmt.Sprintf("expression references unknown context(s): %s", strings.Join(names, ", ")),
			Suggestion: fmt.Sprintf("use one of: %s", strings.Join(KnownContexts, ", ")),
		}
	}
	return nil
}

// stripStrings blanks out single-quoted literals so their content is never
// mistaken for a context reference.
func stripStrings(s string) string {
	var out strings.Builder
	quoted := false
	for _, r := range s {
		if r == '\'' {
			quoted = !quoted
			out.WriteRune(r)
			continue
		}
		if quoted {
			out.WriteRune(' ')
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}
