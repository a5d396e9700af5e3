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

// Package expression evaluates and lints runner condition expressions such as
// the ones produced by package condition.
//
// It uses the expr-lang/expr library. Runner syntax is translated before
// compilation:
//
//   - an optional ${{ }} wrapper is removed
//   - hyphenated member names become index lookups: matrix.scala-project
//     is read as matrix["scala-project"]
//   - contains(), startsWith() and endsWith() map to has(), hasPrefix()
//     and hasSuffix()
//   - null becomes nil and '' inside single-quoted strings is an escaped quote
//
// Example expressions:
//
//	github.event_name != 'pull_request'
//	github.event_name == 'release' && github.event.action == 'published'
//	matrix.java == '11' && matrix.scala == '2.13'
//	startsWith(github.ref, 'refs/tags/')
//
// The evaluator caches compiled expressions, so evaluating the same guard for
// every matrix instance of a job compiles it once.
package expression
