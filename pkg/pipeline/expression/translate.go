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
	"strings"
	"unicode"
)

// functionAliases maps runner function names to their evaluator equivalents.
// "contains" and "startsWith" are reserved operators in expr.
var functionAliases = map[string]string{
	"contains":   "has",
	"startsWith": "hasPrefix",
	"endsWith":   "hasSuffix",
}

// Unwrap removes a surrounding ${{ }} wrapper, if any.
func Unwrap(expression string) string {
	s := strings.TrimSpace(expression)
	if strings.HasPrefix(s, "${{") && strings.HasSuffix(s, "}}") {
		return strings.TrimSpace(s[3 : len(s)-2])
	}
	return s
}

// Translate rewrites a runner expression into expr syntax. String literals
// are preserved apart from their escape convention.
func Translate(expression string) string {
	src := []rune(Unwrap(expression))
	var out strings.Builder

	for i := 0; i < len(src); {
		r := src[i]
		switch {
		case r == '\'':
			i = copyString(&out, src, i)

		case isIdentStart(r):
			afterDot := lastNonSpace(out.String()) == '.'
			j := i + 1
			for j < len(src) && (isIdentPart(src[j]) || (afterDot && src[j] == '-' && j+1 < len(src) && isIdentPart(src[j+1]))) {
				j++
			}
			ident := string(src[i:j])
			switch {
			case afterDot && strings.Contains(ident, "-"):
				trimmed := strings.TrimRightFunc(out.String(), unicode.IsSpace)
				out.Reset()
				out.WriteString(strings.TrimSuffix(trimmed, "."))
				out.WriteString(`["` + ident + `"]`)
			case !afterDot && ident == "null":
				out.WriteString("nil")
			case !afterDot && nextNonSpace(src, j) == '(' && functionAliases[ident] != "":
				out.WriteString(functionAliases[ident])
			default:
				out.WriteString(ident)
			}
			i = j

		case unicode.IsDigit(r):
			j := i
			for j < len(src) && (unicode.IsDigit(src[j]) || unicode.IsLetter(src[j]) || src[j] == '.' || src[j] == '_') {
				j++
			}
			out.WriteString(string(src[i:j]))
			i = j

		default:
			out.WriteRune(r)
			i++
		}
	}
	return out.String()
}

// copyString copies the single-quoted literal starting at src[start],
// converting the runner's '' escape, and returns the index after it.
func copyString(out *strings.Builder, src []rune, start int) int {
	out.WriteRune('\'')
	i := start + 1
	for i < len(src) {
		switch {
		case src[i] == '\'' && i+1 < len(src) && src[i+1] == '\'':
			out.WriteString(`\'`)
			i += 2
		case src[i] == '\'':
			out.WriteRune('\'')
			return i + 1
		case src[i] == '\\':
			out.WriteString(`\\`)
			i++
		default:
			out.WriteRune(src[i])
			i++
		}
	}
	// Unterminated literal; leave it for the compiler to report.
	return i
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lastNonSpace(s string) rune {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	if s == "" {
		return 0
	}
	r := []rune(s)
	return r[len(r)-1]
}

func nextNonSpace(src []rune, from int) rune {
	for i := from; i < len(src); i++ {
		if !unicode.IsSpace(src[i]) {
			return src[i]
		}
	}
	return 0
}
