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

package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	a, b, c := Atom("a == 1"), Atom("b == 2"), Atom("c == 3")

	tests := []struct {
		name string
		node *Node
		want string
	}{
		{"atom", a, "a == 1"},
		{"and", And(a, b), "a == 1 && b == 2"},
		{"or", Or(a, b), "a == 1 || b == 2"},
		{"and of or parenthesizes or", And(Or(a, b), c), "(a == 1 || b == 2) && c == 3"},
		{"or of and keeps precedence", Or(And(a, b), c), "a == 1 && b == 2 || c == 3"},
		{"nested or flattens", Or(a, Or(b, c)), "a == 1 || b == 2 || c == 3"},
		{"and with or on the right", And(a, Or(b, c)), "a == 1 && (b == 2 || c == 3)"},
		{"atom with operator is grouped", And(Atom("x || y"), c), "(x || y) && c == 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.String())
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, "${{ github.event_name != 'pull_request' }}", Wrap(IsNotPullRequest()))
}

func TestPublishDocsCondition(t *testing.T) {
	cond := Or(IsReleasePublished(), IsManualDispatch())
	assert.Equal(t,
		"github.event_name == 'release' && github.event.action == 'published' || github.event_name == 'workflow_dispatch'",
		cond.String())
}

func TestMatrixEquals(t *testing.T) {
	cond := And(MatrixEquals("java", "11"), MatrixEquals("scala", "2.13"))
	assert.Equal(t, "matrix.java == '11' && matrix.scala == '2.13'", cond.String())
}

func TestCombinatorsRejectNil(t *testing.T) {
	assert.Panics(t, func() { And(nil, Atom("x")) })
	assert.Panics(t, func() { Or(Atom("x"), nil) })
}

func TestEqualAndAtoms(t *testing.T) {
	x := Or(IsPush(), IsReleasePublished())
	y := Or(IsPush(), IsReleasePublished())
	assert.True(t, Equal(x, y))
	assert.False(t, Equal(x, Or(IsReleasePublished(), IsPush())))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(x, nil))

	assert.Equal(t, []string{
		"github.event_name == 'push'",
		"github.event_name == 'release'",
		"github.event.action == 'published'",
	}, Atoms(x))
}
