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

// Package condition provides the boolean guard expressions attached to jobs
// and steps of a generated workflow.
//
// A Node is a small combinator tree over opaque predicate strings:
//
//	cond := condition.Or(condition.IsReleasePublished(), condition.IsManualDispatch())
//	cond.String() // github.event_name == 'release' && github.event.action == 'published' || github.event_name == 'workflow_dispatch'
//	condition.Wrap(cond) // ${{ ... }}
//
// Predicates are never parsed. AND binds tighter than OR in the runner's
// expression language, so an OR operand of an AND is parenthesized.
package condition

import (
	"fmt"
	"strings"
)

// Kind tags the variant held by a Node.
type Kind int

const (
	// KindAtom is a single opaque predicate.
	KindAtom Kind = iota
	// KindAnd is a conjunction of two nodes.
	KindAnd
	// KindOr is a disjunction of two nodes.
	KindOr
)

// Node is an immutable condition expression. The zero value is not valid;
// build nodes with Atom, And and Or.
type Node struct {
	kind      Kind
	predicate string
	left      *Node
	right     *Node
}

// Atom returns a leaf node holding predicate verbatim.
func Atom(predicate string) *Node {
	return &Node{kind: KindAtom, predicate: predicate}
}

// And returns a node that holds when both a and b hold.
// It panics if either operand is nil.
func And(a, b *Node) *Node {
	mustOperands("And", a, b)
	return &Node{kind: KindAnd, left: a, right: b}
}

// Or returns a node that holds when either a or b holds.
// It panics if either operand is nil.
func Or(a, b *Node) *Node {
	mustOperands("Or", a, b)
	return &Node{kind: KindOr, left: a, right: b}
}

func mustOperands(op string, a, b *Node) {
	if a == nil || b == nil {
		panic(fmt.Sprintf("condition.%s: nil operand", op))
	}
}

// Kind returns the variant of n.
func (n *Node) Kind() Kind { return n.kind }

// Predicate returns the raw predicate of an atom, or "" for combinators.
func (n *Node) Predicate() string { return n.predicate }

// Operands returns the two children of a combinator, or nils for an atom.
func (n *Node) Operands() (*Node, *Node) { return n.left, n.right }

// String renders n as a single boolean expression without the ${{ }} wrapper.
func (n *Node) String() string {
	switch n.kind {
	case KindAnd:
		return operand(n.left, KindAnd) + " && " + operand(n.right, KindAnd)
	case KindOr:
		return operand(n.left, KindOr) + " || " + operand(n.right, KindOr)
	default:
		return n.predicate
	}
}

// operand renders child as an operand of a parent combinator.
func operand(child *Node, parent Kind) string {
	switch child.kind {
	case KindAtom:
		if containsOperator(child.predicate) {
			return "(" + child.predicate + ")"
		}
		return child.predicate
	case KindOr:
		if parent == KindAnd {
			return "(" + child.String() + ")"
		}
	}
	return child.String()
}

func containsOperator(predicate string) bool {
	return strings.Contains(predicate, "&&") || strings.Contains(predicate, "||")
}

// Wrap renders n in the runner's expression syntax: ${{ expr }}.
func Wrap(n *Node) string {
	return "${{ " + n.String() + " }}"
}

// Equal reports whether a and b are structurally identical trees.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.kind != b.kind {
		return false
	}
	if a.kind == KindAtom {
		return a.predicate == b.predicate
	}
	return Equal(a.left, b.left) && Equal(a.right, b.right)
}

// Atoms returns every predicate in n in left-to-right order.
func Atoms(n *Node) []string {
	if n == nil {
		return nil
	}
	if n.kind == KindAtom {
		return []string{n.predicate}
	}
	return append(Atoms(n.left), Atoms(n.right)...)
}
