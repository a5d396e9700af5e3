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

// Package pipeline defines the object model of a generated CI workflow:
// triggers, jobs, steps and matrix strategies.
//
// Every mapping that ends up in the rendered document is modeled as an
// ordered slice so the output never depends on Go map iteration order.
// Values are built once by the assembler and treated as immutable afterwards.
package pipeline

import (
	"github.com/tombee/cigen/pkg/pipeline/condition"
)

// EnvVar is a single name/value pair of an ordered mapping.
type EnvVar struct {
	Name  string
	Value string
}

// Env is an ordered string mapping used for `env` and `with` blocks.
type Env []EnvVar

// Get returns the value stored under name.
func (e Env) Get(name string) (string, bool) {
	for _, v := range e {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// ActionRef references a reusable action, rendered as `uses: repo@version`.
type ActionRef struct {
	Repo    string
	Version string
}

// String renders the reference in the runner's `uses` syntax.
func (a ActionRef) String() string {
	if a.Version == "" {
		return a.Repo
	}
	return a.Repo + "@" + a.Version
}

// Step is either a SingleStep or a Sequence of steps.
type Step interface {
	// Flatten returns the single steps in execution order.
	Flatten() []*SingleStep
}

// SingleStep is one action invocation or shell command.
type SingleStep struct {
	// Name is the display name shown by the runner
	Name string

	// Uses references an action; nil for plain commands
	Uses *ActionRef

	// With holds the action's input parameters
	With Env

	// Run is the shell command, passed through verbatim
	Run string

	// Env holds step-scoped environment variables
	Env Env

	// If guards execution; nil means always
	If *condition.Node
}

// Flatten implements Step.
func (s *SingleStep) Flatten() []*SingleStep {
	return []*SingleStep{s}
}

// Sequence is an ordered group of steps that always travel together, such as
// a platform setup followed by dependency caching.
type Sequence []Step

// Flatten implements Step.
func (s Sequence) Flatten() []*SingleStep {
	var out []*SingleStep
	for _, step := range s {
		out = append(out, step.Flatten()...)
	}
	return out
}

// Axis is one named dimension of a matrix strategy.
type Axis struct {
	Name   string
	Values []string
}

// Strategy replicates a job across the cartesian product of its axes.
type Strategy struct {
	Axes     []Axis
	FailFast bool
}

// Axis returns the axis with the given name.
func (s *Strategy) Axis(name string) (Axis, bool) {
	for _, a := range s.Axes {
		if a.Name == name {
			return a, true
		}
	}
	return Axis{}, false
}

// Combinations returns the number of job instances the strategy produces.
func (s *Strategy) Combinations() int {
	if s == nil || len(s.Axes) == 0 {
		return 1
	}
	n := 1
	for _, a := range s.Axes {
		n *= len(a.Values)
	}
	return n
}

// Job is an independently schedulable unit of steps.
type Job struct {
	// ID is unique within a workflow and referenced by Needs
	ID string

	// Name is the display name
	Name string

	// RunsOn is the runner label
	RunsOn string

	// Strategy is the optional matrix fan-out
	Strategy *Strategy

	// Steps run in order
	Steps []Step

	// Needs lists prerequisite job ids in declaration order
	Needs []string

	// If guards the whole job; nil means always
	If *condition.Node

	// ContinueOnError lets the workflow succeed when this job fails
	ContinueOnError bool
}

// AllSteps returns the flattened steps of the job.
func (j *Job) AllSteps() []*SingleStep {
	return Sequence(j.Steps).Flatten()
}

// TriggerKind identifies the event that starts a workflow.
type TriggerKind string

const (
	TriggerWorkflowDispatch TriggerKind = "workflow_dispatch"
	TriggerRelease          TriggerKind = "release"
	TriggerPush             TriggerKind = "push"
	TriggerPullRequest      TriggerKind = "pull_request"
)

// Trigger is one event subscription of the workflow.
type Trigger struct {
	Kind TriggerKind

	// Types filters release activity types (release only)
	Types []string

	// Branches restricts push events to these branches (push only)
	Branches []string

	// BranchesIgnore excludes pull requests targeting these branches
	BranchesIgnore []string
}

// ManualDispatch returns a workflow_dispatch trigger.
func ManualDispatch() Trigger {
	return Trigger{Kind: TriggerWorkflowDispatch}
}

// Release returns a release trigger filtered by activity types.
func Release(types ...string) Trigger {
	return Trigger{Kind: TriggerRelease, Types: types}
}

// Push returns a push trigger filtered by branches. No branches means every branch.
func Push(branches ...string) Trigger {
	return Trigger{Kind: TriggerPush, Branches: branches}
}

// PullRequest returns a pull_request trigger ignoring the given target branches.
func PullRequest(ignore ...string) Trigger {
	return Trigger{Kind: TriggerPullRequest, BranchesIgnore: ignore}
}

// Workflow is the root aggregate; it owns its jobs exclusively.
type Workflow struct {
	Name     string
	Env      Env
	Triggers []Trigger
	Jobs     []*Job
}

// Job returns the job with the given id.
func (w *Workflow) Job(id string) (*Job, bool) {
	for _, j := range w.Jobs {
		if j.ID == id {
			return j, true
		}
	}
	return nil, false
}

// JobIDs returns job ids in declaration order.
func (w *Workflow) JobIDs() []string {
	ids := make([]string, 0, len(w.Jobs))
	for _, j := range w.Jobs {
		ids = append(ids, j.ID)
	}
	return ids
}
