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

// Package plan simulates a run of a generated workflow for a given event
// without executing anything.
//
// Job conditions are evaluated against a synthetic github context. Jobs whose
// condition is false, or that need a skipped job, are skipped; the remaining
// jobs are grouped into dependency stages. Matrix jobs can additionally be
// expanded into their instances with the steps each instance would run.
package plan

import (
	"fmt"

	"github.com/tombee/cigen/pkg/pipeline"
	"github.com/tombee/cigen/pkg/pipeline/expression"
)

// Plan is the simulated execution of a workflow for one event.
type Plan struct {
	Workflow string     `json:"workflow"`
	Event    string     `json:"event"`
	Action   string     `json:"action,omitempty"`
	Stages   [][]string `json:"stages"`
	Jobs     []JobPlan  `json:"jobs"`
}

// JobPlan describes the fate of a single job.
type JobPlan struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	WillRun   bool             `json:"will_run"`
	Stage     int              `json:"stage"`
	Condition *ConditionResult `json:"condition,omitempty"`

	// SkippedBecause names the skipped prerequisite, if any
	SkippedBecause string `json:"skipped_because,omitempty"`

	// Instances is the number of matrix instances, 1 without a strategy
	Instances int `json:"instances"`
}

// ConditionResult is the evaluation of a job or step condition.
type ConditionResult struct {
	Expression string `json:"expression"`
	Result     bool   `json:"result"`
}

// Instance is one matrix combination of a job.
type Instance struct {
	Values pipeline.Env `json:"values"`
	Steps  []string     `json:"steps"`
}

// Planner evaluates conditions with a shared evaluator.
type Planner struct {
	eval *expression.Evaluator
}

// New creates a Planner.
func New() *Planner {
	return &Planner{eval: expression.New()}
}

// Job returns the plan entry for id.
func (p *Plan) Job(id string) (JobPlan, bool) {
	for _, j := range p.Jobs {
		if j.ID == id {
			return j, true
		}
	}
	return JobPlan{}, false
}

// Running returns the ids of jobs that will run, in workflow order.
func (p *Plan) Running() []string {
	var ids []string
	for _, j := range p.Jobs {
		if j.WillRun {
			ids = append(ids, j.ID)
		}
	}
	return ids
}

// Build simulates wf for the event described by event. The workflow must
// have passed pipeline.Validate.
func (p *Planner) Build(wf *pipeline.Workflow, event expression.Context) (*Plan, error) {
	order, err := pipeline.Stages(wf)
	if err != nil {
		return nil, err
	}

	type state struct {
		run   bool
		stage int
	}
	states := make(map[string]state, len(wf.Jobs))
	results := make(map[string]JobPlan, len(wf.Jobs))
	vars := event.Map()

	for _, ids := range order {
		for _, id := range ids {
			job, _ := wf.Job(id)
			jp := JobPlan{ID: job.ID, Name: job.Name, Stage: -1, Instances: job.Strategy.Combinations()}

			stage := 0
			for _, need := range job.Needs {
				st := states[need]
				if !st.run {
					jp.SkippedBecause = need
					break
				}
				if st.stage+1 > stage {
					stage = st.stage + 1
				}
			}

			run := jp.SkippedBecause == ""
			if run && job.If != nil {
				ok, err := p.eval.EvaluateCondition(job.If, vars)
				if err != nil {
					return nil, fmt.Errorf("job %s: %w", job.ID, err)
				}
				jp.Condition = &ConditionResult{Expression: job.If.String(), Result: ok}
				run = ok
			}

			if run {
				jp.WillRun = true
				jp.Stage = stage
			}
			states[id] = state{run: run, stage: stage}
			results[id] = jp
		}
	}

	plan := &Plan{Workflow: wf.Name, Event: event.EventName, Action: event.Action}
	for _, job := range wf.Jobs {
		jp := results[job.ID]
		plan.Jobs = append(plan.Jobs, jp)
		if !jp.WillRun {
			continue
		}
		for len(plan.Stages) <= jp.Stage {
			plan.Stages = append(plan.Stages, nil)
		}
		plan.Stages[jp.Stage] = append(plan.Stages[jp.Stage], job.ID)
	}
	return plan, nil
}

// ExpandMatrix enumerates the matrix instances of job, in the order the
// runner schedules them (last axis varies fastest), with the names of the
// steps whose conditions hold for each instance.
func (p *Planner) ExpandMatrix(job *pipeline.Job, event expression.Context) ([]Instance, error) {
	combos := []pipeline.Env{nil}
	if job.Strategy != nil {
		for _, axis := range job.Strategy.Axes {
			next := make([]pipeline.Env, 0, len(combos)*len(axis.Values))
			for _, c := range combos {
				for _, v := range axis.Values {
					values := make(pipeline.Env, len(c), len(c)+1)
					copy(values, c)
					next = append(next, append(values, pipeline.EnvVar{Name: axis.Name, Value: v}))
				}
			}
			combos = next
		}
	}

	steps := job.AllSteps()
	out := make([]Instance, 0, len(combos))
	for _, values := range combos {
		vars := event.WithMatrix(matrixValues(values)).Map()
		inst := Instance{Values: values}
		for _, s := range steps {
			ok, err := p.eval.EvaluateCondition(s.If, vars)
			if err != nil {
				return nil, fmt.Errorf("job %s step %q: %w", job.ID, s.Name, err)
			}
			if ok {
				inst.Steps = append(inst.Steps, s.Name)
			}
		}
		out = append(out, inst)
	}
	return out, nil
}

func matrixValues(values pipeline.Env) map[string]string {
	m := make(map[string]string, len(values))
	for _, v := range values {
		m[v.Name] = v.Value
	}
	return m
}
