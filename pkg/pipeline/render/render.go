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

// Package render serializes a pipeline.Workflow into the runner's YAML
// document format.
//
// Output is byte-stable: keys are emitted in a fixed order, every mapping of
// the model is an ordered slice, and empty fields are omitted. Rendering the
// same workflow twice always produces identical bytes, which is what the drift
// check relies on.
package render

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/tombee/cigen/pkg/pipeline"
	"github.com/tombee/cigen/pkg/pipeline/condition"
)

// Header is prepended to every generated document.
const Header = "# This file was autogenerated using `cigen generate`.\n# Do not edit it manually; update the configuration and regenerate.\n\n"

// Marshal renders wf, prefixed with Header.
func Marshal(wf *pipeline.Workflow) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Header)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Document(wf)); err != nil {
		return nil, fmt.Errorf("failed to encode workflow: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode workflow: %w", err)
	}
	return buf.Bytes(), nil
}

// Value returns wf as generic maps and slices, shaped exactly like the
// rendered document. It is the input for query tools.
func Value(wf *pipeline.Workflow) (any, error) {
	var v any
	if err := Document(wf).Decode(&v); err != nil {
		return nil, fmt.Errorf("failed to convert workflow: %w", err)
	}
	return v, nil
}

// Document builds the YAML node tree for wf.
func Document(wf *pipeline.Workflow) *yaml.Node {
	root := mapping()
	add(root, "name", str(wf.Name))
	if len(wf.Env) > 0 {
		add(root, "env", envNode(wf.Env))
	}
	add(root, "on", triggersNode(wf.Triggers))

	jobs := mapping()
	for _, job := range wf.Jobs {
		add(jobs, job.ID, jobNode(job))
	}
	add(root, "jobs", jobs)
	return root
}

func triggersNode(triggers []pipeline.Trigger) *yaml.Node {
	on := mapping()
	for _, t := range triggers {
		body := mapping()
		if len(t.Types) > 0 {
			add(body, "types", strs(t.Types))
		}
		if len(t.Branches) > 0 {
			add(body, "branches", strs(t.Branches))
		}
		if len(t.BranchesIgnore) > 0 {
			add(body, "branches-ignore", strs(t.BranchesIgnore))
		}
		if len(body.Content) == 0 {
			body.Style = yaml.FlowStyle
		}
		add(on, string(t.Kind), body)
	}
	return on
}

func jobNode(job *pipeline.Job) *yaml.Node {
	n := mapping()
	if job.Name != "" {
		add(n, "name", str(job.Name))
	}
	add(n, "runs-on", str(job.RunsOn))
	if job.ContinueOnError {
		add(n, "continue-on-error", boolean(true))
	}
	if len(job.Needs) > 0 {
		add(n, "needs", strs(job.Needs))
	}
	if job.If != nil {
		add(n, "if", str(condition.Wrap(job.If)))
	}
	if job.Strategy != nil && len(job.Strategy.Axes) > 0 {
		add(n, "strategy", strategyNode(job.Strategy))
	}

	steps := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, s := range job.AllSteps() {
		steps.Content = append(steps.Content, stepNode(s))
	}
	add(n, "steps", steps)
	return n
}

func strategyNode(s *pipeline.Strategy) *yaml.Node {
	n := mapping()
	add(n, "fail-fast", boolean(s.FailFast))
	m := mapping()
	for _, a := range s.Axes {
		add(m, a.Name, strs(a.Values))
	}
	add(n, "matrix", m)
	return n
}

func stepNode(s *pipeline.SingleStep) *yaml.Node {
	n := mapping()
	if s.Name != "" {
		add(n, "name", str(s.Name))
	}
	if s.Uses != nil {
		add(n, "uses", str(s.Uses.String()))
	}
	if len(s.With) > 0 {
		add(n, "with", envNode(s.With))
	}
	if s.Run != "" {
		add(n, "run", str(s.Run))
	}
	if len(s.Env) > 0 {
		add(n, "env", envNode(s.Env))
	}
	if s.If != nil {
		add(n, "if", str(condition.Wrap(s.If)))
	}
	return n
}

func envNode(env pipeline.Env) *yaml.Node {
	n := mapping()
	for _, v := range env {
		add(n, v.Name, str(v.Value))
	}
	return n
}

func mapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func add(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, str(key), value)
}

// str builds a string scalar. The encoder quotes values that would otherwise
// read back as another type ("true", "17") and uses literal style for
// multi-line values.
func str(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func strs(values []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		n.Content = append(n.Content, str(v))
	}
	return n
}

func boolean(b bool) *yaml.Node {
	v := "false"
	if b {
		v = "true"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: v}
}
