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

// Context describes one simulated run: the triggering event and, for matrix
// jobs, the values of the current instance.
type Context struct {
	// EventName is reported as github.event_name, e.g. "push"
	EventName string

	// Action is the activity type, reported as github.event.action
	Action string

	// Ref and HeadRef are reported as github.ref and github.head_ref
	Ref     string
	HeadRef string

	// Matrix holds the axis values of the current instance
	Matrix map[string]string
}

// WithMatrix returns a copy of c bound to one matrix instance.
func (c Context) WithMatrix(values map[string]string) Context {
	c.Matrix = values
	return c
}

// Map converts c into the nested evaluation context.
func (c Context) Map() map[string]interface{} {
	matrix := make(map[string]interface{}, len(c.Matrix))
	for k, v := range c.Matrix {
		matrix[k] = v
	}
	return map[string]interface{}{
		"github": map[string]interface{}{
			"event_name": c.EventName,
			"ref":        c.Ref,
			"head_ref":   c.HeadRef,
			"event": map[string]interface{}{
				"action": c.Action,
			},
		},
		"matrix":  matrix,
		"env":     map[string]interface{}{},
		"secrets": map[string]interface{}{},
		"vars":    map[string]interface{}{},
	}
}
