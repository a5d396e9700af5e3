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

package pipeline

import (
	"fmt"
)

// Stages groups job ids into dependency levels: every job in stage n only
// needs jobs from stages < n, so jobs within a stage may run in parallel.
// Within a stage, jobs keep workflow declaration order.
//
// The workflow must have passed Validate; an unresolvable graph returns an error.
func Stages(wf *Workflow) ([][]string, error) {
	level := make(map[string]int, len(wf.Jobs))
	remaining := len(wf.Jobs)

	for remaining > 0 {
		progressed := false
		for _, job := range wf.Jobs {
			if _, ok := level[job.ID]; ok {
				continue
			}
			lvl, ready := 0, true
			for _, need := range job.Needs {
				l, ok := level[need]
				if !ok {
					ready = false
					break
				}
				if l+1 > lvl {
					lvl = l + 1
				}
			}
			if ready {
				level[job.ID] = lvl
				remaining--
				progressed = true
			}
		}
		if !progressed {
			return nil, fmt.Errorf("needs graph cannot be ordered: %d job(s) unresolved", remaining)
		}
	}

	var stages [][]string
	for _, job := range wf.Jobs {
		lvl := level[job.ID]
		for len(stages) <= lvl {
			stages = append(stages, nil)
		}
		stages[lvl] = append(stages[lvl], job.ID)
	}
	return stages, nil
}

// Dependents returns the ids of jobs that directly need id, in declaration order.
func Dependents(wf *Workflow, id string) []string {
	var out []string
	for _, job := range wf.Jobs {
		for _, need := range job.Needs {
			if need == id {
				out = append(out, job.ID)
				break
			}
		}
	}
	return out
}
