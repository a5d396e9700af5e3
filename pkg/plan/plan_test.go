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

package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tombee/cigen/internal/config"
	"github.com/tombee/cigen/pkg/generator"
	"github.com/tombee/cigen/pkg/pipeline"
	"github.com/tombee/cigen/pkg/pipeline/assemble"
	"github.com/tombee/cigen/pkg/pipeline/expression"
)

func workflow(t testing.TB, mutate func(*config.Config)) *pipeline.Workflow {
	t.Helper()
	cfg := config.Default()
	cfg.VersionMatrix = map[string][]string{
		"core": {"2.12", "2.13"},
		"docs": {"2.13"},
	}
	if mutate != nil {
		mutate(cfg)
	}
	wf, err := generator.New(nil).Build(cfg)
	require.NoError(t, err)
	return wf
}

func TestBuild_Events(t *testing.T) {
	wf := workflow(t, nil)

	tests := []struct {
		name   string
		event  expression.Context
		stages [][]string
	}{
		{
			name:  "push",
			event: expression.Context{EventName: "push", Ref: "refs/heads/main"},
			stages: [][]string{
				{assemble.JobBuild, assemble.JobLint, assemble.JobTest},
				{assemble.JobCI, assemble.JobRelease},
				{assemble.JobGenerateReadme},
			},
		},
		{
			name:  "pull request",
			event: expression.Context{EventName: "pull_request"},
			stages: [][]string{
				{assemble.JobBuild, assemble.JobLint, assemble.JobTest},
				{assemble.JobCI},
			},
		},
		{
			name:  "release published",
			event: expression.Context{EventName: "release", Action: "published"},
			stages: [][]string{
				{assemble.JobBuild, assemble.JobLint, assemble.JobTest},
				{assemble.JobCI, assemble.JobRelease},
				{assemble.JobPublishDocs, assemble.JobGenerateReadme},
			},
		},
		{
			name:  "release created",
			event: expression.Context{EventName: "release", Action: "created"},
			stages: [][]string{
				{assemble.JobBuild, assemble.JobLint, assemble.JobTest},
				{assemble.JobCI, assemble.JobRelease},
			},
		},
		{
			name:  "manual dispatch",
			event: expression.Context{EventName: "workflow_dispatch"},
			stages: [][]string{
				{assemble.JobBuild, assemble.JobLint, assemble.JobTest},
				{assemble.JobCI, assemble.JobRelease},
				{assemble.JobPublishDocs},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New().Build(wf, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.stages, p.Stages)
			assert.Equal(t, tt.event.EventName, p.Event)
			assert.Equal(t, wf.Name, p.Workflow)
			assert.Len(t, p.Jobs, len(wf.Jobs))
		})
	}
}

func TestBuild_SkipPropagates(t *testing.T) {
	wf := workflow(t, nil)
	p, err := New().Build(wf, expression.Context{EventName: "pull_request"})
	require.NoError(t, err)

	release, ok := p.Job(assemble.JobRelease)
	require.True(t, ok)
	assert.False(t, release.WillRun)
	assert.Equal(t, -1, release.Stage)
	require.NotNil(t, release.Condition)
	assert.False(t, release.Condition.Result)
	assert.Equal(t, "github.event_name != 'pull_request'", release.Condition.Expression)

	docs, ok := p.Job(assemble.JobPublishDocs)
	require.True(t, ok)
	assert.False(t, docs.WillRun)
	assert.Equal(t, assemble.JobRelease, docs.SkippedBecause)
	assert.Nil(t, docs.Condition, "condition of a job behind a skipped prerequisite is not evaluated")

	assert.Equal(t, []string{assemble.JobBuild, assemble.JobLint, assemble.JobTest, assemble.JobCI}, p.Running())
}

func TestBuild_ReadmeCondition(t *testing.T) {
	wf := workflow(t, func(c *config.Config) {
		c.ReadmeCondition = "${{ github.event_name == 'push' && github.ref == 'refs/heads/main' }}"
	})
	planner := New()

	p, err := planner.Build(wf, expression.Context{EventName: "push", Ref: "refs/heads/feature"})
	require.NoError(t, err)
	readme, _ := p.Job(assemble.JobGenerateReadme)
	assert.False(t, readme.WillRun)

	p, err = planner.Build(wf, expression.Context{EventName: "push", Ref: "refs/heads/main"})
	require.NoError(t, err)
	readme, _ = p.Job(assemble.JobGenerateReadme)
	assert.True(t, readme.WillRun)
	assert.Equal(t, 2, readme.Stage)
}

func TestBuild_DocsDisabled(t *testing.T) {
	wf := workflow(t, func(c *config.Config) { c.Docs.Enabled = false })
	p, err := New().Build(wf, expression.Context{EventName: "release", Action: "published"})
	require.NoError(t, err)

	_, ok := p.Job(assemble.JobPublishDocs)
	assert.False(t, ok)
	assert.Equal(t, []string{assemble.JobGenerateReadme}, p.Stages[2])
}

func TestBuild_InstanceCounts(t *testing.T) {
	wf := workflow(t, func(c *config.Config) { c.Parallel = true })
	p, err := New().Build(wf, expression.Context{EventName: "push"})
	require.NoError(t, err)

	test, _ := p.Job(assemble.JobTest)
	assert.Equal(t, 9, test.Instances)
	lint, _ := p.Job(assemble.JobLint)
	assert.Equal(t, 1, lint.Instances)
}

func TestBuild_RunningJobsFollowTheirNeeds(t *testing.T) {
	wf := workflow(t, nil)
	planner := New()

	rapid.Check(t, func(t *rapid.T) {
		event := expression.Context{
			EventName: rapid.SampledFrom([]string{"push", "pull_request", "release", "workflow_dispatch", "schedule"}).Draw(t, "event"),
			Action:    rapid.SampledFrom([]string{"", "published", "created"}).Draw(t, "action"),
		}
		p, err := planner.Build(wf, event)
		if err != nil {
			t.Fatalf("build: %v", err)
		}

		stageOf := make(map[string]int)
		for i, ids := range p.Stages {
			for _, id := range ids {
				stageOf[id] = i
			}
		}
		for _, id := range p.Running() {
			job, _ := wf.Job(id)
			for _, need := range job.Needs {
				s, ok := stageOf[need]
				if !ok {
					t.Fatalf("%s runs but its prerequisite %s does not", id, need)
				}
				if s >= stageOf[id] {
					t.Fatalf("%s (stage %d) is not after %s (stage %d)", id, stageOf[id], need, s)
				}
			}
		}
	})
}

func testJob(t *testing.T, mutate func(*config.Config)) *pipeline.Job {
	t.Helper()
	job, ok := workflow(t, mutate).Job(assemble.JobTest)
	require.True(t, ok)
	return job
}

func TestExpandMatrix_ParallelUnconstrained(t *testing.T) {
	job := testJob(t, func(c *config.Config) { c.Parallel = true })

	instances, err := New().ExpandMatrix(job, expression.Context{EventName: "push"})
	require.NoError(t, err)
	require.Len(t, instances, 9)

	first := instances[0]
	assert.Equal(t, pipeline.Env{{Name: "java", Value: "8"}, {Name: "scala-project", Value: "++2.12 core"}}, first.Values)
	last := instances[8]
	assert.Equal(t, pipeline.Env{{Name: "java", Value: "17"}, {Name: "scala-project", Value: "++2.13 docs"}}, last.Values)

	all := len(job.AllSteps())
	for _, inst := range instances {
		assert.Len(t, inst.Steps, all, "every step is unconditional")
		assert.Contains(t, inst.Steps, "Test")
	}
}

func TestExpandMatrix_ParallelWithPlatformFloor(t *testing.T) {
	job := testJob(t, func(c *config.Config) {
		c.Parallel = true
		c.PlatformMatrix = map[string]string{"core": "11"}
	})

	instances, err := New().ExpandMatrix(job, expression.Context{EventName: "push"})
	require.NoError(t, err)
	assert.Len(t, instances, job.Strategy.Combinations())

	for _, inst := range instances {
		java, _ := inst.Values.Get("java")
		assert.Contains(t, inst.Steps, "Test on Java "+java)
		for _, other := range []string{"8", "11", "17"} {
			if other != java {
				assert.NotContains(t, inst.Steps, "Test on Java "+other)
			}
		}
	}
}

func TestExpandMatrix_SequentialGroupedSteps(t *testing.T) {
	job := testJob(t, func(c *config.Config) {
		c.VersionMatrix = map[string][]string{"a": {"2.13"}, "b": {"2.12"}}
		c.PlatformMatrix = map[string]string{"a": "11"}
	})

	instances, err := New().ExpandMatrix(job, expression.Context{EventName: "push"})
	require.NoError(t, err)
	require.Len(t, instances, 6)

	steps := make(map[string][]string)
	for _, inst := range instances {
		java, _ := inst.Values.Get("java")
		scala, _ := inst.Values.Get("scala")
		steps[java+"/"+scala] = inst.Steps
	}
	assert.NotContains(t, steps["8/2.13"], "Test on Java 8, Scala 2.13")
	assert.Contains(t, steps["8/2.12"], "Test on Java 8, Scala 2.12")
	assert.Contains(t, steps["11/2.13"], "Test on Java 11, Scala 2.13")
	assert.NotContains(t, steps["11/2.13"], "Test on Java 11, Scala 2.12")
}

func TestExpandMatrix_NoStrategy(t *testing.T) {
	wf := workflow(t, nil)
	lint, _ := wf.Job(assemble.JobLint)

	instances, err := New().ExpandMatrix(lint, expression.Context{EventName: "push"})
	require.NoError(t, err)
	require.Len(t, instances, 1)
	assert.Empty(t, instances[0].Values)
	assert.Len(t, instances[0].Steps, len(lint.AllSteps()))
}
