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

package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/cigen/pkg/pipeline"
	"github.com/tombee/cigen/pkg/pipeline/actions"
	"github.com/tombee/cigen/pkg/pipeline/condition"
	"github.com/tombee/cigen/pkg/pipeline/matrix"
)

func testOptions() Options {
	return Options{
		Name:             "CI",
		RunsOn:           "ubuntu-latest",
		BuildTool:        actions.BuildTool{Command: "sbt"},
		Tasks:            DefaultTasks(),
		JavaDistribution: "temurin",
		DefaultJava:      "17",
		NodeVersion:      "16.x",
		Versions:         matrix.NewVersionMatrix(map[string][]string{"core": {"2.13", "3.3"}}),
		Candidates:       []string{"8", "11", "17"},
		CheckCommand:     "cigen check",
		DocsEnabled:      true,
		DocsVersioning:   DocsSemantic,
	}
}

func stepNames(job *pipeline.Job) []string {
	var names []string
	for _, s := range job.AllSteps() {
		names = append(names, s.Name)
	}
	return names
}

func findStep(job *pipeline.Job, name string) *pipeline.SingleStep {
	for _, s := range job.AllSteps() {
		if s.Name == name {
			return s
		}
	}
	return nil
}

func TestAssemble_JobGraph(t *testing.T) {
	wf, err := Assemble(testOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{
		JobBuild, JobLint, JobTest, JobCI, JobRelease, JobPublishDocs, JobGenerateReadme,
	}, wf.JobIDs())

	stages, err := pipeline.Stages(wf)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{JobBuild, JobLint, JobTest},
		{JobCI, JobRelease},
		{JobPublishDocs, JobGenerateReadme},
	}, stages)

	ci, _ := wf.Job(JobCI)
	assert.Equal(t, []string{JobBuild, JobLint, JobTest}, ci.Needs)
	assert.Equal(t, []string{"Report successful build"}, stepNames(ci))
}

func TestAssemble_TriggersAndEnv(t *testing.T) {
	opts := testOptions()
	opts.Branches = []string{"main", "series/2.x"}
	opts.Env = pipeline.Env{{Name: "SBT_OPTS", Value: "-Xmx4g"}}

	wf, err := Assemble(opts)
	require.NoError(t, err)

	require.Len(t, wf.Triggers, 4)
	assert.Equal(t, pipeline.TriggerWorkflowDispatch, wf.Triggers[0].Kind)
	assert.Equal(t, []string{"published"}, wf.Triggers[1].Types)
	assert.Equal(t, []string{"main", "series/2.x"}, wf.Triggers[2].Branches)
	assert.Equal(t, []string{"gh-pages"}, wf.Triggers[3].BranchesIgnore)

	assert.Equal(t, pipeline.Env{
		{Name: "JDK_JAVA_OPTIONS", Value: "-XX:+PrintCommandLineFlags"},
		{Name: "SBT_OPTS", Value: "-Xmx4g"},
	}, wf.Env)
}

func TestAssemble_BuildJob(t *testing.T) {
	wf, err := Assemble(testOptions())
	require.NoError(t, err)

	build, _ := wf.Job(JobBuild)
	assert.True(t, build.ContinueOnError)
	assert.Equal(t, []string{
		"Git Checkout", "Setup Scala", "Cache Dependencies",
		"Check if the workflow is up to date",
		"Check artifacts build process",
		"Check website build process",
	}, stepNames(build))
	assert.Equal(t, "cigen check", findStep(build, "Check if the workflow is up to date").Run)
	assert.Equal(t, "sbt +publishLocal", findStep(build, "Check artifacts build process").Run)

	setup := findStep(build, "Setup Scala")
	v, _ := setup.With.Get("java-version")
	assert.Equal(t, "17", v)
}

func TestAssemble_ArtifactCheck(t *testing.T) {
	t.Run("skipped", func(t *testing.T) {
		opts := testOptions()
		opts.ArtifactCheck = ArtifactCheck{Skip: true}
		wf, err := Assemble(opts)
		require.NoError(t, err)
		build, _ := wf.Job(JobBuild)
		assert.Nil(t, findStep(build, "Check artifacts build process"))
	})

	t.Run("overridden", func(t *testing.T) {
		opts := testOptions()
		opts.ArtifactCheck = ArtifactCheck{Name: "Package", Run: "sbt package"}
		wf, err := Assemble(opts)
		require.NoError(t, err)
		build, _ := wf.Job(JobBuild)
		step := findStep(build, "Package")
		require.NotNil(t, step)
		assert.Equal(t, "sbt package", step.Run)
	})
}

func TestAssemble_ReleaseGuardedAgainstPullRequests(t *testing.T) {
	wf, err := Assemble(testOptions())
	require.NoError(t, err)

	release, _ := wf.Job(JobRelease)
	assert.Equal(t, "github.event_name != 'pull_request'", release.If.String())

	step := findStep(release, "Release")
	require.NotNil(t, step)
	assert.Equal(t, "sbt ci-release", step.Run)
	v, ok := step.Env.Get("SONATYPE_PASSWORD")
	assert.True(t, ok)
	assert.Equal(t, "${{ secrets.SONATYPE_PASSWORD }}", v)
}

func TestAssemble_PublishDocs(t *testing.T) {
	t.Run("semantic", func(t *testing.T) {
		wf, err := Assemble(testOptions())
		require.NoError(t, err)
		docs, ok := wf.Job(JobPublishDocs)
		require.True(t, ok)
		assert.Equal(t, []string{JobRelease}, docs.Needs)
		assert.Equal(t,
			"github.event_name == 'release' && github.event.action == 'published' || github.event_name == 'workflow_dispatch'",
			docs.If.String())
		assert.Equal(t, "sbt docs/publishToNpm", findStep(docs, "Publish Docs to NPM Registry").Run)
	})

	t.Run("hash versioning", func(t *testing.T) {
		opts := testOptions()
		opts.DocsVersioning = DocsHash
		wf, err := Assemble(opts)
		require.NoError(t, err)
		docs, _ := wf.Job(JobPublishDocs)
		assert.Equal(t, "sbt docs/publishHashverToNpm", findStep(docs, "Publish Docs to NPM Registry").Run)
	})

	t.Run("disabled", func(t *testing.T) {
		opts := testOptions()
		opts.DocsEnabled = false
		wf, err := Assemble(opts)
		require.NoError(t, err)
		_, ok := wf.Job(JobPublishDocs)
		assert.False(t, ok)
		assert.NoError(t, pipeline.Validate(wf))
	})
}

func TestAssemble_GenerateReadmeCondition(t *testing.T) {
	wf, err := Assemble(testOptions())
	require.NoError(t, err)
	readme, _ := wf.Job(JobGenerateReadme)
	assert.True(t, condition.Equal(
		condition.Or(condition.IsPush(), condition.IsReleasePublished()),
		readme.If,
	))

	opts := testOptions()
	opts.ReadmeCondition = condition.IsManualDispatch()
	wf, err = Assemble(opts)
	require.NoError(t, err)
	readme, _ = wf.Job(JobGenerateReadme)
	assert.Equal(t, "github.event_name == 'workflow_dispatch'", readme.If.String())

	checkout := readme.AllSteps()[0]
	ref, _ := checkout.With.Get("ref")
	assert.Equal(t, "${{ github.head_ref }}", ref)
}

func TestAssemble_ProvisioningComesFirst(t *testing.T) {
	opts := testOptions()
	opts.SwapSizeGB = 7

	wf, err := Assemble(opts)
	require.NoError(t, err)

	for _, job := range wf.Jobs {
		steps := job.AllSteps()
		require.NotEmpty(t, steps, job.ID)
		assert.Equal(t, "Set Swap Space", steps[0].Name, job.ID)
		size, _ := steps[0].With.Get("swap-size-gb")
		assert.Equal(t, "7", size)
	}
}

func TestAssemble_TestJobUsesMatrixPlatform(t *testing.T) {
	wf, err := Assemble(testOptions())
	require.NoError(t, err)

	test, _ := wf.Job(JobTest)
	require.NotNil(t, test.Strategy)
	setup := findStep(test, "Setup Scala")
	v, _ := setup.With.Get("java-version")
	assert.Equal(t, "${{ matrix.java }}", v)
}

func TestAssemble_InvalidMatrix(t *testing.T) {
	opts := testOptions()
	opts.Versions = nil
	_, err := Assemble(opts)
	require.Error(t, err)
}

func TestAssemble_NoCredentialsInOutput(t *testing.T) {
	wf, err := Assemble(testOptions())
	require.NoError(t, err)
	assert.Empty(t, pipeline.DetectEmbeddedCredentials(wf))
}
