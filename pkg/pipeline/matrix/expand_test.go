package matrix

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/cigen/pkg/errors"
	"github.com/tombee/cigen/pkg/pipeline"
	"github.com/tombee/cigen/pkg/pipeline/actions"
	"github.com/tombee/cigen/pkg/pipeline/condition"
)

func baseInput() Input {
	return Input{
		JobID:      "test",
		JobName:    "Test",
		RunsOn:     "ubuntu-latest",
		Candidates: []string{"8", "11", "17"},
		BuildTool:  actions.BuildTool{Command: "sbt"},
		TestTask:   "test",
	}
}

func axes(t *testing.T, job *pipeline.Job) map[string][]string {
	t.Helper()
	require.NotNil(t, job.Strategy)
	out := make(map[string][]string)
	for _, a := range job.Strategy.Axes {
		out[a.Name] = a.Values
	}
	return out
}

func conditionalSteps(job *pipeline.Job) []*pipeline.SingleStep {
	var out []*pipeline.SingleStep
	for _, s := range job.AllSteps() {
		if s.If != nil {
			out = append(out, s)
		}
	}
	return out
}

func stepIf(job *pipeline.Job, cond string) *pipeline.SingleStep {
	for _, s := range job.AllSteps() {
		if s.If != nil && s.If.String() == cond {
			return s
		}
	}
	return nil
}

func TestExpand_ParallelWithoutConstraints(t *testing.T) {
	in := baseInput()
	in.Parallel = true
	in.Versions = NewVersionMatrix(map[string][]string{
		"core": {"2.12", "2.13"},
		"docs": {"2.13"},
	})

	job, err := Expand(in)
	require.NoError(t, err)

	want := map[string][]string{
		"java":          {"8", "11", "17"},
		"scala-project": {"++2.12 core", "++2.13 core", "++2.13 docs"},
	}
	if diff := cmp.Diff(want, axes(t, job)); diff != "" {
		t.Errorf("axes mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 9, job.Strategy.Combinations())
	assert.False(t, job.Strategy.FailFast)
	assert.Empty(t, conditionalSteps(job))

	steps := job.AllSteps()
	require.Len(t, steps, 1)
	assert.Equal(t, "sbt ${{ matrix.scala-project }}/test", steps[0].Run)
}

func TestExpand_ParallelWithConstraints(t *testing.T) {
	in := baseInput()
	in.Parallel = true
	in.Versions = NewVersionMatrix(map[string][]string{
		"core": {"2.12", "2.13"},
		"docs": {"2.13"},
	})
	in.Platforms = PlatformMatrix{"core": "11"}

	job, err := Expand(in)
	require.NoError(t, err)

	got := axes(t, job)
	assert.Equal(t, []string{"8", "11", "17"}, got["java"])
	assert.Equal(t, []string{"++2.13 docs"}, got["scala-project-java8"])
	assert.Equal(t, []string{"++2.12 core", "++2.13 core", "++2.13 docs"}, got["scala-project-java11"])
	assert.Equal(t, []string{"++2.12 core", "++2.13 core", "++2.13 docs"}, got["scala-project-java17"])
	assert.False(t, job.Strategy.FailFast)

	steps := conditionalSteps(job)
	require.Len(t, steps, 3)
	for i, p := range []string{"8", "11", "17"} {
		assert.Equal(t, "matrix.java == '"+p+"'", steps[i].If.String())
		assert.Equal(t, "sbt ${{ matrix.scala-project-java"+p+" }}/test", steps[i].Run)
	}
}

func TestExpand_ParallelWithDottedPlatforms(t *testing.T) {
	in := baseInput()
	in.Parallel = true
	in.Candidates = []string{"1.8", "11"}
	in.Versions = NewVersionMatrix(map[string][]string{
		"core": {"2.13"},
		"docs": {"2.13"},
	})
	in.Platforms = PlatformMatrix{"core": "11"}

	job, err := Expand(in)
	require.NoError(t, err)

	got := axes(t, job)
	assert.Equal(t, []string{"1.8", "11"}, got["java"], "platform values are kept verbatim")
	assert.Equal(t, []string{"++2.13 docs"}, got["scala-project-java1_8"])
	assert.Equal(t, []string{"++2.13 core", "++2.13 docs"}, got["scala-project-java11"])
	assert.NotContains(t, got, "scala-project-java1.8")

	steps := conditionalSteps(job)
	require.Len(t, steps, 2)
	assert.Equal(t, "matrix.java == '1.8'", steps[0].If.String())
	assert.Equal(t, "sbt ${{ matrix.scala-project-java1_8 }}/test", steps[0].Run)
	assert.Equal(t, "sbt ${{ matrix.scala-project-java11 }}/test", steps[1].Run)
}

func TestPlatformAxis(t *testing.T) {
	tests := map[string]string{
		"8":      "scala-project-java8",
		"1.8":    "scala-project-java1_8",
		"21-ea":  "scala-project-java21-ea",
		"17 lts": "scala-project-java17_lts",
	}
	for platform, want := range tests {
		assert.Equal(t, want, PlatformAxis(platform), platform)
	}
}

func TestExpand_ParallelConstraintExcludingEveryModule(t *testing.T) {
	in := baseInput()
	in.Parallel = true
	in.Versions = NewVersionMatrix(map[string][]string{"core": {"3.3"}})
	in.Platforms = PlatformMatrix{"core": "17"}

	job, err := Expand(in)
	require.NoError(t, err)

	got := axes(t, job)
	assert.NotContains(t, got, "scala-project-java8")
	assert.NotContains(t, got, "scala-project-java11")
	assert.Equal(t, []string{"++3.3 core"}, got["scala-project-java17"])
	assert.Len(t, conditionalSteps(job), 1)
}

func TestExpand_Sequential(t *testing.T) {
	in := baseInput()
	in.Versions = NewVersionMatrix(map[string][]string{
		"a": {"2.13"},
		"b": {"2.12"},
	})
	in.Platforms = PlatformMatrix{"a": "11"}

	job, err := Expand(in)
	require.NoError(t, err)

	got := axes(t, job)
	assert.Equal(t, []string{"8", "11", "17"}, got["java"])
	assert.Equal(t, []string{"2.13", "2.12"}, got["scala"])
	require.Len(t, job.Strategy.Axes, 2)

	assert.Nil(t, stepIf(job, "matrix.java == '8' && matrix.scala == '2.13'"), "incompatible pair must not emit a step")

	java11 := stepIf(job, "matrix.java == '11' && matrix.scala == '2.13'")
	require.NotNil(t, java11)
	assert.Equal(t, "sbt ++${{ matrix.scala }} a/test", java11.Run)

	java8 := stepIf(job, "matrix.java == '8' && matrix.scala == '2.12'")
	require.NotNil(t, java8)
	assert.Equal(t, "sbt ++${{ matrix.scala }} b/test", java8.Run)

	// 8/2.12, 11/2.13, 11/2.12, 17/2.13, 17/2.12
	assert.Len(t, conditionalSteps(job), 5)
}

func TestExpand_SequentialGroupsModules(t *testing.T) {
	in := baseInput()
	in.BuildTool = actions.BuildTool{Command: "sbt", Flags: "-J-Xmx6g"}
	in.Versions = NewVersionMatrix(map[string][]string{
		"core":    {"2.12", "2.13"},
		"streams": {"2.13"},
	})

	job, err := Expand(in)
	require.NoError(t, err)

	step := stepIf(job, "matrix.java == '17' && matrix.scala == '2.13'")
	require.NotNil(t, step)
	assert.Equal(t, "sbt -J-Xmx6g ++${{ matrix.scala }} core/test streams/test", step.Run)
}

// Platform lists other than the conventional three must be honored as given.
func TestExpand_SequentialCustomPlatforms(t *testing.T) {
	tests := []struct {
		name      string
		platforms []string
		wantSteps int
	}{
		{"two platforms", []string{"11", "21"}, 2},
		{"four platforms", []string{"8", "11", "17", "21"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.Candidates = tt.platforms
			in.Versions = NewVersionMatrix(map[string][]string{"core": {"3.3"}})
			in.Platforms = PlatformMatrix{"core": "11"}

			job, err := Expand(in)
			require.NoError(t, err)
			assert.Equal(t, tt.platforms, axes(t, job)["java"])
			assert.Len(t, conditionalSteps(job), tt.wantSteps)
		})
	}
}

func TestExpand_StepOrdering(t *testing.T) {
	in := baseInput()
	in.Parallel = true
	in.SwapSizeGB = 8
	in.Versions = NewVersionMatrix(map[string][]string{"core": {"2.13"}})
	in.Prelude = []pipeline.Step{actions.SetupPlatform("temurin", MatrixRef(AxisJava)), actions.CheckoutStep()}
	in.ExtraSteps = []pipeline.Step{&pipeline.SingleStep{Name: "Mima", Run: "sbt mimaReportBinaryIssues"}}

	job, err := Expand(in)
	require.NoError(t, err)

	var names []string
	for _, s := range job.AllSteps() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Set Swap Space", "Setup Scala", "Cache Dependencies", "Git Checkout", "Test", "Mima"}, names)

	setup := job.AllSteps()[1]
	v, _ := setup.With.Get("java-version")
	assert.Equal(t, "${{ matrix.java }}", v)
}

func TestExpand_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Input)
		field string
	}{
		{"no modules", func(in *Input) { in.Versions = nil }, "version_matrix"},
		{"module without versions", func(in *Input) {
			in.Versions = VersionMatrix{{Module: "core"}}
		}, "version_matrix.core"},
		{"empty version", func(in *Input) {
			in.Versions = VersionMatrix{{Module: "core", Versions: []string{" "}}}
		}, "version_matrix.core"},
		{"duplicate module", func(in *Input) {
			in.Versions = VersionMatrix{{Module: "core", Versions: []string{"3.3"}}, {Module: "core", Versions: []string{"2.13"}}}
		}, "version_matrix.core"},
		{"no platforms", func(in *Input) { in.Candidates = nil }, "java_platforms"},
		{"duplicate platform", func(in *Input) { in.Candidates = []string{"11", "11"} }, "java_platforms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInput()
			in.Versions = NewVersionMatrix(map[string][]string{"core": {"3.3"}})
			tt.edit(&in)

			job, err := Expand(in)
			require.Error(t, err)
			assert.Nil(t, job)

			var cfgErr *errors.ConfigError
			require.True(t, errors.As(err, &cfgErr))

			var verrs errors.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			fields := make([]string, 0, len(verrs))
			for _, ve := range verrs {
				fields = append(fields, ve.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestExpand_ConditionsAreMatrixGuards(t *testing.T) {
	in := baseInput()
	in.Versions = NewVersionMatrix(map[string][]string{"core": {"3.3"}})
	job, err := Expand(in)
	require.NoError(t, err)

	for _, s := range conditionalSteps(job) {
		assert.Equal(t, condition.KindAnd, s.If.Kind())
	}
}
