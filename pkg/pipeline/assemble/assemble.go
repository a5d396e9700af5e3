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

// Package assemble wires the fixed multi-stage CI workflow: build, lint and
// test run in parallel; ci aggregates them as the required status check;
// release follows them; documentation publishing and README regeneration
// follow the release.
//
// The assembler is the only writer of needs edges, so job ids and edges are
// correct by construction. The result is still run through pipeline.Validate
// before it is returned.
package assemble

import (
	"github.com/tombee/cigen/pkg/errors"
	"github.com/tombee/cigen/pkg/pipeline"
	"github.com/tombee/cigen/pkg/pipeline/actions"
	"github.com/tombee/cigen/pkg/pipeline/condition"
	"github.com/tombee/cigen/pkg/pipeline/matrix"
)

// Job ids of the generated workflow.
const (
	JobBuild          = "build"
	JobLint           = "lint"
	JobTest           = "test"
	JobCI             = "ci"
	JobRelease        = "release"
	JobPublishDocs    = "publish-docs"
	JobGenerateReadme = "generate-readme"
)

// DocsVersioning selects the documentation publish command.
type DocsVersioning string

const (
	// DocsSemantic publishes docs under the release's semantic version.
	DocsSemantic DocsVersioning = "semantic"
	// DocsHash publishes docs under a content-hash version.
	DocsHash DocsVersioning = "hash"
)

// Tasks names the build-tool tasks each stage runs. They are opaque strings.
type Tasks struct {
	Lint          string
	Test          string
	Release       string
	ArtifactCheck string
	Website       string
	Readme        string
	PublishDocs   string
	PublishHashed string
}

// DefaultDocsProject is the build project that owns the documentation tasks.
const DefaultDocsProject = "docs"

// DefaultTasks returns the task names used when none are configured.
func DefaultTasks() Tasks {
	return TasksFor(DefaultDocsProject)
}

// TasksFor returns the default task names with the documentation tasks
// scoped to docsProject. An empty docsProject means DefaultDocsProject.
func TasksFor(docsProject string) Tasks {
	if docsProject == "" {
		docsProject = DefaultDocsProject
	}
	return Tasks{
		Lint:          "lint",
		Test:          "test",
		Release:       "ci-release",
		ArtifactCheck: "+publishLocal",
		Website:       docsProject + "/buildWebsite",
		Readme:        docsProject + "/generateReadme",
		PublishDocs:   docsProject + "/publishToNpm",
		PublishHashed: docsProject + "/publishHashverToNpm",
	}
}

// ArtifactCheck controls the artifact-build verification step of the build job.
type ArtifactCheck struct {
	// Skip removes the step
	Skip bool

	// Name and Run override the default step when set
	Name string
	Run  string
}

// Options holds everything the assembler needs. Build it from the project
// configuration; every field has an explicit value, no defaults are applied here.
type Options struct {
	Name     string
	RunsOn   string
	Branches []string
	Env      pipeline.Env

	BuildTool        actions.BuildTool
	Tasks            Tasks
	JavaDistribution string
	DefaultJava      string
	NodeVersion      string

	// Test matrix
	Versions   matrix.VersionMatrix
	Platforms  matrix.PlatformMatrix
	Candidates []string
	Parallel   bool
	ExtraSteps []pipeline.Step

	SwapSizeGB      int
	CheckCommand    string
	ArtifactCheck   ArtifactCheck
	DocsEnabled     bool
	DocsVersioning  DocsVersioning
	ReadmeCondition *condition.Node
}

// Assemble builds the workflow for opts.
func Assemble(opts Options) (*pipeline.Workflow, error) {
	test, err := matrix.Expand(matrix.Input{
		JobID:      JobTest,
		JobName:    "Test",
		RunsOn:     opts.RunsOn,
		Versions:   opts.Versions,
		Platforms:  opts.Platforms,
		Candidates: opts.Candidates,
		Parallel:   opts.Parallel,
		BuildTool:  opts.BuildTool,
		TestTask:   opts.Tasks.Test,
		Prelude: []pipeline.Step{
			actions.SetupPlatform(opts.JavaDistribution, matrix.MatrixRef(matrix.AxisJava)),
			actions.CheckoutStep(),
		},
		ExtraSteps: opts.ExtraSteps,
		SwapSizeGB: opts.SwapSizeGB,
	})
	if err != nil {
		return nil, err
	}

	jobs := []*pipeline.Job{
		buildJob(opts),
		lintJob(opts),
		test,
		ciJob(opts),
		releaseJob(opts),
	}
	if opts.DocsEnabled {
		jobs = append(jobs, publishDocsJob(opts))
	}
	jobs = append(jobs, generateReadmeJob(opts))

	env := append(pipeline.Env{{Name: "JDK_JAVA_OPTIONS", Value: "-XX:+PrintCommandLineFlags"}}, opts.Env...)

	wf := &pipeline.Workflow{
		Name: opts.Name,
		Env:  env,
		Triggers: []pipeline.Trigger{
			pipeline.ManualDispatch(),
			pipeline.Release("published"),
			pipeline.Push(opts.Branches...),
			pipeline.PullRequest("gh-pages"),
		},
		Jobs: jobs,
	}

	if err := pipeline.Validate(wf); err != nil {
		return nil, &errors.ConfigError{
			Key:    "jobs",
			Reason: "assembled workflow is invalid",
			Cause:  err,
		}
	}
	return wf, nil
}

func (o Options) setup() pipeline.Sequence {
	return actions.SetupPlatform(o.JavaDistribution, o.DefaultJava)
}

func (o Options) job(id, name string, steps ...pipeline.Step) *pipeline.Job {
	return &pipeline.Job{
		ID:     id,
		Name:   name,
		RunsOn: o.RunsOn,
		Steps:  actions.WithProvision(o.SwapSizeGB, steps...),
	}
}

func buildJob(o Options) *pipeline.Job {
	steps := []pipeline.Step{
		actions.CheckoutStep(),
		o.setup(),
		&pipeline.SingleStep{Name: "Check if the workflow is up to date", Run: o.CheckCommand},
	}
	if step := artifactCheckStep(o); step != nil {
		steps = append(steps, step)
	}
	steps = append(steps, &pipeline.SingleStep{
		Name: "Check website build process",
		Run:  o.BuildTool.Run(o.Tasks.Website),
	})

	job := o.job(JobBuild, "Build", steps...)
	job.ContinueOnError = true
	return job
}

func artifactCheckStep(o Options) *pipeline.SingleStep {
	ac := o.ArtifactCheck
	if ac.Skip {
		return nil
	}
	step := &pipeline.SingleStep{
		Name: "Check artifacts build process",
		Run:  o.BuildTool.Run(o.Tasks.ArtifactCheck),
	}
	if ac.Name != "" {
		step.Name = ac.Name
	}
	if ac.Run != "" {
		step.Run = ac.Run
	}
	return step
}

func lintJob(o Options) *pipeline.Job {
	return o.job(JobLint, "Lint",
		actions.CheckoutStep(),
		o.setup(),
		&pipeline.SingleStep{Name: "Lint", Run: o.BuildTool.Run(o.Tasks.Lint)},
	)
}

func ciJob(o Options) *pipeline.Job {
	job := o.job(JobCI, "ci",
		&pipeline.SingleStep{Name: "Report successful build", Run: `echo "ci passed"`},
	)
	job.Needs = []string{JobBuild, JobLint, JobTest}
	return job
}

func releaseJob(o Options) *pipeline.Job {
	job := o.job(JobRelease, "Release",
		actions.CheckoutStep(),
		o.setup(),
		&pipeline.SingleStep{
			Name: "Release",
			Run:  o.BuildTool.Run(o.Tasks.Release),
			Env: pipeline.Env{
				secret("PGP_PASSPHRASE"),
				secret("PGP_SECRET"),
				secret("SONATYPE_PASSWORD"),
				secret("SONATYPE_USERNAME"),
			},
		},
	)
	job.Needs = []string{JobBuild, JobLint, JobTest}
	job.If = condition.IsNotPullRequest()
	return job
}

func publishDocsJob(o Options) *pipeline.Job {
	task := o.Tasks.PublishDocs
	if o.DocsVersioning == DocsHash {
		task = o.Tasks.PublishHashed
	}
	job := o.job(JobPublishDocs, "Publish Docs",
		actions.CheckoutStep(),
		o.setup(),
		actions.SetupNodeStep(o.NodeVersion),
		&pipeline.SingleStep{
			Name: "Publish Docs to NPM Registry",
			Run:  o.BuildTool.Run(task),
			Env:  pipeline.Env{{Name: "NODE_AUTH_TOKEN", Value: "${{ secrets.NPM_TOKEN }}"}},
		},
	)
	job.Needs = []string{JobRelease}
	job.If = condition.Or(condition.IsReleasePublished(), condition.IsManualDispatch())
	return job
}

const commitReadme = `git config --local user.email "github-actions[bot]@users.noreply.github.com"
git config --local user.name "github-actions[bot]"
git add README.md
git commit -m "Update README.md" || echo "No changes to commit"
`

func generateReadmeJob(o Options) *pipeline.Job {
	readmeCmd := o.BuildTool.Run(o.Tasks.Readme)
	job := o.job(JobGenerateReadme, "Generate README",
		actions.CheckoutRefStep("${{ github.head_ref }}"),
		o.setup(),
		&pipeline.SingleStep{Name: "Generate Readme", Run: readmeCmd},
		&pipeline.SingleStep{Name: "Commit Changes", Run: commitReadme},
		&pipeline.SingleStep{
			Name: "Create Pull Request",
			Uses: &actions.CreatePullRequest,
			With: pipeline.Env{
				{Name: "body", Value: "Autogenerated changes after running the `" + readmeCmd + "` command."},
				{Name: "branch", Value: "cigen/update-readme"},
				{Name: "commit-message", Value: "Update README.md"},
				{Name: "delete-branch", Value: "true"},
				{Name: "title", Value: "Update README.md"},
			},
		},
	)
	job.Needs = []string{JobRelease}
	job.If = o.ReadmeCondition
	if job.If == nil {
		job.If = condition.Or(condition.IsPush(), condition.IsReleasePublished())
	}
	return job
}

func secret(name string) pipeline.EnvVar {
	return pipeline.EnvVar{Name: name, Value: "${{ secrets." + name + " }}"}
}
