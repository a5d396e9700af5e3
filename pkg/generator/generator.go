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

// Package generator turns a project configuration into the rendered workflow
// document and writes it to its artifact path.
package generator

import (
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"

	"github.com/tombee/cigen/internal/config"
	"github.com/tombee/cigen/internal/log"
	"github.com/tombee/cigen/pkg/pipeline"
	"github.com/tombee/cigen/pkg/pipeline/actions"
	"github.com/tombee/cigen/pkg/pipeline/assemble"
	"github.com/tombee/cigen/pkg/pipeline/condition"
	"github.com/tombee/cigen/pkg/pipeline/expression"
	"github.com/tombee/cigen/pkg/pipeline/matrix"
	"github.com/tombee/cigen/pkg/pipeline/render"
)

// Generator builds workflow documents. The zero value is not usable; call New.
type Generator struct {
	logger *slog.Logger
}

// New creates a Generator. A nil logger discards log output.
func New(logger *slog.Logger) *Generator {
	return &Generator{logger: log.OrDiscard(logger)}
}

// Build assembles the workflow model for cfg.
func (g *Generator) Build(cfg *config.Config) (*pipeline.Workflow, error) {
	opts := Options(cfg)
	wf, err := assemble.Assemble(opts)
	if err != nil {
		return nil, err
	}

	logger := log.WithWorkflow(g.logger, wf.Name, Path(cfg))
	for _, job := range wf.Jobs {
		log.WithJob(logger, job.ID).Debug("assembled job",
			"steps", len(job.AllSteps()),
			"instances", job.Strategy.Combinations())
	}
	for _, warning := range pipeline.DetectEmbeddedCredentials(wf) {
		logger.Warn(warning)
	}
	return wf, nil
}

// Generate renders the document for cfg, header included.
func (g *Generator) Generate(cfg *config.Config) ([]byte, error) {
	wf, err := g.Build(cfg)
	if err != nil {
		return nil, err
	}
	return render.Marshal(wf)
}

// Write generates the document for cfg and writes it to Path(cfg). It
// returns the path written.
func (g *Generator) Write(cfg *config.Config) (string, error) {
	data, err := g.Generate(cfg)
	if err != nil {
		return "", err
	}
	path := Path(cfg)
	if err := WriteFile(path, data); err != nil {
		return "", err
	}
	g.logger.Info("workflow written", log.PathKey, path, "bytes", len(data))
	return path, nil
}

// Path returns the artifact path: the workflows directory joined with the
// case-folded workflow name.
func Path(cfg *config.Config) string {
	return filepath.Join(cfg.WorkflowsDir, FileName(cfg.Name))
}

// FileName returns the artifact file name for a workflow name.
func FileName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name)) + ".yml"
}

// Options converts cfg into assembler options.
func Options(cfg *config.Config) assemble.Options {
	opts := assemble.Options{
		Name:             cfg.Name,
		RunsOn:           cfg.Runner,
		Branches:         cfg.EnabledBranches,
		Env:              toEnv(cfg.Env),
		BuildTool:        actions.BuildTool{Command: cfg.BuildTool, Flags: cfg.BuildToolFlags},
		Tasks:            tasks(cfg.Docs.Project, cfg.Tasks),
		JavaDistribution: cfg.JavaDistribution,
		DefaultJava:      cfg.DefaultJava,
		NodeVersion:      cfg.NodeVersion,
		Versions:         matrix.NewVersionMatrix(cfg.VersionMatrix),
		Platforms:        matrix.PlatformMatrix(cfg.PlatformMatrix),
		Candidates:       cfg.JavaPlatforms,
		Parallel:         cfg.Parallel,
		SwapSizeGB:       cfg.SwapSizeGB,
		CheckCommand:     cfg.CheckCommand,
		DocsEnabled:      cfg.Docs.Enabled,
		DocsVersioning:   assemble.DocsVersioning(cfg.Docs.Versioning),
	}

	if ac := cfg.ArtifactCheck; ac != nil {
		opts.ArtifactCheck = assemble.ArtifactCheck{Skip: ac.Skip, Name: ac.Name, Run: ac.Run}
	}
	if cfg.ReadmeCondition != "" {
		opts.ReadmeCondition = condition.Atom(expression.Unwrap(cfg.ReadmeCondition))
	}
	for _, s := range cfg.ExtraTestSteps {
		opts.ExtraSteps = append(opts.ExtraSteps, toStep(s))
	}
	return opts
}

func tasks(docsProject string, overrides config.TasksConfig) assemble.Tasks {
	t := assemble.TasksFor(docsProject)
	for _, o := range []struct {
		dst *string
		val string
	}{
		{&t.Lint, overrides.Lint},
		{&t.Test, overrides.Test},
		{&t.Release, overrides.Release},
		{&t.ArtifactCheck, overrides.ArtifactCheck},
		{&t.Website, overrides.Website},
		{&t.Readme, overrides.Readme},
		{&t.PublishDocs, overrides.PublishDocs},
		{&t.PublishHashed, overrides.PublishHashed},
	} {
		if o.val != "" {
			*o.dst = o.val
		}
	}
	return t
}

func toStep(s config.StepConfig) *pipeline.SingleStep {
	step := &pipeline.SingleStep{
		Name: s.Name,
		With: toEnv(s.With),
		Run:  s.Run,
		Env:  toEnv(s.Env),
	}
	if s.Uses != "" {
		ref := ParseActionRef(s.Uses)
		step.Uses = &ref
	}
	if s.If != "" {
		step.If = condition.Atom(expression.Unwrap(s.If))
	}
	return step
}

// ParseActionRef splits "owner/repo@version" into an ActionRef.
func ParseActionRef(uses string) pipeline.ActionRef {
	if i := strings.LastIndex(uses, "@"); i > 0 {
		return pipeline.ActionRef{Repo: uses[:i], Version: uses[i+1:]}
	}
	return pipeline.ActionRef{Repo: uses}
}

func toEnv(m config.OrderedMap) pipeline.Env {
	if len(m) == 0 {
		return nil
	}
	env := make(pipeline.Env, 0, len(m))
	for _, e := range m {
		env = append(env, pipeline.EnvVar{Name: e.Name, Value: e.Value})
	}
	return env
}
