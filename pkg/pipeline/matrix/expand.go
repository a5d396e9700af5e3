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

package matrix

import (
	"fmt"
	"strings"

	"github.com/tombee/cigen/pkg/errors"
	"github.com/tombee/cigen/pkg/pipeline"
	"github.com/tombee/cigen/pkg/pipeline/actions"
	"github.com/tombee/cigen/pkg/pipeline/condition"
)

// Matrix axis names used in the generated strategy.
const (
	AxisJava         = "java"
	AxisScala        = "scala"
	AxisScalaProject = "scala-project"
)

// PlatformAxis names the per-platform project axis used when platform
// constraints are configured. Characters a runner expression cannot carry in
// a property name, such as the dot of "1.8", become underscores.
func PlatformAxis(platform string) string {
	return AxisScalaProject + "-" + AxisJava + strings.Map(axisRune, platform)
}

func axisRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		return r
	}
	return '_'
}

// Input configures an expansion.
type Input struct {
	// JobID, JobName and RunsOn identify the produced job
	JobID   string
	JobName string
	RunsOn  string

	// Versions is the module compatibility matrix
	Versions VersionMatrix

	// Platforms holds per-module platform floors; may be empty
	Platforms PlatformMatrix

	// Candidates is the ordered list of platforms to test on
	Candidates []string

	// Parallel selects fan-out over matrix axes instead of grouped steps
	Parallel bool

	// BuildTool renders the test commands
	BuildTool actions.BuildTool

	// TestTask is appended to each module, e.g. "test" gives "core/test"
	TestTask string

	// Prelude runs before the generated test steps (checkout, platform setup)
	Prelude []pipeline.Step

	// ExtraSteps run after the generated test steps, unconditionally
	ExtraSteps []pipeline.Step

	// SwapSizeGB provisions swap space as the first step when positive
	SwapSizeGB int
}

// Validate checks that the input can be expanded.
func (in Input) Validate() error {
	var errs errors.ValidationErrors

	if len(in.Versions) == 0 {
		errs = append(errs, &errors.ValidationError{
			Field:      "version_matrix",
			Message:    "no modules configured",
			Suggestion: "declare at least one module with its supported versions",
		})
	}
	modules := make(map[string]bool, len(in.Versions))
	for _, mv := range in.Versions {
		field := "version_matrix." + mv.Module
		switch {
		case strings.TrimSpace(mv.Module) == "":
			errs = append(errs, &errors.ValidationError{Field: "version_matrix", Message: "module id is empty"})
		case modules[mv.Module]:
			errs = append(errs, &errors.ValidationError{Field: field, Message: "module declared twice"})
		}
		modules[mv.Module] = true
		if len(mv.Versions) == 0 {
			errs = append(errs, &errors.ValidationError{Field: field, Message: "module has no versions"})
		}
		for _, v := range mv.Versions {
			if strings.TrimSpace(v) == "" {
				errs = append(errs, &errors.ValidationError{Field: field, Message: "empty version identifier"})
			}
		}
	}

	if len(in.Candidates) == 0 {
		errs = append(errs, &errors.ValidationError{
			Field:   "java_platforms",
			Message: "no platforms configured",
		})
	}
	seen := make(map[string]bool, len(in.Candidates))
	for _, p := range in.Candidates {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, &errors.ValidationError{Field: "java_platforms", Message: "empty platform identifier"})
		}
		if seen[p] {
			errs = append(errs, &errors.ValidationError{Field: "java_platforms", Message: fmt.Sprintf("platform %q listed twice", p)})
		}
		seen[p] = true
	}

	return errs.OrNil()
}

// Expand builds the test job for in. Invalid input yields an
// *errors.ConfigError wrapping the individual validation failures.
func Expand(in Input) (*pipeline.Job, error) {
	if err := in.Validate(); err != nil {
		return nil, &errors.ConfigError{
			Key:    "test matrix",
			Reason: "cannot expand test matrix",
			Cause:  err,
		}
	}

	var (
		strategy *pipeline.Strategy
		tests    []pipeline.Step
	)
	switch {
	case !in.Parallel:
		strategy, tests = sequential(in)
	case len(in.Platforms) == 0:
		strategy, tests = parallel(in)
	default:
		strategy, tests = parallelConstrained(in)
	}

	steps := make([]pipeline.Step, 0, len(in.Prelude)+len(tests)+len(in.ExtraSteps))
	steps = append(steps, in.Prelude...)
	steps = append(steps, tests...)
	steps = append(steps, in.ExtraSteps...)

	return &pipeline.Job{
		ID:       in.JobID,
		Name:     in.JobName,
		RunsOn:   in.RunsOn,
		Strategy: strategy,
		Steps:    actions.WithProvision(in.SwapSizeGB, steps...),
	}, nil
}

// parallel fans out over every platform and every "++version module" pair
// with a single unconditional step.
func parallel(in Input) (*pipeline.Strategy, []pipeline.Step) {
	strategy := &pipeline.Strategy{
		Axes: []pipeline.Axis{
			{Name: AxisJava, Values: append([]string(nil), in.Candidates...)},
			{Name: AxisScalaProject, Values: Flatten(in.Versions, nil, "")},
		},
	}
	step := &pipeline.SingleStep{
		Name: "Test",
		Run:  in.BuildTool.Run(MatrixRef(AxisScalaProject) + "/" + in.TestTask),
	}
	return strategy, []pipeline.Step{step}
}

// parallelConstrained adds one project axis per platform holding only the
// pairs compatible with it, and one step per platform gated on the platform
// axis that reads its own project axis.
func parallelConstrained(in Input) (*pipeline.Strategy, []pipeline.Step) {
	strategy := &pipeline.Strategy{
		Axes: []pipeline.Axis{{Name: AxisJava, Values: append([]string(nil), in.Candidates...)}},
	}
	var steps []pipeline.Step
	for _, p := range in.Candidates {
		pairs := Flatten(in.Versions, in.Platforms, p)
		if len(pairs) == 0 {
			continue
		}
		axis := PlatformAxis(p)
		strategy.Axes = append(strategy.Axes, pipeline.Axis{Name: axis, Values: pairs})
		steps = append(steps, &pipeline.SingleStep{
			Name: fmt.Sprintf("Test on Java %s", p),
			Run:  in.BuildTool.Run(MatrixRef(axis) + "/" + in.TestTask),
			If:   condition.MatrixEquals(AxisJava, p),
		})
	}
	return strategy, steps
}

// sequential fans out over platform × version and emits one grouped step per
// pair that has at least one compatible module.
func sequential(in Input) (*pipeline.Strategy, []pipeline.Step) {
	versions := in.Versions.Versions()
	strategy := &pipeline.Strategy{
		Axes: []pipeline.Axis{
			{Name: AxisJava, Values: append([]string(nil), in.Candidates...)},
			{Name: AxisScala, Values: versions},
		},
	}

	var steps []pipeline.Step
	for _, p := range in.Candidates {
		for _, v := range versions {
			modules := CompatibleModules(in.Versions, in.Platforms, p, v)
			if len(modules) == 0 {
				continue
			}
			tasks := []string{"++" + MatrixRef(AxisScala)}
			for _, m := range modules {
				tasks = append(tasks, m+"/"+in.TestTask)
			}
			steps = append(steps, &pipeline.SingleStep{
				Name: fmt.Sprintf("Test on Java %s, Scala %s", p, v),
				Run:  in.BuildTool.Run(tasks...),
				If:   condition.And(condition.MatrixEquals(AxisJava, p), condition.MatrixEquals(AxisScala, v)),
			})
		}
	}
	return strategy, steps
}

// MatrixRef returns the runner expression that reads axis in a matrix instance.
func MatrixRef(axis string) string {
	return "${{ matrix." + axis + " }}"
}
