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

// Package drift detects when a persisted workflow artifact no longer matches
// what its configuration generates.
//
// A check never writes. It regenerates the document, compares bytes with the
// persisted artifact and, on mismatch, returns an *errors.DriftError that
// carries a unified diff and the remediation instruction.
package drift

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/tombee/cigen/internal/config"
	"github.com/tombee/cigen/internal/gitdiff"
	cigenerrors "github.com/tombee/cigen/pkg/errors"
	"github.com/tombee/cigen/pkg/generator"
)

// Remediation is the instruction attached to every drift report.
const Remediation = "run `cigen generate` and commit the result"

// Result is the outcome of a comparison.
type Result struct {
	// Path is the artifact that was compared
	Path string `json:"path"`

	// Clean is true when the artifact matches byte for byte
	Clean bool `json:"clean"`

	// Missing is true when no artifact exists yet
	Missing bool `json:"missing,omitempty"`

	// Diff is a unified diff from the persisted artifact to the expected one
	Diff string `json:"diff,omitempty"`
}

// Checker compares persisted artifacts with freshly generated ones.
type Checker struct {
	gen *generator.Generator
}

// New creates a Checker that regenerates documents with gen.
func New(gen *generator.Generator) *Checker {
	return &Checker{gen: gen}
}

// Check regenerates the document for cfg and compares it with persisted.
// On drift it returns the result together with an *errors.DriftError.
func (c *Checker) Check(cfg *config.Config, persisted []byte) (*Result, error) {
	expected, err := c.gen.Generate(cfg)
	if err != nil {
		return nil, err
	}
	return Compare(generator.Path(cfg), expected, persisted)
}

// CheckFile reads the artifact at its derived path and checks it. A missing
// artifact is drift.
func (c *Checker) CheckFile(cfg *config.Config) (*Result, error) {
	path := generator.Path(cfg)
	persisted, err := os.ReadFile(path)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	res, err := c.Check(cfg, persisted)
	if res != nil {
		res.Missing = missing
	}
	return res, err
}

// Compare compares expected with persisted bytes for the artifact at path.
func Compare(path string, expected, persisted []byte) (*Result, error) {
	if bytes.Equal(expected, persisted) {
		return &Result{Path: path, Clean: true}, nil
	}

	res := &Result{
		Path: path,
		Diff: Diff(path, persisted, expected),
	}
	return res, &cigenerrors.DriftError{
		Path:        path,
		Diff:        res.Diff,
		Remediation: Remediation,
	}
}

// Diff renders a unified diff from the persisted to the expected document.
func Diff(path string, persisted, expected []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(persisted)),
		B:        difflib.SplitLines(string(expected)),
		FromFile: path,
		ToFile:   path + " (generated)",
		Context:  3,
	})
	if err != nil {
		// only returned for write failures on the internal buffer
		return fmt.Sprintf("--- %s\n+++ %s (generated)\n", path, path)
	}
	return diff
}

// VerifyCommitted checks that the artifact for cfg is tracked by git and has
// no uncommitted changes. Git failures are *errors.ExternalToolError.
func VerifyCommitted(ctx context.Context, git *gitdiff.Git, cfg *config.Config) error {
	path := generator.Path(cfg)
	status, err := git.Status(ctx, path)
	if err != nil {
		return err
	}

	switch status {
	case gitdiff.StatusModified:
		return &cigenerrors.DriftError{
			Path:        path,
			Remediation: "commit the regenerated workflow",
		}
	case gitdiff.StatusUntracked:
		return &cigenerrors.DriftError{
			Path:        path,
			Remediation: "add the generated workflow to git and commit it",
		}
	}
	return nil
}
