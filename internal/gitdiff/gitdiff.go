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

// Package gitdiff asks git whether a generated file matches what is committed.
package gitdiff

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	cigenerrors "github.com/tombee/cigen/pkg/errors"
)

// Status describes a file relative to the git index.
type Status int

const (
	// StatusClean means the working tree file matches the index.
	StatusClean Status = iota
	// StatusModified means the file differs from the index.
	StatusModified
	// StatusUntracked means git does not know the file.
	StatusUntracked
)

func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusModified:
		return "modified"
	case StatusUntracked:
		return "untracked"
	}
	return "unknown"
}

// Git runs git commands in a working directory.
type Git struct {
	// Binary is the git executable. Default: "git"
	Binary string

	// Dir is the working directory. Default: the current directory
	Dir string
}

// Status reports whether path is committed and unchanged.
func (g *Git) Status(ctx context.Context, path string) (Status, error) {
	code, err := g.run(ctx, "ls-files", "--error-unmatch", "--", path)
	if err != nil {
		return 0, err
	}
	if code == 1 {
		return StatusUntracked, nil
	}

	code, err = g.run(ctx, "diff", "--quiet", "--exit-code", "--", path)
	if err != nil {
		return 0, err
	}
	if code == 1 {
		return StatusModified, nil
	}
	return StatusClean, nil
}

// run executes git and returns its exit code when it is 0 or 1. Any other
// outcome is an *errors.ExternalToolError.
func (g *Git) run(ctx context.Context, args ...string) (int, error) {
	binary := g.Binary
	if binary == "" {
		binary = "git"
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = g.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	toolErr := &cigenerrors.ExternalToolError{
		Tool:     binary,
		Args:     args,
		ExitCode: -1,
		Stderr:   strings.TrimSpace(stderr.String()),
		Cause:    err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
		if toolErr.ExitCode == 1 {
			return 1, nil
		}
	}
	return 0, toolErr
}
