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

package version

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"

	"github.com/tombee/cigen/internal/commands/shared"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()

	if cmd.Use != "version" {
		t.Errorf("expected use 'version', got %q", cmd.Use)
	}

	if cmd.Short == "" {
		t.Error("expected short description to be set")
	}
}

func TestVersionOutput(t *testing.T) {
	shared.SetVersion("1.0.0", "test123", "2025-12-22")
	defer shared.SetVersion("dev", "unknown", "unknown")

	rootCmd := &cobra.Command{Use: "cigen"}
	shared.RegisterGlobalFlags(rootCmd)
	rootCmd.AddCommand(NewVersionCommand())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	output := buf.String()
	if !bytes.Contains([]byte(output), []byte("cigen version 1.0.0")) {
		t.Errorf("expected output to contain version '1.0.0', got: %s", output)
	}
}

func TestVersionJSONOutput(t *testing.T) {
	shared.SetVersion("1.0.0", "test123", "2025-12-22")
	defer shared.SetVersion("dev", "unknown", "unknown")

	rootCmd := &cobra.Command{Use: "cigen"}
	shared.RegisterGlobalFlags(rootCmd)
	rootCmd.AddCommand(NewVersionCommand())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version", "--json"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}

	var resp struct {
		Command string      `json:"command"`
		Success bool        `json:"success"`
		Result  VersionInfo `json:"result"`
	}
	if err := json.Unmarshal(buf.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse JSON output: %v\n%s", err, buf.String())
	}
	if !resp.Success || resp.Command != "version" {
		t.Errorf("unexpected envelope: %+v", resp)
	}
	if resp.Result.Version != "1.0.0" || resp.Result.Commit != "test123" || resp.Result.BuildDate != "2025-12-22" {
		t.Errorf("unexpected version info: %+v", resp.Result)
	}
}
