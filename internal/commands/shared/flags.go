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

package shared

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tombee/cigen/internal/config"
	"github.com/tombee/cigen/internal/log"
)

// Global flag values - set by root command
var (
	verboseFlag bool
	quietFlag   bool
	jsonFlag    bool
	configFlag  string

	// Build-time version information
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// RegisterGlobalFlags adds the persistent flags shared by every command.
// Registering resets the flag values to their defaults.
func RegisterGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-error output")
	cmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Output in JSON format")
	cmd.PersistentFlags().StringVar(&configFlag, "config", config.DefaultPath, "Path to the generator configuration")
}

// SetVersion sets the version information (called from main)
func SetVersion(v, c, b string) {
	version = v
	commit = c
	buildDate = b
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verboseFlag
}

// GetQuiet returns the quiet flag value
func GetQuiet() bool {
	return quietFlag
}

// GetJSON returns the JSON output flag value
func GetJSON() bool {
	return jsonFlag
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	if configFlag == "" {
		return config.DefaultPath
	}
	return configFlag
}

// GetVersion returns version information
func GetVersion() (string, string, string) {
	return version, commit, buildDate
}

// Logger builds the command logger. Environment settings apply first;
// --verbose lowers the level to debug and --quiet raises it to error.
func Logger(cmd *cobra.Command) *slog.Logger {
	cfg := log.FromEnv()
	cfg.Output = cmd.ErrOrStderr()
	switch {
	case verboseFlag:
		cfg.Level = "debug"
	case quietFlag:
		cfg.Level = "error"
	}
	return log.New(cfg)
}

// LoadConfig loads the configuration named by --config.
func LoadConfig() (*config.Config, error) {
	return config.Load(GetConfigPath())
}
