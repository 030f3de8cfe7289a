/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/castline/internal/config"
	"github.com/friendsincode/castline/internal/telemetry"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tsrengine",
	Short: "Timeline state resolver engine",
	Long:  "tsrengine hosts the timeline state resolver device façades and the diagnostic surface around them.",
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(validateMappingCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and sets up logging (called by commands
// that need it).
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = telemetry.SetupLogging(cfg.Environment)
	for _, warning := range cfg.LegacyEnvWarnings {
		logger.Warn().Msg(warning)
	}
	return nil
}
