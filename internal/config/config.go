/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package config loads process-level configuration for the resolver
// engine from environment variables, matching the teacher's
// internal/config pattern (env-first, sane defaults, validated once at
// startup).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config covers process level configuration read from environment
// variables. It knows nothing about any particular device kind — device
// connection details belong to each device's own collaborator
// implementation (out of scope here, §6) and are supplied by whatever
// conductor process wires a façade together.
type Config struct {
	Environment string

	// Diagnostic HTTP surface (chi-routed /status, /metrics — §7's "make
	// GetStatus inspectable" supplemented with a real endpoint).
	HTTPBind string
	HTTPPort int

	MetricsBind string

	// ResendTime is a default for a façade's Options.ResendTime (ms). <= 1
	// disables retry, matching device.Options.ResendTime's own contract.
	// cmd/tsrengine constructs no façades and does not read this field.
	ResendTime int64

	// MappingFile optionally points at a YAML file describing the
	// timeline.MappingTable a device should resolve against (§1's
	// "previously established, out of scope" mapping table). No command in
	// cmd/tsrengine reads this field; validate-mapping takes its file from
	// its --file flag.
	MappingFile string

	// Tracing configuration. TracingStdout selects the stdout span
	// exporter; there is no collector endpoint in scope here (§9), so
	// tracing is exporterless unless this is set.
	TracingEnabled    bool
	TracingSampleRate float64
	TracingStdout     bool

	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the
// result. A .env file in the working directory is loaded first if
// present; a missing file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnvAny([]string{"CASTLINE_ENV", "TSR_ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"CASTLINE_HTTP_BIND", "TSR_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"CASTLINE_HTTP_PORT", "TSR_HTTP_PORT"}, 8090),
		MetricsBind: getEnvAny([]string{"CASTLINE_METRICS_BIND", "TSR_METRICS_BIND"}, "127.0.0.1:9100"),
		ResendTime:  int64(getEnvIntAny([]string{"CASTLINE_RESEND_TIME_MS", "TSR_RESEND_TIME_MS"}, 0)),
		MappingFile: getEnvAny([]string{"CASTLINE_MAPPING_FILE", "TSR_MAPPING_FILE"}, ""),

		TracingEnabled:    getEnvBoolAny([]string{"CASTLINE_TRACING_ENABLED", "TSR_TRACING_ENABLED"}, false),
		TracingSampleRate: getEnvFloatAny([]string{"CASTLINE_TRACING_SAMPLE_RATE", "TSR_TRACING_SAMPLE_RATE"}, 1.0),
		TracingStdout:     getEnvBoolAny([]string{"CASTLINE_TRACING_STDOUT", "TSR_TRACING_STDOUT"}, false),
	}

	if cfg.ResendTime < 0 {
		return nil, fmt.Errorf("CASTLINE_RESEND_TIME_MS must be >= 0")
	}
	if cfg.TracingSampleRate < 0 || cfg.TracingSampleRate > 1 {
		return nil, fmt.Errorf("CASTLINE_TRACING_SAMPLE_RATE must be within [0,1]")
	}

	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()
	return cfg, nil
}

func detectLegacyEnvWarnings() []string {
	legacy := map[string]string{
		"ENV":                 "use CASTLINE_ENV (or TSR_ENV)",
		"HTTP_PORT":           "use CASTLINE_HTTP_PORT (or TSR_HTTP_PORT)",
		"RESEND_TIME_MS":      "use CASTLINE_RESEND_TIME_MS (or TSR_RESEND_TIME_MS)",
		"TRACING_ENABLED":     "use CASTLINE_TRACING_ENABLED (or TSR_TRACING_ENABLED)",
		"TRACING_SAMPLE_RATE": "use CASTLINE_TRACING_SAMPLE_RATE (or TSR_TRACING_SAMPLE_RATE)",
	}
	warnings := make([]string, 0, len(legacy))
	for key, recommendation := range legacy {
		if os.Getenv(key) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s is set; %s", key, recommendation))
		}
	}
	return warnings
}

func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
