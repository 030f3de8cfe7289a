/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import "testing"

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Environment != "development" {
		t.Fatalf("expected development default, got %q", cfg.Environment)
	}
	if cfg.HTTPPort != 8090 {
		t.Fatalf("expected default HTTP port 8090, got %d", cfg.HTTPPort)
	}
}

func TestLoadPrefersCanonicalEnvOverLegacyAlias(t *testing.T) {
	t.Setenv("CASTLINE_HTTP_PORT", "9091")
	t.Setenv("TSR_HTTP_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != 9091 {
		t.Fatalf("expected CASTLINE_HTTP_PORT to take precedence, got %d", cfg.HTTPPort)
	}
}

func TestLoadReportsLegacyEnvWarnings(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if len(cfg.LegacyEnvWarnings) == 0 {
		t.Fatal("expected a legacy env warning for TRACING_ENABLED")
	}
}

func TestLoadRejectsOutOfRangeSampleRate(t *testing.T) {
	t.Setenv("CASTLINE_TRACING_SAMPLE_RATE", "1.5")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a sample rate outside [0,1]")
	}
}

func TestLoadRejectsNegativeResendTime(t *testing.T) {
	t.Setenv("CASTLINE_RESEND_TIME_MS", "-1")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a negative resend time")
	}
}
