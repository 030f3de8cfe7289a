/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry is the resolver's ambient observability surface:
// structured logging, Prometheus metrics, and OpenTelemetry tracing. None
// of this is part of the resolver's domain logic — it is infrastructure
// every device façade and the conductor-facing entrypoint is expected to
// emit through, matching the teacher's internal/telemetry and
// internal/logging packages.
package telemetry

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogging configures zerolog for the process: human-readable console
// output in development, otherwise the default JSON writer at info level.
func SetupLogging(environment string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := zerolog.InfoLevel
	if environment == "development" {
		level = zerolog.DebugLevel
	}

	var writer io.Writer = os.Stdout
	if environment == "development" {
		writer = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	logger := zerolog.New(writer).With().Timestamp().Logger().Level(level)
	log.Logger = logger
	return logger
}

// DeviceLogger returns a child logger tagged with the owning device's id
// and kind, so every log line from a façade or its executor is
// attributable without threading context through every call.
func DeviceLogger(base zerolog.Logger, deviceKind, deviceID string) zerolog.Logger {
	return base.With().Str("device_kind", deviceKind).Str("device_id", deviceID).Logger()
}
