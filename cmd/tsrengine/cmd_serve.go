/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/friendsincode/castline/internal/diagnostics"
	"github.com/friendsincode/castline/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the diagnostic HTTP surface (/status, /metrics)",
	Long: `Starts the diagnostic HTTP server. It exposes GET /status (per-device
getStatus() snapshot) and GET /metrics (Prometheus). It carries no device
façades of its own: the diagnostics.Registry it serves is created empty
inside this command and nothing registers façades into it, so /status
reports no devices.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Msg("tsrengine starting")

	var traceOut io.Writer
	if cfg.TracingStdout {
		traceOut = os.Stdout
	}
	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "tsrengine",
		ServiceVersion: "0.0.1-alpha",
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
		Output:         traceOut,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	metrics := telemetry.NewMetrics()
	reg := diagnostics.NewRegistry()
	router := diagnostics.NewRouter(reg, metrics, logger)

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	httpServer := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Info().Str("addr", addr).Msg("diagnostic HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down gracefully...")
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(timeoutCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("tsrengine stopped")
	return nil
}
