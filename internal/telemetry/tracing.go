/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerConfig configures OpenTelemetry tracing for the process.
type TracerConfig struct {
	ServiceName    string
	ServiceVersion string
	Enabled        bool
	SampleRate     float64 // 0.0 to 1.0
	// Output receives span data when Enabled; defaults to io.Discard when
	// nil. A real deployment wires this to whatever collector endpoint is
	// reachable; the resolver core itself is transport-agnostic.
	Output io.Writer
}

// TracerProvider wraps the OpenTelemetry tracer provider so callers have
// one handle to shut down cleanly.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	logger   zerolog.Logger
}

// InitTracer initializes OpenTelemetry tracing. When disabled, installs a
// no-op global tracer provider so Tracer()/StartSpan() remain safe to call
// unconditionally from handleState call sites.
func InitTracer(ctx context.Context, cfg TracerConfig, logger zerolog.Logger) (*TracerProvider, error) {
	if !cfg.Enabled {
		logger.Info().Msg("tracing disabled")
		otel.SetTracerProvider(trace.NewNoopTracerProvider())
		return &TracerProvider{logger: logger}, nil
	}

	logger.Info().
		Str("service_name", cfg.ServiceName).
		Float64("sample_rate", cfg.SampleRate).
		Msg("initializing OpenTelemetry tracing")

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	out := cfg.Output
	if out == nil {
		out = io.Discard
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info().Msg("OpenTelemetry tracing initialized")
	return &TracerProvider{provider: tp, logger: logger}, nil
}

// Shutdown gracefully shuts down the tracer provider, a no-op when tracing
// was never enabled.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := tp.provider.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	return nil
}

// Tracer returns a tracer for the given instrumentation scope.
func Tracer(name string) trace.Tracer { return otel.Tracer(name) }

// StartHandleStateSpan starts the span wrapping one handleState pass,
// named per §4.6 (tsr.device.handle_state) and tagged with device_id so a
// reviewer can correlate it against the façade's signal stream.
func StartHandleStateSpan(ctx context.Context, deviceID string) (context.Context, trace.Span) {
	ctx, span := Tracer("castline/device").Start(ctx, "tsr.device.handle_state")
	span.SetAttributes(attribute.String("device_id", deviceID))
	return ctx, span
}

// EndHandleStateSpan records the remaining §4.6 attributes
// (command_count, pass_duration_ms) and ends the span.
func EndHandleStateSpan(span trace.Span, commandCount int, passDurationMs int64) {
	span.SetAttributes(
		attribute.Int("command_count", commandCount),
		attribute.Int64("pass_duration_ms", passDurationMs),
	)
	span.End()
}
