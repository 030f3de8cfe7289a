/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package diagnostics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/friendsincode/castline/internal/device"
	"github.com/friendsincode/castline/internal/telemetry"
)

// StatusResponse is the JSON shape returned by GET /status.
type StatusResponse struct {
	Devices map[string]deviceStatusDTO `json:"devices"`
}

type deviceStatusDTO struct {
	Code     string   `json:"code"`
	Messages []string `json:"messages,omitempty"`
	Active   bool     `json:"active"`
}

// NewRouter builds the diagnostic HTTP surface: GET /status renders every
// registered device's getStatus() snapshot, GET /metrics exposes the
// process's Prometheus registry.
func NewRouter(reg *Registry, metrics *telemetry.Metrics, logger zerolog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return middleware.Timeout(10 * time.Second)(next)
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		resp := StatusResponse{Devices: make(map[string]deviceStatusDTO)}
		for id, st := range reg.Snapshot() {
			resp.Devices[id] = deviceStatusDTO{
				Code:     statusCodeString(st.Code),
				Messages: st.Messages,
				Active:   st.Active,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error().Err(err).Msg("encode status response")
		}
	})

	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return r
}

func statusCodeString(c device.StatusCode) string { return c.String() }
