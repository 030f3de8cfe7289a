/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package diagnostics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/castline/internal/device"
	"github.com/friendsincode/castline/internal/telemetry"
	"github.com/friendsincode/castline/internal/timeline"
)

// stubFacade is the minimal device.Facade stand-in needed to exercise the
// registry and HTTP surface without a real device collaborator.
type stubFacade struct {
	status device.Status
}

func (s stubFacade) Init(ctx context.Context, opts device.Options) error { return nil }
func (s stubFacade) HandleState(snapshot timeline.Snapshot, mappings timeline.MappingTable) error {
	return nil
}
func (s stubFacade) ClearFuture(t int64)             {}
func (s stubFacade) PrepareForHandleState(t int64)   {}
func (s stubFacade) MakeReady(ctx context.Context, okToDestroy bool) error { return nil }
func (s stubFacade) Terminate(ctx context.Context) error                  { return nil }
func (s stubFacade) GetStatus() device.Status                             { return s.status }
func (s stubFacade) Connected() bool                                      { return s.status.Active }

func TestRegistrySnapshotReflectsRegisteredDevices(t *testing.T) {
	reg := NewRegistry()
	reg.Register("vs1", stubFacade{status: device.Status{Code: device.StatusGood, Active: true}})

	snap := reg.Snapshot()
	st, ok := snap["vs1"]
	if !ok {
		t.Fatal("expected vs1 in snapshot")
	}
	if st.Code != device.StatusGood || !st.Active {
		t.Fatalf("unexpected status: %+v", st)
	}

	reg.Unregister("vs1")
	if _, ok := reg.Snapshot()["vs1"]; ok {
		t.Fatal("expected vs1 to be removed after Unregister")
	}
}

func TestStatusEndpointReportsRegisteredDevices(t *testing.T) {
	reg := NewRegistry()
	reg.Register("vs1", stubFacade{status: device.Status{Code: device.StatusGood, Active: true, Messages: []string{"ok"}}})

	router := NewRouter(reg, telemetry.NewMetrics(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	d, ok := resp.Devices["vs1"]
	if !ok {
		t.Fatal("expected device vs1 in status response")
	}
	if d.Code != "GOOD" || !d.Active {
		t.Fatalf("unexpected device status: %+v", d)
	}
}

func TestStatusEndpointEmptyRegistryReturnsEmptyDevices(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, telemetry.NewMetrics(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var resp StatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Devices) != 0 {
		t.Fatalf("expected no devices, got %d", len(resp.Devices))
	}
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	reg := NewRegistry()
	router := NewRouter(reg, telemetry.NewMetrics(), zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
