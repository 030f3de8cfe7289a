/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package diagnostics is operational tooling wrapped around the resolver
// core (§6's "diagnostic tooling around the core, not part of the façade
// contract itself"): a process-local registry of device façades and the
// chi-routed HTTP surface cmd/tsrengine exposes for /status and /metrics.
// Nothing here participates in handleState.
package diagnostics

import (
	"sync"

	"github.com/friendsincode/castline/internal/device"
)

// Registry holds the device façades a running process has constructed,
// keyed by device id. Whatever wires up real collaborators (out of scope,
// §6) registers its façades here so the diagnostic HTTP surface and CLI
// have something to report on.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]device.Facade
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]device.Facade)}
}

// Register adds or replaces the façade for deviceID.
func (r *Registry) Register(deviceID string, facade device.Facade) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[deviceID] = facade
}

// Unregister removes a façade from the registry.
func (r *Registry) Unregister(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.devices, deviceID)
}

// Snapshot returns a point-in-time copy of every registered device's
// GetStatus(), keyed by device id.
func (r *Registry) Snapshot() map[string]device.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]device.Status, len(r.devices))
	for id, f := range r.devices {
		out[id] = f.GetStatus()
	}
	return out
}
