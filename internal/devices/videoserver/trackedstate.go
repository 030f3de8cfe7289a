/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package videoserver

import (
	"sync"
	"time"
)

// trackedPort is the executor-owned, out-of-band state for one port. The
// projector/differ never see this; it exists because the desired-state
// projection cannot represent what the remote server has actually staged
// (§2, §9 design note: "the Tracked State map is owned exclusively by the
// per-device executor").
type trackedPort struct {
	channel      int
	clipID       string
	fragments    Fragments
	portInPoint  int64
	portOutPoint int64
	playTime     int64  // ms, absolute; timeOfPlay this tracked jump was computed against
	jumpOffset   *int64 // frames; nil means no valid prepared/triggered jump

	// scheduledStop is the executor's own self-scheduled PortStop call
	// (LOAD_FRAGMENTS containing the previous clip, or PLAY_CLIP's
	// end-of-clip stop at portOutPoint). Cancelled on CLEAR_CLIP/
	// RELEASE_PORT or superseded by a new schedule.
	scheduledStop *time.Timer
}

// trackedState is the per-device map of tracked ports. Map mutation is
// guarded by a mutex; mutation of an individual *trackedPort's fields is
// not, since ModeInOrder serializes the executor per port (queueKey ==
// portId), so only one goroutine ever touches a given port's tracked
// entry at a time (§5).
type trackedState struct {
	mu    sync.Mutex
	ports map[string]*trackedPort
}

func newTrackedState() *trackedState {
	return &trackedState{ports: make(map[string]*trackedPort)}
}

func (t *trackedState) get(portID string) (*trackedPort, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.ports[portID]
	return p, ok
}

func (t *trackedState) set(portID string, p *trackedPort) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.ports[portID]; ok && old.scheduledStop != nil {
		old.scheduledStop.Stop()
	}
	t.ports[portID] = p
}

func (t *trackedState) delete(portID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := t.ports[portID]; ok && p.scheduledStop != nil {
		p.scheduledStop.Stop()
	}
	delete(t.ports, portID)
}
