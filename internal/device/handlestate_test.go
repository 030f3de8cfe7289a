/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package device

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/friendsincode/castline/internal/events"
	"github.com/friendsincode/castline/internal/timedqueue"
	"github.com/friendsincode/castline/internal/timeline"
	"github.com/friendsincode/castline/internal/tsrerr"
)

func TestHandleStateEmitsTimeTraceWithSynthesizedCommandID(t *testing.T) {
	base := NewTimedDeviceBase("dev1", timedqueue.ModeBurst, fixedClock(0), nil)
	sub := base.Signals.Subscribe()
	defer base.Signals.Unsubscribe(sub)

	project := func(snapshot timeline.Snapshot, mappings timeline.MappingTable) (DeviceState, error) {
		return stubState{}, nil
	}
	diff := func(old, newState DeviceState, oldStateTime, transitionTime int64) []Command {
		return []Command{{ExecuteAt: 0, TimelineObjID: "not-a-uuid"}}
	}
	executed := make(chan struct{}, 1)
	execute := func(cmd Command) error {
		executed <- struct{}{}
		return nil
	}

	if err := HandleState(base, timeline.Snapshot{Time: 0}, nil, stubState{}, project, diff, execute, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-executed:
	case <-time.After(time.Second):
		t.Fatal("expected the command to execute")
	}

	var trace events.Signal
	deadline := time.After(time.Second)
	for {
		select {
		case sig := <-sub:
			if sig.Kind == events.KindTimeTrace {
				trace = sig
				goto found
			}
		case <-deadline:
			t.Fatal("expected a timeTrace signal")
		}
	}
found:
	if _, err := uuid.Parse(trace.Trace.CommandID); err != nil {
		t.Fatalf("expected a synthesized UUID command id, got %q: %v", trace.Trace.CommandID, err)
	}
}

// diagnosticCommandID preserves an already-valid UUID instead of
// replacing it.
func TestDiagnosticCommandIDPreservesExistingUUID(t *testing.T) {
	id := uuid.New().String()
	if got := diagnosticCommandID(id); got != id {
		t.Fatalf("expected existing UUID to be preserved, got %q", got)
	}
}

func TestDiagnosticCommandIDSynthesizesForNonUUID(t *testing.T) {
	got := diagnosticCommandID("layer-42")
	if _, err := uuid.Parse(got); err != nil {
		t.Fatalf("expected a synthesized UUID, got %q: %v", got, err)
	}
}

// A PROTOCOL-class command failure surfaces via commandError only: per §7
// it is ordinary per-command noise, not a device-fatal condition.
func TestHandleStateProtocolErrorSurfacesOnlyAsCommandError(t *testing.T) {
	base := NewTimedDeviceBase("dev1", timedqueue.ModeBurst, fixedClock(0), nil)
	sub := base.Signals.Subscribe()
	defer base.Signals.Unsubscribe(sub)

	project := func(snapshot timeline.Snapshot, mappings timeline.MappingTable) (DeviceState, error) {
		return stubState{}, nil
	}
	diff := func(old, newState DeviceState, oldStateTime, transitionTime int64) []Command {
		return []Command{{ExecuteAt: 0, TimelineObjID: "o1"}}
	}
	done := make(chan struct{}, 1)
	execute := func(cmd Command) error {
		defer func() { done <- struct{}{} }()
		return tsrerr.New(tsrerr.KindProtocol, "execute", nil)
	}

	if err := HandleState(base, timeline.Snapshot{Time: 0}, nil, stubState{}, project, diff, execute, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected the command to execute")
	}

	sawCommandError, sawError := false, false
	deadline := time.After(time.Second)
drain:
	for {
		select {
		case sig := <-sub:
			switch sig.Kind {
			case events.KindCommandError:
				sawCommandError = true
			case events.KindError:
				sawError = true
			case events.KindTimeTrace:
				break drain
			}
		case <-deadline:
			break drain
		}
	}

	if !sawCommandError {
		t.Fatal("expected a commandError signal for a PROTOCOL failure")
	}
	if sawError {
		t.Fatal("did not expect an error signal for a PROTOCOL failure")
	}
}

// A STATE_CORRUPTION-class command failure surfaces via the error signal
// only: per §7 it is device-fatal and must not also be reported as
// ordinary per-command noise.
func TestHandleStateStateCorruptionErrorSurfacesOnlyAsError(t *testing.T) {
	base := NewTimedDeviceBase("dev1", timedqueue.ModeBurst, fixedClock(0), nil)
	sub := base.Signals.Subscribe()
	defer base.Signals.Unsubscribe(sub)

	project := func(snapshot timeline.Snapshot, mappings timeline.MappingTable) (DeviceState, error) {
		return stubState{}, nil
	}
	diff := func(old, newState DeviceState, oldStateTime, transitionTime int64) []Command {
		return []Command{{ExecuteAt: 0, TimelineObjID: "o1"}}
	}
	done := make(chan struct{}, 1)
	execute := func(cmd Command) error {
		defer func() { done <- struct{}{} }()
		return tsrerr.New(tsrerr.KindStateCorruption, "execute", nil)
	}

	if err := HandleState(base, timeline.Snapshot{Time: 0}, nil, stubState{}, project, diff, execute, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected the command to execute")
	}

	sawCommandError, sawError := false, false
	deadline := time.After(time.Second)
drain:
	for {
		select {
		case sig := <-sub:
			switch sig.Kind {
			case events.KindCommandError:
				sawCommandError = true
			case events.KindError:
				// The queue publishes the error signal after the callback
				// (which emits the timeTrace) has returned, so it is the
				// last signal of this command.
				sawError = true
				break drain
			}
		case <-deadline:
			break drain
		}
	}

	if sawCommandError {
		t.Fatal("did not expect a commandError signal for a STATE_CORRUPTION failure")
	}
	if !sawError {
		t.Fatal("expected an error signal for a STATE_CORRUPTION failure")
	}
}
