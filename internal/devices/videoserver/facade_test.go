/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package videoserver

import (
	"context"
	"testing"

	"github.com/friendsincode/castline/internal/device"
	"github.com/friendsincode/castline/internal/timeline"
)

func TestFacadeInitMovesToReadyWhenCollaboratorConnected(t *testing.T) {
	fc := newFakeCollaborator()
	d := New("vs1", fc, fixedClock(0))

	if err := d.Init(context.Background(), device.Options{}); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !d.Connected() {
		t.Fatal("expected device to report connected after init")
	}
	st := d.GetStatus()
	if st.Code != device.StatusGood || !st.Active {
		t.Fatalf("unexpected status after init: %+v", st)
	}
}

func TestFacadeHandleStateBeforeInitErrors(t *testing.T) {
	fc := newFakeCollaborator()
	d := New("vs1", fc, fixedClock(0))

	err := d.HandleState(timeline.Snapshot{}, timeline.MappingTable{})
	if err == nil {
		t.Fatal("expected an error calling HandleState before Init")
	}
}

func TestFacadeTerminateDisconnects(t *testing.T) {
	fc := newFakeCollaborator()
	d := New("vs1", fc, fixedClock(0))
	if err := d.Init(context.Background(), device.Options{}); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := d.Terminate(context.Background()); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if d.Connected() {
		t.Fatal("expected device to be disconnected after Terminate")
	}
	st := d.GetStatus()
	if st.Code != device.StatusBad {
		t.Fatalf("expected BAD status after terminate, got %+v", st)
	}
}
