/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package httpdevice

import (
	"testing"

	"github.com/friendsincode/castline/internal/device"
)

// Scenario 1 (§8): empty old, single new layer -> one added command.
func TestDiffEmptyToSingleLayer(t *testing.T) {
	old := Empty()
	next := State{
		"L1": LayerCommand{LayerID: "L1", TimelineObjID: "o1", Method: MethodPOST, URL: "http://x", Params: map[string]any{"a": 1}},
	}

	cmds := Diff(old, next, 0, 1000)
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds[0].ExecuteAt != 1000 {
		t.Fatalf("expected executeAt 1000, got %d", cmds[0].ExecuteAt)
	}
	if cmds[0].QueueKey != "" {
		t.Fatalf("expected empty queueKey, got %q", cmds[0].QueueKey)
	}
}

// Scenario 2 (§8): unchanged content between old and new -> zero commands.
func TestDiffUnchangedContentIsNoop(t *testing.T) {
	lc := LayerCommand{LayerID: "L1", TimelineObjID: "o1", Method: MethodPOST, URL: "http://x", Params: map[string]any{"a": 1}}
	old := State{"L1": lc}
	next := State{"L1": lc}

	cmds := Diff(old, next, 0, 1000)
	if len(cmds) != 0 {
		t.Fatalf("expected no commands for unchanged content, got %d", len(cmds))
	}
}

// Scenario 3 (§8): temporal priority ordering.
func TestDiffOrdersByTemporalPriority(t *testing.T) {
	old := Empty()
	next := State{
		"L1": LayerCommand{LayerID: "L1", TimelineObjID: "o1", Method: MethodGET, URL: "http://a", TemporalPriority: 2},
		"L2": LayerCommand{LayerID: "L2", TimelineObjID: "o2", Method: MethodGET, URL: "http://b", TemporalPriority: 0},
	}

	cmds := Diff(old, next, 0, 1000)
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].TimelineObjID != "o2" || cmds[1].TimelineObjID != "o1" {
		t.Fatalf("expected L2 before L1, got order %v", cmds)
	}
}

// Idempotence invariant (§8): diff(project(T,M), project(T,M), t) == [].
func TestDiffIdempotenceOfNoOp(t *testing.T) {
	state := State{
		"L1": LayerCommand{LayerID: "L1", TimelineObjID: "o1", Method: MethodGET, URL: "http://a"},
	}
	cmds := Diff(state, state, 0, 500)
	if len(cmds) != 0 {
		t.Fatalf("expected idempotent diff to produce no commands, got %d", len(cmds))
	}
}

func TestDiffRemovedLayerEmitsNothing(t *testing.T) {
	old := State{
		"L1": LayerCommand{LayerID: "L1", TimelineObjID: "o1", Method: MethodGET, URL: "http://a"},
	}
	next := Empty()

	cmds := Diff(old, next, 0, 1000)
	if len(cmds) != 0 {
		t.Fatalf("expected no command for a removed http layer, got %d", len(cmds))
	}
}

func TestStateEqualDetectsDeepDifference(t *testing.T) {
	a := State{"L1": LayerCommand{LayerID: "L1", Method: MethodGET, URL: "http://a", Params: map[string]any{"x": 1}}}
	b := State{"L1": LayerCommand{LayerID: "L1", Method: MethodGET, URL: "http://a", Params: map[string]any{"x": 2}}}

	if device.DeviceState(a).Equal(b) {
		t.Fatal("expected states with different params to be unequal")
	}
}
