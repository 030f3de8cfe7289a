/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package httpdevice is the reference "simple HTTP sender" device: the
// stateless half of the two reference devices named in §2 — one command
// per layer, fired once at its transition time, with no tracked remote
// state beyond a last-sent fingerprint (§4.5).
package httpdevice

import "github.com/friendsincode/castline/internal/device"

// Method is the HTTP verb carried by a layer's content (§6).
type Method string

const (
	MethodGET    Method = "GET"
	MethodPOST   Method = "POST"
	MethodPUT    Method = "PUT"
	MethodDELETE Method = "DELETE"
)

// LayerCommand is the desired HTTP request for one active layer.
type LayerCommand struct {
	LayerID          string
	TimelineObjID    string
	Method           Method
	URL              string
	Params           map[string]any
	TemporalPriority int
	QueueID          string
}

func (a LayerCommand) equal(b LayerCommand) bool {
	if a.Method != b.Method || a.URL != b.URL || a.QueueID != b.QueueID {
		return false
	}
	if len(a.Params) != len(b.Params) {
		return false
	}
	for k, v := range a.Params {
		bv, ok := b.Params[k]
		if !ok || !shallowEqual(v, bv) {
			return false
		}
	}
	return true
}

func shallowEqual(a, b any) bool {
	// Params values are JSON-ish scalars/maps from the timeline content;
	// a recursive deep-equal would pull in reflect for a comparison that
	// in practice only ever sees scalars, strings, and flat maps.
	am, aok := a.(map[string]any)
	bm, bok := b.(map[string]any)
	if aok && bok {
		if len(am) != len(bm) {
			return false
		}
		for k, v := range am {
			if !shallowEqual(v, bm[k]) {
				return false
			}
		}
		return true
	}
	return a == b
}

// State maps layer id to the desired HTTP request for that layer. The nil
// or empty map is the empty state.
type State map[string]LayerCommand

// Equal implements device.DeviceState.
func (s State) Equal(other device.DeviceState) bool {
	o, ok := other.(State)
	if !ok {
		return false
	}
	if len(s) != len(o) {
		return false
	}
	for k, v := range s {
		ov, ok := o[k]
		if !ok || !v.equal(ov) {
			return false
		}
	}
	return true
}

// Empty is the device-has-nothing-scheduled state.
func Empty() State { return State{} }
