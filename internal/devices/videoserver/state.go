/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package videoserver is the reference stateful device: a port-oriented
// video server controller whose differ drives multi-step prepared
// operations (port setup, fragment loading, soft/hard jumps) and whose
// executor tracks out-of-band remote state the projector never sees
// (§2, §4.4, §4.5).
package videoserver

import "github.com/friendsincode/castline/internal/device"

// Mode selects the jump strategy PLAY_CLIP/PAUSE_CLIP uses when no valid
// prepared jump exists: QUALITY stages a soft jump first, SPEED jumps hard
// (§4.5, GLOSSARY).
type Mode string

const (
	ModeQuality Mode = "QUALITY"
	ModeSpeed   Mode = "SPEED"
)

// DefaultFPS applies when a clip's content carries no fps of its own (§4.5).
const DefaultFPS = 50

// Clip is the desired playback state of one clip on a port.
type Clip struct {
	Title     string
	Playing   bool
	PlayTime  int64 // ms, absolute; the clip's Instance.Start
	PauseTime *int64
	FPS       float64
}

func (a Clip) equal(b Clip) bool {
	if a.Title != b.Title || a.Playing != b.Playing || a.PlayTime != b.PlayTime || a.FPS != b.FPS {
		return false
	}
	return int64PtrEqual(a.PauseTime, b.PauseTime)
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func clipPtrEqual(a, b *Clip) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.equal(*b)
}

// PortState is the desired configuration of one video-server port: its
// channel binding, the clip currently meant to be on air, and (via
// lookahead layers) the clip queued up next (§4.3, Scenario 6).
type PortState struct {
	PortID           string
	Channel          int
	Mode             Mode
	Clip             *Clip // nil: port bound but nothing on air
	NextUp           *Clip // nil: nothing queued up
	TemporalPriority int
	QueueKey         string
}

func (a PortState) equal(b PortState) bool {
	if a.Channel != b.Channel || a.Mode != b.Mode || a.QueueKey != b.QueueKey {
		return false
	}
	if !clipPtrEqual(a.Clip, b.Clip) {
		return false
	}
	return clipPtrEqual(a.NextUp, b.NextUp)
}

// State maps port id to the desired state of that port. The nil or empty
// map is the empty state (no ports bound).
type State map[string]PortState

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

// Empty is the device-has-nothing-bound state.
func Empty() State { return State{} }
