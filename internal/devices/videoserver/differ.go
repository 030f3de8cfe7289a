/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package videoserver

import "github.com/friendsincode/castline/internal/device"

// Command kinds the video-server differ emits (§4.4).
const (
	CommandKindSetupPort     = "SETUP_PORT"
	CommandKindLoadFragments = "LOAD_FRAGMENTS"
	CommandKindPlayClip      = "PLAY_CLIP"
	CommandKindPauseClip     = "PAUSE_CLIP"
	CommandKindClearClip     = "CLEAR_CLIP"
	CommandKindReleasePort   = "RELEASE_PORT"
)

// PrepareWaitMs and IdealPrepareMs parameterize device.PrepareAheadTime for
// this device kind (§4.4, §9 design note on prepare-ahead): prepare
// commands land up to a second ahead of the transition but never before
// the old state's own recorded timestamp.
const (
	PrepareWaitMs  = 0
	IdealPrepareMs = 1000
)

// SetupPortPayload binds a port to a channel.
type SetupPortPayload struct {
	PortID  string
	Channel int
}

// LoadFragmentsPayload stages a clip's fragments on a port ahead of its
// transition time.
type LoadFragmentsPayload struct {
	PortID     string
	Clip       Clip
	TimeOfPlay int64
}

// PlayPausePayload triggers the prepared (or hard) jump and starts or
// pauses playback.
type PlayPausePayload struct {
	PortID string
	Clip   Clip
	Mode   Mode
}

// ClearPayload clears whatever clip is on a port.
type ClearPayload struct{ PortID string }

// ReleasePayload releases a port entirely.
type ReleasePayload struct{ PortID string }

// Diff implements device.Differ for the video server (§4.4): per port, a
// brand-new port or a channel rebind emits SETUP_PORT; a changed clip
// emits LOAD_FRAGMENTS ahead of PLAY_CLIP/PAUSE_CLIP at the transition; a
// clip going absent emits CLEAR_CLIP; a port disappearing emits
// RELEASE_PORT. A change to NextUp alone never emits a command — lookahead
// only primes the executor's tracked state once it becomes the foreground
// (Scenario 6). Only the first channel of a port is considered (§4.4,
// documented limitation).
func Diff(oldState, newState device.DeviceState, oldStateTime, transitionTime int64) []device.Command {
	old, _ := oldState.(State)
	next, _ := newState.(State)

	var cmds []device.Command
	prepareAt := device.PrepareAheadTime(oldStateTime, transitionTime, PrepareWaitMs, IdealPrepareMs)

	for portID, desired := range next {
		existing, existed := old[portID]

		if !existed || existing.Channel != desired.Channel {
			cmds = append(cmds, device.Command{
				ExecuteAt:        prepareAt,
				QueueKey:         desired.QueueKey,
				Kind:             CommandKindSetupPort,
				Payload:          SetupPortPayload{PortID: portID, Channel: desired.Channel},
				Context:          "setup port " + portID,
				TemporalPriority: desired.TemporalPriority,
				SortKey:          portID,
			})
		}

		switch {
		case desired.Clip == nil && existing.Clip != nil:
			cmds = append(cmds, device.Command{
				ExecuteAt:        transitionTime,
				QueueKey:         desired.QueueKey,
				Kind:             CommandKindClearClip,
				Payload:          ClearPayload{PortID: portID},
				Context:          "clear clip on port " + portID,
				TemporalPriority: desired.TemporalPriority,
				SortKey:          portID,
			})
		case desired.Clip != nil && !clipPtrEqual(existing.Clip, desired.Clip):
			clip := *desired.Clip
			cmds = append(cmds, device.Command{
				ExecuteAt:        prepareAt,
				QueueKey:         desired.QueueKey,
				Kind:             CommandKindLoadFragments,
				Payload:          LoadFragmentsPayload{PortID: portID, Clip: clip, TimeOfPlay: clip.PlayTime},
				Context:          "load fragments on port " + portID,
				TemporalPriority: desired.TemporalPriority,
				SortKey:          portID,
			})
			kind := CommandKindPlayClip
			if !clip.Playing {
				kind = CommandKindPauseClip
			}
			cmds = append(cmds, device.Command{
				ExecuteAt:        transitionTime,
				QueueKey:         desired.QueueKey,
				Kind:             kind,
				Payload:          PlayPausePayload{PortID: portID, Clip: clip, Mode: desired.Mode},
				Context:          "play/pause clip on port " + portID,
				TemporalPriority: desired.TemporalPriority,
				SortKey:          portID,
			})
		}
	}

	for portID, was := range old {
		if _, stillPresent := next[portID]; stillPresent {
			continue
		}
		cmds = append(cmds, device.Command{
			ExecuteAt: transitionTime,
			QueueKey:  was.QueueKey,
			Kind:      CommandKindReleasePort,
			Payload:   ReleasePayload{PortID: portID},
			Context:   "release port " + portID,
			SortKey:   portID,
		})
	}

	return device.SortCommands(cmds)
}
