/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package httpdevice

import "github.com/friendsincode/castline/internal/device"

// CommandKind enumerates the HTTP device's single command kind.
const CommandKindSend = "SEND"

// Diff implements device.Differ for the HTTP device (§4.4). There is no
// prepare-ahead phase: every command fires exactly at the transition time.
// A layer removed from new relative to old emits no command — an HTTP
// send is a one-shot fire, not an ongoing state to reverse, so there is
// nothing for the device to "undo".
func Diff(oldState, newState device.DeviceState, oldStateTime, transitionTime int64) []device.Command {
	old, _ := oldState.(State)
	next, _ := newState.(State)

	var cmds []device.Command
	for layerID, desired := range next {
		existing, existed := old[layerID]
		if existed && existing.equal(desired) {
			continue
		}
		cmds = append(cmds, device.Command{
			ExecuteAt:        transitionTime,
			QueueKey:         desired.QueueID,
			Kind:             CommandKindSend,
			Payload:          desired,
			TimelineObjID:    desired.TimelineObjID,
			Context:          "http send on layer " + layerID,
			TemporalPriority: desired.TemporalPriority,
			SortKey:          layerID,
		})
	}

	return device.SortCommands(cmds)
}
