/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package device

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/friendsincode/castline/internal/events"
	"github.com/friendsincode/castline/internal/telemetry"
	"github.com/friendsincode/castline/internal/timeline"
	"github.com/friendsincode/castline/internal/tsrerr"
)

// diagnosticCommandID returns timelineObjID unchanged when it already
// parses as a UUID, otherwise synthesizes one so log lines and time
// traces have a stable-looking correlation id even for devices whose
// timeline object ids aren't UUIDs.
func diagnosticCommandID(timelineObjID string) string {
	if _, err := uuid.Parse(timelineObjID); err == nil {
		return timelineObjID
	}
	return uuid.New().String()
}

// ExecuteFunc runs one dispatched command against the device's executor
// and tracked state, returning an error the queue reports via the error
// signal.
type ExecuteFunc func(cmd Command) error

// HandleState implements the generic §4.6 handleState algorithm: resolve
// the baseline old state, project the new one, diff, enqueue the result,
// and commit the new state — unless projection fails with INVALID_MAPPING,
// in which case this pass is abandoned and the State Store is left
// untouched so the next pass retries from the same baseline (§7).
func HandleState(
	base *TimedDeviceBase,
	snapshot timeline.Snapshot,
	mappings timeline.MappingTable,
	emptyState DeviceState,
	project Projector,
	diff Differ,
	execute ExecuteFunc,
	queueKeyFor QueueKeyFunc,
) error {
	startedAt := base.Clock()
	_, span := telemetry.StartHandleStateSpan(context.Background(), base.DeviceID)

	now := base.Clock()
	previousTime := now
	if snapshot.Time > previousTime {
		previousTime = snapshot.Time
	}

	oldState := emptyState
	var oldStateTime int64
	if stored, ts, ok := base.Store.GetEntryBefore(previousTime); ok {
		if s, ok := stored.(DeviceState); ok {
			oldState = s
			oldStateTime = ts
		}
	}

	newState, err := project(snapshot, mappings)
	if err != nil {
		base.Signals.Publish(events.Signal{
			Kind:    events.KindWarning,
			Message: fmt.Sprintf("projection failed for device %s: %v", base.DeviceID, err),
		})
		telemetry.EndHandleStateSpan(span, 0, base.Clock()-startedAt)
		return tsrerr.New(tsrerr.KindInvalidMapping, "handleState", err)
	}

	commands := diff(oldState, newState, oldStateTime, snapshot.Time)
	for _, cmd := range commands {
		key := cmd.QueueKey
		if queueKeyFor != nil {
			key = queueKeyFor(cmd)
		}
		c := cmd
		commandID := diagnosticCommandID(cmd.TimelineObjID)
		plannedAt := c.ExecuteAt
		base.Queue.Queue(c.ExecuteAt, key, func(ctx context.Context, payload any) error {
			fired := payload.(Command)
			err := execute(fired)
			if err != nil {
				// CONNECTION/STATE_CORRUPTION surface via the queue's error
				// signal instead (§7); publishing commandError here too
				// would double-report the same failure on both channels.
				kind, _ := tsrerr.KindOf(err)
				if kind != tsrerr.KindConnection && kind != tsrerr.KindStateCorruption {
					base.Signals.Publish(events.Signal{
						Kind:           events.KindCommandError,
						Err:            err,
						CommandContext: fired.Context,
					})
				}
			}
			base.Signals.Publish(events.Signal{
				Kind:  events.KindTimeTrace,
				Trace: events.TimeTrace{CommandID: commandID, PlannedAt: plannedAt, FiredAt: base.Clock()},
			})
			return err
		}, c)
	}

	base.Store.SetState(newState, snapshot.Time)
	telemetry.EndHandleStateSpan(span, len(commands), base.Clock()-startedAt)
	return nil
}
