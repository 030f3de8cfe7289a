/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package videoserver

import (
	"context"
	"fmt"

	"github.com/friendsincode/castline/internal/device"
	"github.com/friendsincode/castline/internal/events"
	"github.com/friendsincode/castline/internal/timedqueue"
	"github.com/friendsincode/castline/internal/timeline"
)

// Device is the reference stateful video-server façade (§2, §6). Unlike
// the HTTP device it runs its queue in ModeInOrder: per-port ordering
// matters because SETUP_PORT, LOAD_FRAGMENTS, and PLAY_CLIP/PAUSE_CLIP on
// the same port must never overlap or reorder.
type Device struct {
	*device.TimedDeviceBase

	collaborator Collaborator
	executor     *Executor
	project      device.Projector
	unwatch      func()

	opts device.Options
}

// New constructs an uninitialized video-server façade. collaborator must
// be non-nil.
func New(deviceID string, collaborator Collaborator, clock timedqueue.Clock) *Device {
	base := device.NewTimedDeviceBase(deviceID, timedqueue.ModeInOrder, clock, events.NewBus())
	return &Device{
		TimedDeviceBase: base,
		collaborator:    collaborator,
		project:         Project(deviceID),
	}
}

// Init connects (via the status monitor callback) and moves to READY once
// the server reports itself connected (§4.6).
func (d *Device) Init(ctx context.Context, opts device.Options) error {
	d.opts = opts
	d.executor = NewExecutor(d.collaborator, d.Signals, d.Clock, opts.ResendTime)
	d.Lifecycle = device.LifecycleInitializing

	info, err := d.collaborator.GetServer(ctx)
	if err != nil {
		return fmt.Errorf("videoserver: init: %w", err)
	}
	d.SetConnected(info.Connected)

	d.unwatch = d.collaborator.WatchStatus(func(info ServerInfo) {
		d.SetConnected(info.Connected)
	})
	return nil
}

// HandleState implements the façade contract by delegating to the generic
// algorithm with this device's Project/Diff/Execute, keying the queue by
// portId (§9 open question: the source of queueKey is device-specific).
func (d *Device) HandleState(snapshot timeline.Snapshot, mappings timeline.MappingTable) error {
	if d.executor == nil {
		return fmt.Errorf("videoserver: HandleState called before Init")
	}
	queueKeyFor := func(cmd device.Command) string {
		switch p := cmd.Payload.(type) {
		case SetupPortPayload:
			return p.PortID
		case LoadFragmentsPayload:
			return p.PortID
		case PlayPausePayload:
			return p.PortID
		case ClearPayload:
			return p.PortID
		case ReleasePayload:
			return p.PortID
		default:
			return cmd.QueueKey
		}
	}
	return device.HandleState(d.TimedDeviceBase, snapshot, mappings, Empty(), d.project, Diff, d.executor.Execute, queueKeyFor)
}

// MakeReady replays makeReadyCommands (if configured) and optionally
// forces a full resync (§4.6, §6).
func (d *Device) MakeReady(ctx context.Context, okToDestroy bool) error {
	if okToDestroy && d.opts.MakeReadyDoesReset {
		d.Store.ClearStates()
	}
	for _, cmd := range d.opts.MakeReadyCommands {
		c := cmd
		d.Queue.Queue(c.ExecuteAt, c.QueueKey, func(ctx context.Context, payload any) error {
			return d.executor.Execute(payload.(device.Command))
		}, c)
	}
	return nil
}

// Terminate disposes the queue, stops watching status, and disconnects.
func (d *Device) Terminate(ctx context.Context) error {
	if d.unwatch != nil {
		d.unwatch()
	}
	d.TimedDeviceBase.Terminate()
	d.SetConnected(false)
	return nil
}

// GetStatus reflects the connection state of the collaborator (§4.6, §7).
func (d *Device) GetStatus() device.Status {
	if !d.Connected() {
		return device.Status{Code: device.StatusBad, Messages: []string{"not connected"}, Active: false}
	}
	return device.Status{Code: device.StatusGood, Active: true}
}
