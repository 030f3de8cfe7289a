/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package httpdevice

import (
	"context"
	"fmt"

	"github.com/friendsincode/castline/internal/device"
	"github.com/friendsincode/castline/internal/events"
	"github.com/friendsincode/castline/internal/timedqueue"
	"github.com/friendsincode/castline/internal/timeline"
)

// Device is the reference stateless HTTP sender façade (§6).
type Device struct {
	*device.TimedDeviceBase

	collaborator Collaborator
	executor     *Executor
	project      device.Projector

	opts device.Options
}

// New constructs an uninitialized HTTP device façade. collaborator must be
// non-nil; it is the protocol boundary this façade never implements
// itself (§6).
func New(deviceID string, collaborator Collaborator, clock timedqueue.Clock) *Device {
	base := device.NewTimedDeviceBase(deviceID, timedqueue.ModeBurst, clock, events.NewBus())
	return &Device{
		TimedDeviceBase: base,
		collaborator:    collaborator,
		project:         Project(deviceID),
	}
}

// Init connects the collaborator (assumed pre-connected — the HTTP device
// has no persistent connection) and moves to READY.
func (d *Device) Init(ctx context.Context, opts device.Options) error {
	d.opts = opts
	d.executor = NewExecutor(d.collaborator, d.Signals, d.Clock, opts.ResendTime)
	d.Lifecycle = device.LifecycleInitializing
	d.SetConnected(true)
	return nil
}

// HandleState implements the façade contract by delegating to the generic
// algorithm with this device's Project/Diff/Execute.
func (d *Device) HandleState(snapshot timeline.Snapshot, mappings timeline.MappingTable) error {
	if d.executor == nil {
		return fmt.Errorf("httpdevice: HandleState called before Init")
	}
	queueKeyFor := func(cmd device.Command) string {
		lc, _ := cmd.Payload.(LayerCommand)
		return lc.QueueID
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

// Terminate disposes the queue and disconnects.
func (d *Device) Terminate(ctx context.Context) error {
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
