/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package device defines the shared device façade contract (§4.6) and the
// common TimedDeviceBase scaffolding (Timed Queue + State Store + signal
// bus) every concrete device composes rather than inherits (§9 design
// note: "model as a variant set with a shared capability interface... do
// not inherit").
package device

import (
	"context"

	"github.com/friendsincode/castline/internal/events"
	"github.com/friendsincode/castline/internal/statestore"
	"github.com/friendsincode/castline/internal/timedqueue"
	"github.com/friendsincode/castline/internal/timeline"
)

// DeviceState is the contract every device-specific state shape must
// satisfy: cheap, deep equality, so the differ can diff old vs new.
type DeviceState interface {
	// Equal reports whether other represents the same device state. The
	// empty state (device has nothing scheduled) must compare equal to
	// itself and be representable by every implementation.
	Equal(other DeviceState) bool
}

// Command is the device-agnostic command shape the differ emits and the
// queue dispatches (§3).
type Command struct {
	ExecuteAt        int64
	QueueKey         string // "" means unordered
	Kind             string
	Payload          any
	TimelineObjID    string
	Context          string
	TemporalPriority int
	// SortKey is the differ's stable secondary ordering key (e.g. layer
	// name), applied before TemporalPriority.
	SortKey string
}

// Projector turns a resolved timeline snapshot into this device's state
// shape. Pure, side-effect free (§4.3).
type Projector func(snapshot timeline.Snapshot, mappings timeline.MappingTable) (DeviceState, error)

// Differ computes the ordered command list transforming old into new.
// oldStateTime is the timestamp the old snapshot was recorded at (used to
// bound prepare-ahead commands so they never precede it); transitionTime
// is the wall-clock moment the new state becomes active (§4.4).
type Differ func(old, new DeviceState, oldStateTime, transitionTime int64) []Command

// StatusCode is the façade's coarse health indicator (§4.6).
type StatusCode int

const (
	StatusGood StatusCode = iota
	StatusWarning
	StatusBad
)

func (s StatusCode) String() string {
	switch s {
	case StatusGood:
		return "GOOD"
	case StatusWarning:
		return "WARNING"
	case StatusBad:
		return "BAD"
	default:
		return "UNKNOWN"
	}
}

// Status is returned by GetStatus.
type Status struct {
	Code     StatusCode
	Messages []string
	Active   bool
}

// Options carries the configuration recognized on Init (§6).
type Options struct {
	// ResendTime: enable retry for network-class errors; minimum wait
	// between attempts, ms. <= 1 disables.
	ResendTime int64
	// MakeReadyCommands: replayed on MakeReady(true).
	MakeReadyCommands []Command
	// MakeReadyDoesReset: on MakeReady(true), also ClearStates() and force
	// a full resync.
	MakeReadyDoesReset bool

	// Device-kind-specific fields (CasparCG useScheduling/timeBase,
	// Quantel gatewayUrl/ISAUrl/zoneId/serverId) live in Extra so the
	// generic Options type doesn't grow per device kind.
	Extra map[string]any
}

// Facade is the public lifecycle contract every device implementation
// exposes to the conductor (§4.6, §6). lifecycle: UNINITIALIZED ->
// INITIALIZING -> READY <-> DISCONNECTED -> TERMINATED.
type Facade interface {
	Init(ctx context.Context, opts Options) error
	HandleState(snapshot timeline.Snapshot, mappings timeline.MappingTable) error
	ClearFuture(t int64)
	PrepareForHandleState(t int64)
	MakeReady(ctx context.Context, okToDestroy bool) error
	Terminate(ctx context.Context) error
	GetStatus() Status
	Connected() bool
}

// Lifecycle is the façade's coarse state machine.
type Lifecycle int

const (
	LifecycleUninitialized Lifecycle = iota
	LifecycleInitializing
	LifecycleReady
	LifecycleDisconnected
	LifecycleTerminated
)

// QueueKeyFunc extracts the per-resource serialization key from a command,
// configurable per device kind (§9 open question: content.queueId for the
// HTTP device, portId for the stateful device).
type QueueKeyFunc func(cmd Command) string

// TimedDeviceBase bundles the Timed Queue, State Store, and signal bus
// every façade needs, plus the lifecycle bookkeeping common to all of
// them. Concrete devices embed this and add their own Projector, Differ,
// and Executor.
type TimedDeviceBase struct {
	DeviceID string
	Queue    *timedqueue.Queue
	Store    *statestore.Store
	Signals  *events.Bus
	Clock    timedqueue.Clock

	Lifecycle Lifecycle
	connected bool
}

// NewTimedDeviceBase constructs the base with a queue in the given mode.
func NewTimedDeviceBase(deviceID string, mode timedqueue.Mode, clock timedqueue.Clock, signals *events.Bus) *TimedDeviceBase {
	if clock == nil {
		clock = timedqueue.SystemClock
	}
	if signals == nil {
		signals = events.NewBus()
	}
	return &TimedDeviceBase{
		DeviceID: deviceID,
		Queue:    timedqueue.New(timedqueue.Options{Mode: mode, Clock: clock, Signals: signals}),
		Store:    statestore.New(),
		Signals:  signals,
		Clock:    clock,
	}
}

// PrepareForHandleState is idempotent: it cancels queued commands at or
// after t and prunes stored states older than t, except the latest of them,
// which stays as the baseline for the next pass, so a revised timeline
// does not double-fire already-superseded commands (§4.6).
func (b *TimedDeviceBase) PrepareForHandleState(t int64) {
	b.Queue.ClearQueueNowAndAfter(t)
	b.Store.CleanUpStates(0, t)
}

// ClearFuture removes queued commands with ExecuteAt > t. Committed
// stored states are untouched.
func (b *TimedDeviceBase) ClearFuture(t int64) {
	b.Queue.ClearQueueAfter(t)
}

// SetConnected updates connection state and emits connectionChanged.
func (b *TimedDeviceBase) SetConnected(connected bool) {
	if b.connected == connected {
		return
	}
	b.connected = connected
	if connected {
		b.Lifecycle = LifecycleReady
	} else if b.Lifecycle == LifecycleReady {
		b.Lifecycle = LifecycleDisconnected
	}
	b.Signals.Publish(events.Signal{Kind: events.KindConnectionChanged, Connected: connected})
}

func (b *TimedDeviceBase) Connected() bool { return b.connected }

// Terminate disposes the queue. Concrete devices call this after
// disconnecting their protocol collaborator.
func (b *TimedDeviceBase) Terminate() {
	b.Queue.Dispose()
	b.Lifecycle = LifecycleTerminated
}
