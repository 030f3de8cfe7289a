/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package videoserver

import "context"

// RemotePort is the server's own view of one port.
type RemotePort struct {
	ID      string
	Channel int
}

// RemoteClip identifies a clip the server can resolve from a title.
type RemoteClip struct {
	ID    string
	Title string
	Pool  string
	FPS   float64
}

// Fragments is the in/out point pair (frames) a clip's fragment set is
// loaded at.
type Fragments struct {
	InPointFrames  int64
	OutPointFrames int64
}

// LoadedPort is the result of loading fragments onto a port: the in/out
// points the port itself now reports, which may differ slightly from the
// requested fragment set once the server snaps to its own frame grid.
type LoadedPort struct {
	PortInPoint  int64
	PortOutPoint int64
}

// ServerInfo is the coarse connection/health snapshot used by the status
// monitor callback.
type ServerInfo struct {
	Connected bool
	Pools     []string
}

// Collaborator is the narrow protocol surface the executor calls; a real
// implementation wraps the server's own client SDK (out of scope here —
// §6). One Collaborator is shared by every port this device owns.
type Collaborator interface {
	GetPort(ctx context.Context, portID string) (RemotePort, bool, error)
	CreatePort(ctx context.Context, portID string, channel int) (RemotePort, error)
	ReleasePort(ctx context.Context, portID string) error

	SearchClip(ctx context.Context, title string) (RemoteClip, error)
	GetClip(ctx context.Context, clipID string) (RemoteClip, error)
	GetClipFragments(ctx context.Context, clipID string) (Fragments, error)
	LoadFragmentsOntoPort(ctx context.Context, portID, clipID string, fragments Fragments) (LoadedPort, error)

	PortPrepareJump(ctx context.Context, portID string, offsetFrames int64) error
	PortTriggerJump(ctx context.Context, portID string) error
	PortHardJump(ctx context.Context, portID string, offsetFrames int64) error
	PortStop(ctx context.Context, portID string) error
	PortPlay(ctx context.Context, portID string) error
	PortClear(ctx context.Context, portID string) error

	GetServer(ctx context.Context) (ServerInfo, error)

	// WatchStatus registers a callback the collaborator invokes whenever
	// the underlying connection's health changes, breaking the cyclic
	// executor<->façade reference the status monitor would otherwise
	// require (§9 design note).
	WatchStatus(onChange func(ServerInfo)) (unwatch func())
}

// NetworkError is returned by a Collaborator for socket-class failures so
// the executor can classify retryability without parsing error strings.
type NetworkError struct {
	Code string
	Err  error
}

func (e *NetworkError) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return e.Code + ": " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NotFoundError is returned by ReleasePort (and similar idempotent
// operations) when the remote resource is already gone; the executor
// treats this as success rather than a PROTOCOL error (§4.5: "a 404 on
// release is non-fatal").
type NotFoundError struct{ Err error }

func (e *NotFoundError) Error() string {
	if e.Err == nil {
		return "not found"
	}
	return e.Err.Error()
}

func (e *NotFoundError) Unwrap() error { return e.Err }
