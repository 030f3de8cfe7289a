/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package timeline holds the input data model the resolver engine consumes:
// resolved timeline snapshots and the mapping table that binds timeline
// layers to concrete device outputs. Nothing in this package performs I/O;
// it is pure data plus small accessor helpers.
package timeline

// DeviceKind identifies a device implementation family. The conductor
// (out of scope) assigns one Façade per (DeviceKind, DeviceID) pair.
type DeviceKind string

const (
	DeviceKindHTTPSend  DeviceKind = "httpSend"
	DeviceKindVideoServer DeviceKind = "videoServer"
)

// Content is the untyped, content.type-discriminated payload carried by a
// ResolvedObject. Device projectors look up content["type"] to decide how
// to interpret the rest of the map.
type Content map[string]any

// Type returns the discriminator string, or "" if absent/not a string.
func (c Content) Type() string {
	if c == nil {
		return ""
	}
	t, _ := c["type"].(string)
	return t
}

// Instance carries the resolved absolute timing of an object on a layer.
type Instance struct {
	Start int64 // ms, absolute
	End   int64 // ms, absolute; 0 means open-ended
}

// ResolvedObject is one timeline object pinned to a layer by the upstream
// resolver (out of scope here).
type ResolvedObject struct {
	ID                 string
	Instance           Instance
	Content            Content
	IsLookahead        bool
	LookaheadForLayer  string
	TemporalPriority   int
}

// Snapshot is the resolved state of the whole timeline at a point in time,
// as handed to handleState by the conductor.
type Snapshot struct {
	Time       int64
	Layers     map[string]ResolvedObject
	NextEvents []ChangePoint
}

// ChangePoint is a future moment at which the resolved timeline is known to
// change, used by the conductor to schedule the next handleState pass. The
// engine itself only reads Snapshot.Time and Snapshot.Layers.
type ChangePoint struct {
	Time int64
}

// Mapping binds a timeline layer id to a concrete device output. Fields
// beyond Device/DeviceID are device-specific; they are carried in Options
// and each projector reads the keys it needs from that map.
type Mapping struct {
	Device   DeviceKind
	DeviceID string
	// Options carries device-specific mapping fields (e.g. the video-server
	// port id a layer is bound to, or the HTTP queue id for a layer).
	Options map[string]any
}

// MappingTable binds layer ids to Mappings. The Projector only considers
// layers whose mapping's Device matches the owning device.
type MappingTable map[string]Mapping

// LayerFor resolves the mapping for a resolved object, following the
// lookahead-for-layer indirection when the object is a lookahead and its
// own layer has no mapping.
func (m MappingTable) LayerFor(layerID string, obj ResolvedObject) (Mapping, bool) {
	if mapping, ok := m[layerID]; ok {
		return mapping, true
	}
	if obj.IsLookahead && obj.LookaheadForLayer != "" {
		mapping, ok := m[obj.LookaheadForLayer]
		return mapping, ok
	}
	return Mapping{}, false
}
