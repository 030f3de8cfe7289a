/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package statestore holds the ordered log of past (timestamp, deviceState)
// snapshots each device façade consults to find the "old state" baseline
// for its next diff pass (§4.2).
package statestore

import "sort"

// Store is an ordered log of (timestamp, state) entries. State is an
// opaque any — each device kind stores its own concrete device-state type.
type Store struct {
	// entries is kept sorted ascending by timestamp; overwritten in place
	// on an exact-timestamp SetState.
	entries []entry
}

type entry struct {
	timestamp int64
	state     any
}

// New constructs an empty Store.
func New() *Store {
	return &Store{}
}

// GetStateBefore returns the entry with the greatest timestamp strictly
// less than t, or (nil, false) if none exists.
func (s *Store) GetStateBefore(t int64) (any, bool) {
	state, _, ok := s.GetEntryBefore(t)
	return state, ok
}

// GetEntryBefore is GetStateBefore plus the entry's own timestamp, needed
// by the differ's prepare-ahead calculation (oldState.time, §4.4).
func (s *Store) GetEntryBefore(t int64) (any, int64, bool) {
	idx := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].timestamp >= t
	})
	if idx == 0 {
		return nil, 0, false
	}
	e := s.entries[idx-1]
	return e.state, e.timestamp, true
}

// SetState inserts a new snapshot at t, overwriting any entry at exactly t.
func (s *Store) SetState(state any, t int64) {
	idx := sort.Search(len(s.entries), func(i int) bool {
		return s.entries[i].timestamp >= t
	})
	if idx < len(s.entries) && s.entries[idx].timestamp == t {
		s.entries[idx].state = state
		return
	}
	s.entries = append(s.entries, entry{})
	copy(s.entries[idx+1:], s.entries[idx:])
	s.entries[idx] = entry{timestamp: t, state: state}
}

// CleanUpStates discards entries older than upTo-minAge, while always
// leaving at least one entry strictly earlier than upTo so a subsequent
// GetStateBefore(upTo) (or any later query) still resolves.
func (s *Store) CleanUpStates(minAge, upTo int64) {
	cutoff := upTo - minAge

	keepFrom := 0
	for i, e := range s.entries {
		if e.timestamp >= cutoff {
			break
		}
		keepFrom = i
	}
	// keepFrom now indexes the last entry older than cutoff (or 0); keep
	// everything from there on so that entry remains as a fallback
	// baseline for queries at or after upTo.
	if keepFrom > 0 {
		s.entries = s.entries[keepFrom:]
	}
}

// ClearStates drops every entry; absence is treated as the empty state by
// callers (handleState), not by the store itself.
func (s *Store) ClearStates() {
	s.entries = nil
}

// Len reports the number of retained entries, for tests and diagnostics.
func (s *Store) Len() int { return len(s.entries) }
