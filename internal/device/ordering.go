/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package device

import "sort"

// SortCommands applies the differ's deterministic ordering (§4.4):
// TemporalPriority ascending dominates across layers, with SortKey (e.g.
// layer name) only breaking ties within equal priority. Sorting by SortKey
// first and then stably re-sorting by TemporalPriority achieves this in two
// stable passes. Devices call this once after building their raw command
// list.
func SortCommands(cmds []Command) []Command {
	sort.SliceStable(cmds, func(i, j int) bool {
		return cmds[i].SortKey < cmds[j].SortKey
	})
	sort.SliceStable(cmds, func(i, j int) bool {
		return cmds[i].TemporalPriority < cmds[j].TemporalPriority
	})
	return cmds
}

// PrepareAheadTime computes executeAt for a prepare-ahead command per
// §4.4: max(oldStateTime + prepareWait, transitionTime - idealPrepare),
// which never precedes the old state's time plus prepareWait. It precedes
// the transition only while that floor is earlier than transitionTime;
// otherwise the floor wins and the result is at or after transitionTime.
func PrepareAheadTime(oldStateTime, transitionTime, prepareWait, idealPrepare int64) int64 {
	fromOld := oldStateTime + prepareWait
	fromIdeal := transitionTime - idealPrepare
	if fromOld > fromIdeal {
		return fromOld
	}
	return fromIdeal
}
