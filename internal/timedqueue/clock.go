/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timedqueue

import "time"

// Clock supplies the current time in monotonic milliseconds. Executors must
// call through this instead of reading the wall clock directly, so tests
// can drive time deterministically (§9, "Time source").
type Clock func() int64

// SystemClock returns the real wall clock in milliseconds.
func SystemClock() int64 {
	return time.Now().UnixMilli()
}
