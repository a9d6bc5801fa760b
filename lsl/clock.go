package lsl

import "time"

// clockEpoch anchors the monotonic clock. Reading it through time.Since
// makes LocalClock immune to wall-clock adjustments.
var clockEpoch = time.Now()

// LocalClock returns seconds on a local monotonic clock. Readings are only
// meaningful relative to each other within one process, which is exactly
// what sample timestamp alignment needs.
func LocalClock() float64 {
	return time.Since(clockEpoch).Seconds()
}
