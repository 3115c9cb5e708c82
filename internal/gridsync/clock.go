package gridsync

import "time"

// The session epoch: all wire timestamps and race deadlines are measured
// against this instant rather than accumulated per-frame deltas.
var sessionStartTime = time.Now()

func currentTimeMillisecond() int64 {
	return time.Since(sessionStartTime).Milliseconds()
}

func currentTimeSecond() float64 {
	return time.Since(sessionStartTime).Seconds()
}
