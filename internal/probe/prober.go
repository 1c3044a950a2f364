// Package probe defines the reachability-check contract the engine schedules,
// and ships ICMP (library and raw-socket) and external-command implementations.
package probe

import (
	"context"
	"time"
)

// KV is one auxiliary name/value pair reported by a successful probe.
type KV struct {
	Name  string
	Value string
}

// Result captures one multi-attempt check against a single endpoint.
// ResponseTime is in integer milliseconds and only meaningful when Connected.
// Err carries the last transport error for fallback decisions and logging;
// an unreachable endpoint is a normal outcome, never an error to the caller.
type Result struct {
	Connected    bool
	ResponseTime int
	Data         []KV
	Err          error
}

// Outcome tags a Result with the index of the node it belongs to.
type Outcome struct {
	Index int
	Result
}

// Prober performs up to attempts sequential trials against addr, each bounded
// by timeout. The first successful trial short-circuits the rest. On success
// the latency comes from the trial itself when the transport reports one, else
// from a wall clock spanning the whole call (less precise). On total failure
// the result carries no latency.
type Prober interface {
	Check(ctx context.Context, addr string, timeout time.Duration, attempts int) Result
}

// noResponseTime marks a successful trial whose transport did not report a
// latency of its own; Check substitutes the wall-clock fallback.
const noResponseTime = -1

func wallClockMillis(start time.Time) int {
	ms := int(time.Since(start).Milliseconds())
	if ms < 0 {
		ms = 0
	}
	return ms
}
