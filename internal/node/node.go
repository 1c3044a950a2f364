// Package node holds the per-endpoint mutable state: the latest probe
// outcome, running statistics, transition bookkeeping, and the bounded
// connectivity history ring.
package node

import (
	"math"
	"time"

	"github.com/amenongit/aranealarm-go/internal/config"
	"github.com/amenongit/aranealarm-go/internal/probe"
	"github.com/amenongit/aranealarm-go/internal/ring"
)

// Unset marks peak durations and response times before any observation.
const Unset = -1

// Node is one monitored endpoint. Exactly one exists per configured endpoint,
// created at startup and mutated only by the engine's tick goroutine.
type Node struct {
	// Identity and probe parameters, immutable after New.
	Address    string
	Name       string
	SpeechName string
	WaitDur    time.Duration
	Attempts   int
	GeoLoc     *config.GeoLoc

	// Current outcome. Nodes start connected, so an endpoint that is down
	// from the very first pass registers a transition (and an issue).
	Connected        bool
	ResponseTime     int // milliseconds, Unset until first success
	PrevResponseTime int
	PeakResponseTime int
	Data             []probe.KV // replaced wholesale on successful probes only

	// Running statistics over successful probes; monotonic, never reset.
	respTimeSum    float64
	respTimeSqrSum float64
	respTimeNum    int

	// Transition bookkeeping.
	LastChange          time.Time
	PeakConnDuration    time.Duration // Unset until first observation
	PeakDisconnDuration time.Duration
	Issues              int // connected -> disconnected transitions

	history     *ring.Buffer[bool]
	historyConn int // connected values among populated history slots
}

// New creates a node from its configuration. now seeds the transition
// timestamp so duration displays start from process startup.
func New(cfg config.NodeConfig, historySize int, now time.Time) *Node {
	return &Node{
		Address:             cfg.Address,
		Name:                cfg.Name,
		SpeechName:          cfg.SpeechName,
		WaitDur:             cfg.WaitDur,
		Attempts:            cfg.Attempts,
		GeoLoc:              cfg.GeoLoc,
		Connected:           true,
		ResponseTime:        Unset,
		PrevResponseTime:    Unset,
		PeakResponseTime:    Unset,
		LastChange:          now,
		PeakConnDuration:    Unset,
		PeakDisconnDuration: Unset,
		history:             ring.New[bool](historySize),
	}
}

// Update applies one probe result. The history cursor is not advanced here:
// advancement is pass-scoped and happens once per completed pass via
// AdvanceHistory.
func (n *Node) Update(res probe.Result, now time.Time) {
	if res.Connected {
		if n.ResponseTime != Unset {
			n.PrevResponseTime = n.ResponseTime
		}
		n.ResponseTime = res.ResponseTime
		if res.ResponseTime > n.PeakResponseTime {
			n.PeakResponseTime = res.ResponseTime
		}
		rt := float64(res.ResponseTime)
		n.respTimeSum += rt
		n.respTimeSqrSum += rt * rt
		n.respTimeNum++
		n.Data = res.Data
	}

	if res.Connected != n.Connected {
		n.LastChange = now
		if !res.Connected {
			n.Issues++
		}
		n.Connected = res.Connected
	}

	// Write the current ring slot, keeping the connected tally incremental:
	// never rescan the buffer.
	if prev, populated := n.history.Peek(); populated {
		if !prev && n.Connected {
			n.historyConn++
		} else if prev && !n.Connected {
			n.historyConn--
		}
	} else if n.Connected {
		n.historyConn++
	}
	n.history.Set(n.Connected)
}

// AdvanceHistory moves the history cursor one slot forward. Called exactly
// once per completed pass.
func (n *Node) AdvanceHistory() {
	n.history.Advance()
}

// UpdatePeakDurations refreshes the peak (dis)connection run lengths against
// wall-clock time. Called every tick so displayed durations stay live.
func (n *Node) UpdatePeakDurations(now time.Time) {
	elapsed := now.Sub(n.LastChange)
	if n.Connected {
		if elapsed > n.PeakConnDuration {
			n.PeakConnDuration = elapsed
		}
	} else {
		if elapsed > n.PeakDisconnDuration {
			n.PeakDisconnDuration = elapsed
		}
	}
}

// CurrentDuration is how long the node has been in its present state.
func (n *Node) CurrentDuration(now time.Time) time.Duration {
	return now.Sub(n.LastChange)
}

// SuccessCount is the number of successful probes recorded.
func (n *Node) SuccessCount() int {
	return n.respTimeNum
}

// Average is the mean response time over all successful probes.
func (n *Node) Average() (float64, bool) {
	if n.respTimeNum < 1 {
		return 0, false
	}
	return n.respTimeSum / float64(n.respTimeNum), true
}

// StdDev is the sample standard deviation of response times, computed from
// the sum and sum-of-squares accumulators with Bessel's correction. Undefined
// for fewer than two samples.
func (n *Node) StdDev() (float64, bool) {
	if n.respTimeNum < 2 {
		return 0, false
	}
	num := float64(n.respTimeNum)
	m1 := n.respTimeSum / num
	m2 := n.respTimeSqrSum / num
	v := num * (m2 - m1*m1) / (num - 1)
	if v < 0 {
		v = 0 // floating-point slack
	}
	return math.Sqrt(v), true
}

// HistoryAt reports the connectivity value back slots behind the present:
// 0 is the slot of the pass in flight, 1 the most recently completed pass.
// known is false for slots never written.
func (n *Node) HistoryAt(back int) (connected bool, known bool) {
	if back == 0 {
		return n.history.Peek()
	}
	return n.history.Back(back - 1)
}

// HistoryLen is the number of populated history slots.
func (n *Node) HistoryLen() int {
	return n.history.Len()
}

// HistoryCap is the fixed history capacity.
func (n *Node) HistoryCap() int {
	return n.history.Cap()
}

// HistoryConn is the number of connected values among populated slots,
// maintained in O(1) per write.
func (n *Node) HistoryConn() int {
	return n.historyConn
}
