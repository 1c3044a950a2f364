package engine

import (
	"time"

	"github.com/amenongit/aranealarm-go/internal/config"
	"github.com/amenongit/aranealarm-go/internal/node"
	"github.com/amenongit/aranealarm-go/internal/probe"
)

// NodeView is a read-only copy of one node's displayable state.
type NodeView struct {
	Number     int // 1-based
	Address    string
	Name       string
	SpeechName string
	GeoLoc     *config.GeoLoc

	Connected        bool
	ResponseTime     int // node.Unset until first success
	PrevResponseTime int
	PeakResponseTime int
	Data             []probe.KV

	Average   float64
	StdDev    float64
	HasAvg    bool
	HasStdDev bool

	LastChange          time.Time
	CurrentDuration     time.Duration
	PeakConnDuration    time.Duration
	PeakDisconnDuration time.Duration
	Issues              int

	HistoryLen  int
	HistoryConn int
}

// Snapshot is the read-only state handed to the presentation layer each
// frame. It is a value copy: the renderer can never mutate engine state.
type Snapshot struct {
	Nodes []NodeView

	Pass        uint64
	Disconnects int
	AlarmSince  time.Time

	Hushed       bool
	HushInterval time.Duration

	Behind int
	LogLen int
}

// Snapshot copies the current engine state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	now := e.now()
	snap := Snapshot{
		Nodes:        make([]NodeView, 0, len(e.nodes)),
		Pass:         e.passNum,
		Disconnects:  e.lastDisconnects,
		AlarmSince:   e.lastAlarmChange,
		Hushed:       e.hushed,
		HushInterval: e.hushInterval,
		Behind:       e.behind,
		LogLen:       e.log.Len(),
	}

	for i, n := range e.nodes {
		view := NodeView{
			Number:              i + 1,
			Address:             n.Address,
			Name:                n.Name,
			SpeechName:          n.SpeechName,
			GeoLoc:              n.GeoLoc,
			Connected:           n.Connected,
			ResponseTime:        n.ResponseTime,
			PrevResponseTime:    n.PrevResponseTime,
			PeakResponseTime:    n.PeakResponseTime,
			Data:                append([]probe.KV(nil), n.Data...),
			LastChange:          n.LastChange,
			CurrentDuration:     n.CurrentDuration(now),
			PeakConnDuration:    n.PeakConnDuration,
			PeakDisconnDuration: n.PeakDisconnDuration,
			Issues:              n.Issues,
			HistoryLen:          n.HistoryLen(),
			HistoryConn:         n.HistoryConn(),
		}
		view.Average, view.HasAvg = n.Average()
		view.StdDev, view.HasStdDev = n.StdDev()
		snap.Nodes = append(snap.Nodes, view)
	}
	return snap
}

// NodeCount is the fixed number of configured nodes.
func (e *Engine) NodeCount() int {
	return len(e.nodes)
}

// HistoryAt reports node nodeIdx's connectivity back slots behind the
// present (0 = the pass in flight). known is false for never-written slots.
func (e *Engine) HistoryAt(nodeIdx, back int) (connected bool, known bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if nodeIdx < 0 || nodeIdx >= len(e.nodes) {
		return false, false
	}
	return e.nodes[nodeIdx].HistoryAt(back)
}

// ScrollBack moves the log/history backscroll deeper into the past, clamped
// to the oldest retained entry.
func (e *Engine) ScrollBack(steps int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if steps < 0 {
		return
	}
	e.behind = clampBehind(e.behind+steps, e.log.Len())
}

// ScrollForward moves the backscroll toward the present.
func (e *Engine) ScrollForward(steps int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if steps < 0 {
		return
	}
	e.behind = clampBehind(e.behind-steps, e.log.Len())
}

// ScrollToPresent returns the backscroll to the live view.
func (e *Engine) ScrollToPresent() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.behind = 0
}

// ScrollToOldest jumps to the oldest retained entry. Unlike the original
// implementation this stays correct after the ring wraps: the target is
// derived from the populated count, not the raw cursor.
func (e *Engine) ScrollToOldest() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.behind = clampBehind(e.log.Len()-1, e.log.Len())
}

func clampBehind(behind, populated int) int {
	if behind < 0 {
		return 0
	}
	if max := populated - 1; behind > max {
		if max < 0 {
			return 0
		}
		return max
	}
	return behind
}

// Unset mirrors the node package sentinel for renderers reading NodeView.
const Unset = node.Unset
