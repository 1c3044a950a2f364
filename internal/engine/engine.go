// Package engine implements the polling core: the synchronized pass
// scheduler, the per-pass aggregator and bounded log, and the alarm state
// machine that turns probe outcomes into edge-triggered notifications.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amenongit/aranealarm-go/internal/config"
	"github.com/amenongit/aranealarm-go/internal/node"
	"github.com/amenongit/aranealarm-go/internal/notify"
	"github.com/amenongit/aranealarm-go/internal/probe"
	"github.com/amenongit/aranealarm-go/internal/ring"
)

// Ring capacities, power of two like the original tool's.
const (
	DefaultHistorySize = 1 << 17
	DefaultLogSize     = 1 << 17
)

// DefaultCheckRate is one pass per second.
const DefaultCheckRate = 1.0

// CommandSink receives notifier commands; satisfied by notify.Voice.
type CommandSink interface {
	Push(cmd notify.Command)
}

// Options configures an Engine.
type Options struct {
	CheckRate    float64       // passes per second ceiling; 0 means DefaultCheckRate
	HushInterval time.Duration // repeat-announcement throttle; clamped to >= 1s
	HistorySize  int           // per-node ring capacity; 0 means DefaultHistorySize
	LogSize      int           // pass log capacity; 0 means DefaultLogSize
	Prober       probe.Prober
	Commands     CommandSink   // may be nil (no notifier wired)
	Player       notify.Player // may be nil (no music)
}

// Engine owns all node, log, and alarm state. All mutation happens through
// the single goroutine calling Tick and the keyboard-facing methods; the
// RWMutex exists for concurrent readers such as the metrics handler.
type Engine struct {
	mu sync.RWMutex

	nodes   []*node.Node
	prober  probe.Prober
	results chan probe.Outcome

	// launch and now are swappable for deterministic tests.
	launch func(func())
	now    func() time.Time

	checkRate     float64
	lastPassStart time.Time
	outstanding   int
	passOpen      bool
	passNum       uint64

	log    *ring.Buffer[LogEntry]
	behind int // backscroll depth; invariant 0 <= behind < max(1, log.Len())

	lastDisconnects int
	lastDisconnSet  map[int]struct{}
	lastAlarmChange time.Time

	hushed       bool
	hushInterval time.Duration

	commands CommandSink
	player   notify.Player
}

// New builds an engine over the configured nodes. Zero nodes is a fatal
// configuration error: a monitor with nothing to monitor must not start.
func New(cfgs []config.NodeConfig, opts Options) (*Engine, error) {
	if len(cfgs) == 0 {
		return nil, fmt.Errorf("engine: no nodes configured")
	}
	if opts.Prober == nil {
		return nil, fmt.Errorf("engine: no prober configured")
	}

	checkRate := opts.CheckRate
	if checkRate <= 0 {
		checkRate = DefaultCheckRate
	}
	historySize := opts.HistorySize
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	logSize := opts.LogSize
	if logSize <= 0 {
		logSize = DefaultLogSize
	}
	hushInterval := opts.HushInterval
	if hushInterval < config.MinHushInterval {
		hushInterval = config.DefaultHushInterval
	}

	e := &Engine{
		prober:  opts.Prober,
		results: make(chan probe.Outcome, len(cfgs)),
		launch:  func(fn func()) { go fn() },
		now:     time.Now,

		checkRate: checkRate,

		log: ring.New[LogEntry](logSize),

		lastDisconnSet: make(map[int]struct{}),

		hushInterval: hushInterval,

		commands: opts.Commands,
		player:   opts.Player,
	}

	startup := e.now()
	e.lastAlarmChange = startup
	for _, cfg := range cfgs {
		e.nodes = append(e.nodes, node.New(cfg, historySize, startup))
	}
	return e, nil
}

// Tick is the scheduler heartbeat, called on a fixed low-frequency cadence by
// the host loop. It drains available probe results, keeps duration displays
// live, closes out a completed pass (log entry, history cursors, alarm), and
// starts the next pass once the inter-pass interval has elapsed.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.drainResults(now)

	for _, n := range e.nodes {
		n.UpdatePeakDurations(now)
	}

	if e.outstanding > 0 {
		return
	}

	if e.passOpen {
		e.passNum++
		e.log.Append(e.makeLogEntry(now))
		for _, n := range e.nodes {
			n.AdvanceHistory()
		}
		// Keep the backscroll anchored to the same entry as the log grows,
		// but never past the oldest retained entry.
		if e.behind > 0 && e.behind < e.log.Len()-1 {
			e.behind++
		}
		e.passOpen = false
		e.syncAlarm(now)
	}

	if now.Sub(e.lastPassStart) > e.interPassInterval() {
		e.startPass(now)
	}
}

func (e *Engine) interPassInterval() time.Duration {
	return time.Duration(float64(time.Second) / e.checkRate)
}

// drainResults applies every result currently buffered, in arrival order.
// Results are never dropped: the channel holds them until the next glance.
func (e *Engine) drainResults(now time.Time) {
	for {
		select {
		case out := <-e.results:
			if out.Index < 0 || out.Index >= len(e.nodes) {
				continue
			}
			e.nodes[out.Index].Update(out.Result, now)
			e.outstanding--
		default:
			return
		}
	}
}

// startPass launches one concurrent probe per node. Probes deliver their
// results to the shared channel and are abandoned on shutdown rather than
// awaited.
func (e *Engine) startPass(now time.Time) {
	e.lastPassStart = now
	e.outstanding = len(e.nodes)
	e.passOpen = true
	for i, n := range e.nodes {
		index := i
		addr, waitDur, attempts := n.Address, n.WaitDur, n.Attempts
		e.launch(func() {
			res := e.prober.Check(context.Background(), addr, waitDur, attempts)
			e.results <- probe.Outcome{Index: index, Result: res}
		})
	}
}

// SetHush enables or disables throttling of repeated alarm announcements.
// A positive interval replaces the configured one (minimum one second).
// Hush never suppresses the visual alarm or new-disconnect one-shots.
func (e *Engine) SetHush(hushed bool, interval time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.hushed = hushed
	if interval > 0 {
		if interval < config.MinHushInterval {
			interval = config.MinHushInterval
		}
		e.hushInterval = interval
	}
	if e.hushed {
		e.push(notify.SetHush{Interval: e.hushInterval})
	} else {
		e.push(notify.SetHush{})
	}
}

// ToggleHush flips the hush flag, keeping the configured interval.
func (e *Engine) ToggleHush() {
	e.mu.RLock()
	hushed := e.hushed
	e.mu.RUnlock()
	e.SetHush(!hushed, 0)
}

// AdjustHushInterval hushes with the interval moved by delta, floored at one
// second.
func (e *Engine) AdjustHushInterval(delta time.Duration) {
	e.mu.RLock()
	interval := e.hushInterval + delta
	e.mu.RUnlock()
	if interval < config.MinHushInterval {
		interval = config.MinHushInterval
	}
	e.SetHush(true, interval)
}

// Shutdown tells the notifier to stop. In-flight probes are abandoned.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.push(notify.Shutdown{})
}

func (e *Engine) push(cmd notify.Command) {
	if e.commands != nil {
		e.commands.Push(cmd)
	}
}
