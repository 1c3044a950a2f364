package engine

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/amenongit/aranealarm-go/internal/notify"
	"github.com/amenongit/aranealarm-go/internal/probe"
)

// matrixProber replays passes[p][i] for node i on its p-th check.
type matrixProber struct {
	passes [][]bool
	calls  map[string]int
	addrs  map[string]int
}

func (p *matrixProber) Check(_ context.Context, addr string, _ time.Duration, _ int) probe.Result {
	i := p.addrs[addr]
	pass := p.calls[addr]
	p.calls[addr]++
	if pass >= len(p.passes) {
		return probe.Result{Connected: false, ResponseTime: -1}
	}
	if p.passes[pass][i] {
		return probe.Result{Connected: true, ResponseTime: 1}
	}
	return probe.Result{Connected: false, ResponseTime: -1}
}

func TestEngineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	props := gopter.NewProperties(parameters)

	props.Property("one announcement per disconnect edge, level matches last count", prop.ForAll(
		func(passes [][]bool) bool {
			const nodes = 3
			cfgs := testNodes(nodes)
			prober := &matrixProber{
				passes: passes,
				calls:  map[string]int{},
				addrs:  map[string]int{},
			}
			for i, cfg := range cfgs {
				prober.addrs[cfg.Address] = i
			}
			e, clock, sink, _ := newTestEngine(t, cfgs, Options{Prober: prober, LogSize: 16})

			e.Tick()
			for range passes {
				cycle(e, clock)
			}

			// Expected edges against an all-connected starting state.
			prev := make([]bool, nodes)
			for i := range prev {
				prev[i] = true
			}
			edges, lastCount := 0, 0
			for _, row := range passes {
				lastCount = 0
				for i, conn := range row {
					if prev[i] && !conn {
						edges++
					}
					if !conn {
						lastCount++
					}
					prev[i] = conn
				}
			}

			spoken, counts := 0, []int(nil)
			for _, cmd := range sink.cmds {
				switch c := cmd.(type) {
				case notify.Speak:
					spoken++
				case notify.SetAlertCount:
					counts = append(counts, c.Count)
				}
			}
			if spoken != edges {
				return false
			}
			if len(counts) != len(passes) {
				return false
			}
			if len(counts) > 0 && counts[len(counts)-1] != lastCount {
				return false
			}
			return true
		},
		gen.SliceOf(gen.SliceOfN(3, gen.Bool())),
	))

	props.Property("backscroll stays within the populated log", prop.ForAll(
		func(moves []int) bool {
			prober := &matrixProber{
				passes: nil,
				calls:  map[string]int{},
				addrs:  map[string]int{"10.0.0.1": 0},
			}
			e, clock, _, _ := newTestEngine(t, testNodes(1), Options{Prober: prober, LogSize: 8})

			e.Tick()
			check := func() bool {
				snap := e.Snapshot()
				limit := snap.LogLen
				if limit < 1 {
					limit = 1
				}
				return snap.Behind >= 0 && snap.Behind < limit
			}
			for _, m := range moves {
				switch {
				case m > 0:
					e.ScrollBack(m)
				case m < 0:
					e.ScrollForward(-m)
				default:
					cycle(e, clock)
				}
				if !check() {
					return false
				}
			}
			return check()
		},
		gen.SliceOf(gen.IntRange(-5, 5)),
	))

	props.TestingRun(t)
}
