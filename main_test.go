package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amenongit/aranealarm-go/internal/config"
	"github.com/amenongit/aranealarm-go/internal/engine"
	"github.com/amenongit/aranealarm-go/internal/log"
	"github.com/amenongit/aranealarm-go/internal/notify"
	"github.com/amenongit/aranealarm-go/internal/probe"
)

type stubProber struct{}

func (stubProber) Check(_ context.Context, _ string, _ time.Duration, _ int) probe.Result {
	return probe.Result{Connected: true, ResponseTime: 1}
}

func TestBuildProber(t *testing.T) {
	for _, kind := range []string{"probing", "icmp", "external"} {
		p, err := buildProber(kind, false)
		if err != nil {
			t.Fatalf("buildProber(%q): %v", kind, err)
		}
		if p == nil {
			t.Fatalf("buildProber(%q) returned nil", kind)
		}
	}
	if _, err := buildProber("carrier-pigeon", false); err == nil {
		t.Fatalf("expected error for unknown prober kind")
	}
}

func TestRunHeadlessStopsOnCancel(t *testing.T) {
	eng, err := engine.New([]config.NodeConfig{{Address: "192.0.2.1", Name: "n", SpeechName: "n",
		WaitDur: 10 * time.Millisecond, Attempts: 1}}, engine.Options{Prober: stubProber{}})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runHeadless(ctx, eng, log.NewLogger(log.LevelError))
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("runHeadless returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("runHeadless did not stop on cancel")
	}
}

func TestStartupWiring(t *testing.T) {
	tmpDir := t.TempDir()
	nodesPath := filepath.Join(tmpDir, "nodes.json")
	configPath := filepath.Join(tmpDir, "aranealarm.json")

	nodes := `[{"ip": "192.0.2.1", "name": "gw", "speech_name": "gateway"},
	           {"ip": "192.0.2.2"}]`
	if err := os.WriteFile(nodesPath, []byte(nodes), 0o644); err != nil {
		t.Fatalf("write nodes: %v", err)
	}
	top := `{"ip": ["nodes.json"], "hush_interval": 15}`
	if err := os.WriteFile(configPath, []byte(top), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if len(cfg.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(cfg.Nodes))
	}

	voice := notify.NewVoice(notify.SilentSpeaker{})
	eng, err := engine.New(cfg.Nodes, engine.Options{
		HushInterval: cfg.HushInterval,
		Prober:       stubProber{},
		Commands:     voice,
		Player:       notify.NopPlayer{},
	})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	// Two ticks with a pause complete the first pass: the stub prober
	// responds immediately, the second tick drains and closes.
	eng.Tick()
	time.Sleep(50 * time.Millisecond)
	eng.Tick()

	entry, ok := eng.LogBack(0)
	if !ok || entry.Pass != 1 {
		t.Fatalf("entry = %+v ok=%v, want pass 1", entry, ok)
	}
	if entry.Disconnects != 0 {
		t.Fatalf("disconnects = %d, want 0", entry.Disconnects)
	}
	snap := eng.Snapshot()
	if snap.HushInterval != 15*time.Second {
		t.Fatalf("hush interval = %v, want 15s", snap.HushInterval)
	}
}

func TestStartupRejectsEmptyNodeSet(t *testing.T) {
	if _, err := engine.New(nil, engine.Options{Prober: stubProber{}}); err == nil {
		t.Fatalf("expected startup error for zero nodes")
	}
}
