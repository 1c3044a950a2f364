package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func capture(level Level, fn func(*Logger)) []Entry {
	var buf bytes.Buffer
	l := NewLogger(level)
	l.SetOutput(&buf)
	fn(l)

	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			panic(err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestLevelFiltering(t *testing.T) {
	entries := capture(LevelWarn, func(l *Logger) {
		l.Debug("d", nil)
		l.Info("i", nil)
		l.Warn("w", nil)
		l.Error("e", nil)
	})
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Level != "WARN" || entries[1].Level != "ERROR" {
		t.Fatalf("levels = %s, %s", entries[0].Level, entries[1].Level)
	}
}

func TestLogPass(t *testing.T) {
	entries := capture(LevelDebug, func(l *Logger) {
		l.LogPass(7, 0, nil)
		l.LogPass(8, 2, []int{1, 3})
	})
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Level != "DEBUG" || entries[0].Fields["pass"].(float64) != 7 {
		t.Fatalf("clean pass entry = %+v", entries[0])
	}
	if entries[1].Level != "WARN" || entries[1].Fields["disconnects"].(float64) != 2 {
		t.Fatalf("disconnect pass entry = %+v", entries[1])
	}
	if _, ok := entries[1].Fields["nodes"]; !ok {
		t.Fatalf("expected node list in fields: %+v", entries[1].Fields)
	}
}

func TestLogProbe(t *testing.T) {
	entries := capture(LevelDebug, func(l *Logger) {
		l.LogProbe("10.0.0.1", true, 12, nil)
		l.LogProbe("10.0.0.2", false, -1, nil)
	})
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Fields["response_ms"].(float64) != 12 {
		t.Fatalf("probe entry = %+v", entries[0])
	}
	if _, ok := entries[1].Fields["response_ms"]; ok {
		t.Fatalf("failed probe must not report a response time: %+v", entries[1])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		"ERROR":   LevelError,
		"bogus":   LevelInfo,
	}
	for s, want := range cases {
		if got := ParseLevel(s); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
}
