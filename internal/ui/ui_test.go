package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/amenongit/aranealarm-go/internal/engine"
	"github.com/amenongit/aranealarm-go/internal/probe"
)

func TestFormatClock(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "000:00:00"},
		{-time.Second, "000:00:00"},
		{62 * time.Second, "000:01:02"},
		{2*time.Hour + 13*time.Minute + 45*time.Second, "002:13:45"},
		{120 * time.Hour, "120:00:00"},
	}
	for _, c := range cases {
		if got := formatClock(c.d); got != c.want {
			t.Fatalf("formatClock(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestTrendMarker(t *testing.T) {
	if got := trendMarker(5, engine.Unset); got != "" {
		t.Fatalf("marker without previous = %q, want empty", got)
	}
	if got := trendMarker(5, 3); got != "+" {
		t.Fatalf("rising marker = %q, want +", got)
	}
	if got := trendMarker(3, 5); got != "-" {
		t.Fatalf("falling marker = %q, want -", got)
	}
	if got := trendMarker(5, 5); got != "=" {
		t.Fatalf("steady marker = %q, want =", got)
	}
}

func TestRespCellModes(t *testing.T) {
	v := engine.NodeView{
		Connected:        true,
		ResponseTime:     12,
		PrevResponseTime: 15,
		PeakResponseTime: 40,
		Average:          13.25,
		StdDev:           2.5,
		HasAvg:           true,
		HasStdDev:        true,
		Data: []probe.KV{
			{Name: "TTL", Value: "61"},
			{Name: "Hops", Value: "3"},
		},
	}

	cases := []struct {
		mode       respMode
		dataColumn int
		want       string
	}{
		{respCurrent, 0, "12-"},
		{respDelta, 0, "-3"},
		{respAverage, 0, "13.2"},
		{respStdDev, 0, "2.5"},
		{respPeak, 0, "40"},
		{respCurrent, 1, "61"},
		{respCurrent, 2, "3"},
		{respCurrent, 9, "-"},
	}
	for _, c := range cases {
		if got := respCell(c.mode, c.dataColumn, v); got != c.want {
			t.Fatalf("respCell(%d, %d) = %q, want %q", c.mode, c.dataColumn, got, c.want)
		}
	}
}

func TestRespCellBeforeFirstSuccess(t *testing.T) {
	v := engine.NodeView{
		ResponseTime:     engine.Unset,
		PrevResponseTime: engine.Unset,
		PeakResponseTime: engine.Unset,
	}
	for mode := respMode(0); mode < respModeCount; mode++ {
		if got := respCell(mode, 0, v); got != "-" {
			t.Fatalf("respCell(mode %d) = %q before first success, want -", mode, got)
		}
	}
}

func TestDurCellModes(t *testing.T) {
	v := engine.NodeView{
		CurrentDuration:     90 * time.Second,
		PeakConnDuration:    time.Hour,
		PeakDisconnDuration: -1,
	}
	if got := durCell(durCurrent, v); got != "000:01:30" {
		t.Fatalf("current duration = %q", got)
	}
	if got := durCell(durPeakConn, v); got != "001:00:00" {
		t.Fatalf("peak conn duration = %q", got)
	}
	if got := durCell(durPeakDisconn, v); got != "-" {
		t.Fatalf("unset peak disconn duration = %q", got)
	}
}

func TestDisconnectCaption(t *testing.T) {
	if got := disconnectCaption(1); got != "1 disconnect" {
		t.Fatalf("caption = %q", got)
	}
	if got := disconnectCaption(3); got != "3 disconnects" {
		t.Fatalf("caption = %q", got)
	}
}

func TestDistributionBar(t *testing.T) {
	bar := distributionBar(3, 4, 20)
	if len(bar) != 20 {
		t.Fatalf("bar length = %d, want 20", len(bar))
	}
	if !strings.HasPrefix(bar, " 75.0% ") {
		t.Fatalf("bar = %q, want 75.0%% prefix", bar)
	}
	filled := strings.Count(bar, "#")
	if filled != 10 { // 75% of the 13 remaining cells, rounded
		t.Fatalf("filled = %d, want 10", filled)
	}

	if got := distributionBar(0, 0, 5); got != "     " {
		t.Fatalf("empty history bar = %q", got)
	}
	if got := distributionBar(1, 1, 0); got != "" {
		t.Fatalf("zero width bar = %q", got)
	}
}

func TestNextDisconnected(t *testing.T) {
	nodes := []engine.NodeView{
		{Connected: true},
		{Connected: false},
		{Connected: true},
		{Connected: false},
	}
	if got := nextDisconnected(nodes, 0, 1); got != 1 {
		t.Fatalf("forward from 0 = %d, want 1", got)
	}
	if got := nextDisconnected(nodes, 1, 1); got != 3 {
		t.Fatalf("forward from 1 = %d, want 3", got)
	}
	if got := nextDisconnected(nodes, 3, 1); got != 1 {
		t.Fatalf("forward wrap from 3 = %d, want 1", got)
	}
	if got := nextDisconnected(nodes, 0, -1); got != 3 {
		t.Fatalf("backward wrap from 0 = %d, want 3", got)
	}

	allUp := []engine.NodeView{{Connected: true}, {Connected: true}}
	if got := nextDisconnected(allUp, 0, 1); got != -1 {
		t.Fatalf("all connected = %d, want -1", got)
	}
	if got := nextDisconnected(nil, 0, 1); got != -1 {
		t.Fatalf("empty list = %d, want -1", got)
	}
}

func TestPadOrTrim(t *testing.T) {
	if got := padOrTrim("abc", 5); got != "abc  " {
		t.Fatalf("pad = %q", got)
	}
	if got := padOrTrim("abcdef", 4); got != "abcd" {
		t.Fatalf("trim = %q", got)
	}
	if got := padOrTrim("abc", 0); got != "" {
		t.Fatalf("zero width = %q", got)
	}
}

func TestBlinkPhases(t *testing.T) {
	base := time.UnixMilli(0)
	if blinkOff(base) {
		t.Fatalf("expected bright phase at t=0")
	}
	if !blinkOff(base.Add(blinkPeriod)) {
		t.Fatalf("expected dim phase after one blink period")
	}
	if blinkOff(base.Add(2 * blinkPeriod)) {
		t.Fatalf("expected bright phase after two blink periods")
	}
}
