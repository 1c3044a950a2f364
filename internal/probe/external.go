package probe

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"
)

var (
	timePattern = regexp.MustCompile(`time[=<]([0-9.]+)\s*ms`)
	ttlPattern  = regexp.MustCompile(`(?i)ttl=([0-9]+)`)
)

// ExternalProber shells out to the system ping utility, for environments
// without raw socket or ICMP datagram access. Output parsing yields the RTT
// and the reply TTL when the platform prints them; otherwise the RTT falls
// back to wall-clock timing across the call.
type ExternalProber struct{}

// NewExternalProber returns a prober backed by ping(8).
func NewExternalProber() *ExternalProber {
	return &ExternalProber{}
}

// Check runs ping once per attempt until one succeeds.
func (p *ExternalProber) Check(ctx context.Context, addr string, timeout time.Duration, attempts int) Result {
	args := pingArgs(addr, timeout)
	start := time.Now()
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return Result{Err: err}
		}
		out, err := exec.CommandContext(ctx, "ping", args...).CombinedOutput()
		if err != nil {
			lastErr = fmt.Errorf("external ping failed: %w", err)
			continue
		}
		// Windows ping exits 0 on "destination host unreachable".
		if bytes.Contains(bytes.ToLower(out), []byte("unreachable")) {
			continue
		}

		rtt := parseRTT(out)
		if rtt == noResponseTime {
			rtt = wallClockMillis(start)
		}
		return Result{Connected: true, ResponseTime: rtt, Data: parseAux(out)}
	}
	return Result{Err: lastErr}
}

func pingArgs(addr string, timeout time.Duration) []string {
	switch runtime.GOOS {
	case "windows":
		timeoutMs := maxInt(1, int(timeout.Milliseconds()))
		return []string{"-n", "1", "-w", strconv.Itoa(timeoutMs), addr}
	case "darwin":
		timeoutMs := maxInt(100, int(timeout.Milliseconds()))
		return []string{"-n", "-c", "1", "-W", strconv.Itoa(timeoutMs), addr}
	default:
		timeoutSec := maxInt(1, int(timeout.Seconds()+0.5))
		return []string{"-n", "-c", "1", "-W", strconv.Itoa(timeoutSec), addr}
	}
}

// parseRTT extracts the reported round trip in whole milliseconds, or
// noResponseTime when the output carries none.
func parseRTT(output []byte) int {
	matches := timePattern.FindSubmatch(output)
	if len(matches) < 2 {
		return noResponseTime
	}
	value, err := strconv.ParseFloat(string(matches[1]), 64)
	if err != nil {
		return noResponseTime
	}
	ms := int(value + 0.5)
	if ms < 0 {
		return noResponseTime
	}
	return ms
}

func parseAux(output []byte) []KV {
	matches := ttlPattern.FindSubmatch(output)
	if len(matches) < 2 {
		return nil
	}
	ttl, err := strconv.Atoi(string(matches[1]))
	if err != nil || ttl <= 0 {
		return nil
	}
	return ttlData(ttl)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
