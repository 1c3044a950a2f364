package probe

import (
	"context"
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// LibraryProber sends ICMP echo requests through the pro-bing library. It is
// the default prober: unprivileged UDP-ICMP where the platform allows it,
// raw sockets when privileged.
type LibraryProber struct {
	privileged bool
}

// NewLibraryProber returns a pro-bing backed prober.
func NewLibraryProber(privileged bool) *LibraryProber {
	return &LibraryProber{privileged: privileged}
}

// Check attempts up to attempts echo requests, short-circuiting on the first
// reply.
func (p *LibraryProber) Check(ctx context.Context, addr string, timeout time.Duration, attempts int) Result {
	start := time.Now()
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return Result{Err: err}
		}
		res, err := p.once(ctx, addr, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		if !res.Connected {
			continue
		}
		if res.ResponseTime == noResponseTime {
			res.ResponseTime = wallClockMillis(start)
		}
		return res
	}
	return Result{Err: lastErr}
}

func (p *LibraryProber) once(ctx context.Context, addr string, timeout time.Duration) (Result, error) {
	pinger, err := probing.NewPinger(addr)
	if err != nil {
		return Result{}, fmt.Errorf("resolve %s: %w", addr, err)
	}
	pinger.SetPrivileged(p.privileged)
	pinger.Count = 1
	pinger.Timeout = timeout

	ttl := 0
	pinger.OnRecv = func(pkt *probing.Packet) {
		ttl = pkt.TTL
	}

	if err := pinger.RunWithContext(ctx); err != nil {
		return Result{}, fmt.Errorf("ping %s: %w", addr, err)
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return Result{}, nil
	}

	res := Result{Connected: true, ResponseTime: noResponseTime}
	if stats.AvgRtt > 0 {
		res.ResponseTime = int(stats.AvgRtt.Milliseconds())
	}
	if ttl > 0 {
		res.Data = ttlData(ttl)
	}
	return res, nil
}
