package probe

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const echoData = "aranealarm-go"

// RawProber sends ICMP echo requests over raw sockets. It needs elevated
// privileges on most platforms and reports no auxiliary data.
type RawProber struct {
	id  int
	seq uint32
}

// NewRawProber initializes a prober with a process-scoped echo identifier.
func NewRawProber() *RawProber {
	return &RawProber{id: os.Getpid() & 0xffff}
}

// Check attempts up to attempts echo requests, short-circuiting on the first
// reply.
func (p *RawProber) Check(ctx context.Context, addr string, timeout time.Duration, attempts int) Result {
	ip, err := resolveIP(addr)
	if err != nil {
		return Result{Err: err}
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return Result{Err: err}
		}
		rtt, err := p.once(ctx, ip, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		ms := int(rtt.Milliseconds())
		if ms < 0 {
			ms = 0
		}
		return Result{Connected: true, ResponseTime: ms}
	}
	return Result{Err: lastErr}
}

func (p *RawProber) once(ctx context.Context, ip *net.IPAddr, timeout time.Duration) (time.Duration, error) {
	network, protocol, requestType, replyType := icmpSettings(ip.IP)
	conn, err := icmp.ListenPacket(network, "")
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	seq := int(atomic.AddUint32(&p.seq, 1)) & 0xffff
	msg := icmp.Message{
		Type: requestType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   p.id,
			Seq:  seq,
			Data: []byte(echoData),
		},
	}

	payload, err := msg.Marshal(nil)
	if err != nil {
		return 0, err
	}

	if err := conn.SetDeadline(effectiveDeadline(ctx, timeout)); err != nil {
		return 0, err
	}

	start := time.Now()
	if _, err := conn.WriteTo(payload, ip); err != nil {
		return 0, err
	}

	buf := make([]byte, 1500)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return 0, fmt.Errorf("echo timeout: %w", err)
			}
			return 0, err
		}
		if peer == nil {
			continue
		}

		reply, err := icmp.ParseMessage(protocol, buf[:n])
		if err != nil {
			continue
		}
		if reply.Type != replyType {
			continue
		}
		body, ok := reply.Body.(*icmp.Echo)
		if !ok {
			continue
		}
		if body.ID != p.id || body.Seq != seq {
			continue
		}

		return time.Since(start), nil
	}
}

func resolveIP(addr string) (*net.IPAddr, error) {
	ipAddr, err := net.ResolveIPAddr("ip", addr)
	if err != nil {
		return nil, err
	}
	if ipAddr.IP == nil {
		return nil, fmt.Errorf("invalid IP address: %s", addr)
	}
	return ipAddr, nil
}

func icmpSettings(ip net.IP) (network string, protocol int, requestType icmp.Type, replyType icmp.Type) {
	if ip.To4() != nil {
		return "ip4:icmp", ipv4.ICMPTypeEcho.Protocol(), ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	}
	return "ip6:ipv6-icmp", ipv6.ICMPTypeEchoRequest.Protocol(), ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
}

func effectiveDeadline(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}
