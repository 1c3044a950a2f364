package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

type scriptedProber struct {
	result Result
	calls  int
}

func (p *scriptedProber) Check(ctx context.Context, addr string, timeout time.Duration, attempts int) Result {
	p.calls++
	return p.result
}

func TestFallbackOnPermissionError(t *testing.T) {
	primary := &scriptedProber{result: Result{Err: fmt.Errorf("listen: %w", os.ErrPermission)}}
	secondary := &scriptedProber{result: Result{Connected: true, ResponseTime: 5}}

	p := NewFallbackProber(primary, secondary)
	res := p.Check(context.Background(), "192.0.2.1", 500*time.Millisecond, 4)

	if !res.Connected || res.ResponseTime != 5 {
		t.Fatalf("expected secondary result, got %+v", res)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Fatalf("unexpected call counts: primary=%d secondary=%d", primary.calls, secondary.calls)
	}
}

func TestFallbackSkipsSecondaryOnNormalFailure(t *testing.T) {
	primary := &scriptedProber{result: Result{Err: errors.New("echo timeout")}}
	secondary := &scriptedProber{result: Result{Connected: true}}

	p := NewFallbackProber(primary, secondary)
	res := p.Check(context.Background(), "192.0.2.1", 500*time.Millisecond, 4)

	if res.Connected {
		t.Fatalf("expected primary failure to pass through, got %+v", res)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary must not run on non-permission errors")
	}
}

func TestFallbackSkipsSecondaryOnSuccess(t *testing.T) {
	primary := &scriptedProber{result: Result{Connected: true, ResponseTime: 3}}
	secondary := &scriptedProber{}

	p := NewFallbackProber(primary, secondary)
	res := p.Check(context.Background(), "192.0.2.1", 500*time.Millisecond, 4)

	if !res.Connected || res.ResponseTime != 3 {
		t.Fatalf("expected primary result, got %+v", res)
	}
	if secondary.calls != 0 {
		t.Fatalf("secondary must not run after success")
	}
}

func TestIsPermissionError(t *testing.T) {
	if isPermissionError(nil) {
		t.Fatalf("nil is not a permission error")
	}
	if !isPermissionError(errors.New("socket: operation not permitted")) {
		t.Fatalf("expected message match")
	}
	if isPermissionError(errors.New("network is unreachable")) {
		t.Fatalf("unexpected match")
	}
}
