package probe

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"time"
)

// FallbackProber delegates to primary and retries through secondary when the
// primary fails with a permission error (typical for ICMP sockets run without
// privileges).
type FallbackProber struct {
	primary   Prober
	secondary Prober
}

// NewFallbackProber wraps primary with a secondary fallback.
func NewFallbackProber(primary, secondary Prober) *FallbackProber {
	return &FallbackProber{primary: primary, secondary: secondary}
}

// Check uses the primary prober and falls back on permission-related errors.
func (p *FallbackProber) Check(ctx context.Context, addr string, timeout time.Duration, attempts int) Result {
	result := p.primary.Check(ctx, addr, timeout, attempts)
	if result.Connected || !isPermissionError(result.Err) {
		return result
	}
	return p.secondary.Check(ctx, addr, timeout, attempts)
}

func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "operation not permitted") || strings.Contains(msg, "permission denied")
}
