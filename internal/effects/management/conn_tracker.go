package management

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"

	"mvpnd/internal/core"
)

// ConnTracker counts active RPCs and calls onIdle once the last active
// RPC has ended and no new one has started for a grace period.
type ConnTracker struct {
	active      atomic.Int64
	gracePeriod time.Duration
	onIdle      func()

	mu         sync.Mutex
	graceTimer *time.Timer
}

// NewConnTracker creates a ConnTracker with the given grace period.
func NewConnTracker(gracePeriod time.Duration, onIdle func()) *ConnTracker {
	return &ConnTracker{gracePeriod: gracePeriod, onIdle: onIdle}
}

func (ct *ConnTracker) ActiveCount() int64 { return ct.active.Load() }

func (ct *ConnTracker) CancelGrace() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.graceTimer != nil {
		ct.graceTimer.Stop()
		ct.graceTimer = nil
	}
}

func (ct *ConnTracker) inc() {
	if n := ct.active.Add(1); n == 1 {
		ct.mu.Lock()
		if ct.graceTimer != nil {
			ct.graceTimer.Stop()
			ct.graceTimer = nil
			core.Log.Debugf("Management", "client reconnected, grace timer cancelled")
		}
		ct.mu.Unlock()
	}
}

func (ct *ConnTracker) dec() {
	if n := ct.active.Add(-1); n == 0 {
		ct.mu.Lock()
		if ct.graceTimer != nil {
			ct.graceTimer.Stop()
		}
		ct.graceTimer = time.AfterFunc(ct.gracePeriod, func() {
			ct.mu.Lock()
			ct.graceTimer = nil
			ct.mu.Unlock()
			if ct.onIdle != nil {
				ct.onIdle()
			}
		})
		ct.mu.Unlock()
	}
}

func (ct *ConnTracker) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ct.inc()
		defer ct.dec()
		return handler(ctx, req)
	}
}

func (ct *ConnTracker) StreamInterceptor() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ct.inc()
		defer ct.dec()
		return handler(srv, ss)
	}
}
