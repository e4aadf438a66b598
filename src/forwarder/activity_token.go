package forwarder

import (
	"context"
	"sync"
	"time"
)

// ActivityToken links an external cancellation to an inactivity timeout so a
// single body pump can be aborted either because its caller gave up or
// because neither a read nor a write completed within the configured
// window. Each body pump of a normal forward owns its own token; the two
// pumps of an upgraded connection share one.
type ActivityToken struct {
	timeout time.Duration

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	timer  *time.Timer
	closed bool
}

// NewActivityToken derives an ActivityToken from parent. If timeout is zero,
// no inactivity timer is armed and the token behaves as a plain linked
// cancellation.
func NewActivityToken(parent context.Context, timeout time.Duration) *ActivityToken {
	ctx, cancel := context.WithCancel(parent)
	t := &ActivityToken{
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
	if timeout > 0 {
		t.timer = time.AfterFunc(timeout, t.fireTimeout)
	}
	return t
}

func (t *ActivityToken) fireTimeout() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.cancel()
}

// Context returns the linked cancellation context. It is canceled when the
// parent context is canceled or when the inactivity timeout elapses.
func (t *ActivityToken) Context() context.Context {
	return t.ctx
}

// ResetTimeout rearms the inactivity timer. StreamCopier calls this after
// every successful read and every successful write, which is the liveness
// interlock that lets idle connections be aborted without aborting busy
// ones.
func (t *ActivityToken) ResetTimeout() {
	if t.timeout <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed || t.timer == nil {
		return
	}
	t.timer.Reset(t.timeout)
}

// Close releases the token's resources. It does not cancel the linked
// context; callers that want cancellation on close should cancel the parent
// context instead.
func (t *ActivityToken) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.closed = true
	if t.timer != nil {
		t.timer.Stop()
	}
}
