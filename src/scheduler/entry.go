package scheduler

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// entry is one entity's scheduling state. Per spec.md §4.2's invariant, at
// most one timer is armed per entry and at most one callback is executing
// per entry at any instant; both are enforced by mu together with the
// version counter described in §4.2.3.
type entry struct {
	entity      string
	schedulerID int64

	mu             sync.Mutex
	period         time.Duration
	version        atomic.Int64
	timer          *time.Timer
	runningCallback bool
	disposed        bool
}

func newEntry(schedulerID int64, entityName string, period time.Duration) *entry {
	return &entry{
		entity:      entityName,
		schedulerID: schedulerID,
		period:      period,
	}
}

// arm creates a brand new timer carrying the entry's current version,
// per spec.md §4.2.3's race-free rearm rule: never reuse or reset an
// existing timer, since a pending callback might already be in flight for
// it. Must be called with e.mu held.
func (e *entry) arm() {
	if e.disposed {
		return
	}
	v := e.version.Inc()
	period := e.period
	// Deliberately does not capture any ambient context — only the entry
	// and the version it was armed with, per spec.md §9's flow-local
	// context suppression note.
	e.timer = time.AfterFunc(period, func() {
		fireEntry(e, v)
	})
}

// changePeriod updates the period and, if a timer is currently armed,
// rearms with the new period immediately. If no timer is armed (not yet
// started, or a callback is currently running), the new period simply
// takes effect the next time arm is called.
func (e *entry) changePeriod(period time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.period = period
	if e.timer != nil && !e.runningCallback {
		e.timer.Stop()
		e.arm()
	}
}

// dispose stops any armed timer and marks the entry disposed; a callback
// already running is left to finish but will not rearm, since arm checks
// e.disposed.
func (e *entry) dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.disposed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

// fireEntry is the timer callback. It is a free function rather than a
// method so its closure over (e, v) is the only state captured — exactly
// the pair spec.md §4.2.3 requires for the version check.
func fireEntry(e *entry, version int64) {
	s, ok := lookupScheduler(e.schedulerID)
	if !ok {
		return
	}

	e.mu.Lock()
	if e.version.Load() != version || e.disposed {
		e.mu.Unlock()
		return
	}
	e.runningCallback = true
	e.mu.Unlock()

	s.runEntry(e)
}
