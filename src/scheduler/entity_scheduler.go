// Package scheduler implements a timer-driven periodic callback system
// keyed by entity identity, used by the forwarding core to drive
// destination health probes (see the healthprobe package) without pulling
// a general-purpose job scheduler dependency into the module.
package scheduler

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Mode selects how an entry behaves after a successful callback, per
// spec.md §4.2.2.
type Mode int

const (
	// Infinite rearms the entry with its current period after every
	// successful callback, until explicitly unscheduled or disposed.
	Infinite Mode = iota

	// RunOnce removes and disposes the entry BEFORE invoking the action,
	// so the action observing IsScheduled == false for its own entity is
	// expected, not a bug — preserved from the source behavior per
	// spec.md §9's open question.
	RunOnce
)

type state int32

const (
	stateNotStarted state = iota
	stateStarted
	stateDisposed
)

// Action is the callback invoked for an entity when its timer fires. An
// error return evicts the entity: the entry is removed and disposed and
// the error is logged, but never propagated, per spec.md §4.2.5 — one
// entity's action failure must not be allowed to crash unrelated entities
// sharing the same scheduler.
type Action func(entity string) error

// Scheduler runs Action for each registered entity on its own period,
// guaranteeing at most one in-flight invocation per entity at any instant.
type Scheduler struct {
	Mode   Mode
	Logger logrus.FieldLogger

	action Action
	id     int64

	mu      sync.Mutex
	state   state
	entries map[string]*entry
}

// New creates a Scheduler in mode with action as its callback. logger
// defaults to logrus.StandardLogger() when nil.
func New(mode Mode, action Action, logger logrus.FieldLogger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Scheduler{
		Mode:    mode,
		Logger:  logger,
		action:  action,
		entries: make(map[string]*entry),
	}
	s.id = registerScheduler(s)
	return s
}

// Schedule adds entity with the given initial period. If the scheduler is
// already Started, its timer is armed immediately; otherwise arming is
// deferred until Start. If entity is already registered, the request is
// silently rejected and the existing entry keeps its period.
func (s *Scheduler) Schedule(entity string, period time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateDisposed {
		return
	}
	if _, exists := s.entries[entity]; exists {
		return
	}

	e := newEntry(s.id, entity, period)
	s.entries[entity] = e

	if s.state == stateStarted {
		e.mu.Lock()
		e.arm()
		e.mu.Unlock()
	}
}

// ChangePeriod updates entity's period. Must not be called when the
// scheduler is in RunOnce mode — a precondition spec.md §4.2.1 calls a
// debug-asserted one, enforced here as a no-op on violation rather than a
// panic, since a proxy's scheduler must never crash a request path.
func (s *Scheduler) ChangePeriod(entity string, period time.Duration) {
	if s.Mode == RunOnce {
		return
	}
	s.mu.Lock()
	e, ok := s.entries[entity]
	s.mu.Unlock()
	if !ok {
		return
	}
	e.changePeriod(period)
}

// Unschedule removes and disposes entity's entry. A callback currently
// executing for entity runs to completion, but no further timer arms.
func (s *Scheduler) Unschedule(entity string) {
	s.mu.Lock()
	e, ok := s.entries[entity]
	if ok {
		delete(s.entries, entity)
	}
	s.mu.Unlock()

	if ok {
		e.dispose()
	}
}

// IsScheduled reports whether entity currently has an entry.
func (s *Scheduler) IsScheduled(entity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[entity]
	return ok
}

// Start transitions NotStarted to Started, arming every existing entry's
// timer on the winning transition. Subsequent calls are no-ops.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateNotStarted {
		return
	}
	s.state = stateStarted
	for _, e := range s.entries {
		e.mu.Lock()
		e.arm()
		e.mu.Unlock()
	}
}

// Dispose transitions to Disposed, canceling and disposing every entry.
// After Dispose, the scheduler is removed from the weak-reference registry
// so in-flight timer callbacks observe it as gone.
func (s *Scheduler) Dispose() {
	s.mu.Lock()
	if s.state == stateDisposed {
		s.mu.Unlock()
		return
	}
	s.state = stateDisposed
	entries := s.entries
	s.entries = make(map[string]*entry)
	s.mu.Unlock()

	for _, e := range entries {
		e.dispose()
	}
	unregisterScheduler(s.id)
}

// runEntry executes e's action outside any lock, per spec.md §4.2.3's
// "release the lock before invoking the user action" rule, then applies
// the mode-specific post-invocation behavior.
func (s *Scheduler) runEntry(e *entry) {
	if s.Mode == RunOnce {
		s.mu.Lock()
		delete(s.entries, e.entity)
		s.mu.Unlock()
		e.dispose()

		if err := s.action(e.entity); err != nil {
			s.Logger.WithFields(logrus.Fields{
				"entity": e.entity,
				"error":  err,
			}).Warn("scheduler: run-once action failed")
		}
		return
	}

	err := s.action(e.entity)

	e.mu.Lock()
	e.runningCallback = false
	e.mu.Unlock()

	if err != nil {
		s.Logger.WithFields(logrus.Fields{
			"entity": e.entity,
			"error":  err,
		}).Warn("scheduler: action failed, evicting entity")

		s.mu.Lock()
		delete(s.entries, e.entity)
		s.mu.Unlock()
		e.dispose()
		return
	}

	s.mu.Lock()
	_, stillScheduled := s.entries[e.entity]
	disposed := s.state == stateDisposed
	s.mu.Unlock()

	if stillScheduled && !disposed {
		e.mu.Lock()
		e.arm()
		e.mu.Unlock()
	}
}
