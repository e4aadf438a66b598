package scheduler

import "sync"

// registry maps scheduler IDs to live schedulers. An entry holds only its
// Scheduler's ID, never a pointer, and a timer callback looks the ID up on
// every fire: if the Scheduler has already disposed itself and
// unregistered, the lookup simply fails and the callback returns without
// touching any state. The registry itself holds each Scheduler until
// Dispose unregisters it, so a Scheduler dropped without Dispose stays
// reachable and its timers keep firing.
var registry = struct {
	mu   sync.RWMutex
	next int64
	byID map[int64]*Scheduler
}{byID: make(map[int64]*Scheduler)}

func registerScheduler(s *Scheduler) int64 {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.next++
	id := registry.next
	registry.byID[id] = s
	return id
}

func unregisterScheduler(id int64) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	delete(registry.byID, id)
}

func lookupScheduler(id int64) (*Scheduler, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	s, ok := registry.byID[id]
	return s, ok
}
