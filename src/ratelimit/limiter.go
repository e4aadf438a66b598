// Package ratelimit throttles inbound requests per client address using a
// token bucket per client, adapted from the avapigw example's per-client
// rate limiter middleware onto this module's telemetry and configuration
// conventions.
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Limiter grants or denies requests per client address using an
// independent token bucket for each address seen, so one noisy client
// cannot exhaust the budget of another sharing the same destination.
type Limiter struct {
	rps   float64
	burst int

	mu      sync.Mutex
	clients map[string]*clientEntry

	stop chan struct{}
	once sync.Once
}

// New creates a Limiter allowing rps requests per second per client, with
// burst as the bucket's initial capacity. A background goroutine evicts
// clients idle for longer than ttl so the client map does not grow
// unboundedly against a churning set of source addresses.
func New(rps float64, burst int, ttl time.Duration) *Limiter {
	l := &Limiter{
		rps:     rps,
		burst:   burst,
		clients: make(map[string]*clientEntry),
		stop:    make(chan struct{}),
	}
	go l.cleanupLoop(ttl)
	return l
}

// Allow reports whether a request from clientAddr may proceed, consuming
// one token from that client's bucket if so.
func (l *Limiter) Allow(clientAddr string) bool {
	now := time.Now()

	l.mu.Lock()
	entry, ok := l.clients[clientAddr]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		l.clients[clientAddr] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	l.mu.Unlock()

	return limiter.Allow()
}

// Close stops the idle-client eviction loop.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) cleanupLoop(ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for addr, entry := range l.clients {
				if now.Sub(entry.lastAccess) > ttl {
					delete(l.clients, addr)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Middleware wraps next so that requests exceeding the per-client rate are
// rejected with 429 before reaching it.
func Middleware(limiter *Limiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr := clientAddress(r)
		if !limiter.Allow(addr) {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
