package healthprobe

import (
	"net/http"
	"sync"
	"time"

	"github.com/icecave/forwardcore/src/destination"
	"github.com/icecave/forwardcore/src/scheduler"
	"github.com/sirupsen/logrus"
)

// ScheduledProber probes every registered destination on its own period
// using a scheduler.Scheduler in Infinite mode, and caches the most recent
// Status per destination key for cheap concurrent lookup by the routing
// layer. Probing itself is out of this module's scope to consume
// (spec.md §1's explicit non-goals exclude routing decisions); this type
// only produces the health signal.
type ScheduledProber struct {
	logger    logrus.FieldLogger
	scheduler *scheduler.Scheduler

	mu       sync.RWMutex
	statuses map[string]Status
	checkers map[string]Checker
}

// NewScheduledProber creates a ScheduledProber. Call Start once every
// destination has been registered with Register.
func NewScheduledProber(logger logrus.FieldLogger) *ScheduledProber {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	p := &ScheduledProber{
		logger:   logger,
		statuses: make(map[string]Status),
		checkers: make(map[string]Checker),
	}
	p.scheduler = scheduler.New(scheduler.Infinite, p.probe, logger)
	return p
}

// Register adds d to the probe set with the given check interval. A
// destination with no HealthCheckURL is skipped; it is reported healthy by
// default since there is nothing to probe.
func (p *ScheduledProber) Register(d *destination.Destination, interval time.Duration) {
	url := d.HealthCheckURL()
	if url == nil {
		return
	}

	key := d.Key()
	checker := &HTTPChecker{URL: url.String()}

	p.mu.Lock()
	p.checkers[key] = checker
	p.statuses[key] = Status{IsHealthy: true, Message: "awaiting first probe"}
	p.mu.Unlock()

	p.scheduler.Schedule(key, interval)
}

// Unregister stops probing d.
func (p *ScheduledProber) Unregister(d *destination.Destination) {
	key := d.Key()
	p.scheduler.Unschedule(key)

	p.mu.Lock()
	delete(p.checkers, key)
	delete(p.statuses, key)
	p.mu.Unlock()
}

// Start begins probing every registered destination.
func (p *ScheduledProber) Start() {
	p.scheduler.Start()
}

// Dispose stops all probing.
func (p *ScheduledProber) Dispose() {
	p.scheduler.Dispose()
}

// Status returns the most recently observed status for the destination
// identified by key, or a healthy default if it has never been probed.
func (p *ScheduledProber) Status(key string) Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if status, ok := p.statuses[key]; ok {
		return status
	}
	return Status{IsHealthy: true, Message: "not probed"}
}

// probe is the scheduler.Action invoked once per period for key.
func (p *ScheduledProber) probe(key string) error {
	p.mu.RLock()
	checker, ok := p.checkers[key]
	p.mu.RUnlock()
	if !ok {
		return nil
	}

	status := checker.Check()

	p.mu.Lock()
	p.statuses[key] = status
	p.mu.Unlock()

	if !status.IsHealthy {
		p.logger.WithFields(logrus.Fields{
			"destination": key,
			"message":     status.Message,
		}).Warn("healthprobe: destination unhealthy")
	}
	return nil
}

// HTTPHandler exposes a single destination's cached status as a plain-text
// HTTP endpoint, generalized from the teacher's docker/health.HTTPHandler
// (which always checked the one local container synchronously on every
// request) to serve the ScheduledProber's cached, already-scheduled
// result instead of probing inline.
type HTTPHandler struct {
	Prober *ScheduledProber
	Key    string
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Prober.Status(h.Key)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if status.IsHealthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	w.Write([]byte(status.Message))
}
