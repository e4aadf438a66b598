// Package healthprobe periodically checks destination health using the
// scheduler package, adapted from the teacher's docker/health package
// (which checked the health of a single local container) generalized to
// probe any number of forwardable destinations on independent periods.
package healthprobe

import "fmt"

// Status is the result of a single probe.
type Status struct {
	IsHealthy bool
	Message   string
}

func (s Status) String() string {
	state := "failed"
	if s.IsHealthy {
		state = "passed"
	}
	return fmt.Sprintf("health-check %s: %s", state, s.Message)
}
