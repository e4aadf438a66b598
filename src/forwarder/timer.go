package forwarder

import "time"

// requestTimer captures offsets for the key events in a forwarded
// request's life-cycle, adapted from the teacher's request.Timer to use
// time.Duration instead of pre-converted millisecond floats.
type requestTimer struct {
	startedAt       time.Time
	timeToFirstByte time.Duration
	timeToLastByte  time.Duration
}

func newRequestTimer() *requestTimer {
	return &requestTimer{startedAt: time.Now()}
}

func (t *requestTimer) firstByteSent() {
	t.timeToFirstByte = time.Since(t.startedAt)
}

func (t *requestTimer) lastByteSent() {
	t.timeToLastByte = time.Since(t.startedAt)
}

func (t *requestTimer) elapsed() time.Duration {
	return time.Since(t.startedAt)
}
