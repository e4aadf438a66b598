// Package telemetry defines the events the forwarding engine emits
// (spec.md §6) and the Listener interface external collaborators
// implement to consume them. Consuming telemetry is explicitly out of
// scope for the core; this package only defines the event shapes and a
// couple of reference listeners useful for local development and tests.
package telemetry

import "time"

// Stage names a state in the forwarding engine's state machine
// (spec.md §4.1.6). Every transition emits a ForwarderStageEvent.
type Stage int

const (
	StageReceivedRequest Stage = iota
	StageSentRequest
	StageReceivedResponse
	StageResponseContentTransferStart
	StageResponseUpgrade
	StageCompleted
)

func (s Stage) String() string {
	switch s {
	case StageReceivedRequest:
		return "ReceivedRequest"
	case StageSentRequest:
		return "SentRequest"
	case StageReceivedResponse:
		return "ReceivedResponse"
	case StageResponseContentTransferStart:
		return "ResponseContentTransferStart"
	case StageResponseUpgrade:
		return "ResponseUpgrade"
	case StageCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// ForwarderStageEvent is emitted at each state transition of a forwarded
// request.
type ForwarderStageEvent struct {
	RequestID string
	Stage     Stage
	At        time.Time
}

// ContentTransferringEvent is emitted periodically (no more often than once
// per second) while a body pump is active.
type ContentTransferringEvent struct {
	RequestID  string
	IsRequest  bool
	TotalBytes int64
	IOCount    int64
	ReadTime   time.Duration
	WriteTime  time.Duration
}

// ContentTransferredEvent is emitted exactly once per body pump, on
// completion.
type ContentTransferredEvent struct {
	RequestID     string
	IsRequest     bool
	TotalBytes    int64
	IOCount       int64
	ReadTime      time.Duration
	WriteTime     time.Duration
	FirstReadTime time.Duration
}

// ProxyStartEvent is emitted once a request begins forwarding.
type ProxyStartEvent struct {
	RequestID string
	Method    string
	Path      string
}

// ProxyStopEvent is emitted once a request completes successfully.
type ProxyStopEvent struct {
	RequestID  string
	StatusCode int
	Duration   time.Duration
}

// ProxyFailedEvent is emitted once a request completes with an error.
type ProxyFailedEvent struct {
	RequestID string
	ErrorKind string
	Duration  time.Duration
}

// ProxyInvokeEvent is emitted once the destination for a request has been
// resolved (by the external routing layer) and forwarding is about to
// begin.
type ProxyInvokeEvent struct {
	RequestID     string
	ClusterID     string
	RouteID       string
	DestinationID string
}

// Listener receives the events the forwarding engine emits. A
// nil Listener is treated as a no-op sink by every emission point; external
// code implements Listener to wire metrics, tracing, or logging.
type Listener interface {
	OnForwarderStage(ForwarderStageEvent)
	OnContentTransferring(ContentTransferringEvent)
	OnContentTransferred(ContentTransferredEvent)
	OnProxyStart(ProxyStartEvent)
	OnProxyStop(ProxyStopEvent)
	OnProxyFailed(ProxyFailedEvent)
	OnProxyInvoke(ProxyInvokeEvent)
}

// Emit is a nil-safe helper; every emission point in the forwarder package
// goes through one of these rather than checking listener != nil itself,
// mirroring the teacher's "if logger != nil" guard pattern but centralized.
func Emit(listener Listener, fn func(Listener)) {
	if listener == nil {
		return
	}
	fn(listener)
}
