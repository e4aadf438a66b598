package forwarder

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/icecave/forwardcore/src/destination"
	"github.com/icecave/forwardcore/src/telemetry"
)

// RequestContext is the unit of work for a single forwarded request. It is
// built by the caller (typically an http.Handler produced by Engine) and
// passed to Engine.Forward, which writes a status, headers and body to
// Writer and never returns an error to the caller directly — every failure
// is surfaced through the inbound response and through ErrorFeature.
type RequestContext struct {
	// RequestID identifies this forwarding operation across every telemetry
	// event and log line it produces.
	RequestID string

	// Request is the inbound request snapshot, including its body stream.
	Request *http.Request

	// Writer is the inbound response.
	Writer http.ResponseWriter

	// PathBase is the prefix of Request.URL.Path that should be dropped
	// before joining the remainder onto Destination.Prefix, per spec.md
	// §4.1.2(2). Resolving what the path-base is belongs to routing
	// (external); the engine only drops it.
	PathBase string

	// Destination is the chosen upstream, produced by routing (external).
	Destination *destination.Destination

	// Transforms is the pipeline applied to the outbound request/response.
	// A nil pipeline means "no transforms, still copy headers".
	Transforms *TransformPipeline

	// Client sends the built outbound request and receives the response.
	Client HTTPClient

	// UpgradeDialer is used instead of Client when the inbound request is
	// upgrade-eligible. It may be nil if upgrades are not supported by the
	// caller, in which case an upgrade-eligible request is forwarded as a
	// normal request with no special handling.
	UpgradeDialer UpgradeDialer

	// Listener receives telemetry events; nil is a valid no-op sink.
	Listener telemetry.Listener

	// BufferPool supplies buffers to every StreamCopier used while
	// forwarding this request. When it is nil, the normal forwarding path
	// falls back to the Engine's DefaultBufferPool and then to a shared
	// package-level pool; the upgrade pumps use the shared package-level
	// pool directly.
	BufferPool *BufferPool

	// ActivityTimeout bounds how long a body pump may go without a
	// successful read or write before it is aborted. Zero disables the
	// inactivity timer (cancellation tokens alone still apply).
	ActivityTimeout time.Duration

	// RequestCancel fires on inbound-connection abort or the request-level
	// timeout elapsing. It is applied to the HTTP client call and to the
	// upload for HTTP/1.1.
	RequestCancel context.Context

	// ContentCancel fires on inbound-connection abort only (no timeout). For
	// HTTP/2+ outbound requests the engine links it with RequestCancel, and
	// the linked context governs both the client call and the upload, so an
	// in-progress upload ends when either one fires, including when
	// RequestCancel's timeout elapses.
	ContentCancel context.Context

	// Error is the output slot for the classified failure, if any. Forward
	// sets it; callers should treat it as read-only afterwards.
	Error *ErrorFeature

	startedAt time.Time
}

// NewRequestContext builds a RequestContext from an inbound request/writer
// pair with sensible defaults: a fresh request ID, both cancellation tokens
// derived from r's context, and no explicit timeout.
func NewRequestContext(w http.ResponseWriter, r *http.Request) *RequestContext {
	return &RequestContext{
		RequestID:     uuid.NewString(),
		Request:       r,
		Writer:        w,
		RequestCancel: r.Context(),
		ContentCancel: r.Context(),
	}
}

func (rc *RequestContext) emit(fn func(telemetry.Listener)) {
	telemetry.Emit(rc.Listener, fn)
}

func (rc *RequestContext) stage(s telemetry.Stage) {
	rc.emit(func(l telemetry.Listener) {
		l.OnForwarderStage(telemetry.ForwarderStageEvent{
			RequestID: rc.RequestID,
			Stage:     s,
			At:        time.Now(),
		})
	})
}

func (rc *RequestContext) fail(kind ErrorKind, err error) *Error {
	classified := NewError(kind, err)
	rc.Error = &ErrorFeature{Kind: kind, Err: err}
	rc.emit(func(l telemetry.Listener) {
		l.OnProxyFailed(telemetry.ProxyFailedEvent{
			RequestID: rc.RequestID,
			ErrorKind: kind.String(),
			Duration:  time.Since(rc.startedAt),
		})
	})
	return classified
}

func (rc *RequestContext) bufferPool() *BufferPool {
	if rc.BufferPool != nil {
		return rc.BufferPool
	}
	return defaultBufferPool
}

var defaultBufferPool = NewBufferPool(DefaultBufferSize)
