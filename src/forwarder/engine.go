package forwarder

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/icecave/forwardcore/src/telemetry"
)

// Engine forwards requests described by a RequestContext to their chosen
// Destination, implementing the state machine of spec.md §4.1.2–§4.1.6. It
// holds no per-request state; a single Engine is shared across every
// concurrent request, matching the teacher's proxy handler being a
// stateless struct wired once at startup.
type Engine struct {
	// DefaultBufferPool supplies StreamCopier buffers when a RequestContext
	// doesn't specify its own.
	DefaultBufferPool *BufferPool

	// DefaultActivityTimeout is used when a RequestContext leaves
	// ActivityTimeout at zero. Zero here too means no inactivity timeout by
	// default.
	DefaultActivityTimeout time.Duration
}

// Forward runs the full state machine for rc, writing a status, headers
// and body to rc.Writer. It never panics on a forwarding failure; every
// failure is classified into rc.Error and turned into the best response
// the engine can still produce.
func (e *Engine) Forward(rc *RequestContext) {
	timer := newRequestTimer()
	rc.startedAt = timer.startedAt

	rc.emit(func(l telemetry.Listener) {
		l.OnProxyStart(telemetry.ProxyStartEvent{
			RequestID: rc.RequestID,
			Method:    rc.Request.Method,
			Path:      rc.Request.URL.Path,
		})
	})

	rc.stage(telemetry.StageReceivedRequest)

	if rc.Destination == nil {
		e.finishFailed(rc, rc.fail(ErrorKindRequest, errNoDestination))
		return
	}

	rc.emit(func(l telemetry.Listener) {
		l.OnProxyInvoke(telemetry.ProxyInvokeEvent{
			RequestID:     rc.RequestID,
			DestinationID: rc.Destination.Key(),
		})
	})

	upgrade := isUpgradeEligible(rc.Request) && rc.UpgradeDialer != nil
	outbound, contentHeaders, err := buildOutboundRequest(rc, upgrade)
	if err != nil {
		e.finishFailed(rc, rc.fail(ErrorKindRequest, err))
		return
	}

	if upgrade {
		e.forwardUpgrade(rc, outbound, timer)
		return
	}

	e.forwardNormal(rc, outbound, contentHeaders, timer)
}

var errNoDestination = newStaticError("no destination selected for request")

type staticError string

func newStaticError(s string) error { return staticError(s) }
func (e staticError) Error() string { return string(e) }

func (e *Engine) pool(rc *RequestContext) *BufferPool {
	if rc.BufferPool != nil {
		return rc.BufferPool
	}
	if e.DefaultBufferPool != nil {
		return e.DefaultBufferPool
	}
	return defaultBufferPool
}

func (e *Engine) activityTimeout(rc *RequestContext) time.Duration {
	if rc.ActivityTimeout > 0 {
		return rc.ActivityTimeout
	}
	return e.DefaultActivityTimeout
}

// forwardNormal implements the non-upgrade path: build the request body
// (directly or via a StreamCopyHTTPContent for full duplex), send it,
// stream the response back, then wait for the upload to settle.
func (e *Engine) forwardNormal(rc *RequestContext, outbound *http.Request, contentHeaders http.Header, timer *requestTimer) {
	needsBody := needsOutboundBody(rc.Request)

	var content *StreamCopyHTTPContent
	var cancelCtx = rc.RequestCancel
	if outbound.ProtoMajor >= 2 {
		cancelCtx = linkedContext(rc.RequestCancel, rc.ContentCancel)
	}
	activity := NewActivityToken(cancelCtx, e.activityTimeout(rc))
	defer activity.Close()

	if needsBody && rc.Request.Body != nil && rc.Request.Body != http.NoBody {
		copier := &StreamCopier{
			Pool:      e.pool(rc),
			Activity:  activity,
			Listener:  rc.Listener,
			RequestID: rc.RequestID,
			IsRequest: true,
		}
		content = NewStreamCopyHTTPContent(copier, rc.Request.Body)
		outbound.Body = content
		applyContentHeaders(outbound, contentHeaders)
	} else {
		outbound.Body = http.NoBody
		outbound.ContentLength = 0
	}

	client := rc.Client
	if client == nil {
		e.finishFailed(rc, rc.fail(ErrorKindRequest, newStaticError("no HTTPClient configured")))
		return
	}

	response, err := client.Do(outbound.WithContext(cancelCtx))
	if err != nil {
		kind := classifyRequestError(err, content)
		e.finishFailed(rc, rc.fail(kind, err))
		return
	}
	defer response.Body.Close()

	rc.stage(telemetry.StageSentRequest)
	timer.firstByteSent()
	rc.stage(telemetry.StageReceivedResponse)

	declareTrailers(rc, response)
	if err := writeResponseHeaders(rc, response, true); err != nil {
		e.finishFailed(rc, rc.fail(ErrorKindResponseBodyClient, err))
		return
	}

	rc.stage(telemetry.StageResponseContentTransferStart)

	respActivity := NewActivityToken(cancelCtx, e.activityTimeout(rc))
	defer respActivity.Close()

	respCopier := &StreamCopier{
		Pool:      e.pool(rc),
		Activity:  respActivity,
		Listener:  rc.Listener,
		RequestID: rc.RequestID,
		IsRequest: false,
	}
	result := respCopier.Copy(response.Body, rc.Writer)
	timer.lastByteSent()

	if result.Outcome != CopySuccess {
		kind := classifyResponseBodyError(result.Outcome)
		rc.fail(kind, result.Err)
		// Status and headers are already committed; nothing more the engine
		// can do to the inbound response body at this point, per spec.md §7,
		// but Always trailer transforms still get to run.
		writeTrailers(rc, response, false)
		e.awaitContent(content)
		return
	}

	writeTrailers(rc, response, true)
	e.awaitContent(content)

	if content != nil && content.Result().Outcome != CopySuccess {
		rc.fail(classifyRequestBodyError(content.Result().Outcome), content.Result().Err)
		rc.stage(telemetry.StageCompleted)
		return
	}

	rc.stage(telemetry.StageCompleted)
	rc.emit(func(l telemetry.Listener) {
		l.OnProxyStop(telemetry.ProxyStopEvent{
			RequestID:  rc.RequestID,
			StatusCode: response.StatusCode,
			Duration:   timer.elapsed(),
		})
	})
}

func (e *Engine) awaitContent(content *StreamCopyHTTPContent) {
	if content == nil {
		return
	}
	<-content.ConsumptionTask()
}

func applyContentHeaders(outbound *http.Request, contentHeaders http.Header) {
	for name, values := range contentHeaders {
		outbound.Header[name] = values
	}
}

// linkedContext derives a context canceled when either parent is canceled,
// used for HTTP/2+ outbound calls where the engine itself must honor both
// the request-level timeout (RequestCancel) and a plain connection-abort
// signal (ContentCancel), per spec.md §4.1.2(6). HTTP/1.1 calls skip this
// and use RequestCancel directly, since HTTP/1.1 has no independent
// content-cancellation signal to link.
func linkedContext(a, b context.Context) context.Context {
	ctx, cancel := context.WithCancel(a)
	go func() {
		select {
		case <-ctx.Done():
		case <-b.Done():
			cancel()
		}
	}()
	return ctx
}

// forwardUpgrade implements the protocol-upgrade path.
func (e *Engine) forwardUpgrade(rc *RequestContext, outbound *http.Request, timer *requestTimer) {
	activity := NewActivityToken(rc.RequestCancel, e.activityTimeout(rc))
	defer activity.Close()

	rc.stage(telemetry.StageResponseUpgrade)

	response, result := forwardUpgrade(rc, outbound, activity)
	if result.kind != ErrorKindNone {
		e.finishFailed(rc, rc.fail(result.kind, result.err))
		return
	}

	rc.stage(telemetry.StageReceivedResponse)
	timer.firstByteSent()

	if response.StatusCode != http.StatusSwitchingProtocols {
		declareTrailers(rc, response)
		if err := writeResponseHeaders(rc, response, true); err != nil {
			e.finishFailed(rc, rc.fail(ErrorKindResponseBodyClient, err))
			return
		}
		_, copyErr := io.Copy(rc.Writer, response.Body)
		response.Body.Close()
		timer.lastByteSent()
		if copyErr != nil {
			rc.fail(ErrorKindResponseBodyDestination, copyErr)
		}
		writeTrailers(rc, response, copyErr == nil)
		if copyErr != nil {
			rc.stage(telemetry.StageCompleted)
			return
		}
	}

	rc.stage(telemetry.StageCompleted)
	rc.emit(func(l telemetry.Listener) {
		l.OnProxyStop(telemetry.ProxyStopEvent{
			RequestID:  rc.RequestID,
			StatusCode: response.StatusCode,
			Duration:   timer.elapsed(),
		})
	})
}

// finishFailed writes the best response the engine can still produce for a
// pre-header-commit failure: spec.md §7's default status code for the
// classified kind, with no body. If headers were already sent this is a
// no-op beyond the classification already recorded by rc.fail.
func (e *Engine) finishFailed(rc *RequestContext, classified *Error) {
	rc.Writer.WriteHeader(statusCodeForError(classified.Kind))
	rc.stage(telemetry.StageCompleted)
}

func classifyRequestError(err error, content *StreamCopyHTTPContent) ErrorKind {
	if content != nil && content.Started() {
		<-content.ConsumptionTask()
		return classifyRequestBodyError(content.Result().Outcome)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindRequestCanceled
	}
	return ErrorKindRequest
}

func classifyRequestBodyError(outcome CopyOutcome) ErrorKind {
	switch outcome {
	case CopySuccess:
		return ErrorKindNone
	case CopyCanceled:
		return ErrorKindRequestBodyCanceled
	case CopyInputError:
		return ErrorKindRequestBodyClient
	default:
		return ErrorKindRequestBodyDestination
	}
}

func classifyResponseBodyError(outcome CopyOutcome) ErrorKind {
	switch outcome {
	case CopyCanceled:
		return ErrorKindResponseBodyCanceled
	case CopyInputError:
		return ErrorKindResponseBodyDestination
	default:
		return ErrorKindResponseBodyClient
	}
}

// ServeHTTP adapts Engine to http.Handler for callers that have no
// additional routing of their own; production callers typically build a
// RequestContext themselves (with a resolved Destination) and call Forward
// directly.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := NewRequestContext(w, r)
	e.Forward(rc)
}
