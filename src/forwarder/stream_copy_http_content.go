package forwarder

import (
	"io"
	"sync"
	"sync/atomic"
)

// StreamCopyHTTPContent adapts a StreamCopier into an io.ReadCloser suitable
// for use as an outbound http.Request's Body, so the upload and the
// destination's response can proceed concurrently instead of buffering the
// whole request first, per spec.md §4.1.3's full-duplex requirement. The
// copier's destination is the content itself: every byte the HTTP client
// pulls from Read is a byte the copier has already moved off the inbound
// body, connected through an in-process pipe.
//
// The caller selects which cancellation token feeds the copier's
// ActivityToken before calling NewStreamCopyHTTPContent — HTTP/1.1 forwards
// use RequestCancel alone, HTTP/2+ forwards link RequestCancel with
// ContentCancel, per spec.md §4.1.2(6). This type has no opinion on which;
// it only pumps.
type StreamCopyHTTPContent struct {
	copier *StreamCopier
	src    io.Reader

	pr *io.PipeReader
	pw *io.PipeWriter

	started int32
	done    chan struct{}

	mu     sync.Mutex
	result CopyResult
}

// NewStreamCopyHTTPContent starts pumping src through copier immediately;
// the returned value's Read method feeds whatever the pump has produced so
// far, blocking until more is available or the pump finishes.
func NewStreamCopyHTTPContent(copier *StreamCopier, src io.Reader) *StreamCopyHTTPContent {
	pr, pw := io.Pipe()
	c := &StreamCopyHTTPContent{
		copier: copier,
		src:    src,
		pr:     pr,
		pw:     pw,
		done:   make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *StreamCopyHTTPContent) run() {
	result := c.copier.Copy(c.src, c)

	c.mu.Lock()
	c.result = result
	c.mu.Unlock()

	if result.Outcome == CopySuccess {
		c.pw.Close()
	} else {
		c.pw.CloseWithError(result.Err)
	}
	close(c.done)
}

// Write is the copier's destination, feeding whatever the HTTP client
// consumes via Read.
func (c *StreamCopyHTTPContent) Write(p []byte) (int, error) {
	return c.pw.Write(p)
}

// Read implements io.Reader for use as an http.Request Body. This content
// is consumed as a stream only; it does not support being read twice or
// buffered into memory first, matching how the engine uses it.
//
// The Started flag is assigned exactly once, the first time the HTTP
// client calls Read — not on construction, and not on the first byte
// actually written — so a caller can tell a request the client never
// began consuming (it failed before even asking for the body) apart from
// one where consumption began and then failed, per spec.md §7's "upload
// had already started streaming" promotion rule.
func (c *StreamCopyHTTPContent) Read(p []byte) (int, error) {
	atomic.CompareAndSwapInt32(&c.started, 0, 1)
	return c.pr.Read(p)
}

// Close aborts the pipe from the reader side, which in turn fails the
// in-flight copier write and unblocks run().
func (c *StreamCopyHTTPContent) Close() error {
	return c.pr.Close()
}

// Started reports whether the HTTP client has called Read on this content
// yet, whether or not any byte of the request body has been sent.
func (c *StreamCopyHTTPContent) Started() bool {
	return atomic.LoadInt32(&c.started) == 1
}

// ConsumptionTask returns a channel closed once the pump has finished, for
// callers that need to wait for the upload without caring about its Read
// path — e.g. the engine waiting for the request-body pump to settle after
// the response has already been fully received.
func (c *StreamCopyHTTPContent) ConsumptionTask() <-chan struct{} {
	return c.done
}

// Result returns the pump's outcome. It is only meaningful after
// ConsumptionTask has been closed.
func (c *StreamCopyHTTPContent) Result() CopyResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}
