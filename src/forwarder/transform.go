package forwarder

import (
	"net"
	"net/http"
)

// RequestTransformContext is handed to each request transform in sequence.
// Outbound is the request under construction; Inbound is the original
// request, kept read-only so a transform can consult it. ContentHeaders
// holds headers that belong on the outbound body rather than the outbound
// message, per spec.md §4.1.2(4); Lookup searches both bags the way
// spec.md §4.1.2(5) describes.
type RequestTransformContext struct {
	Inbound        *http.Request
	Outbound       *http.Request
	ContentHeaders http.Header
	RemoteAddr     string
	PathBase       string
}

// Lookup searches the outbound message headers, then the content headers,
// for name.
func (c *RequestTransformContext) Lookup(name string) (string, bool) {
	return lookupHeader(c.Outbound.Header, c.ContentHeaders, name)
}

// Set adds or replaces name on the outbound message headers.
func (c *RequestTransformContext) Set(name, value string) {
	c.Outbound.Header.Set(name, value)
}

// SetContent adds or replaces name on the outbound content headers.
func (c *RequestTransformContext) SetContent(name, value string) {
	c.ContentHeaders.Set(name, value)
}

// Remove deletes name from both header bags.
func (c *RequestTransformContext) Remove(name string) {
	c.Outbound.Header.Del(name)
	c.ContentHeaders.Del(name)
}

// RequestTransform mutates the outbound request built from a
// RequestContext. Transforms run in pipeline order; each is pure with
// respect to the others but order-sensitive, per spec.md §3.
type RequestTransform interface {
	ApplyRequest(*RequestTransformContext) error
}

// RequestTransformFunc adapts a plain function to RequestTransform.
type RequestTransformFunc func(*RequestTransformContext) error

// ApplyRequest calls f.
func (f RequestTransformFunc) ApplyRequest(ctx *RequestTransformContext) error {
	return f(ctx)
}

// ResponseTransformContext is handed to each response/trailer transform.
// Succeeded is false when the response did not reach the client
// successfully; only Always transforms run in that case, per spec.md
// §4.1.5.
type ResponseTransformContext struct {
	StatusCode int
	Header     http.Header
	Trailer    http.Header
	Succeeded  bool
}

// ResponseTransform mutates the outbound (to-client) response headers or
// trailers.
type ResponseTransform interface {
	ApplyResponse(*ResponseTransformContext) error

	// Always reports whether this transform must run even when the
	// response did not reach the client successfully.
	Always() bool
}

// responseTransformFunc adapts a function and an "always" flag to
// ResponseTransform.
type responseTransformFunc struct {
	fn     func(*ResponseTransformContext) error
	always bool
}

func (r *responseTransformFunc) ApplyResponse(ctx *ResponseTransformContext) error {
	return r.fn(ctx)
}

func (r *responseTransformFunc) Always() bool {
	return r.always
}

// NewResponseTransform adapts fn to ResponseTransform with the given Always
// semantics.
func NewResponseTransform(always bool, fn func(*ResponseTransformContext) error) ResponseTransform {
	return &responseTransformFunc{fn: fn, always: always}
}

// TransformPipeline is an ordered, immutable-after-construction sequence of
// transforms, safe for concurrent Apply per spec.md §5.
type TransformPipeline struct {
	Request  []RequestTransform
	Response []ResponseTransform

	// UseDefaultForwarded enables the X-Forwarded-* append-default behavior
	// from spec.md §6, applied after every explicit request transform.
	UseDefaultForwarded bool
}

// ApplyRequest runs every request transform in order, then appends the
// X-Forwarded-* defaults if enabled. A nil pipeline only appends defaults
// if called directly with UseDefaultForwarded set on the zero value, which
// never happens since a nil pointer has no fields to set — callers that
// want defaults without custom transforms use &TransformPipeline{UseDefaultForwarded: true}.
func (p *TransformPipeline) ApplyRequest(ctx *RequestTransformContext) error {
	if p == nil {
		return nil
	}
	for _, t := range p.Request {
		if err := t.ApplyRequest(ctx); err != nil {
			return err
		}
	}
	if p.UseDefaultForwarded {
		remoteHost, _, err := net.SplitHostPort(ctx.RemoteAddr)
		if err != nil {
			remoteHost = ctx.RemoteAddr
		}
		forwardedDefaults(
			ctx.Outbound.Header,
			remoteHost,
			ctx.Inbound.Host,
			schemeOf(ctx.Inbound),
			ctx.PathBase,
		)
	}
	return nil
}

// ApplyResponse runs every response transform whose Always() is true, or
// every response transform when ctx.Succeeded is true.
func (p *TransformPipeline) ApplyResponse(ctx *ResponseTransformContext) error {
	if p == nil {
		return nil
	}
	for _, t := range p.Response {
		if !ctx.Succeeded && !t.Always() {
			continue
		}
		if err := t.ApplyResponse(ctx); err != nil {
			return err
		}
	}
	return nil
}

func schemeOf(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
