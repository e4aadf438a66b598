package forwarder

import (
	"net/http"
)

// writeResponseHeaders copies the destination's response status and
// headers onto the inbound ResponseWriter, filtering hop-by-hop headers
// and running the response transform pipeline first, per spec.md
// §4.1.2(5)/§4.1.5. It commits the status line, so it must only be called
// once the engine has decided the response is going to reach the client.
func writeResponseHeaders(rc *RequestContext, response *http.Response, succeeded bool) error {
	header := rc.Writer.Header()
	for name, values := range response.Header {
		if isHopByHopHeader(name) {
			continue
		}
		header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}

	if rc.Transforms != nil {
		transformCtx := &ResponseTransformContext{
			StatusCode: response.StatusCode,
			Header:     header,
			Trailer:    response.Trailer,
			Succeeded:  succeeded,
		}
		if err := rc.Transforms.ApplyResponse(transformCtx); err != nil {
			return err
		}
		rc.Writer.WriteHeader(transformCtx.StatusCode)
		return nil
	}

	rc.Writer.WriteHeader(response.StatusCode)
	return nil
}

// writeTrailers runs the response/trailer transform pipeline against the
// destination's trailers, with succeeded reflecting whether the body pump
// that just finished actually succeeded — the same Succeeded semantics
// writeResponseHeaders' transform pass uses, but evaluated at the point
// spec.md §4.1.5 calls "response/trailer transforms": after the body
// outcome is known, rather than before it. It then copies the resulting
// trailers onto the inbound ResponseWriter. The inbound ResponseWriter
// must declare trailer names via the "Trailer" header before WriteHeader
// for this to have any effect with net/http; the engine is responsible
// for declaring them up front when it knows the destination intends to
// send trailers.
func writeTrailers(rc *RequestContext, response *http.Response, succeeded bool) {
	trailer := response.Trailer
	if trailer == nil {
		trailer = make(http.Header)
	}

	if rc.Transforms != nil {
		transformCtx := &ResponseTransformContext{
			StatusCode: response.StatusCode,
			Header:     rc.Writer.Header(),
			Trailer:    trailer,
			Succeeded:  succeeded,
		}
		if err := rc.Transforms.ApplyResponse(transformCtx); err != nil {
			rc.fail(ErrorKindResponseBodyClient, err)
		}
	}

	if len(trailer) == 0 {
		return
	}
	header := rc.Writer.Header()
	for name, values := range trailer {
		header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}
}

// declareTrailers copies the destination's advertised trailer names onto
// the inbound response's Trailer header before the body is written, the
// mechanism net/http requires for a handler to stream trailers.
func declareTrailers(rc *RequestContext, response *http.Response) {
	for name := range response.Trailer {
		rc.Writer.Header().Add("Trailer", name)
	}
}
