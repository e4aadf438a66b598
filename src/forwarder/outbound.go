package forwarder

import (
	"net/http"
	"strconv"
	"strings"
)

// bodyMethods is the set of methods that always carry an outbound body
// regardless of headers, per spec.md §4.1.2(1). Matching is
// case-insensitive, so the set holds the canonical upper-case form and
// lookups upper-case first.
var bodyMethods = map[string]bool{
	http.MethodPost:   true,
	http.MethodPatch:  true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// noBodyMethods is the set of methods that, absent a body indicator, never
// carry an outbound body.
var noBodyMethods = map[string]bool{
	http.MethodGet:   true,
	http.MethodHead:  true,
	http.MethodTrace: true,
}

// needsOutboundBody implements the Method/Version/Body decision from
// spec.md §4.1.2(1): POST/PATCH/PUT/DELETE/unknown methods always carry a
// body regardless of protocol version or headers; GET/HEAD/TRACE carry one
// only when a body indicator is present.
func needsOutboundBody(r *http.Request) bool {
	method := strings.ToUpper(r.Method)

	if bodyMethods[method] {
		return true
	}

	if !noBodyMethods[method] {
		return true
	}

	return hasBodyIndicator(r)
}

func hasBodyIndicator(r *http.Request) bool {
	if r.ContentLength > 0 {
		return true
	}
	for _, v := range r.Header.Values("Transfer-Encoding") {
		if strings.Contains(strings.ToLower(v), "chunked") {
			return true
		}
	}
	return false
}

// outboundVersion selects HTTP/2.0 for normal forwarding, or HTTP/1.1 when
// the inbound request is upgrade-eligible, per spec.md §4.1.2(3).
func outboundVersion(isUpgrade bool) (major, minor int, proto string) {
	if isUpgrade {
		return 1, 1, "HTTP/1.1"
	}
	return 2, 0, "HTTP/2.0"
}

// isUpgradeEligible reports whether the inbound request advertises an
// Upgrade capability alongside the Connection: Upgrade header, the
// condition spec.md §4.1.2(3) and §4.1.5 key the upgrade path off.
func isUpgradeEligible(r *http.Request) bool {
	if r.Header.Get("Upgrade") == "" {
		return false
	}
	for _, v := range r.Header.Values("Connection") {
		for _, token := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(token), "Upgrade") {
				return true
			}
		}
	}
	return false
}

// buildOutboundURI drops rc.PathBase from the inbound path and appends the
// remainder plus the query string onto the destination prefix verbatim, per
// spec.md §4.1.2(2). No re-encoding is performed.
func buildOutboundURI(rc *RequestContext) string {
	prefix := strings.TrimSuffix(rc.Destination.Prefix.String(), "/")
	path := rc.Request.URL.EscapedPath()
	if rc.PathBase != "" && strings.HasPrefix(path, rc.PathBase) {
		path = path[len(rc.PathBase):]
	}
	if path == "" || path[0] != '/' {
		path = "/" + path
	}

	uri := prefix + path
	if rc.Request.URL.RawQuery != "" {
		uri += "?" + rc.Request.URL.RawQuery
	}
	return uri
}

// buildOutboundRequest builds the outbound *http.Request from rc per
// spec.md §4.1.2: URI composition, version selection, hop-by-hop-filtered
// header copy with Host cleared by default, and the transform pipeline.
// The returned content headers are the subset of copied headers that
// belong on body content rather than the outbound message, returned
// separately so the engine can merge them into the outbound headers when
// it attaches a body; a request sent without a body carries none of them.
func buildOutboundRequest(rc *RequestContext, isUpgrade bool) (*http.Request, http.Header, error) {
	uri := buildOutboundURI(rc)

	outbound, err := http.NewRequest(rc.Request.Method, uri, nil)
	if err != nil {
		return nil, nil, err
	}

	major, minor, proto := outboundVersion(isUpgrade)
	outbound.ProtoMajor = major
	outbound.ProtoMinor = minor
	outbound.Proto = proto

	outbound.Header = make(http.Header)
	contentHeaders := make(http.Header)

	for name, values := range rc.Request.Header {
		if isHopByHopHeader(name) && !isUpgradeHandshakeHeader(name, isUpgrade) {
			continue
		}
		if isContentHeader(name) {
			contentHeaders[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
			continue
		}
		outbound.Header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}

	// Host is cleared by default; a transform may re-set it.
	outbound.Host = ""

	if rc.Transforms != nil {
		transformCtx := &RequestTransformContext{
			Inbound:        rc.Request,
			Outbound:       outbound,
			ContentHeaders: contentHeaders,
			RemoteAddr:     rc.Request.RemoteAddr,
			PathBase:       rc.PathBase,
		}
		if err := rc.Transforms.ApplyRequest(transformCtx); err != nil {
			return nil, nil, err
		}
	}

	if cl := contentHeaders.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			outbound.ContentLength = n
		}
	}

	return outbound, contentHeaders, nil
}
