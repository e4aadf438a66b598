package forwarder

import (
	"net/http"
	"strings"
)

// hopByHopHeaders is the fixed set of headers that are scoped to a single
// network hop and must never be blindly forwarded by a proxy. Names must
// already be canonicalized with http.CanonicalHeaderKey, the way the
// teacher's proxy package required.
var hopByHopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Connection":    true,
	"Transfer-Encoding":   true,
	"Te":                  true,
	"Upgrade":             true,
	"Proxy-Authorization": true,
	"Proxy-Authenticate":  true,
	"Trailer":             true,
}

// isHopByHopHeader reports whether name is hop-by-hop, a pseudo-header
// (":"-prefixed, covering both the HTTP/2 pseudo-headers the teacher's
// original filter knew about and any HTTP/3 ones defensively), or the Host
// header, which the engine handles separately.
func isHopByHopHeader(name string) bool {
	if strings.HasPrefix(name, ":") {
		return true
	}
	if name == "Host" {
		return true
	}
	return hopByHopHeaders[http.CanonicalHeaderKey(name)]
}

// isUpgradeHandshakeHeader reports whether name is one the outbound request
// must still carry even though it is hop-by-hop, because the upgrade
// handshake itself is conveyed through it: a destination deciding whether to
// switch protocols has nothing to go on without its own Connection and
// Upgrade headers.
func isUpgradeHandshakeHeader(name string, isUpgrade bool) bool {
	if !isUpgrade {
		return false
	}
	switch http.CanonicalHeaderKey(name) {
	case "Connection", "Upgrade":
		return true
	default:
		return false
	}
}

// isContentHeader reports whether name belongs on the request/response body
// content rather than the outer message headers. net/http's client does not
// distinguish the two the way some HTTP client libraries do, but the
// taxonomy is kept so transforms can target "content headers" the way
// spec.md describes, by filtering the result of contentHeaderNames.
var contentHeaderNames = map[string]bool{
	"Content-Type":        true,
	"Content-Length":       true,
	"Content-Language":     true,
	"Content-Location":     true,
	"Content-Encoding":     true,
	"Content-Range":        true,
	"Content-Disposition":  true,
	"Content-Md5":          true,
	"Expires":              true,
	"Last-Modified":        true,
}

func isContentHeader(name string) bool {
	return contentHeaderNames[http.CanonicalHeaderKey(name)]
}

// copyHeaders copies every header from src to dst that is not hop-by-hop and
// not a pseudo-header, canonicalizing names as http.Header naturally does.
func copyHeaders(dst, src http.Header) {
	for name, values := range src {
		if isHopByHopHeader(name) {
			continue
		}
		dst[name] = append([]string(nil), values...)
	}
}

// forwardedDefaults appends (never overwrites) the X-Forwarded-* headers
// described in spec.md §6, when enabled by transform configuration.
func forwardedDefaults(dst http.Header, remoteIP, host, scheme, pathBase string) {
	appendHeader(dst, "X-Forwarded-For", remoteIP)
	appendHeader(dst, "X-Forwarded-Host", host)
	appendHeader(dst, "X-Forwarded-Proto", scheme)
	if pathBase != "" {
		appendHeader(dst, "X-Forwarded-PathBase", pathBase)
	}
}

func appendHeader(h http.Header, name, value string) {
	if value == "" {
		return
	}
	h.Add(name, value)
}

// lookupHeader searches both header bags a transform may need to inspect,
// the message headers and the content headers, the way spec.md §4.1.2(5)
// describes transform helpers doing.
func lookupHeader(message, content http.Header, name string) (string, bool) {
	if v := message.Get(name); v != "" {
		return v, true
	}
	if content != nil {
		if v := content.Get(name); v != "" {
			return v, true
		}
	}
	return "", false
}
