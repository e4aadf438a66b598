package forwarder

import (
	"net/http"
	"net/http/httptest"
	"net/url"

	"github.com/icecave/forwardcore/src/destination"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

func newOutboundRequest(method string, contentLength int64, transferEncoding string, protoMajor int) *http.Request {
	req := httptest.NewRequest(method, "/", nil)
	req.ContentLength = contentLength
	req.ProtoMajor = protoMajor
	if transferEncoding != "" {
		req.Header.Set("Transfer-Encoding", transferEncoding)
	}
	return req
}

var _ = Describe("needsOutboundBody", func() {
	DescribeTable(
		"the method/body classifier matrix",
		func(method string, contentLength int64, transferEncoding string, protoMajor int, expected bool) {
			req := newOutboundRequest(method, contentLength, transferEncoding, protoMajor)
			Expect(needsOutboundBody(req)).To(Equal(expected))
		},

		Entry("POST always carries a body", http.MethodPost, int64(0), "", 1, true),
		Entry("PATCH always carries a body", http.MethodPatch, int64(0), "", 1, true),
		Entry("PUT always carries a body", http.MethodPut, int64(0), "", 1, true),
		Entry("DELETE always carries a body", http.MethodDelete, int64(0), "", 1, true),
		Entry("POST over HTTP/2 still always carries a body", http.MethodPost, int64(0), "", 2, true),

		Entry("GET with no indicator has no body", http.MethodGet, int64(0), "", 1, false),
		Entry("HEAD with no indicator has no body", http.MethodHead, int64(0), "", 1, false),
		Entry("TRACE with no indicator has no body", http.MethodTrace, int64(0), "", 1, false),
		Entry("GET with a positive Content-Length carries a body", http.MethodGet, int64(10), "", 1, true),
		Entry("GET with chunked Transfer-Encoding carries a body", http.MethodGet, int64(0), "chunked", 1, true),
		Entry("GET with zero Content-Length has no body", http.MethodGet, int64(0), "", 1, false),
		Entry("GET with a non-chunked Transfer-Encoding has no body", http.MethodGet, int64(0), "identity", 1, false),

		Entry("an unknown method always carries a body", "PROPFIND", int64(0), "", 1, true),
		Entry("an unknown method over HTTP/2 always carries a body", "PROPFIND", int64(0), "", 2, true),
		Entry("GET stays bodyless over HTTP/2 absent an indicator", http.MethodGet, int64(0), "", 2, false),
	)
})

var _ = Describe("outboundVersion", func() {
	It("selects HTTP/1.1 for an upgrade-eligible request", func() {
		major, minor, proto := outboundVersion(true)
		Expect(major).To(Equal(1))
		Expect(minor).To(Equal(1))
		Expect(proto).To(Equal("HTTP/1.1"))
	})

	It("selects HTTP/2.0 for a normal request", func() {
		major, minor, proto := outboundVersion(false)
		Expect(major).To(Equal(2))
		Expect(minor).To(Equal(0))
		Expect(proto).To(Equal("HTTP/2.0"))
	})
})

var _ = Describe("isUpgradeEligible", func() {
	DescribeTable(
		"the Upgrade/Connection header combination",
		func(upgrade, connection string, expected bool) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if upgrade != "" {
				req.Header.Set("Upgrade", upgrade)
			}
			if connection != "" {
				req.Header.Set("Connection", connection)
			}
			Expect(isUpgradeEligible(req)).To(Equal(expected))
		},
		Entry("both headers present", "websocket", "Upgrade", true),
		Entry("Connection lists Upgrade among other tokens", "websocket", "keep-alive, Upgrade", true),
		Entry("Connection token case is ignored", "websocket", "upgrade", true),
		Entry("missing Upgrade header", "", "Upgrade", false),
		Entry("missing Connection header", "websocket", "", false),
		Entry("Connection present but without the Upgrade token", "websocket", "keep-alive", false),
	)
})

func newOutboundRequestContext(destinationPrefix, path, pathBase string) *RequestContext {
	prefix, err := url.Parse(destinationPrefix)
	Expect(err).NotTo(HaveOccurred())

	req := httptest.NewRequest(http.MethodGet, path, nil)
	return &RequestContext{
		Request:     req,
		PathBase:    pathBase,
		Destination: &destination.Destination{Description: "test", Prefix: prefix},
	}
}

var _ = Describe("buildOutboundURI", func() {
	It("joins the inbound path onto the destination prefix", func() {
		rc := newOutboundRequestContext("http://backend.invalid/root", "/widgets/1", "")
		Expect(buildOutboundURI(rc)).To(Equal("http://backend.invalid/root/widgets/1"))
	})

	It("trims a trailing slash from the prefix before joining", func() {
		rc := newOutboundRequestContext("http://backend.invalid/root/", "/widgets/1", "")
		Expect(buildOutboundURI(rc)).To(Equal("http://backend.invalid/root/widgets/1"))
	})

	It("drops the path base before joining", func() {
		rc := newOutboundRequestContext("http://backend.invalid/root", "/api/widgets/1", "/api")
		Expect(buildOutboundURI(rc)).To(Equal("http://backend.invalid/root/widgets/1"))
	})

	It("leaves the path untouched when it does not start with the path base", func() {
		rc := newOutboundRequestContext("http://backend.invalid/root", "/widgets/1", "/api")
		Expect(buildOutboundURI(rc)).To(Equal("http://backend.invalid/root/widgets/1"))
	})

	It("appends the query string", func() {
		rc := newOutboundRequestContext("http://backend.invalid/root", "/widgets?a=b&c=d", "")
		Expect(buildOutboundURI(rc)).To(Equal("http://backend.invalid/root/widgets?a=b&c=d"))
	})

	It("reduces a fully path-based request to just the prefix", func() {
		rc := newOutboundRequestContext("http://backend.invalid/root", "/api", "/api")
		Expect(buildOutboundURI(rc)).To(Equal("http://backend.invalid/root/"))
	})
})

var _ = Describe("buildOutboundRequest", func() {
	It("filters hop-by-hop headers and splits off content headers", func() {
		req := httptest.NewRequest(http.MethodPost, "/widgets", nil)
		req.Header.Set("Connection", "close")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Content-Length", "4")
		req.Header.Set("X-Custom", "value")

		rc := &RequestContext{
			Request:     req,
			Destination: &destination.Destination{Description: "test", Prefix: mustParseURL("http://backend.invalid/")},
		}

		outbound, contentHeaders, err := buildOutboundRequest(rc, false)
		Expect(err).NotTo(HaveOccurred())

		Expect(outbound.Header.Get("Connection")).To(BeEmpty())
		Expect(outbound.Header.Get("X-Custom")).To(Equal("value"))
		Expect(contentHeaders.Get("Content-Type")).To(Equal("application/json"))
		Expect(outbound.ContentLength).To(Equal(int64(4)))
		Expect(outbound.Host).To(BeEmpty())
	})

	It("keeps Connection and Upgrade when the request is upgrade-eligible", func() {
		req := httptest.NewRequest(http.MethodGet, "/socket", nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")

		rc := &RequestContext{
			Request:     req,
			Destination: &destination.Destination{Description: "test", Prefix: mustParseURL("http://backend.invalid/")},
		}

		outbound, _, err := buildOutboundRequest(rc, true)
		Expect(err).NotTo(HaveOccurred())

		Expect(outbound.Header.Get("Connection")).To(Equal("Upgrade"))
		Expect(outbound.Header.Get("Upgrade")).To(Equal("websocket"))
	})
})

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	Expect(err).NotTo(HaveOccurred())
	return u
}
