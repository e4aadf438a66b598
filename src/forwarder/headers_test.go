package forwarder

import (
	"net/http"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("isHopByHopHeader", func() {
	DescribeTable(
		"the fixed hop-by-hop set",
		func(name string, expected bool) {
			Expect(isHopByHopHeader(name)).To(Equal(expected))
		},
		Entry("connection", "Connection", true),
		Entry("keep-alive", "Keep-Alive", true),
		Entry("proxy-connection", "Proxy-Connection", true),
		Entry("transfer-encoding", "Transfer-Encoding", true),
		Entry("te", "Te", true),
		Entry("upgrade", "Upgrade", true),
		Entry("proxy-authorization", "Proxy-Authorization", true),
		Entry("proxy-authenticate", "Proxy-Authenticate", true),
		Entry("trailer", "Trailer", true),
		Entry("lowercase form still matches", "connection", true),
		Entry("host is filtered separately but still reported", "Host", true),
		Entry("http/2 pseudo-header", ":authority", true),
		Entry("http/3 pseudo-header", ":status", true),
		Entry("content-type passes through", "Content-Type", false),
		Entry("x-forwarded-for passes through", "X-Forwarded-For", false),
		Entry("authorization passes through", "Authorization", false),
	)
})

var _ = Describe("isUpgradeHandshakeHeader", func() {
	DescribeTable(
		"Connection and Upgrade are exempted only on the upgrade path",
		func(name string, isUpgrade bool, expected bool) {
			Expect(isUpgradeHandshakeHeader(name, isUpgrade)).To(Equal(expected))
		},
		Entry("connection on a normal request", "Connection", false, false),
		Entry("upgrade on a normal request", "Upgrade", false, false),
		Entry("connection on an upgrade request", "Connection", true, true),
		Entry("upgrade on an upgrade request", "Upgrade", true, true),
		Entry("an unrelated hop-by-hop header on an upgrade request", "Te", true, false),
	)
})

var _ = Describe("isContentHeader", func() {
	DescribeTable(
		"the content-header taxonomy",
		func(name string, expected bool) {
			Expect(isContentHeader(name)).To(Equal(expected))
		},
		Entry("content-type", "Content-Type", true),
		Entry("content-length", "Content-Length", true),
		Entry("content-encoding", "Content-Encoding", true),
		Entry("last-modified", "Last-Modified", true),
		Entry("x-custom", "X-Custom", false),
		Entry("connection", "Connection", false),
	)
})

var _ = Describe("copyHeaders", func() {
	It("copies everything except hop-by-hop headers", func() {
		src := http.Header{
			"X-Custom":   {"value"},
			"Connection": {"close"},
			"Upgrade":    {"websocket"},
		}
		dst := make(http.Header)

		copyHeaders(dst, src)

		Expect(dst.Get("X-Custom")).To(Equal("value"))
		Expect(dst.Get("Connection")).To(BeEmpty())
		Expect(dst.Get("Upgrade")).To(BeEmpty())
	})

	It("copies a defensive clone, not the source slice", func() {
		src := http.Header{"X-Custom": {"value"}}
		dst := make(http.Header)

		copyHeaders(dst, src)
		src["X-Custom"][0] = "mutated"

		Expect(dst.Get("X-Custom")).To(Equal("value"))
	})
})

var _ = Describe("forwardedDefaults", func() {
	It("appends the X-Forwarded-* headers when given non-empty values", func() {
		dst := make(http.Header)

		forwardedDefaults(dst, "203.0.113.7", "example.com", "https", "/api")

		Expect(dst.Get("X-Forwarded-For")).To(Equal("203.0.113.7"))
		Expect(dst.Get("X-Forwarded-Host")).To(Equal("example.com"))
		Expect(dst.Get("X-Forwarded-Proto")).To(Equal("https"))
		Expect(dst.Get("X-Forwarded-PathBase")).To(Equal("/api"))
	})

	It("never sets a header from an empty value", func() {
		dst := make(http.Header)

		forwardedDefaults(dst, "", "", "", "")

		Expect(dst).To(BeEmpty())
	})

	It("appends onto an existing value rather than overwriting it", func() {
		dst := http.Header{"X-Forwarded-For": {"10.0.0.1"}}

		forwardedDefaults(dst, "203.0.113.7", "", "", "")

		Expect(dst["X-Forwarded-For"]).To(Equal([]string{"10.0.0.1", "203.0.113.7"}))
	})
})

var _ = Describe("lookupHeader", func() {
	It("finds a value on the message headers", func() {
		message := http.Header{"X-Custom": {"message-value"}}

		value, ok := lookupHeader(message, nil, "X-Custom")

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("message-value"))
	})

	It("falls back to the content headers", func() {
		message := make(http.Header)
		content := http.Header{"Content-Type": {"text/plain"}}

		value, ok := lookupHeader(message, content, "Content-Type")

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("text/plain"))
	})

	It("prefers the message header when both are set", func() {
		message := http.Header{"Content-Type": {"message-value"}}
		content := http.Header{"Content-Type": {"content-value"}}

		value, ok := lookupHeader(message, content, "Content-Type")

		Expect(ok).To(BeTrue())
		Expect(value).To(Equal("message-value"))
	})

	It("reports not found when neither bag has the header", func() {
		_, ok := lookupHeader(make(http.Header), nil, "X-Missing")

		Expect(ok).To(BeFalse())
	})
})
