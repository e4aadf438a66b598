package forwarder_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/icecave/forwardcore/src/forwarder"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("TransformPipeline", func() {
	Describe("ApplyRequest", func() {
		It("runs transforms in order and appends X-Forwarded-* defaults", func() {
			inbound := httptest.NewRequest(http.MethodGet, "http://example.com/base/api/test", nil)
			inbound.RemoteAddr = "127.0.0.1:1234"

			outbound, _ := http.NewRequest(http.MethodGet, "http://localhost/api/test", nil)
			outbound.Header = make(http.Header)

			pipeline := &forwarder.TransformPipeline{
				UseDefaultForwarded: true,
				Request: []forwarder.RequestTransform{
					forwarder.RequestTransformFunc(func(ctx *forwarder.RequestTransformContext) error {
						ctx.Set("X-Custom", "added-by-transform")
						return nil
					}),
				},
			}

			ctx := &forwarder.RequestTransformContext{
				Inbound:        inbound,
				Outbound:       outbound,
				ContentHeaders: make(http.Header),
				RemoteAddr:     inbound.RemoteAddr,
				PathBase:       "/base",
			}

			Expect(pipeline.ApplyRequest(ctx)).To(Succeed())
			Expect(outbound.Header.Get("X-Custom")).To(Equal("added-by-transform"))
			Expect(outbound.Header.Get("X-Forwarded-For")).To(Equal("127.0.0.1"))
			Expect(outbound.Header.Get("X-Forwarded-Host")).To(Equal("example.com"))
			Expect(outbound.Header.Get("X-Forwarded-PathBase")).To(Equal("/base"))
		})

		It("appends rather than overwrites an existing X-Forwarded-For", func() {
			inbound := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
			inbound.RemoteAddr = "127.0.0.1:1234"

			outbound, _ := http.NewRequest(http.MethodGet, "http://localhost/", nil)
			outbound.Header = http.Header{"X-Forwarded-For": []string{"::1"}}

			pipeline := &forwarder.TransformPipeline{UseDefaultForwarded: true}
			ctx := &forwarder.RequestTransformContext{
				Inbound:        inbound,
				Outbound:       outbound,
				ContentHeaders: make(http.Header),
				RemoteAddr:     inbound.RemoteAddr,
			}

			Expect(pipeline.ApplyRequest(ctx)).To(Succeed())
			Expect(outbound.Header.Values("X-Forwarded-For")).To(Equal([]string{"::1", "127.0.0.1"}))
		})
	})

	Describe("ApplyResponse", func() {
		It("skips non-Always transforms when the response did not succeed", func() {
			var ranAlways, ranNormal bool

			pipeline := &forwarder.TransformPipeline{
				Response: []forwarder.ResponseTransform{
					forwarder.NewResponseTransform(true, func(ctx *forwarder.ResponseTransformContext) error {
						ranAlways = true
						return nil
					}),
					forwarder.NewResponseTransform(false, func(ctx *forwarder.ResponseTransformContext) error {
						ranNormal = true
						return nil
					}),
				},
			}

			ctx := &forwarder.ResponseTransformContext{Succeeded: false}
			Expect(pipeline.ApplyResponse(ctx)).To(Succeed())

			Expect(ranAlways).To(BeTrue())
			Expect(ranNormal).To(BeFalse())
		})

		It("runs every transform when the response succeeded", func() {
			var ranNormal bool
			pipeline := &forwarder.TransformPipeline{
				Response: []forwarder.ResponseTransform{
					forwarder.NewResponseTransform(false, func(ctx *forwarder.ResponseTransformContext) error {
						ranNormal = true
						return nil
					}),
				},
			}

			ctx := &forwarder.ResponseTransformContext{Succeeded: true}
			Expect(pipeline.ApplyResponse(ctx)).To(Succeed())
			Expect(ranNormal).To(BeTrue())
		})
	})
})
