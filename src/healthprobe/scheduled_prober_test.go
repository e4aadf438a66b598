package healthprobe_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	"github.com/icecave/forwardcore/src/destination"
	"github.com/icecave/forwardcore/src/healthprobe"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("ScheduledProber", func() {
	It("reports healthy by default before a destination is probed", func() {
		prober := healthprobe.NewScheduledProber(nil)
		defer prober.Dispose()

		Expect(prober.Status("unknown").IsHealthy).To(BeTrue())
	})

	It("probes a registered destination and caches its status", func() {
		healthy := true
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if healthy {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			w.Write([]byte("status"))
		}))
		defer server.Close()

		prefix, err := url.Parse(server.URL)
		Expect(err).NotTo(HaveOccurred())
		d := &destination.Destination{Description: "test", Prefix: prefix, HealthCheckPath: "/health"}

		prober := healthprobe.NewScheduledProber(nil)
		defer prober.Dispose()

		prober.Register(d, 10*time.Millisecond)
		prober.Start()

		Eventually(func() bool {
			return prober.Status(d.Key()).IsHealthy
		}, time.Second, 5*time.Millisecond).Should(BeTrue())

		healthy = false

		Eventually(func() bool {
			return prober.Status(d.Key()).IsHealthy
		}, time.Second, 5*time.Millisecond).Should(BeFalse())
	})

	It("skips registration entirely for a destination with no health-check path", func() {
		prefix, _ := url.Parse("http://example.invalid/")
		d := &destination.Destination{Description: "no-probe", Prefix: prefix}

		prober := healthprobe.NewScheduledProber(nil)
		defer prober.Dispose()

		prober.Register(d, 10*time.Millisecond)
		Expect(prober.Status(d.Key()).IsHealthy).To(BeTrue())
	})

	It("stops probing after Unregister", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		prefix, _ := url.Parse(server.URL)
		d := &destination.Destination{Description: "test", Prefix: prefix, HealthCheckPath: "/health"}

		prober := healthprobe.NewScheduledProber(nil)
		defer prober.Dispose()

		prober.Register(d, 10*time.Millisecond)
		prober.Start()

		Eventually(func() bool {
			return prober.Status(d.Key()).IsHealthy
		}, time.Second, 5*time.Millisecond).Should(BeTrue())

		prober.Unregister(d)
		Expect(prober.Status(d.Key())).To(Equal(healthprobe.Status{IsHealthy: true, Message: "not probed"}))
	})
})

var _ = Describe("HTTPHandler", func() {
	It("serves 200 for a healthy cached status and 503 for an unhealthy one", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("down"))
		}))
		defer server.Close()

		prefix, _ := url.Parse(server.URL)
		d := &destination.Destination{Description: "test", Prefix: prefix, HealthCheckPath: "/health"}

		prober := healthprobe.NewScheduledProber(nil)
		defer prober.Dispose()

		prober.Register(d, 10*time.Millisecond)
		prober.Start()

		Eventually(func() bool {
			return prober.Status(d.Key()).IsHealthy
		}, time.Second, 5*time.Millisecond).Should(BeFalse())

		handler := &healthprobe.HTTPHandler{Prober: prober, Key: d.Key()}
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(recorder.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(recorder.Body.String()).To(Equal("down"))
	})
})
