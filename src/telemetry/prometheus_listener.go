package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var transferredBuckets = []float64{256, 1024, 8192, 65536, 262144, 1048576, 8388608}

// PrometheusListener records forwarder telemetry as Prometheus collectors,
// grounded on the retrieval pack's own internal/metrics package (a
// registry-scoped Metrics struct populated in a constructor and registered
// once).
type PrometheusListener struct {
	Registry *prometheus.Registry

	ProxyStarts       prometheus.Counter
	ProxyStopsByCode  *prometheus.CounterVec
	ProxyFailuresByKind *prometheus.CounterVec
	ProxyDuration     prometheus.Histogram
	ContentBytes      *prometheus.HistogramVec
}

// NewPrometheusListener creates a PrometheusListener with its own registry
// and registers all of its collectors.
func NewPrometheusListener() *PrometheusListener {
	reg := prometheus.NewRegistry()

	l := &PrometheusListener{
		Registry: reg,

		ProxyStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forwardcore_proxy_starts_total",
			Help: "Total number of requests that began forwarding.",
		}),

		ProxyStopsByCode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forwardcore_proxy_stops_total",
			Help: "Total number of requests forwarded successfully, by status code.",
		}, []string{"status_code"}),

		ProxyFailuresByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forwardcore_proxy_failures_total",
			Help: "Total number of failed forwards, by error kind.",
		}, []string{"error_kind"}),

		ProxyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forwardcore_proxy_duration_seconds",
			Help:    "Wall-clock duration of a forwarded request, start to completion.",
			Buckets: prometheus.DefBuckets,
		}),

		ContentBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forwardcore_content_transferred_bytes",
			Help:    "Bytes moved by a single body pump, by direction.",
			Buckets: transferredBuckets,
		}, []string{"direction"}),
	}

	reg.MustRegister(
		l.ProxyStarts,
		l.ProxyStopsByCode,
		l.ProxyFailuresByKind,
		l.ProxyDuration,
		l.ContentBytes,
	)

	return l
}

func (l *PrometheusListener) OnForwarderStage(ForwarderStageEvent) {}

func (l *PrometheusListener) OnContentTransferring(ContentTransferringEvent) {}

func (l *PrometheusListener) OnContentTransferred(e ContentTransferredEvent) {
	direction := "response"
	if e.IsRequest {
		direction = "request"
	}
	l.ContentBytes.WithLabelValues(direction).Observe(float64(e.TotalBytes))
}

func (l *PrometheusListener) OnProxyStart(ProxyStartEvent) {
	l.ProxyStarts.Inc()
}

func (l *PrometheusListener) OnProxyStop(e ProxyStopEvent) {
	l.ProxyStopsByCode.WithLabelValues(statusCodeLabel(e.StatusCode)).Inc()
	l.ProxyDuration.Observe(e.Duration.Seconds())
}

func (l *PrometheusListener) OnProxyFailed(e ProxyFailedEvent) {
	l.ProxyFailuresByKind.WithLabelValues(e.ErrorKind).Inc()
	l.ProxyDuration.Observe(e.Duration.Seconds())
}

func (l *PrometheusListener) OnProxyInvoke(ProxyInvokeEvent) {}

func statusCodeLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "other"
	}
}
