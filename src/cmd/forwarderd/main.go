// Command forwarderd demonstrates wiring the forwarding engine, scheduler
// and telemetry listeners behind a thin http.Server, the way the
// teacher's cmd/honeycomb main does for the full honeycomb server.
// Destination selection (routing) is left to the caller; this binary
// forwards every request to a single statically-configured destination,
// which is enough to exercise the whole core.
package main

import (
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/icecave/forwardcore/src/destination"
	"github.com/icecave/forwardcore/src/di"
	"github.com/icecave/forwardcore/src/forwarder"
	"github.com/icecave/forwardcore/src/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
)

func main() {
	container := &di.Container{}
	defer container.Close()

	destinationURL, err := url.Parse(env("DESTINATION", "http://localhost:8081/"))
	if err != nil {
		log.Fatal(err)
	}
	dest := &destination.Destination{
		Description:     "default",
		Prefix:          destinationURL,
		HealthCheckPath: os.Getenv("DESTINATION_HEALTH_CHECK_PATH"),
	}

	if dest.HealthCheckURL() != nil {
		prober := container.HealthProber()
		prober.Register(dest, container.Config().HealthCheckInterval)
	}

	engine := container.Engine()
	client := container.HTTPClient()
	transforms := container.TransformPipeline()
	listener := container.TelemetryListener()
	upgradeDialer := container.UpgradeDialer()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rc := forwarder.NewRequestContext(w, r)
		rc.Destination = dest
		rc.Client = client
		rc.Transforms = transforms
		rc.Listener = listener
		rc.UpgradeDialer = upgradeDialer
		engine.Forward(rc)
	})

	mux := http.NewServeMux()
	mux.Handle("/", ratelimit.Middleware(container.RateLimiter(), handler))

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(
		container.PrometheusListener().Registry,
		promhttp.HandlerOpts{},
	))

	metricsServer := &http.Server{
		Addr:    container.Config().MetricsAddress,
		Handler: metricsMux,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	server := &http.Server{
		Addr:         container.Config().ListenAddress,
		Handler:      mux,
		ReadTimeout:  0,
		WriteTimeout: 0,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	container.Logger().Infof("forwarderd listening on %s, forwarding to %s", server.Addr, dest.Prefix)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	container.Logger().Info("forwarderd shutting down")
	if err := multierr.Append(server.Close(), metricsServer.Close()); err != nil {
		log.Fatal(err)
	}
}

func env(key, def string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return def
}

