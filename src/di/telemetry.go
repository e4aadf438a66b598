package di

import "github.com/icecave/forwardcore/src/telemetry"

// TelemetryListener returns the fan-out listener that forwards every
// forwarding event to both the structured logger and the
// Prometheus registry.
func (con *Container) TelemetryListener() telemetry.Listener {
	return con.get(
		"telemetry.listener",
		func() (interface{}, error) {
			return telemetry.MultiListener{
				telemetry.NewLogrusListener(con.Logger()),
				con.PrometheusListener(),
			}, nil
		},
		nil,
	).(telemetry.Listener)
}

// PrometheusListener returns the shared Prometheus-backed telemetry
// listener, whose Registry is also used by the metrics HTTP endpoint.
func (con *Container) PrometheusListener() *telemetry.PrometheusListener {
	return con.get(
		"telemetry.prometheus",
		func() (interface{}, error) {
			return telemetry.NewPrometheusListener(), nil
		},
		nil,
	).(*telemetry.PrometheusListener)
}
