// Package destination holds the minimal description of a chosen upstream
// that the forwarding engine needs in order to build an outbound request.
//
// Selecting a destination (routing, load-balancing, session affinity) is
// explicitly out of scope for this module; a Destination is simply the
// output of that external decision.
package destination

import "net/url"

// Destination describes a single back-end the forwarding engine can send a
// request to.
type Destination struct {
	// Description is a human-readable identifier used in logs and telemetry,
	// not necessarily unique.
	Description string

	// Prefix is the base URI requests are forwarded beneath. The engine joins
	// the inbound path (minus its path-base) and query onto this prefix.
	Prefix *url.URL

	// HealthCheckPath is appended to Prefix when probing this destination's
	// health; empty means the destination is not health-checked.
	HealthCheckPath string
}

// Key returns the identity used to register this destination with a
// scheduler or health-probe cache. Two Destinations with the same Prefix
// host refer to the same upstream.
func (d *Destination) Key() string {
	if d.Prefix == nil {
		return d.Description
	}
	return d.Prefix.Host
}

// HealthCheckURL returns the fully-qualified URL used to probe this
// destination, or nil if it is not health-checked.
func (d *Destination) HealthCheckURL() *url.URL {
	if d.HealthCheckPath == "" || d.Prefix == nil {
		return nil
	}
	u := *d.Prefix
	u.Path = d.HealthCheckPath
	u.RawQuery = ""
	return &u
}
