package forwarder

import (
	"crypto/tls"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// HTTPClient sends a built outbound request and returns the destination's
// response, or an error if the request never reached a response. It is the
// seam Engine uses for everything but upgrade-eligible requests, so a
// caller can substitute a client with custom dialing, connection pooling or
// TLS behavior without touching the engine itself.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RoundTripperClient adapts an http.RoundTripper to HTTPClient. It exists
// because http.Client.Do applies cookie jars, redirect-following and other
// client-level policy the forwarding engine must not have — a reverse
// proxy forwards exactly the request it was given and returns exactly the
// response it got back, redirects included.
type RoundTripperClient struct {
	Transport http.RoundTripper
}

// Do calls c.Transport.RoundTrip directly.
func (c *RoundTripperClient) Do(req *http.Request) (*http.Response, error) {
	return c.Transport.RoundTrip(req)
}

// NewHTTPClient builds the default outbound transport: HTTP/2 where the
// destination supports it, falling back to HTTP/1.1, with TLS verification
// controlled by insecureSkipVerify for talking to destinations presenting
// self-signed certificates in development.
func NewHTTPClient(insecureSkipVerify bool) (HTTPClient, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: insecureSkipVerify,
		},
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, err
	}

	return &RoundTripperClient{Transport: transport}, nil
}
