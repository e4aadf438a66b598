package healthprobe

import (
	"io"
	"net/http"
	"time"
)

// Checker probes a single destination and reports its health.
type Checker interface {
	Check() Status
}

// HTTPChecker issues a GET against URL and considers any 2xx response
// healthy, generalized from the teacher's HTTPChecker (which always
// checked a fixed local container address over HTTPS with a skip-verify
// client) to probe an arbitrary destination's health-check URL.
type HTTPChecker struct {
	URL    string
	Client *http.Client
}

// Check performs one probe.
func (c *HTTPChecker) Check() Status {
	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	response, err := client.Get(c.URL)
	if err != nil {
		return Status{IsHealthy: false, Message: err.Error()}
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return Status{IsHealthy: false, Message: err.Error()}
	}

	return Status{
		IsHealthy: response.StatusCode >= 200 && response.StatusCode <= 299,
		Message:   string(body),
	}
}
