package httputil

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds every request made by a client from [NewClient].
const DefaultTimeout = 10 * time.Second

// BrowserUserAgent is sent by the liveness probes. Several code hosts and CI
// dashboards answer unknown agents with 403, which would read as a dead link.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// NewClient creates an HTTP client with the given timeout that sets headers
// on every request unless the request already carries them. A zero timeout
// means [DefaultTimeout]. Pass nil for headers if none are needed.
func NewClient(timeout time.Duration, headers map[string]string) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &headerTransport{base: http.DefaultTransport, headers: headers},
	}
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) == 0 {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(req)
}
