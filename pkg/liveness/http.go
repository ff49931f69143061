package liveness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	mcerrors "github.com/matzehuels/metacheck/pkg/errors"
	"github.com/matzehuels/metacheck/pkg/httputil"
	"github.com/matzehuels/metacheck/pkg/observability"
)

// ErrNetwork wraps transport failures (DNS, connection, timeout).
var ErrNetwork = errors.New("network error")

// maxDrain caps how much of a response body is read before closing it so
// the connection can be reused.
const maxDrain = 64 << 10

// HTTPChecker probes URLs over the network.
type HTTPChecker struct {
	client   *http.Client
	attempts int
	delay    time.Duration
}

// Option configures an HTTPChecker.
type Option func(*HTTPChecker)

// WithClient replaces the HTTP client. The client's own timeout and
// redirect policy apply.
func WithClient(c *http.Client) Option {
	return func(h *HTTPChecker) {
		if c != nil {
			h.client = c
		}
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPChecker) {
		h.client = httputil.NewClient(d, map[string]string{"User-Agent": httputil.BrowserUserAgent})
	}
}

// WithRetry retries transport failures up to attempts times in total,
// doubling delay between tries. HTTP error statuses are answers, not
// failures, and are never retried.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(h *HTTPChecker) {
		h.attempts = max(attempts, 1)
		h.delay = delay
	}
}

// NewHTTPChecker returns a checker with a 10 second timeout, a browser
// User-Agent and a single attempt per request.
func NewHTTPChecker(opts ...Option) *HTTPChecker {
	h := &HTTPChecker{
		client:   httputil.NewClient(httputil.DefaultTimeout, map[string]string{"User-Agent": httputil.BrowserUserAgent}),
		attempts: 1,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Check implements Checker. Malformed URLs are rejected without any
// network traffic.
func (h *HTTPChecker) Check(ctx context.Context, rawURL string, policy Policy) Status {
	if policy == PolicyHeadThenGet {
		rawURL = strings.TrimSpace(rawURL)
	}
	st := Status{URL: rawURL}
	if err := mcerrors.ValidateURL(rawURL); err != nil {
		st.Error = ErrInvalidFormat
		return st
	}

	method := http.MethodGet
	if policy == PolicyHeadThenGet {
		method = http.MethodHead
	}

	code, err := h.do(ctx, method, rawURL)
	if err == nil && policy == PolicyHeadThenGet && code == http.StatusMethodNotAllowed {
		code, err = h.do(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		st.Error = err.Error()
		return st
	}

	st.StatusCode = code
	st.Accessible = policy.Accepts(code)
	return st
}

func (h *HTTPChecker) do(ctx context.Context, method, rawURL string) (int, error) {
	var code int
	err := httputil.Retry(ctx, h.attempts, h.delay, func() error {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return err
		}
		hooks := observability.HTTP()
		hooks.OnRequest(ctx, method, req.URL.Host, req.URL.Path)

		start := time.Now()
		resp, err := h.client.Do(req)
		if err != nil {
			hooks.OnError(ctx, method, req.URL.Host, req.URL.Path, err)
			return httputil.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

		hooks.OnResponse(ctx, method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))
		code = resp.StatusCode
		return nil
	})
	return code, err
}

var _ Checker = (*HTTPChecker)(nil)
