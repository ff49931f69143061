package liveness

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/metacheck/pkg/cache"
)

func TestPolicyAccepts(t *testing.T) {
	tests := []struct {
		policy Policy
		code   int
		want   bool
	}{
		{PolicyGet2xxOr301, 200, true},
		{PolicyGet2xxOr301, 204, true},
		{PolicyGet2xxOr301, 301, true},
		{PolicyGet2xxOr301, 302, false},
		{PolicyGet2xxOr301, 404, false},
		{PolicyHeadThenGet, 200, true},
		{PolicyHeadThenGet, 302, true},
		{PolicyHeadThenGet, 399, true},
		{PolicyHeadThenGet, 400, false},
		{PolicyHeadThenGet, 0, false},
		{PolicyGet2xx, 200, true},
		{PolicyGet2xx, 301, false},
		{PolicyGet2xx, 500, false},
		{Policy("unknown"), 200, false},
	}
	for _, tt := range tests {
		if got := tt.policy.Accepts(tt.code); got != tt.want {
			t.Errorf("%s.Accepts(%d) = %v, want %v", tt.policy, tt.code, got, tt.want)
		}
	}
}

func TestHTTPCheckerStatuses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewHTTPChecker()
	ctx := context.Background()

	tests := []struct {
		path   string
		policy Policy
		code   int
		ok     bool
	}{
		{"/ok", PolicyGet2xx, 200, true},
		{"/ok", PolicyGet2xxOr301, 200, true},
		{"/missing", PolicyGet2xxOr301, 404, false},
		{"/missing", PolicyHeadThenGet, 404, false},
		{"/broken", PolicyGet2xx, 500, false},
	}
	for _, tt := range tests {
		st := c.Check(ctx, srv.URL+tt.path, tt.policy)
		if st.StatusCode != tt.code || st.Accessible != tt.ok {
			t.Errorf("Check(%s, %s) = %+v, want code %d accessible %v", tt.path, tt.policy, st, tt.code, tt.ok)
		}
		if st.Error != "" {
			t.Errorf("Check(%s) error = %q", tt.path, st.Error)
		}
	}
}

func TestHTTPCheckerUserAgent(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	NewHTTPChecker().Check(context.Background(), srv.URL, PolicyGet2xx)
	if ua == "" || ua == "Go-http-client/1.1" {
		t.Errorf("User-Agent = %q, want browser agent", ua)
	}
}

func TestHTTPCheckerHeadFallback(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	defer srv.Close()

	st := NewHTTPChecker().Check(context.Background(), "  "+srv.URL+"/issues\n", PolicyHeadThenGet)
	if !st.Accessible || st.StatusCode != 200 {
		t.Errorf("Check = %+v, want accessible 200", st)
	}
	if len(methods) != 2 || methods[0] != http.MethodHead || methods[1] != http.MethodGet {
		t.Errorf("methods = %v, want [HEAD GET]", methods)
	}
}

func TestHTTPCheckerRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	st := NewHTTPChecker().Check(context.Background(), srv.URL+"/old", PolicyGet2xx)
	if !st.Accessible || st.StatusCode != 200 {
		t.Errorf("redirect Check = %+v, want followed to 200", st)
	}
}

func TestHTTPCheckerInvalidURL(t *testing.T) {
	c := NewHTTPChecker(WithClient(&http.Client{
		Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
			t.Fatal("no request expected for malformed URL")
			return nil, nil
		}),
	}))
	for _, u := range []string{"", "not a url", "example.org/path", "https://"} {
		st := c.Check(context.Background(), u, PolicyGet2xxOr301)
		if st.Accessible || st.Error != ErrInvalidFormat {
			t.Errorf("Check(%q) = %+v, want invalid format", u, st)
		}
	}
}

func TestHTTPCheckerNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	st := NewHTTPChecker(WithTimeout(time.Second)).Check(context.Background(), url, PolicyGet2xx)
	if st.Accessible || st.StatusCode != 0 || st.Error == "" {
		t.Errorf("Check on closed server = %+v, want error", st)
	}
}

func TestHTTPCheckerRetry(t *testing.T) {
	var calls int32
	c := NewHTTPChecker(
		WithRetry(3, time.Millisecond),
		WithClient(&http.Client{
			Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				if atomic.AddInt32(&calls, 1) < 3 {
					return nil, context.DeadlineExceeded
				}
				return &http.Response{StatusCode: 200, Body: http.NoBody, Request: r}, nil
			}),
		}),
	)
	st := c.Check(context.Background(), "https://ci.example.org/badge", PolicyGet2xx)
	if !st.Accessible {
		t.Errorf("Check = %+v, want accessible after retries", st)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestStatic(t *testing.T) {
	s := NewStatic(map[string]Status{
		"https://a.example": {StatusCode: 301},
		"https://b.example": {Error: "timeout"},
	})
	ctx := context.Background()

	if st := s.Check(ctx, "https://a.example", PolicyGet2xxOr301); !st.Accessible {
		t.Errorf("301 under get-2xx-or-301 = %+v, want accessible", st)
	}
	if st := s.Check(ctx, "https://a.example", PolicyGet2xx); st.Accessible {
		t.Errorf("301 under get-2xx = %+v, want inaccessible", st)
	}
	if st := s.Check(ctx, "https://b.example", PolicyGet2xx); st.Accessible || st.Error != "timeout" {
		t.Errorf("stored error = %+v", st)
	}
	if st := s.Check(ctx, "https://unknown.example", PolicyGet2xx); st.Accessible || st.StatusCode != 0 {
		t.Errorf("unknown URL = %+v, want inaccessible", st)
	}
	if got := len(s.Calls()); got != 4 {
		t.Errorf("Calls() = %d, want 4", got)
	}
}

func TestCachedChecker(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	inner := NewStatic(map[string]Status{
		"https://ok.example":   {StatusCode: 200},
		"https://down.example": {Error: "connection refused"},
	})
	c := NewCachedChecker(inner, fc, nil, time.Hour)
	ctx := context.Background()

	for range 3 {
		if st := c.Check(ctx, "https://ok.example", PolicyGet2xx); !st.Accessible {
			t.Fatalf("Check = %+v, want accessible", st)
		}
	}
	for range 2 {
		c.Check(ctx, "https://down.example", PolicyGet2xx)
	}
	c.Check(ctx, "https://ok.example", PolicyHeadThenGet)

	calls := inner.Calls()
	okCalls, downCalls := 0, 0
	for _, u := range calls {
		switch u {
		case "https://ok.example":
			okCalls++
		case "https://down.example":
			downCalls++
		}
	}
	if okCalls != 2 {
		t.Errorf("ok.example probed %d times, want 2 (one per policy)", okCalls)
	}
	if downCalls != 2 {
		t.Errorf("down.example probed %d times, want 2 (errors are not cached)", downCalls)
	}
}

func TestStatusJSON(t *testing.T) {
	tests := []struct {
		st   Status
		want string
	}{
		{Status{URL: "https://ci.example", StatusCode: 503}, `{"url":"https://ci.example","is_accessible":false,"status_code":503}`},
		{Status{URL: "https://ok.example", Accessible: true, StatusCode: 200}, `{"url":"https://ok.example","is_accessible":true,"status_code":200}`},
		{Status{URL: "nope", Error: ErrInvalidFormat}, `{"url":"nope","is_accessible":false,"error":"Invalid URL format"}`},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.st)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if string(data) != tt.want {
			t.Errorf("Marshal(%+v) = %s, want %s", tt.st, data, tt.want)
		}
	}
}

func TestCachedCheckerNilCache(t *testing.T) {
	inner := NewStatic(map[string]Status{"https://ok.example": {StatusCode: 200}})
	c := NewCachedChecker(inner, nil, nil, 0)
	c.Check(context.Background(), "https://ok.example", PolicyGet2xx)
	c.Check(context.Background(), "https://ok.example", PolicyGet2xx)
	if got := len(inner.Calls()); got != 2 {
		t.Errorf("probes = %d, want 2 with null cache", got)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
