package liveness

import (
	"context"
	"sync"
)

// Static answers from a fixed table and never touches the network. URLs
// missing from the table are inaccessible with no status code.
type Static struct {
	mu      sync.Mutex
	results map[string]Status
	calls   []string
}

// NewStatic returns a checker answering from results, keyed by URL.
func NewStatic(results map[string]Status) *Static {
	cp := make(map[string]Status, len(results))
	for k, v := range results {
		cp[k] = v
	}
	return &Static{results: cp}
}

// Check implements Checker. The policy is applied to the stored status
// code, so one table serves all policies; a stored entry without a status
// code is returned as is.
func (s *Static) Check(_ context.Context, url string, policy Policy) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, url)

	st, ok := s.results[url]
	if !ok {
		return Status{URL: url, Error: "not probed"}
	}
	st.URL = url
	if st.StatusCode != 0 {
		st.Accessible = policy.Accepts(st.StatusCode)
	}
	return st
}

// Calls returns the URLs checked so far, in order.
func (s *Static) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

var _ Checker = (*Static)(nil)
