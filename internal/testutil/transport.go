package testutil

import (
	"net/http"
	"sync/atomic"
)

// CountingTransport counts round trips before delegating to Base
type CountingTransport struct {
	Base  http.RoundTripper
	calls atomic.Int64
}

func (t *CountingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

// Calls returns the number of round trips observed
func (t *CountingTransport) Calls() int64 {
	return t.calls.Load()
}

// NewCountingClient returns an http.Client backed by a fresh CountingTransport
func NewCountingClient() (*http.Client, *CountingTransport) {
	transport := &CountingTransport{}
	return &http.Client{Transport: transport}, transport
}
