// Package intercept wraps an http.RoundTripper to observe completion
// API calls without changing their behavior. Matched responses are
// teed to a detached accounting pipeline; everything else passes
// straight through.
package intercept

import (
	"bytes"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-claude-spend/internal/core/model"
)

const (
	// Target of the observed exchange.
	apiHost = "api.anthropic.com"
	apiPath = "/v1/messages"
)

// Transport decorates a base RoundTripper with usage accounting. It
// is behaviorally transparent: identical arguments, identical
// response, identical errors. Only timing-invisible side-channel
// collection is added, and only for completion API calls.
type Transport struct {
	base     http.RoundTripper
	observer *Observer

	// Observed target; defaults to the completion API.
	host string
	path string
}

// NewTransport wraps base with observation. A nil base falls back to
// http.DefaultTransport.
func NewTransport(base http.RoundTripper, observer *Observer) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{base: base, observer: observer, host: apiHost, path: apiPath}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !t.isCompletionCall(req) {
		return t.base.RoundTrip(req)
	}

	start := time.Now()
	parsed := snapshotRequest(req)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Failed calls are never recorded.
		return resp, nil
	}

	if t.observer != nil && resp.Body != nil {
		resp.Body = t.observer.ObserveBody(resp.Body, parsed, start)
	}
	return resp, nil
}

func (t *Transport) isCompletionCall(req *http.Request) bool {
	return req.URL != nil && req.URL.Hostname() == t.host && req.URL.Path == t.path
}

// snapshotRequest reads and restores the outgoing body, then decodes
// the accounting-relevant fields. Any failure degrades to nil; the
// call itself is never aborted by observation.
func snapshotRequest(req *http.Request) *model.CompletionRequest {
	if req.Body == nil {
		return nil
	}
	buf, err := io.ReadAll(req.Body)
	req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(buf))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}
	if err != nil {
		return nil
	}

	var parsed model.CompletionRequest
	if err := sonic.Unmarshal(buf, &parsed); err != nil {
		return nil
	}
	return &parsed
}

var (
	installMu         sync.Mutex
	originalTransport http.RoundTripper
)

// Install replaces http.DefaultTransport with an observing wrapper
// around the current transport. Call once at process start; a second
// call is a no-op until Uninstall.
func Install(observer *Observer) {
	installMu.Lock()
	defer installMu.Unlock()

	if originalTransport != nil {
		return
	}
	originalTransport = http.DefaultTransport
	http.DefaultTransport = NewTransport(originalTransport, observer)
}

// Uninstall restores the transport captured by Install.
func Uninstall() {
	installMu.Lock()
	defer installMu.Unlock()

	if originalTransport != nil {
		http.DefaultTransport = originalTransport
		originalTransport = nil
	}
}
