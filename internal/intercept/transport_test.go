package intercept

import (
	"bufio"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-claude-spend/internal/core/model"
	"github.com/penwyp/go-claude-spend/internal/core/pricing"
	"github.com/penwyp/go-claude-spend/internal/sink"
)

const requestBody = `{"model":"claude-3-5-haiku","stream":false,"messages":[{"role":"user","content":"[gmail-digest] summarize my inbox"}]}`

const responseBody = `{"model":"claude-3-5-haiku","usage":{"input_tokens":100,"output_tokens":50,"cache_read_input_tokens":10,"cache_creation_input_tokens":5}}`

const streamBody = `event: message_start
data: {"type":"message_start","message":{"model":"claude-3-5-haiku","usage":{"input_tokens":30,"output_tokens":1}}}

event: message_delta
data: {"type":"message_delta","usage":{"output_tokens":42}}

event: message_stop
data: {"type":"message_stop"}
`

// newObservedClient returns a client whose transport observes calls
// to the test server, plus the record log path.
func newObservedClient(t *testing.T, server *httptest.Server) (*http.Client, string) {
	t.Helper()

	recordPath := filepath.Join(t.TempDir(), "usage.jsonl")
	observer := NewObserver(sink.New(recordPath), pricing.NewEstimator(pricing.NewDefaultProvider()))

	transport := NewTransport(server.Client().Transport, observer)
	serverURL, err := url.Parse(server.URL)
	require.NoError(t, err)
	transport.host = serverURL.Hostname()
	transport.path = "/v1/messages"

	return &http.Client{Transport: transport}, recordPath
}

// waitForRecords polls the record log until it holds n records.
func waitForRecords(t *testing.T, path string, n int) []model.CallRecord {
	t.Helper()

	var records []model.CallRecord
	require.Eventually(t, func() bool {
		f, err := os.Open(path)
		if err != nil {
			return false
		}
		defer f.Close()

		records = records[:0]
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var rec model.CallRecord
			if err := sonic.Unmarshal(scanner.Bytes(), &rec); err != nil {
				return false
			}
			records = append(records, rec)
		}
		return len(records) == n
	}, 2*time.Second, 10*time.Millisecond)
	return records
}

func TestRoundTripBufferedResponse(t *testing.T) {
	var serverSawModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.CompletionRequest
		body, _ := io.ReadAll(r.Body)
		if err := sonic.Unmarshal(body, &req); err == nil {
			serverSawModel = req.Model
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(responseBody))
	}))
	defer server.Close()

	client, recordPath := newObservedClient(t, server)

	resp, err := client.Post(server.URL+"/v1/messages", "application/json", strings.NewReader(requestBody))
	require.NoError(t, err)

	// The caller still receives the intact body.
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, responseBody, string(got))

	// The upstream saw the original request body despite snapshotting.
	assert.Equal(t, "claude-3-5-haiku", serverSawModel)

	records := waitForRecords(t, recordPath, 1)
	rec := records[0]
	assert.Equal(t, "claude-3-5-haiku", rec.Model)
	assert.Equal(t, "gmail-digest", rec.Context)
	assert.Equal(t, 100, rec.InputTokens)
	assert.Equal(t, 50, rec.OutputTokens)
	assert.Equal(t, 10, rec.CacheReadTokens)
	assert.Equal(t, 5, rec.CacheWriteTokens)
	assert.False(t, rec.Stream)
	assert.Contains(t, rec.Preview, "summarize my inbox")

	expectedCost := pricing.EstimateCost("claude-3-5-haiku", model.Usage{
		InputTokens:              100,
		OutputTokens:             50,
		CacheReadInputTokens:     10,
		CacheCreationInputTokens: 5,
	})
	assert.InDelta(t, expectedCost, rec.Cost, 1e-9)
}

func TestRoundTripStreamingResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(streamBody))
	}))
	defer server.Close()

	client, recordPath := newObservedClient(t, server)

	streamReq := strings.Replace(requestBody, `"stream":false`, `"stream":true`, 1)
	resp, err := client.Post(server.URL+"/v1/messages", "application/json", strings.NewReader(streamReq))
	require.NoError(t, err)

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, streamBody, string(got))

	records := waitForRecords(t, recordPath, 1)
	rec := records[0]
	assert.True(t, rec.Stream)
	assert.Equal(t, 30, rec.InputTokens)
	assert.Equal(t, 42, rec.OutputTokens)
}

func TestRoundTripIgnoresOtherTargets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("plain response"))
	}))
	defer server.Close()

	client, recordPath := newObservedClient(t, server)

	resp, err := client.Get(server.URL + "/healthz")
	require.NoError(t, err)
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, "plain response", string(got))

	time.Sleep(200 * time.Millisecond)
	assert.NoFileExists(t, recordPath)
}

func TestRoundTripSkipsErrorResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error"}`))
	}))
	defer server.Close()

	client, recordPath := newObservedClient(t, server)

	resp, err := client.Post(server.URL+"/v1/messages", "application/json", strings.NewReader(requestBody))
	require.NoError(t, err)
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, `{"type":"error"}`, string(got))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	time.Sleep(200 * time.Millisecond)
	assert.NoFileExists(t, recordPath)
}

func TestRoundTripZeroUsageWritesNoRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		// A stream that never resolves usage.
		_, _ = w.Write([]byte("event: ping\ndata: {\"type\":\"ping\"}\n\n"))
	}))
	defer server.Close()

	client, recordPath := newObservedClient(t, server)

	streamReq := strings.Replace(requestBody, `"stream":false`, `"stream":true`, 1)
	resp, err := client.Post(server.URL+"/v1/messages", "application/json", strings.NewReader(streamReq))
	require.NoError(t, err)
	_, _ = io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())

	time.Sleep(200 * time.Millisecond)
	assert.NoFileExists(t, recordPath)
}

func TestRoundTripMalformedRequestBodyStillObserves(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(responseBody))
	}))
	defer server.Close()

	client, recordPath := newObservedClient(t, server)

	resp, err := client.Post(server.URL+"/v1/messages", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	_, _ = io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())

	records := waitForRecords(t, recordPath, 1)
	rec := records[0]
	// Model comes from the response, context degrades to unknown.
	assert.Equal(t, "claude-3-5-haiku", rec.Model)
	assert.Equal(t, "unknown", rec.Context)
}

func TestRoundTripEarlyCloseDoesNotHang(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(streamBody))
	}))
	defer server.Close()

	client, _ := newObservedClient(t, server)

	streamReq := strings.Replace(requestBody, `"stream":false`, `"stream":true`, 1)
	resp, err := client.Post(server.URL+"/v1/messages", "application/json", strings.NewReader(streamReq))
	require.NoError(t, err)

	// Read a handful of bytes, then abandon the stream.
	buf := make([]byte, 16)
	_, _ = resp.Body.Read(buf)
	require.NoError(t, resp.Body.Close())
}

func TestInstallAndUninstall(t *testing.T) {
	original := http.DefaultTransport
	defer func() { http.DefaultTransport = original }()

	Install(nil)
	_, ok := http.DefaultTransport.(*Transport)
	assert.True(t, ok)

	// Second install is a no-op, not a double wrap.
	Install(nil)
	wrapped := http.DefaultTransport.(*Transport)
	_, doubleWrapped := wrapped.base.(*Transport)
	assert.False(t, doubleWrapped)

	Uninstall()
	assert.Equal(t, original, http.DefaultTransport)
}
