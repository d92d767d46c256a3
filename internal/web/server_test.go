// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docguard/internal/metrics"
	"docguard/internal/pipeline"
	"docguard/internal/rules"
	"docguard/internal/status"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server  *Server
	board   *status.Board
	metrics *metrics.Metrics
	http    *httptest.Server
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	board := status.NewBoard()
	m := metrics.New("docguard_test")
	runner := pipeline.NewRunner(pipeline.WithStatus(board), pipeline.WithMetrics(m))
	s := New(opts, runner, board, m, nil)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return &fixture{server: s, board: board, metrics: m, http: ts}
}

func upload(t *testing.T, url, field, name, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/v1/redact", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func TestHealth(t *testing.T) {
	f := newFixture(t, Options{})

	resp, err := http.Get(f.http.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["running"])
}

func TestStatusReturnsLastMessage(t *testing.T) {
	f := newFixture(t, Options{})
	f.board.SetStatus("Ready.")

	resp, err := http.Get(f.http.URL + "/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body statusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Ready.", body.Status)
	assert.False(t, body.Running)
}

func TestRedactTextUpload(t *testing.T) {
	f := newFixture(t, Options{})

	resp := upload(t, f.http.URL, "file", "notes.txt", "Reach me at john.doe@example.com or 555-123-4567.\n")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(out)

	assert.True(t, strings.HasPrefix(text, "CONFIDENTIAL DOCUMENT\n"))
	assert.NotContains(t, text, "john.doe@example.com")
	assert.NotContains(t, text, "555-123-4567")
	assert.Equal(t, 2, strings.Count(text, rules.Marker))

	assert.Equal(t, "2", resp.Header.Get("X-Docguard-Redacted"))
	assert.Equal(t, "true", resp.Header.Get("X-Docguard-Header-Added"))
	assert.Equal(t, "true", resp.Header.Get("X-Docguard-Tracking"))
	assert.NotEmpty(t, resp.Header.Get("X-Docguard-Run-Id"))
	assert.Contains(t, resp.Header.Get("X-Docguard-Counts"), "EMAIL=1,PHONE=1")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="notes.txt"`)

	assert.True(t, strings.HasPrefix(f.board.Last(), "Done."))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Runs.WithLabelValues("success")))
}

func TestRedactRejectsUnsupportedType(t *testing.T) {
	f := newFixture(t, Options{})

	resp := upload(t, f.http.URL, "file", "photo.png", "not a document")
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	assert.Equal(t, "unsupported_type", decodeError(t, resp).Code)
}

func TestRedactRequiresFile(t *testing.T) {
	f := newFixture(t, Options{})

	resp := upload(t, f.http.URL, "", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", decodeError(t, resp).Code)
}

func TestRedactRejectsBrokenDocument(t *testing.T) {
	f := newFixture(t, Options{})

	resp := upload(t, f.http.URL, "file", "report.docx", "this is not a zip archive")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "invalid_document", decodeError(t, resp).Code)
}

func TestRedactRateLimited(t *testing.T) {
	f := newFixture(t, Options{RateLimit: 0.001, Burst: 1})

	first := upload(t, f.http.URL, "file", "a.txt", "nothing here\n")
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second := upload(t, f.http.URL, "file", "b.txt", "nothing here\n")
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	assert.Equal(t, "1", second.Header.Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RateLimited))
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, Options{})
	f.metrics.RejectedTriggers.Inc()

	resp, err := http.Get(f.http.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "docguard_test_rejected_triggers_total 1")
}

func TestNewWithoutMetrics(t *testing.T) {
	s := New(Options{RateLimit: 0.001, Burst: 1}, pipeline.NewRunner(), status.NewBoard(), nil, nil)
	require.NotNil(t, s.metrics)
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	assert.Equal(t, http.StatusOK, upload(t, ts.URL, "file", "a.txt", "nothing here\n").StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, upload(t, ts.URL, "file", "b.txt", "nothing here\n").StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.RateLimited))

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "docguard_rate_limited_requests_total 1")
}

func TestStatusStream(t *testing.T) {
	f := newFixture(t, Options{})
	f.board.SetStatus("Ready.")

	wsURL := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/v1/status/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var event statusEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "status", event.Type)
	assert.Equal(t, "Ready.", event.Status)

	f.board.SetStatus("Clicked. Checking environment…")
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "Clicked. Checking environment…", event.Status)
}

func TestCheckOrigin(t *testing.T) {
	s := New(Options{}, pipeline.NewRunner(), status.NewBoard(), metrics.New("docguard_origin"), nil)

	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"no origin", "", "localhost:8080", true},
		{"same host", "http://localhost:8080", "localhost:8080", true},
		{"other host", "http://evil.example", "localhost:8080", false},
		{"bad scheme", "file://localhost:8080", "localhost:8080", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/v1/status/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, s.checkOrigin(r))
		})
	}

	s.opts.AllowAnyOrigin = true
	r := httptest.NewRequest(http.MethodGet, "/v1/status/ws", nil)
	r.Header.Set("Origin", "http://evil.example")
	assert.True(t, s.checkOrigin(r))
}
