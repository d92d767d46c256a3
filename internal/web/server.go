// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package web exposes the redaction trigger over HTTP: an upload endpoint,
// the current status line, a WebSocket status stream, health and metrics.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"docguard/internal/documents"
	"docguard/internal/metrics"
	"docguard/internal/observability"
	"docguard/internal/pipeline"
	"docguard/internal/redactors"
	"docguard/internal/rules"
	"docguard/internal/status"
	"docguard/internal/version"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// Options configures the HTTP surface
type Options struct {
	Listen         string
	RateLimit      float64
	Burst          int
	AllowAnyOrigin bool
	MaxUploadMB    int64
}

// Server serves the HTTP surface around one Runner
type Server struct {
	opts     Options
	runner   *pipeline.Runner
	board    *status.Board
	metrics  *metrics.Metrics
	logger   *zap.Logger
	limiter  *rate.Limiter
	upgrader websocket.Upgrader
}

// New creates a Server. The runner should report its status to board.
func New(opts Options, runner *pipeline.Runner, board *status.Board, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = observability.WithComponent(logger, "web")
	if m == nil {
		m = metrics.New("docguard")
	}
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 32
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := max(opts.Burst, 1)

	s := &Server{
		opts:    opts,
		runner:  runner,
		board:   board,
		metrics: m,
		logger:  logger,
		limiter: rate.NewLimiter(limit, burst),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// checkOrigin allows non-browser clients and same-origin browsers unless
// any origin is allowed
func (s *Server) checkOrigin(r *http.Request) bool {
	if s.opts.AllowAnyOrigin {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})

	r.Get("/v1/status", s.handleStatus)
	r.Get("/v1/status/ws", s.handleStatusWS)
	r.With(s.rateLimit).Post("/v1/redact", s.handleRedact)

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.opts.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.metrics.RateLimited.Inc()
			w.Header().Set("Retry-After", "1")
			respondError(w, http.StatusTooManyRequests, "rate_limited", "too many redaction requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"running": s.runner.Running(),
		"version": version.Short(),
	})
}

type statusResponse struct {
	Status  string `json:"status"`
	Running bool   `json:"running"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, statusResponse{Status: s.board.Last(), Running: s.runner.Running()})
}

type statusEvent struct {
	Type    string    `json:"type"`
	Status  string    `json:"status"`
	Running bool      `json:"running"`
	Time    time.Time `json:"time"`
}

func (s *Server) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	messages, unsubscribe := s.board.Subscribe(16)
	defer unsubscribe()

	// the read side only services control frames and notices the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(message string) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(statusEvent{Type: "status", Status: message, Running: s.runner.Running(), Time: time.Now()})
	}

	if last := s.board.Last(); last != "" {
		if err := send(last); err != nil {
			return
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case message, ok := <-messages:
			if !ok {
				return
			}
			if err := send(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleRedact(w http.ResponseWriter, r *http.Request) {
	if s.runner.Running() {
		s.metrics.RejectedTriggers.Inc()
		respondError(w, http.StatusConflict, "already_running", pipeline.ErrAlreadyRunning.Error())
		return
	}

	maxBytes := s.opts.MaxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Sprintf("upload exceeds %d MB", s.opts.MaxUploadMB))
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart/form-data with a 'file' field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "missing 'file' field")
		return
	}
	defer file.Close()

	if !documents.Supported(header.Filename) {
		respondError(w, http.StatusUnsupportedMediaType, "unsupported_type", "supported extensions: .docx, .pdf, .txt, .md, .log, .csv")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	doc, err := documents.OpenBytes(header.Filename, data)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid_document", err.Error())
		return
	}

	result, err := s.runner.Trigger(r.Context(), doc.Document())
	if err != nil {
		if t, ok := redactors.ErrorTypeOf(err); ok && t == redactors.ErrorAlreadyRunning {
			respondError(w, http.StatusConflict, "already_running", pipeline.ErrAlreadyRunning.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "redaction_failed", err.Error())
		return
	}

	out, err := doc.Bytes()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "redaction_failed", err.Error())
		return
	}

	writeSummaryHeaders(w.Header(), result)
	w.Header().Set("Content-Type", contentType(doc.Kind))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", documents.OutputName(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func writeSummaryHeaders(h http.Header, result *pipeline.Result) {
	h.Set("X-Docguard-Run-Id", result.RunID)
	h.Set("X-Docguard-Redacted", strconv.Itoa(result.Total))
	h.Set("X-Docguard-Header-Added", strconv.FormatBool(result.HeaderAdded))
	h.Set("X-Docguard-Tracking", strconv.FormatBool(result.TrackingEnabled))

	parts := make([]string, 0, len(rules.Categories))
	for _, c := range rules.Categories {
		parts = append(parts, fmt.Sprintf("%s=%d", c, result.Redacted[c.String()]))
	}
	h.Set("X-Docguard-Counts", strings.Join(parts, ","))
}

func contentType(kind documents.Kind) string {
	if kind == documents.KindWord {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "text/plain; charset=utf-8"
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
