// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs a complete redaction pass over one document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"docguard/internal/header"
	"docguard/internal/host"
	"docguard/internal/metrics"
	"docguard/internal/observability"
	"docguard/internal/redactors"
	"docguard/internal/rules"
	"docguard/internal/status"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PreviewLength is the number of characters of the final body shown in the
// completion status.
const PreviewLength = 120

var (
	// ErrAlreadyRunning is returned when a run is triggered while one is active
	ErrAlreadyRunning = errors.New("a redaction run is already in progress")

	// ErrHostUnavailable is returned when there is no document to operate on
	ErrHostUnavailable = errors.New("document host not available")
)

// Result summarises one completed run
type Result struct {
	RunID           string         `json:"run_id" yaml:"run_id"`
	Document        string         `json:"document" yaml:"document"`
	TrackingEnabled bool           `json:"tracking_enabled" yaml:"tracking_enabled"`
	HeaderAdded     bool           `json:"header_added" yaml:"header_added"`
	Found           map[string]int `json:"found" yaml:"found"`
	Redacted        map[string]int `json:"redacted" yaml:"redacted"`
	Total           int            `json:"total" yaml:"total"`
	Preview         string         `json:"preview" yaml:"preview"`
	StartedAt       time.Time      `json:"started_at" yaml:"started_at"`
	Duration        time.Duration  `json:"duration" yaml:"duration"`

	counts *redactors.RedactionCounts
}

// Counts returns the per-category redaction counts. Results that were
// decoded rather than produced by a run rebuild them from Redacted.
func (r *Result) Counts() *redactors.RedactionCounts {
	if r.counts != nil {
		return r.counts
	}
	counts := redactors.NewRedactionCounts()
	for name, n := range r.Redacted {
		if c, err := rules.ParseCategory(name); err == nil {
			counts.Add(c, n)
		}
	}
	return counts
}

// Runner executes redaction runs. A Runner allows one run at a time; a
// trigger arriving while a run is active is rejected.
type Runner struct {
	running atomic.Bool

	extractor    *rules.Extractor
	applicator   *redactors.Applicator
	stamper      *header.Stamper
	status       status.Sink
	observer     *observability.StandardObserver
	metrics      *metrics.Metrics
	trackChanges bool
}

// Option configures a Runner
type Option func(*Runner)

// WithStatus sets the status sink
func WithStatus(sink status.Sink) Option {
	return func(r *Runner) { r.status = sink }
}

// WithObserver sets the observability component
func WithObserver(observer *observability.StandardObserver) Option {
	return func(r *Runner) { r.observer = observer }
}

// WithMetrics sets the Prometheus instruments
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithApplicator replaces the default applicator
func WithApplicator(a *redactors.Applicator) Option {
	return func(r *Runner) { r.applicator = a }
}

// WithChangeTracking enables or disables turning on change tracking
func WithChangeTracking(enabled bool) Option {
	return func(r *Runner) { r.trackChanges = enabled }
}

// NewRunner creates a runner with change tracking on
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		extractor:    rules.NewExtractor(),
		stamper:      header.NewStamper(),
		status:       status.Discard,
		trackChanges: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.observer == nil {
		r.observer = observability.NewStandardObserver(observability.ObservabilityOff, nil)
	}
	if r.applicator == nil {
		r.applicator = redactors.NewApplicator(redactors.WithObserver(r.observer))
	}
	r.extractor.SetObserver(r.observer)
	return r
}

// Running reports whether a run is in progress
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Trigger is the guarded entry point. It rejects concurrent triggers without
// touching the status, reports a missing document, and catches host failures
// from Run: they are logged, shown in the status and returned as a
// RedactionError. Edits committed before a failure stay in the document.
func (r *Runner) Trigger(ctx context.Context, doc host.Document) (*Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		if r.metrics != nil {
			r.metrics.RejectedTriggers.Inc()
		}
		return nil, redactors.NewRedactionError(redactors.ErrorAlreadyRunning,
			"trigger rejected", "", "pipeline", ErrAlreadyRunning)
	}
	defer r.running.Store(false)

	if r.metrics != nil {
		r.metrics.ActiveRuns.Inc()
		defer r.metrics.ActiveRuns.Dec()
	}

	r.status.SetStatus("Clicked. Checking environment…")
	if doc == nil {
		r.status.SetStatus("Document host not available (no document is open).")
		return nil, redactors.NewRedactionError(redactors.ErrorHostUnavailable,
			"no document", "", "pipeline", ErrHostUnavailable)
	}

	start := time.Now()
	result, err := r.Run(ctx, doc)
	if err != nil {
		r.observer.Logger().Error("redaction run failed",
			zap.String("document", doc.Name()), zap.Error(err))
		r.status.SetStatus(fmt.Sprintf("Redaction run failed: %v", err))
		if r.metrics != nil {
			r.metrics.ObserveRun("failure", time.Since(start))
		}
		return nil, redactors.NewRedactionError(redactors.ErrorHostCall,
			"redaction run failed", doc.Name(), "pipeline", err)
	}

	if r.metrics != nil {
		r.metrics.ObserveRun("success", result.Duration)
		for _, c := range rules.Categories {
			r.metrics.AddRedactions(c.String(), result.counts.Get(c))
		}
	}
	return result, nil
}

// Run performs one unguarded pass: enable tracking, stamp the header, read
// the body once, extract, then redact every unique literal category by
// category. Each step commits before the next starts. Host errors are
// returned as they occur.
func (r *Runner) Run(ctx context.Context, doc host.Document) (*Result, error) {
	finishTiming := r.observer.StartTiming("pipeline", "run", doc.Name())
	var finishStep func(bool, string)
	if r.observer.DebugObserver != nil {
		finishStep = r.observer.DebugObserver.StartStep("pipeline", "run", doc.Name())
	}

	result, err := r.run(ctx, doc)

	meta := map[string]interface{}{}
	if result != nil {
		meta["total"] = result.Total
		meta["header_added"] = result.HeaderAdded
	}
	finishTiming(err == nil, meta)
	if finishStep != nil {
		finishStep(err == nil, "")
	}
	return result, err
}

func (r *Runner) run(ctx context.Context, doc host.Document) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		Document:  doc.Name(),
		StartedAt: time.Now(),
		counts:    redactors.NewRedactionCounts(),
	}

	if r.trackChanges && doc.Supports(host.FeatureChangeTracking) {
		doc.SetChangeTracking(host.TrackingAll)
		if err := doc.Sync(ctx); err != nil {
			return nil, fmt.Errorf("failed to enable change tracking: %w", err)
		}
		result.TrackingEnabled = true
	}
	r.status.SetStatus("Connecting to document… Tracking: " + yesNo(result.TrackingEnabled))

	added, err := r.stamper.EnsureHeader(ctx, doc)
	if err != nil {
		return nil, err
	}
	result.HeaderAdded = added

	text, err := doc.Body().Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	matches := r.extractor.ExtractAll(text)
	result.Found = matches.Counts()
	r.status.SetStatus(foundMessage(matches))

	for _, category := range rules.Categories {
		for _, literal := range matches[category] {
			n, err := r.applicator.Apply(ctx, doc, literal)
			if err != nil {
				return nil, fmt.Errorf("failed to redact %s match: %w", category, err)
			}
			result.counts.Add(category, n)
		}
		if r.observer.DebugObserver != nil {
			r.observer.DebugObserver.LogMetric("pipeline", category.String(), result.counts.Get(category))
		}
	}
	result.Redacted = result.counts.ByName()
	result.Total = result.counts.Total()

	final, err := doc.Body().Text(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	result.Preview = Preview(final)
	result.Duration = time.Since(result.StartedAt)

	r.status.SetStatus(DoneMessage(result))
	return result, nil
}

// Preview collapses whitespace and keeps the first PreviewLength characters,
// appending an ellipsis when text was cut.
func Preview(text string) string {
	collapsed := header.CollapseWhitespace(text)
	if utf8.RuneCountInString(collapsed) <= PreviewLength {
		return collapsed
	}
	return string([]rune(collapsed)[:PreviewLength]) + "…"
}

// DoneMessage renders the completion status of a run
func DoneMessage(result *Result) string {
	headerState := "already present"
	if result.HeaderAdded {
		headerState = "added"
	}
	tracking := "OFF"
	if result.TrackingEnabled {
		tracking = "ON"
	}
	return fmt.Sprintf("Done. Track Changes: %s | Header: %s | Redacted: %d (%s) Preview: %q",
		tracking, headerState, result.Total, result.Counts().Summary(), result.Preview)
}

func foundMessage(matches rules.MatchSet) string {
	parts := make([]string, 0, len(rules.Categories))
	for _, c := range rules.Categories {
		parts = append(parts, fmt.Sprintf("%s=%d", c.Label(), matches.Count(c)))
	}
	return "Found matches: " + strings.Join(parts, ", ")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
