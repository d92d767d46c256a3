// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by redaction runs.
type Metrics struct {
	registry *prometheus.Registry

	Runs             *prometheus.CounterVec
	Redactions       *prometheus.CounterVec
	RejectedTriggers prometheus.Counter
	RateLimited      prometheus.Counter
	RunDuration      prometheus.Histogram
	ActiveRuns       prometheus.Gauge
}

// New creates the instruments on a private registry
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Redaction runs by outcome.",
		}, []string{"outcome"}),
		Redactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redactions_total",
			Help:      "Replaced occurrences by rule category.",
		}, []string{"category"}),
		RejectedTriggers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_triggers_total",
			Help:      "Triggers rejected because a run was already active.",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "HTTP triggers refused by the rate limiter.",
		}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_ms",
			Help:      "Duration of a complete redaction run in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		ActiveRuns: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_runs",
			Help:      "Number of redaction runs in progress.",
		}),
	}
}

// ObserveRun records the outcome and duration of one run
func (m *Metrics) ObserveRun(outcome string, d time.Duration) {
	m.Runs.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(float64(d.Milliseconds()))
}

// AddRedactions records replaced occurrences for a category
func (m *Metrics) AddRedactions(category string, n int) {
	if n > 0 {
		m.Redactions.WithLabelValues(category).Add(float64(n))
	}
}

// Registry exposes the registry for tests and custom exporters
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
