// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package redactors

import (
	"context"
	"fmt"

	"docguard/internal/host"
	"docguard/internal/observability"
	"docguard/internal/rules"
)

// Applicator replaces every occurrence of a literal in a document body with
// the redaction marker.
type Applicator struct {
	marker          string
	clearHyperlinks bool
	observer        *observability.StandardObserver
}

// ApplicatorOption configures an Applicator
type ApplicatorOption func(*Applicator)

// WithoutHyperlinkClearing keeps hyperlinks on redacted ranges even when the
// host can clear them.
func WithoutHyperlinkClearing() ApplicatorOption {
	return func(a *Applicator) {
		a.clearHyperlinks = false
	}
}

// WithObserver sets the observability component
func WithObserver(observer *observability.StandardObserver) ApplicatorOption {
	return func(a *Applicator) {
		a.observer = observer
	}
}

// NewApplicator creates an applicator writing rules.Marker
func NewApplicator(opts ...ApplicatorOption) *Applicator {
	a := &Applicator{
		marker:          rules.Marker,
		clearHyperlinks: true,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetComponentName returns the component name for observability
func (a *Applicator) GetComponentName() string {
	return "redaction_applicator"
}

// Apply redacts every occurrence of literal and returns how many ranges were
// replaced. The search ignores case, punctuation and whitespace, so an
// occurrence may differ from the literal in separators. The replacements are
// committed with a Sync before Apply returns.
func (a *Applicator) Apply(ctx context.Context, doc host.Document, literal string) (int, error) {
	var finishTiming func(bool, map[string]interface{})
	if a.observer != nil {
		finishTiming = a.observer.StartTiming(a.GetComponentName(), "apply", doc.Name())
	}

	count, err := a.apply(ctx, doc, literal)

	if finishTiming != nil {
		finishTiming(err == nil, map[string]interface{}{
			"match_count":    count,
			"literal_length": len(literal),
		})
	}
	return count, err
}

func (a *Applicator) apply(ctx context.Context, doc host.Document, literal string) (int, error) {
	ranges, err := doc.Body().Search(ctx, literal, host.RedactionSearch)
	if err != nil {
		return 0, fmt.Errorf("search failed: %w", err)
	}
	if len(ranges) == 0 {
		return 0, nil
	}

	if a.clearHyperlinks && doc.Supports(host.FeatureHyperlinks) {
		for _, r := range ranges {
			if r.Hyperlink() != "" {
				r.ClearHyperlink()
			}
		}
	}

	count := len(ranges)
	for _, r := range ranges {
		r.Replace(a.marker)
	}

	if err := doc.Sync(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit %d replacements: %w", count, err)
	}
	return count, nil
}
