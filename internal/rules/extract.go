// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"strings"

	"docguard/internal/observability"
)

// MatchSet holds the unique literals found per category, in first-seen order.
type MatchSet map[Category][]string

// Count returns the number of unique literals for a category
func (m MatchSet) Count(c Category) int {
	return len(m[c])
}

// Total returns the number of unique literals across categories.
// A literal found by two categories is counted once per category.
func (m MatchSet) Total() int {
	total := 0
	for _, literals := range m {
		total += len(literals)
	}
	return total
}

// Counts returns the per-category counts keyed by category name
func (m MatchSet) Counts() map[string]int {
	counts := make(map[string]int, len(Categories))
	for _, c := range Categories {
		counts[c.String()] = len(m[c])
	}
	return counts
}

// Literals returns every literal, deduplicated across categories. Used to
// scrub matched values once a run is finished.
func (m MatchSet) Literals() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range Categories {
		for _, literal := range m[c] {
			if _, dup := seen[literal]; dup {
				continue
			}
			seen[literal] = struct{}{}
			out = append(out, literal)
		}
	}
	return out
}

// Extract applies a single rule to text and returns its unique literals.
//
// Hits are trimmed, empty hits and hits overlapping redacted text are
// dropped, and the survivors go through the rule's validator. Uniqueness is
// enforced on the validated literal.
func Extract(text string, rule Rule) []string {
	if text == "" || rule.Candidate == nil {
		return nil
	}

	validate := rule.Validate
	if validate == nil {
		validate = AcceptAsIs
	}

	var literals []string
	seen := make(map[string]struct{})
	for _, raw := range rule.Candidate.FindAllString(text, -1) {
		hit := strings.TrimSpace(raw)
		if hit == "" || IsRedacted(hit) {
			continue
		}
		literal, ok := validate(hit)
		if !ok || literal == "" {
			continue
		}
		if _, dup := seen[literal]; dup {
			continue
		}
		seen[literal] = struct{}{}
		literals = append(literals, literal)
	}
	return literals
}

// Extractor runs the full rule set over document text
type Extractor struct {
	rules    []Rule
	observer *observability.StandardObserver
}

// NewExtractor creates an extractor over every rule
func NewExtractor() *Extractor {
	return &Extractor{rules: All()}
}

// SetObserver sets the observability component
func (e *Extractor) SetObserver(observer *observability.StandardObserver) {
	e.observer = observer
}

// ExtractAll runs every rule independently over the same text
func (e *Extractor) ExtractAll(text string) MatchSet {
	var finishTiming func(bool, map[string]interface{})
	var finishStep func(bool, string)
	if e.observer != nil {
		finishTiming = e.observer.StartTiming("pattern_extractor", "extract_all", "")
		if e.observer.DebugObserver != nil {
			finishStep = e.observer.DebugObserver.StartStep("pattern_extractor", "extract_all", "")
		}
	}

	matches := make(MatchSet, len(e.rules))
	for _, rule := range e.rules {
		literals := Extract(text, rule)
		if len(literals) > 0 {
			matches[rule.Category] = literals
		}
		if e.observer != nil && e.observer.DebugObserver != nil {
			e.observer.DebugObserver.LogMetric("pattern_extractor", rule.Category.String(), len(literals))
		}
	}

	if finishTiming != nil {
		finishTiming(true, map[string]interface{}{
			"content_length": len(text),
			"match_count":    matches.Total(),
		})
	}
	if finishStep != nil {
		finishStep(true, "")
	}
	return matches
}

// ExtractAll runs every rule over text with a default extractor
func ExtractAll(text string) MatchSet {
	return NewExtractor().ExtractAll(text)
}
