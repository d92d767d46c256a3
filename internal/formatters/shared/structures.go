// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package shared

import (
	"docguard/internal/formatters"
	"docguard/internal/rules"
)

// ReportSummary aggregates every document of an invocation
type ReportSummary struct {
	Documents       int            `json:"documents" yaml:"documents"`
	Failed          int            `json:"failed" yaml:"failed"`
	TotalRedactions int            `json:"total_redactions" yaml:"total_redactions"`
	ByCategory      map[string]int `json:"by_category" yaml:"by_category"`
}

// DocumentEntry is the serialized outcome for one document
type DocumentEntry struct {
	Path            string         `json:"path" yaml:"path"`
	Output          string         `json:"output,omitempty" yaml:"output,omitempty"`
	Error           string         `json:"error,omitempty" yaml:"error,omitempty"`
	RunID           string         `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	TrackingEnabled bool           `json:"tracking_enabled" yaml:"tracking_enabled"`
	HeaderAdded     bool           `json:"header_added" yaml:"header_added"`
	Found           map[string]int `json:"found,omitempty" yaml:"found,omitempty"`
	Redacted        map[string]int `json:"redacted,omitempty" yaml:"redacted,omitempty"`
	Total           int            `json:"total" yaml:"total"`
	Preview         string         `json:"preview,omitempty" yaml:"preview,omitempty"`
	DurationMs      int64          `json:"duration_ms" yaml:"duration_ms"`
}

// Report is the structure shared by the JSON and YAML formatters
type Report struct {
	Summary   ReportSummary   `json:"summary" yaml:"summary"`
	Documents []DocumentEntry `json:"documents" yaml:"documents"`
}

// CategoryNames returns the category names in redaction order
func CategoryNames() []string {
	names := make([]string, 0, len(rules.Categories))
	for _, c := range rules.Categories {
		names = append(names, c.String())
	}
	return names
}

// ConvertReports builds the serializable report
func ConvertReports(reports []formatters.Report, options formatters.FormatterOptions) Report {
	out := Report{
		Summary: ReportSummary{
			Documents:  len(reports),
			ByCategory: make(map[string]int, len(rules.Categories)),
		},
		Documents: make([]DocumentEntry, 0, len(reports)),
	}
	for _, name := range CategoryNames() {
		out.Summary.ByCategory[name] = 0
	}

	for _, r := range reports {
		entry := DocumentEntry{Path: r.Path, Output: r.Output}
		if r.Failed() {
			out.Summary.Failed++
			if r.Err != nil {
				entry.Error = r.Err.Error()
			}
			out.Documents = append(out.Documents, entry)
			continue
		}

		res := r.Result
		entry.RunID = res.RunID
		entry.TrackingEnabled = res.TrackingEnabled
		entry.HeaderAdded = res.HeaderAdded
		entry.Redacted = res.Redacted
		entry.Total = res.Total
		entry.DurationMs = res.Duration.Milliseconds()
		if options.Verbose {
			entry.Found = res.Found
		}
		if options.ShowPreview {
			entry.Preview = res.Preview
		}

		out.Summary.TotalRedactions += res.Total
		for name, n := range res.Redacted {
			out.Summary.ByCategory[name] += n
		}
		out.Documents = append(out.Documents, entry)
	}
	return out
}
