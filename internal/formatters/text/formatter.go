// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package text

import (
	"fmt"
	"strings"

	"docguard/internal/formatters"
	"docguard/internal/rules"

	"github.com/fatih/color"
)

// Formatter implements text-based output formatting
type Formatter struct {
	colors map[string]*color.Color
}

// NewFormatter creates a new text formatter
func NewFormatter() *Formatter {
	return &Formatter{
		colors: map[string]*color.Color{
			"green":  color.New(color.FgGreen),
			"yellow": color.New(color.FgYellow),
			"red":    color.New(color.FgRed),
			"cyan":   color.New(color.FgCyan),
			"white":  color.New(color.FgWhite, color.Bold),
		},
	}
}

func (f *Formatter) Name() string {
	return "text"
}

func (f *Formatter) Description() string {
	return "Human-readable text output with colors"
}

func (f *Formatter) FileExtension() string {
	return ".txt"
}

func (f *Formatter) Format(reports []formatters.Report, options formatters.FormatterOptions) (string, error) {
	if options.NoColor {
		color.NoColor = true
	}
	if len(reports) == 0 {
		return "No documents processed.", nil
	}

	var builder strings.Builder
	total, failed := 0, 0
	for _, r := range reports {
		if r.Failed() {
			failed++
			f.appendFailure(&builder, r)
			continue
		}
		total += r.Result.Total
		f.appendReport(&builder, r, options)
	}

	builder.WriteString("\n")
	builder.WriteString(f.colors["white"].Sprint("Summary: "))
	fmt.Fprintf(&builder, "%d document(s), %d redaction(s)", len(reports), total)
	if failed > 0 {
		builder.WriteString(", ")
		builder.WriteString(f.colors["red"].Sprintf("%d failed", failed))
	}
	builder.WriteString("\n")
	return builder.String(), nil
}

func (f *Formatter) appendFailure(builder *strings.Builder, r formatters.Report) {
	reason := "no result"
	if r.Err != nil {
		reason = r.Err.Error()
	}
	builder.WriteString(f.colors["red"].Sprint("FAILED "))
	fmt.Fprintf(builder, "%s: %s\n", r.Path, reason)
}

func (f *Formatter) appendReport(builder *strings.Builder, r formatters.Report, options formatters.FormatterOptions) {
	res := r.Result
	status := f.colors["green"].Sprint("REDACTED")
	if res.Total == 0 {
		status = f.colors["yellow"].Sprint("CLEAN   ")
	}

	fmt.Fprintf(builder, "%s %s", status, r.Path)
	if r.Output != "" && r.Output != r.Path {
		fmt.Fprintf(builder, " -> %s", r.Output)
	}
	builder.WriteString("\n")

	fmt.Fprintf(builder, "         Redacted: %d (%s)\n", res.Total, res.Counts().Summary())

	headerState := "already present"
	if res.HeaderAdded {
		headerState = "added"
	}
	tracking := "OFF"
	if res.TrackingEnabled {
		tracking = "ON"
	}
	fmt.Fprintf(builder, "         Track Changes: %s | Header: %s\n", tracking, headerState)

	if options.Verbose {
		parts := make([]string, 0, len(rules.Categories))
		for _, c := range rules.Categories {
			parts = append(parts, fmt.Sprintf("%s=%d", c.Label(), res.Found[c.String()]))
		}
		fmt.Fprintf(builder, "         Found: %s\n", strings.Join(parts, ", "))
	}
	if options.ShowPreview {
		fmt.Fprintf(builder, "         Preview: %s\n", f.colors["cyan"].Sprintf("%q", res.Preview))
	}
}

func init() {
	formatters.Register(NewFormatter())
}
