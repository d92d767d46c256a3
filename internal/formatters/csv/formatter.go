// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package csv

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"docguard/internal/formatters"
	"docguard/internal/formatters/shared"
)

// Formatter implements CSV output formatting, one row per document
type Formatter struct{}

// NewFormatter creates a new CSV formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

func (f *Formatter) Name() string {
	return "csv"
}

func (f *Formatter) Description() string {
	return "Comma-separated values for spreadsheet import"
}

func (f *Formatter) FileExtension() string {
	return ".csv"
}

func (f *Formatter) Format(reports []formatters.Report, options formatters.FormatterOptions) (string, error) {
	categories := shared.CategoryNames()
	headers := append([]string{"Document", "Output", "Status", "Tracking", "Header Added", "Total"}, categories...)
	if options.ShowPreview {
		headers = append(headers, "Preview")
	}

	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return "", fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, doc := range shared.ConvertReports(reports, options).Documents {
		row := []string{doc.Path, doc.Output, "ok",
			strconv.FormatBool(doc.TrackingEnabled), strconv.FormatBool(doc.HeaderAdded), strconv.Itoa(doc.Total)}
		if doc.Error != "" {
			row[2] = "failed: " + doc.Error
		}
		for _, name := range categories {
			row = append(row, strconv.Itoa(doc.Redacted[name]))
		}
		if options.ShowPreview {
			row = append(row, doc.Preview)
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func init() {
	formatters.Register(NewFormatter())
}
