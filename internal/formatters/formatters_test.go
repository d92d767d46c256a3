// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package formatters_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"docguard/internal/formatters"
	_ "docguard/internal/formatters/csv"
	_ "docguard/internal/formatters/json"
	"docguard/internal/formatters/shared"
	_ "docguard/internal/formatters/text"
	_ "docguard/internal/formatters/yaml"
	"docguard/internal/pipeline"
)

func sampleReports() []formatters.Report {
	redacted := map[string]int{"EMAIL": 1, "PHONE": 1, "NATIONAL_ID": 1, "CREDIT_CARD": 0,
		"DATE_OF_BIRTH": 0, "ORGANIZATION_ID": 0, "PARTIAL_ID": 0}
	return []formatters.Report{
		{
			Path:   "in/contact.docx",
			Output: "redacted/in/contact.docx",
			Result: &pipeline.Result{
				RunID:           "run-1",
				Document:        "contact.docx",
				TrackingEnabled: true,
				HeaderAdded:     true,
				Found:           redacted,
				Redacted:        redacted,
				Total:           3,
				Preview:         "Contact: 🀫🀫🀫🀫🀫🀫▍",
				Duration:        15 * time.Millisecond,
			},
		},
		{Path: "in/broken.docx", Err: errors.New("missing main document part")},
	}
}

func TestRegistryHasBuiltins(t *testing.T) {
	assert.Equal(t, []string{"csv", "json", "text", "yaml"}, formatters.List())

	_, err := formatters.Export("xml", nil, formatters.FormatterOptions{})
	assert.ErrorContains(t, err, "Available formats: csv, json, text, yaml")

	info := formatters.GetFormatInfo("json")
	assert.Equal(t, "application/json", info.MimeType)
	assert.Equal(t, ".json", info.Extension)
	assert.Equal(t, formatters.FormatInfo{}, formatters.GetFormatInfo("xml"))
}

func TestConvertReports(t *testing.T) {
	report := shared.ConvertReports(sampleReports(), formatters.FormatterOptions{})

	assert.Equal(t, 2, report.Summary.Documents)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 3, report.Summary.TotalRedactions)
	assert.Equal(t, 1, report.Summary.ByCategory["EMAIL"])
	assert.Len(t, report.Summary.ByCategory, 7)

	require.Len(t, report.Documents, 2)
	assert.Empty(t, report.Documents[0].Preview)
	assert.Nil(t, report.Documents[0].Found)
	assert.Equal(t, int64(15), report.Documents[0].DurationMs)
	assert.Equal(t, "missing main document part", report.Documents[1].Error)
}

func TestJSONFormatter(t *testing.T) {
	out, err := formatters.Export("json", sampleReports(), formatters.FormatterOptions{ShowPreview: true})
	require.NoError(t, err)

	var decoded shared.Report
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 3, decoded.Summary.TotalRedactions)
	assert.Equal(t, "Contact: 🀫🀫🀫🀫🀫🀫▍", decoded.Documents[0].Preview)
}

func TestYAMLFormatter(t *testing.T) {
	out, err := formatters.Export("yaml", sampleReports(), formatters.FormatterOptions{Verbose: true})
	require.NoError(t, err)

	var decoded shared.Report
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 1, decoded.Summary.Failed)
	assert.Equal(t, 1, decoded.Documents[0].Found["PHONE"])
}

func TestCSVFormatter(t *testing.T) {
	out, err := formatters.Export("csv", sampleReports(), formatters.FormatterOptions{})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Document,Output,Status,Tracking,Header Added,Total,EMAIL,PHONE,NATIONAL_ID,CREDIT_CARD,DATE_OF_BIRTH,ORGANIZATION_ID,PARTIAL_ID", lines[0])
	assert.Equal(t, "in/contact.docx,redacted/in/contact.docx,ok,true,true,3,1,1,1,0,0,0,0", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "in/broken.docx,,failed: missing main document part,"))
}

func TestTextFormatter(t *testing.T) {
	out, err := formatters.Export("text", sampleReports(), formatters.FormatterOptions{NoColor: true, Verbose: true})
	require.NoError(t, err)

	assert.Contains(t, out, "REDACTED in/contact.docx -> redacted/in/contact.docx")
	assert.Contains(t, out, "Redacted: 3 (Emails: 1, Phones: 1, SSNs: 1, Credit Cards: 0, DOBs: 0, IDs: 0, SSN last-4: 0)")
	assert.Contains(t, out, "Track Changes: ON | Header: added")
	assert.Contains(t, out, "Found: emails=1, phones=1, ssns=1, cc=0, dob=0, ids=0, ssn4=0")
	assert.Contains(t, out, "FAILED in/broken.docx: missing main document part")
	assert.Contains(t, out, "Summary: 2 document(s), 3 redaction(s), 1 failed")

	empty, err := formatters.Export("text", nil, formatters.FormatterOptions{NoColor: true})
	require.NoError(t, err)
	assert.Equal(t, "No documents processed.", empty)
}
