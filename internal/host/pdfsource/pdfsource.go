// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pdfsource opens PDF files as read-only sources. The extracted text
// becomes an in-memory document; redacted output is written as plain text
// because the PDF itself is never rewritten.
package pdfsource

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"docguard/internal/host"
	"docguard/internal/host/memory"
)

// Extension handled by this source
const Extension = ".pdf"

// Supports reports whether path looks like a PDF
func Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
}

// Info describes a validated PDF
type Info struct {
	Pages int
}

// Validate checks the file structure with pdfcpu and returns its page count
func Validate(path string) (*Info, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", path, err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return nil, fmt.Errorf("invalid PDF file: %w", err)
	}

	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return &Info{Pages: ctx.PageCount}, nil
}

// Load validates path and extracts its text into a memory document with a
// single, initially empty header. Pages are separated by a blank line.
func Load(path string) (*memory.Document, error) {
	if _, err := Validate(path); err != nil {
		return nil, err
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := pageText(p)
		if err != nil {
			return nil, fmt.Errorf("failed to extract page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			pages = append(pages, strings.TrimRight(text, "\n"))
		}
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return memory.New(name+".txt", strings.Join(pages, "\n\n")+"\n",
		memory.WithFeatures(host.FeatureChangeTracking)), nil
}

// pageText reads a page row by row, falling back to the plain text stream
// when row grouping fails.
func pageText(p pdf.Page) (string, error) {
	rows, err := p.GetTextByRow()
	if err != nil {
		return p.GetPlainText(nil)
	}

	kept := make([]*pdf.Row, 0, len(rows))
	for _, row := range rows {
		if row != nil && len(row.Content) > 0 {
			kept = append(kept, row)
		}
	}

	// PDF space grows upward, so the top row has the largest Y.
	sort.SliceStable(kept, func(i, j int) bool {
		return averageY(kept[i].Content) > averageY(kept[j].Content)
	})

	var buf bytes.Buffer
	for _, row := range kept {
		line := joinRow(row.Content)
		if strings.TrimSpace(line) != "" {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}

func averageY(texts []pdf.Text) float64 {
	if len(texts) == 0 {
		return 0
	}
	var sum float64
	for _, t := range texts {
		sum += t.Y
	}
	return sum / float64(len(texts))
}

// joinRow orders a row's glyph runs left to right and inserts a space where
// the gap between runs exceeds a fifth of the font size.
func joinRow(texts []pdf.Text) string {
	if len(texts) == 0 {
		return ""
	}

	sorted := append([]pdf.Text(nil), texts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var buf strings.Builder
	for i, t := range sorted {
		buf.WriteString(t.S)
		if i == len(sorted)-1 {
			break
		}
		size := t.FontSize
		if size <= 0 {
			size = 12
		}
		if sorted[i+1].X-(t.X+t.W) > size*0.2 {
			buf.WriteByte(' ')
		}
	}
	return buf.String()
}
