// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package header stamps the confidentiality banner into section headers.
package header

import (
	"context"
	"fmt"
	"strings"

	"docguard/internal/host"
)

// Banner is the paragraph placed at the top of every primary header
const Banner = "CONFIDENTIAL DOCUMENT"

// Stamper ensures each section's primary header carries the banner
type Stamper struct {
	banner string
	format host.ParagraphFormat
}

// NewStamper creates a stamper inserting Banner bold and centered
func NewStamper() *Stamper {
	return &Stamper{
		banner: Banner,
		format: host.ParagraphFormat{Bold: true, Alignment: host.AlignCentered},
	}
}

// EnsureHeader inserts the banner at the start of every primary header that
// does not already contain it, then commits. It reports whether any header
// was changed; a second call on the same document changes nothing.
func (s *Stamper) EnsureHeader(ctx context.Context, doc host.Document) (bool, error) {
	sections, err := doc.Sections(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load sections: %w", err)
	}

	changed := false
	for i, section := range sections {
		h, err := section.PrimaryHeader(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to load header of section %d: %w", i, err)
		}
		text, err := h.Text(ctx)
		if err != nil {
			return false, fmt.Errorf("failed to read header of section %d: %w", i, err)
		}
		if HasBanner(text) {
			continue
		}
		h.InsertParagraph(s.banner, host.InsertStart, s.format)
		changed = true
	}

	if err := doc.Sync(ctx); err != nil {
		return false, fmt.Errorf("failed to commit header changes: %w", err)
	}
	return changed, nil
}

// HasBanner reports whether header text already contains the banner once
// whitespace runs are collapsed.
func HasBanner(text string) bool {
	return strings.Contains(CollapseWhitespace(text), Banner)
}

// CollapseWhitespace replaces whitespace runs with a single space and trims
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
