// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package host defines the document host a redaction run operates on.
//
// A host exposes the document body as text, a literal search returning
// mutable ranges, per-section primary headers and change tracking. Mutations
// (replace, hyperlink clearing, paragraph insertion, tracking mode) are
// queued on the document and only become visible after Sync.
package host

import (
	"context"
	"errors"
)

// Feature names an optional host capability
type Feature string

const (
	// FeatureHyperlinks means ranges can report and clear hyperlinks
	FeatureHyperlinks Feature = "hyperlinks"

	// FeatureChangeTracking means the document can record edits as revisions
	FeatureChangeTracking Feature = "change_tracking"
)

// TrackingMode controls whether edits are recorded as revisions
type TrackingMode int

const (
	TrackingOff TrackingMode = iota
	TrackingAll
)

// String returns the string representation of the tracking mode
func (m TrackingMode) String() string {
	if m == TrackingAll {
		return "trackAll"
	}
	return "off"
}

// InsertLocation selects where a paragraph is inserted in a header
type InsertLocation int

const (
	InsertStart InsertLocation = iota
	InsertEnd
)

// Alignment is a paragraph alignment
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCentered
)

// ParagraphFormat describes formatting applied to an inserted paragraph
type ParagraphFormat struct {
	Bold      bool
	Alignment Alignment
}

var (
	// ErrStaleRange is returned by Sync when a queued mutation targets a range
	// obtained before the last committed change.
	ErrStaleRange = errors.New("range is stale: document changed since it was searched")

	// ErrWildcardsUnsupported is returned for searches requesting wildcard matching
	ErrWildcardsUnsupported = errors.New("wildcard search is not supported")
)

// Document is a host document. Implementations are not safe for concurrent use.
type Document interface {
	// Name identifies the document in logs and reports
	Name() string

	// Supports reports whether an optional capability is available
	Supports(feature Feature) bool

	// Body returns the main document body
	Body() Body

	// Sections loads the document sections
	Sections(ctx context.Context) ([]Section, error)

	// SetChangeTracking queues a change of the tracking mode
	SetChangeTracking(mode TrackingMode)

	// Sync commits every queued mutation
	Sync(ctx context.Context) error
}

// Body is the main text flow of a document
type Body interface {
	// Text loads the committed body text
	Text(ctx context.Context) (string, error)

	// Search finds every occurrence of literal in the committed body
	Search(ctx context.Context, literal string, opts SearchOptions) ([]Range, error)
}

// Range is a span of body text returned by Search
type Range interface {
	// Text is the text covered by the range at search time
	Text() string

	// Hyperlink is the link target on the range, empty when none
	Hyperlink() string

	// ClearHyperlink queues removal of the hyperlink on the range
	ClearHyperlink()

	// Replace queues replacement of the whole range content
	Replace(text string)
}

// Section is a document section
type Section interface {
	// PrimaryHeader loads the header shown on ordinary pages of the section
	PrimaryHeader(ctx context.Context) (Header, error)
}

// Header is a section header
type Header interface {
	// Text loads the committed header text
	Text(ctx context.Context) (string, error)

	// InsertParagraph queues insertion of a paragraph
	InsertParagraph(text string, location InsertLocation, format ParagraphFormat)
}
