// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package memory implements an in-memory document host. It backs plain text
// and PDF sources and is the reference host used in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"docguard/internal/host"
)

// Paragraph is a header paragraph with its formatting
type Paragraph struct {
	Text   string
	Format host.ParagraphFormat
}

// Link is a hyperlink over a span of the body
type Link struct {
	Span host.Span
	URL  string
}

// Revision is a tracked change recorded while tracking is on
type Revision struct {
	Old string
	New string
}

type opKind int

const (
	opReplace opKind = iota
	opClearLink
	opInsertParagraph
	opSetTracking
)

type op struct {
	kind     opKind
	revision int
	span     host.Span
	text     string
	section  int
	location host.InsertLocation
	format   host.ParagraphFormat
	mode     host.TrackingMode
}

// Document is an in-memory host.Document
type Document struct {
	name      string
	body      string
	links     []Link
	headers   [][]Paragraph
	features  map[host.Feature]bool
	tracking  host.TrackingMode
	revision  int
	pending   []op
	revisions []Revision
	syncs     int
	failures  map[string]error
}

// Option configures a Document
type Option func(*Document)

// WithSections sets the number of sections, each with an empty header
func WithSections(n int) Option {
	return func(d *Document) {
		d.headers = make([][]Paragraph, n)
	}
}

// WithHeader sets the header paragraphs of a section
func WithHeader(section int, paragraphs ...string) Option {
	return func(d *Document) {
		for len(d.headers) <= section {
			d.headers = append(d.headers, nil)
		}
		for _, p := range paragraphs {
			d.headers[section] = append(d.headers[section], Paragraph{Text: p})
		}
	}
}

// WithHyperlink links the first occurrence of text in the body to url
func WithHyperlink(text, url string) Option {
	return func(d *Document) {
		if i := strings.Index(d.body, text); i >= 0 {
			d.links = append(d.links, Link{Span: host.Span{Start: i, End: i + len(text)}, URL: url})
		}
	}
}

// WithFeatures restricts the supported optional features
func WithFeatures(features ...host.Feature) Option {
	return func(d *Document) {
		d.features = make(map[host.Feature]bool, len(features))
		for _, f := range features {
			d.features[f] = true
		}
	}
}

// WithFailure makes the named host call fail with err. Names are
// "body.text", "body.search", "sections", "header.text" and "sync".
func WithFailure(call string, err error) Option {
	return func(d *Document) {
		d.failures[call] = err
	}
}

// New creates a document with one section and every feature supported
func New(name, body string, opts ...Option) *Document {
	d := &Document{
		name:     name,
		body:     body,
		headers:  make([][]Paragraph, 1),
		features: map[host.Feature]bool{host.FeatureHyperlinks: true, host.FeatureChangeTracking: true},
		failures: make(map[string]error),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name implements host.Document
func (d *Document) Name() string { return d.name }

// Supports implements host.Document
func (d *Document) Supports(feature host.Feature) bool { return d.features[feature] }

// Body implements host.Document
func (d *Document) Body() host.Body { return body{doc: d} }

// Sections implements host.Document
func (d *Document) Sections(ctx context.Context) ([]host.Section, error) {
	if err := d.call(ctx, "sections"); err != nil {
		return nil, err
	}
	sections := make([]host.Section, len(d.headers))
	for i := range d.headers {
		sections[i] = section{doc: d, index: i}
	}
	return sections, nil
}

// SetChangeTracking implements host.Document
func (d *Document) SetChangeTracking(mode host.TrackingMode) {
	d.pending = append(d.pending, op{kind: opSetTracking, mode: mode, revision: d.revision})
}

// Sync commits queued mutations. Replacements are applied from the end of
// the body backwards so earlier offsets stay valid.
func (d *Document) Sync(ctx context.Context) error {
	if err := d.call(ctx, "sync"); err != nil {
		return err
	}
	pending := d.pending
	d.pending = nil
	d.syncs++

	for _, o := range pending {
		if (o.kind == opReplace || o.kind == opClearLink) && o.revision != d.revision {
			return host.ErrStaleRange
		}
	}

	changed := false
	var replacements []op
	for _, o := range pending {
		switch o.kind {
		case opSetTracking:
			d.tracking = o.mode
		case opClearLink:
			d.clearLinks(o.span)
			changed = true
		case opInsertParagraph:
			p := Paragraph{Text: o.text, Format: o.format}
			if o.location == host.InsertStart {
				d.headers[o.section] = append([]Paragraph{p}, d.headers[o.section]...)
			} else {
				d.headers[o.section] = append(d.headers[o.section], p)
			}
			changed = true
		case opReplace:
			replacements = append(replacements, o)
		}
	}

	sort.SliceStable(replacements, func(i, j int) bool {
		return replacements[i].span.Start > replacements[j].span.Start
	})
	for i := 1; i < len(replacements); i++ {
		if replacements[i].span.Overlaps(replacements[i-1].span) {
			return fmt.Errorf("overlapping replacements at offsets %d and %d", replacements[i].span.Start, replacements[i-1].span.Start)
		}
	}
	for _, o := range replacements {
		d.replace(o.span, o.text)
		changed = true
	}

	if changed {
		d.revision++
	}
	return nil
}

func (d *Document) replace(span host.Span, text string) {
	old := d.body[span.Start:span.End]
	d.body = d.body[:span.Start] + text + d.body[span.End:]
	delta := len(text) - span.Len()

	for i := range d.links {
		l := &d.links[i].Span
		switch {
		case l.Start >= span.End:
			l.Start += delta
			l.End += delta
		case l.End > span.Start:
			// link touches the replaced text: keep it over the new content
			if l.Start > span.Start {
				l.Start = span.Start
			}
			if l.End < span.End {
				l.End = span.End
			}
			l.End += delta
		}
	}

	if d.tracking == host.TrackingAll {
		d.revisions = append(d.revisions, Revision{Old: old, New: text})
	}
}

func (d *Document) clearLinks(span host.Span) {
	kept := d.links[:0]
	for _, l := range d.links {
		if !l.Span.Overlaps(span) {
			kept = append(kept, l)
		}
	}
	d.links = kept
}

func (d *Document) linkAt(span host.Span) string {
	for _, l := range d.links {
		if l.Span.Overlaps(span) {
			return l.URL
		}
	}
	return ""
}

func (d *Document) call(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.failures[name]; err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Text returns the committed body text
func (d *Document) Text() string { return d.body }

// HeaderParagraphs returns the committed header paragraphs of a section
func (d *Document) HeaderParagraphs(section int) []Paragraph {
	if section < 0 || section >= len(d.headers) {
		return nil
	}
	return append([]Paragraph(nil), d.headers[section]...)
}

// Links returns the committed hyperlinks
func (d *Document) Links() []Link { return append([]Link(nil), d.links...) }

// Tracking returns the committed tracking mode
func (d *Document) Tracking() host.TrackingMode { return d.tracking }

// Revisions returns the changes recorded while tracking was on
func (d *Document) Revisions() []Revision { return append([]Revision(nil), d.revisions...) }

// SyncCount returns how many times Sync was called
func (d *Document) SyncCount() int { return d.syncs }

type body struct {
	doc *Document
}

func (b body) Text(ctx context.Context) (string, error) {
	if err := b.doc.call(ctx, "body.text"); err != nil {
		return "", err
	}
	return b.doc.body, nil
}

func (b body) Search(ctx context.Context, literal string, opts host.SearchOptions) ([]host.Range, error) {
	if err := b.doc.call(ctx, "body.search"); err != nil {
		return nil, err
	}
	spans, err := host.FindAll(b.doc.body, literal, opts)
	if err != nil {
		return nil, err
	}
	ranges := make([]host.Range, 0, len(spans))
	for _, s := range spans {
		ranges = append(ranges, &textRange{doc: b.doc, span: s, revision: b.doc.revision})
	}
	return ranges, nil
}

type textRange struct {
	doc      *Document
	span     host.Span
	revision int
}

func (r *textRange) Text() string {
	if r.revision != r.doc.revision {
		return ""
	}
	return r.doc.body[r.span.Start:r.span.End]
}

func (r *textRange) Hyperlink() string {
	if r.revision != r.doc.revision {
		return ""
	}
	return r.doc.linkAt(r.span)
}

func (r *textRange) ClearHyperlink() {
	r.doc.pending = append(r.doc.pending, op{kind: opClearLink, span: r.span, revision: r.revision})
}

func (r *textRange) Replace(text string) {
	r.doc.pending = append(r.doc.pending, op{kind: opReplace, span: r.span, text: text, revision: r.revision})
}

type section struct {
	doc   *Document
	index int
}

func (s section) PrimaryHeader(ctx context.Context) (host.Header, error) {
	if err := s.doc.call(ctx, "sections"); err != nil {
		return nil, err
	}
	return header(s), nil
}

type header section

func (h header) Text(ctx context.Context) (string, error) {
	if err := h.doc.call(ctx, "header.text"); err != nil {
		return "", err
	}
	texts := make([]string, 0, len(h.doc.headers[h.index]))
	for _, p := range h.doc.headers[h.index] {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n"), nil
}

func (h header) InsertParagraph(text string, location host.InsertLocation, format host.ParagraphFormat) {
	h.doc.pending = append(h.doc.pending, op{
		kind:     opInsertParagraph,
		section:  h.index,
		text:     text,
		location: location,
		format:   format,
		revision: h.doc.revision,
	})
}
