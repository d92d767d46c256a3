// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package docx implements the document host over Word (.docx) packages.
//
// The package is kept as raw parts. Body and header parts are parsed into
// text flows that remember the byte ranges of every text element, so edits
// are spliced into the original XML and everything else round-trips
// untouched. Change tracking is the w:trackRevisions document setting;
// replacements themselves are written directly rather than as revision marks.
package docx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"docguard/internal/host"
)

// Extension handled by this host
const Extension = ".docx"

// Supports reports whether path is a Word package
func Supports(path string) bool {
	return strings.EqualFold(filepath.Ext(path), Extension)
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
	part     string
	location host.InsertLocation
	format   host.ParagraphFormat
	mode     host.TrackingMode
}

// Document is a host.Document backed by a .docx package
type Document struct {
	name     string
	pkg      *archive
	mainPart string
	rels     []relationship
	body     *flow
	headers  map[string]*flow
	tracking host.TrackingMode
	revision int
	pending  []op
}

// Open reads a .docx file
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Parse(filepath.Base(path), data)
}

// Parse loads a .docx package from memory
func Parse(name string, data []byte) (*Document, error) {
	pkg, err := readArchive(data)
	if err != nil {
		return nil, err
	}
	if !pkg.has(contentTypesPart) {
		return nil, fmt.Errorf("not an OOXML package: missing %s", contentTypesPart)
	}

	d := &Document{name: name, pkg: pkg, mainPart: defaultMainPart}
	if rootRels, ok := pkg.get(rootRelsPart); ok {
		rels, err := parseRelationships(rootRels)
		if err != nil {
			return nil, err
		}
		if r, ok := findRelationshipByType(rels, relTypeOfficeDocument); ok {
			d.mainPart = resolveTarget("", r.Target)
		}
	}
	if !pkg.has(d.mainPart) {
		return nil, fmt.Errorf("missing main document part %s", d.mainPart)
	}

	if err := d.load(); err != nil {
		return nil, err
	}
	return d, nil
}

// load parses the committed parts
func (d *Document) load() error {
	d.rels = nil
	if data, ok := d.pkg.get(relsPartFor(d.mainPart)); ok {
		rels, err := parseRelationships(data)
		if err != nil {
			return err
		}
		d.rels = rels
	}

	main, _ := d.pkg.get(d.mainPart)
	body, err := parseFlow(main)
	if err != nil {
		return fmt.Errorf("%s: %w", d.mainPart, err)
	}
	d.body = body

	d.headers = make(map[string]*flow)
	for _, r := range d.rels {
		if r.Type != relTypeHeader {
			continue
		}
		part := resolveTarget(d.mainPart, r.Target)
		data, ok := d.pkg.get(part)
		if !ok {
			continue
		}
		hdr, err := parseFlow(data)
		if err != nil {
			return fmt.Errorf("%s: %w", part, err)
		}
		d.headers[part] = hdr
	}

	d.tracking = host.TrackingOff
	if part, ok := d.settingsPart(); ok {
		data, _ := d.pkg.get(part)
		info, err := parseSettings(data)
		if err != nil {
			return fmt.Errorf("%s: %w", part, err)
		}
		if info.tracking {
			d.tracking = host.TrackingAll
		}
	}
	return nil
}

func (d *Document) settingsPart() (string, bool) {
	r, ok := findRelationshipByType(d.rels, relTypeSettings)
	if !ok {
		return "", false
	}
	part := resolveTarget(d.mainPart, r.Target)
	return part, d.pkg.has(part)
}

// headerPart returns the primary header part shown for a section. A section
// without its own default header reference inherits the one of the nearest
// earlier section; the result is empty when no section up to this one has
// a header.
func (d *Document) headerPart(section int) string {
	if section >= len(d.body.sections) {
		section = len(d.body.sections) - 1
	}
	for i := section; i >= 0; i-- {
		if part := d.ownHeaderPart(i); part != "" {
			return part
		}
	}
	return ""
}

func (d *Document) ownHeaderPart(section int) string {
	id := d.body.sections[section].headerID
	if id == "" {
		return ""
	}
	r, ok := findRelationship(d.rels, id)
	if !ok || r.Type != relTypeHeader {
		return ""
	}
	part := resolveTarget(d.mainPart, r.Target)
	if _, ok := d.headers[part]; !ok {
		return ""
	}
	return part
}

// Name implements host.Document
func (d *Document) Name() string { return d.name }

// Supports implements host.Document
func (d *Document) Supports(feature host.Feature) bool {
	return feature == host.FeatureHyperlinks || feature == host.FeatureChangeTracking
}

// Body implements host.Document
func (d *Document) Body() host.Body { return body{doc: d} }

// Sections implements host.Document. A body without section properties
// has one implicit section.
func (d *Document) Sections(ctx context.Context) ([]host.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := max(len(d.body.sections), 1)
	sections := make([]host.Section, n)
	for i := range sections {
		sections[i] = section{doc: d, index: i}
	}
	return sections, nil
}

// SetChangeTracking implements host.Document
func (d *Document) SetChangeTracking(mode host.TrackingMode) {
	d.pending = append(d.pending, op{kind: opSetTracking, mode: mode, revision: d.revision})
}

// Tracking returns the committed tracking mode
func (d *Document) Tracking() host.TrackingMode { return d.tracking }

// Text returns the committed body text
func (d *Document) Text() string { return d.body.text }

// HeaderText returns the committed primary header text of a section
func (d *Document) HeaderText(section int) string {
	if part := d.headerPart(section); part != "" {
		return d.headers[part].text
	}
	return ""
}

// Bytes serializes the package
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pkg.write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the package to path
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Sync commits queued mutations. All edits are computed against the
// committed parts first, so a failing batch leaves the package unchanged.
func (d *Document) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pending := d.pending
	d.pending = nil

	for _, o := range pending {
		if (o.kind == opReplace || o.kind == opClearLink) && o.revision != d.revision {
			return host.ErrStaleRange
		}
	}
	if len(pending) == 0 {
		return nil
	}

	b := d.newBatch()
	if err := b.body(pending); err != nil {
		return err
	}
	if err := b.headerInserts(pending); err != nil {
		return err
	}
	if err := b.tracking(pending); err != nil {
		return err
	}
	if !b.changed() {
		return nil
	}
	if err := b.commit(); err != nil {
		return err
	}

	d.revision++
	return d.load()
}

type body struct {
	doc *Document
}

func (b body) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return b.doc.body.text, nil
}

func (b body) Search(ctx context.Context, literal string, opts host.SearchOptions) ([]host.Range, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spans, err := host.FindAll(b.doc.body.text, literal, opts)
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
	return r.doc.body.text[r.span.Start:r.span.End]
}

func (r *textRange) Hyperlink() string {
	if r.revision != r.doc.revision {
		return ""
	}
	i := r.doc.body.linkAt(r.span)
	if i < 0 {
		return ""
	}
	link := r.doc.body.links[i]
	if rel, ok := findRelationship(r.doc.rels, link.id); ok && link.id != "" {
		return rel.Target
	}
	if link.anchor != "" {
		return "#" + link.anchor
	}
	return ""
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
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return header{doc: s.doc, section: s.index, part: s.doc.headerPart(s.index)}, nil
}

// header is a section's primary header. An empty part means the section
// has no header yet; inserting a paragraph creates one.
type header struct {
	doc     *Document
	section int
	part    string
}

func (h header) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f, ok := h.doc.headers[h.part]; ok {
		return f.text, nil
	}
	return "", nil
}

func (h header) InsertParagraph(text string, location host.InsertLocation, format host.ParagraphFormat) {
	h.doc.pending = append(h.doc.pending, op{
		kind:     opInsertParagraph,
		section:  h.section,
		part:     h.part,
		text:     text,
		location: location,
		format:   format,
		revision: h.doc.revision,
	})
}

// batch accumulates the part edits of one Sync
type batch struct {
	doc     *Document
	edits   map[string][]edit
	created map[string][]byte
	order   []string
	nextRel int
	rels    []relationship

	rNamespace bool
}

func (d *Document) newBatch() *batch {
	return &batch{
		doc:        d,
		edits:      make(map[string][]edit),
		created:    make(map[string][]byte),
		nextRel:    nextRelationshipID(d.rels),
		rels:       append([]relationship(nil), d.rels...),
		rNamespace: d.body.rNamespace,
	}
}

func (b *batch) changed() bool {
	return len(b.edits) > 0 || len(b.created) > 0
}

func (b *batch) add(part string, e edit) {
	b.edits[part] = append(b.edits[part], e)
}

// insert adds text at pos, merging with an earlier insertion at the same
// offset. prepend places the new text ahead of the earlier one.
func (b *batch) insert(part string, pos int, text string, prepend bool) {
	edits := b.edits[part]
	for i := range edits {
		if edits[i].start == pos && edits[i].end == pos {
			if prepend {
				edits[i].text = text + edits[i].text
			} else {
				edits[i].text += text
			}
			return
		}
	}
	b.edits[part] = append(edits, edit{pos, pos, text})
}

func (b *batch) create(part string, data []byte) {
	if _, ok := b.created[part]; !ok {
		b.order = append(b.order, part)
	}
	b.created[part] = data
}

// body applies replacements and hyperlink clearing to a fresh copy of the
// main part's flow
func (b *batch) body(pending []op) error {
	var replacements []op
	var clears []op
	for _, o := range pending {
		switch o.kind {
		case opReplace:
			replacements = append(replacements, o)
		case opClearLink:
			clears = append(clears, o)
		}
	}
	if len(replacements) == 0 && len(clears) == 0 {
		return nil
	}

	data, _ := b.doc.pkg.get(b.doc.mainPart)
	f, err := parseFlow(data)
	if err != nil {
		return err
	}

	for _, o := range clears {
		f.clearLinks(o.span)
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
		if err := f.replace(o.span, o.text); err != nil {
			return err
		}
	}

	for _, e := range f.edits() {
		b.add(b.doc.mainPart, e)
	}
	return nil
}

// headerInserts adds queued paragraphs to existing header parts and
// creates header parts for sections that have none. Sections sharing a
// header part receive a given paragraph once.
func (b *batch) headerInserts(pending []op) error {
	type key struct {
		part     string
		text     string
		location host.InsertLocation
	}
	seen := make(map[key]bool)
	fresh := make(map[int]string)
	var freshOrder []int

	for _, o := range pending {
		if o.kind != opInsertParagraph {
			continue
		}
		p := paragraphXML(o.text, o.format)
		prepend := o.location == host.InsertStart

		if o.part != "" {
			k := key{o.part, o.text, o.location}
			if seen[k] {
				continue
			}
			seen[k] = true
			f, ok := b.doc.headers[o.part]
			if !ok {
				return fmt.Errorf("header part %s no longer exists", o.part)
			}
			pos := f.rootEnd
			if prepend {
				pos = f.root.end
			}
			b.insert(o.part, pos, p, prepend)
			continue
		}

		if _, ok := fresh[o.section]; !ok {
			freshOrder = append(freshOrder, o.section)
		}
		if prepend {
			fresh[o.section] = p + fresh[o.section]
		} else {
			fresh[o.section] += p
		}
	}

	// sections without a header form a prefix of the document; once the
	// first of them gets a header part the rest inherit it
	if len(freshOrder) == 0 {
		return nil
	}
	first := freshOrder[0]
	for _, idx := range freshOrder[1:] {
		if idx < first {
			first = idx
		}
	}
	return b.newHeader(first, fresh[first])
}

func (b *batch) newHeader(idx int, paragraphs string) error {
	part := b.freeHeaderPart()
	b.create(part, headerPartXML(paragraphs))

	id, err := b.relate(relTypeHeader, strings.TrimPrefix(part, "word/"))
	if err != nil {
		return err
	}
	if err := b.override(part, contentTypeHeader); err != nil {
		return err
	}

	ref := fmt.Sprintf(`<w:headerReference w:type="default" r:id="%s"/>`, id)
	main := b.doc.mainPart
	f := b.doc.body
	if !b.rNamespace {
		b.insert(main, f.root.end-1, ` xmlns:r="`+nsRelationships+`"`, false)
		b.rNamespace = true
	}

	switch {
	case idx < len(f.sections) && f.sections[idx].selfClosing:
		data, _ := b.doc.pkg.get(main)
		tag := f.sections[idx].tag
		open := strings.TrimRight(strings.TrimSuffix(string(data[tag.start:tag.end]), "/>"), " \t\r\n")
		b.add(main, edit{tag.start, tag.end, open + ">" + ref + "</w:sectPr>"})
	case idx < len(f.sections):
		b.insert(main, f.sections[idx].tag.end, ref, true)
	case f.bodyEnd >= 0:
		b.insert(main, f.bodyEnd, "<w:sectPr>"+ref+"</w:sectPr>", false)
	default:
		return fmt.Errorf("%s has no body element", main)
	}
	return nil
}

func (b *batch) freeHeaderPart() string {
	for n := 1; ; n++ {
		part := fmt.Sprintf("word/header%d.xml", n)
		if _, ok := b.created[part]; !b.doc.pkg.has(part) && !ok {
			return part
		}
	}
}

// relate adds a relationship from the main part and returns its id
func (b *batch) relate(relType, target string) (string, error) {
	r := relationship{ID: fmt.Sprintf("rId%d", b.nextRel), Type: relType, Target: target}
	b.nextRel++
	b.rels = append(b.rels, r)

	relsPart := relsPartFor(b.doc.mainPart)
	data, ok := b.doc.pkg.get(relsPart)
	if !ok {
		var items strings.Builder
		for _, rel := range b.rels {
			items.WriteString(relationshipXML(rel))
		}
		b.create(relsPart, []byte(xmlDeclaration+`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
			items.String()+`</Relationships>`))
		return r.ID, nil
	}
	pos, err := closingTag(data, "Relationships")
	if err != nil {
		return "", fmt.Errorf("%s: %w", relsPart, err)
	}
	b.insert(relsPart, pos, relationshipXML(r), false)
	return r.ID, nil
}

func (b *batch) override(part, contentType string) error {
	data, _ := b.doc.pkg.get(contentTypesPart)
	pos, err := closingTag(data, "Types")
	if err != nil {
		return fmt.Errorf("%s: %w", contentTypesPart, err)
	}
	b.insert(contentTypesPart, pos, overrideXML(part, contentType), false)
	return nil
}

// tracking writes the last queued tracking mode into the settings part
func (b *batch) tracking(pending []op) error {
	mode, set := host.TrackingOff, false
	for _, o := range pending {
		if o.kind == opSetTracking {
			mode, set = o.mode, true
		}
	}
	if !set || mode == b.doc.tracking {
		return nil
	}

	part, ok := b.doc.settingsPart()
	if !ok {
		if mode == host.TrackingOff {
			return nil
		}
		part = path.Join(path.Dir(b.doc.mainPart), "settings.xml")
		b.create(part, settingsPartXML())
		if _, err := b.relate(relTypeSettings, "settings.xml"); err != nil {
			return err
		}
		return b.override(part, contentTypeSettings)
	}

	data, _ := b.doc.pkg.get(part)
	info, err := parseSettings(data)
	if err != nil {
		return fmt.Errorf("%s: %w", part, err)
	}
	switch {
	case mode == host.TrackingAll && info.found:
		b.add(part, edit{info.element.start, info.element.end, "<w:trackRevisions/>"})
	case mode == host.TrackingAll:
		b.insert(part, info.insertAt, "<w:trackRevisions/>", false)
	case info.found:
		b.add(part, edit{info.element.start, info.element.end, ""})
	}
	return nil
}

func (b *batch) commit() error {
	updated := make(map[string][]byte, len(b.edits))
	for part, edits := range b.edits {
		data, ok := b.doc.pkg.get(part)
		if !ok {
			data, ok = b.created[part]
		}
		if !ok {
			return fmt.Errorf("missing part %s", part)
		}
		out, err := applyEdits(data, edits)
		if err != nil {
			return fmt.Errorf("%s: %w", part, err)
		}
		updated[part] = out
	}

	for _, part := range b.order {
		if _, ok := updated[part]; !ok {
			updated[part] = b.created[part]
		}
	}
	for _, part := range b.order {
		b.doc.pkg.put(part, updated[part])
		delete(updated, part)
	}
	for part, data := range updated {
		b.doc.pkg.put(part, data)
	}
	return nil
}
