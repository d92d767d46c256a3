// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package docx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"

	"docguard/internal/host"
)

// byteRange is a half-open range of bytes in a package part
type byteRange struct {
	start, end int
}

type segmentKind int

const (
	segText segmentKind = iota
	segTab
	segBreak
	segParagraph
)

// segment is one contribution to the flow text: the content of a w:t
// element, a tab or break element, or the newline between paragraphs.
type segment struct {
	kind     segmentKind
	offset   int
	orig     string
	text     string
	content  byteRange
	tag      byteRange
	preserve bool
	link     int
	removed  bool
}

func (s *segment) span() host.Span {
	return host.Span{Start: s.offset, End: s.offset + len(s.orig)}
}

type hyperlink struct {
	id      string
	anchor  string
	open    byteRange
	close   byteRange
	cleared bool
}

type sectionProps struct {
	tag         byteRange
	selfClosing bool
	headerID    string
}

// flow is a parsed body or header part. The text joins paragraphs with a
// newline, tabs as "\t" and breaks as "\n".
type flow struct {
	text       string
	segments   []segment
	links      []hyperlink
	sections   []sectionProps
	root       byteRange
	rootEnd    int
	bodyEnd    int
	rNamespace bool
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func attr(el xml.StartElement, space, local string) string {
	for _, a := range el.Attr {
		if a.Name.Space == space && a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func selfClosing(data []byte, r byteRange) bool {
	return bytes.HasSuffix(data[r.start:r.end], []byte("/>"))
}

func parseFlow(data []byte) (*flow, error) {
	f := &flow{bodyEnd: -1}
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		stack      []string
		text       strings.Builder
		textBuf    strings.Builder
		linkStack  []int
		paragraphs int
		textIdx    = -1
		elemIdx    = -1
		sectIdx    = -1
	)

	currentLink := func() int {
		if len(linkStack) == 0 {
			return -1
		}
		return linkStack[len(linkStack)-1]
	}

	for {
		before := int(dec.InputOffset())
		tok, err := dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("XML parsing error: %w", err)
		}
		after := int(dec.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			} else {
				f.root = byteRange{before, after}
				f.rNamespace = attr(t, "xmlns", "r") != ""
			}
			stack = append(stack, qualified(t.Name))
			if t.Name.Space != "w" {
				continue
			}

			switch t.Name.Local {
			case "p":
				if paragraphs > 0 {
					f.segments = append(f.segments, segment{
						kind: segParagraph, offset: text.Len(), orig: "\n", text: "\n", link: -1,
					})
					text.WriteByte('\n')
				}
				paragraphs++

			case "t":
				if parent != "w:r" || selfClosing(data, byteRange{before, after}) {
					continue
				}
				f.segments = append(f.segments, segment{
					kind:     segText,
					offset:   text.Len(),
					tag:      byteRange{before, after},
					content:  byteRange{after, after},
					preserve: attr(t, "xml", "space") == "preserve",
					link:     currentLink(),
				})
				textIdx = len(f.segments) - 1
				textBuf.Reset()

			case "tab", "br", "cr":
				if parent != "w:r" {
					continue
				}
				kind, s := segBreak, "\n"
				if t.Name.Local == "tab" {
					kind, s = segTab, "\t"
				}
				f.segments = append(f.segments, segment{
					kind: kind, offset: text.Len(), orig: s, text: s,
					content: byteRange{before, after}, link: currentLink(),
				})
				text.WriteString(s)
				elemIdx = len(f.segments) - 1

			case "hyperlink":
				f.links = append(f.links, hyperlink{
					id:     attr(t, "r", "id"),
					anchor: attr(t, "w", "anchor"),
					open:   byteRange{before, after},
					close:  byteRange{after, after},
				})
				linkStack = append(linkStack, len(f.links)-1)

			case "sectPr":
				if parent == "w:sectPrChange" {
					continue
				}
				tag := byteRange{before, after}
				f.sections = append(f.sections, sectionProps{tag: tag, selfClosing: selfClosing(data, tag)})
				sectIdx = len(f.sections) - 1

			case "headerReference":
				if parent == "w:sectPr" && sectIdx >= 0 && attr(t, "w", "type") == "default" {
					f.sections[sectIdx].headerID = attr(t, "r", "id")
				}
			}

		case xml.CharData:
			if textIdx >= 0 {
				textBuf.Write(t)
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				f.rootEnd = before
			}
			if t.Name.Space != "w" {
				continue
			}

			switch t.Name.Local {
			case "t":
				if textIdx >= 0 {
					s := &f.segments[textIdx]
					s.content.end = before
					s.orig = textBuf.String()
					s.text = s.orig
					text.WriteString(s.orig)
					textIdx = -1
				}
			case "tab", "br", "cr":
				if elemIdx >= 0 {
					f.segments[elemIdx].content.end = after
					elemIdx = -1
				}
			case "hyperlink":
				if n := len(linkStack); n > 0 {
					f.links[linkStack[n-1]].close = byteRange{before, after}
					linkStack = linkStack[:n-1]
				}
			case "sectPr":
				if len(stack) == 0 || stack[len(stack)-1] != "w:sectPrChange" {
					sectIdx = -1
				}
			case "body":
				f.bodyEnd = before
			}
		}
	}

	f.text = text.String()
	return f, nil
}

// linkAt returns the index of the first hyperlink over span, or -1
func (f *flow) linkAt(span host.Span) int {
	for i := range f.segments {
		s := &f.segments[i]
		if s.link >= 0 && len(s.orig) > 0 && s.span().Overlaps(span) {
			return s.link
		}
	}
	return -1
}

// clearLinks marks every hyperlink over span for unwrapping
func (f *flow) clearLinks(span host.Span) {
	for i := range f.segments {
		s := &f.segments[i]
		if s.link >= 0 && len(s.orig) > 0 && s.span().Overlaps(span) {
			f.links[s.link].cleared = true
		}
	}
}

// replace rewrites the segments under span. The replacement lands in the
// first text segment; the rest lose their covered text, and covered tab or
// break elements are dropped. Paragraph boundaries are kept. Callers apply
// replacements from the end of the flow backwards.
func (f *flow) replace(span host.Span, text string) error {
	placed := false
	for i := range f.segments {
		s := &f.segments[i]
		if len(s.orig) == 0 || !s.span().Overlaps(span) {
			continue
		}
		lo := max(span.Start, s.offset) - s.offset
		hi := min(span.End, s.offset+len(s.orig)) - s.offset

		switch s.kind {
		case segText:
			insert := ""
			if !placed {
				insert, placed = text, true
			}
			s.text = s.text[:lo] + insert + s.text[hi:]
		case segTab, segBreak:
			s.removed = true
		}
	}
	if !placed {
		return fmt.Errorf("no text at offsets %d-%d", span.Start, span.End)
	}
	return nil
}

// edits turns the pending segment and hyperlink changes into byte edits
func (f *flow) edits() []edit {
	var out []edit
	for i := range f.segments {
		s := &f.segments[i]
		switch {
		case s.removed:
			out = append(out, edit{s.content.start, s.content.end, ""})
		case s.kind == segText && s.text != s.orig:
			if !s.preserve && strings.TrimSpace(s.text) != s.text {
				// the tag ends with '>'; the attribute goes right before it
				at := s.tag.end - 1
				out = append(out, edit{at, at, ` xml:space="preserve"`})
			}
			out = append(out, edit{s.content.start, s.content.end, escape(s.text)})
		}
	}
	for _, l := range f.links {
		if l.cleared {
			out = append(out, edit{l.open.start, l.open.end, ""})
			if l.close.end > l.close.start {
				out = append(out, edit{l.close.start, l.close.end, ""})
			}
		}
	}
	return out
}

// edit replaces data[start:end] with text
type edit struct {
	start, end int
	text       string
}

func applyEdits(data []byte, edits []edit) ([]byte, error) {
	if len(edits) == 0 {
		return data, nil
	}
	sorted := append([]edit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	var buf bytes.Buffer
	pos := 0
	for _, e := range sorted {
		if e.start < pos || e.end < e.start || e.end > len(data) {
			return nil, fmt.Errorf("conflicting edit at byte %d", e.start)
		}
		buf.Write(data[pos:e.start])
		buf.WriteString(e.text)
		pos = e.end
	}
	buf.Write(data[pos:])
	return buf.Bytes(), nil
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
