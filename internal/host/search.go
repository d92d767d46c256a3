// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"unicode"
	"unicode/utf8"
)

// SearchOptions mirrors the options of a word processor's find dialog
type SearchOptions struct {
	MatchCase      bool
	MatchWholeWord bool
	MatchWildcards bool
	IgnorePunct    bool
	IgnoreSpace    bool
}

// RedactionSearch are the options used when redacting a literal: case
// folding with punctuation and whitespace ignored. Matches may therefore
// cover text that differs from the literal in punctuation or spacing.
var RedactionSearch = SearchOptions{
	MatchCase:      false,
	MatchWholeWord: false,
	MatchWildcards: false,
	IgnorePunct:    true,
	IgnoreSpace:    true,
}

// Span is a half-open byte range into a text
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes
func (s Span) Len() int {
	return s.End - s.Start
}

// Overlaps reports whether two spans share at least one byte
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

type normalized struct {
	runes  []rune
	starts []int
}

func normalize(text string, opts SearchOptions) normalized {
	n := normalized{}
	for i, r := range text {
		if opts.IgnorePunct && unicode.IsPunct(r) {
			continue
		}
		if opts.IgnoreSpace && unicode.IsSpace(r) {
			continue
		}
		if !opts.MatchCase {
			r = unicode.ToLower(r)
		}
		n.runes = append(n.runes, r)
		n.starts = append(n.starts, i)
	}
	return n
}

// FindAll returns the non-overlapping occurrences of literal in text.
//
// Punctuation and whitespace are skipped on both sides when the options ask
// for it, so "555-123-4567" also finds "555 123 4567". Returned spans start
// at the first and end after the last significant rune of each occurrence.
func FindAll(text, literal string, opts SearchOptions) ([]Span, error) {
	if opts.MatchWildcards {
		return nil, ErrWildcardsUnsupported
	}

	needle := normalize(literal, opts).runes
	if len(needle) == 0 {
		return nil, nil
	}
	hay := normalize(text, opts)

	var spans []Span
	for i := 0; i+len(needle) <= len(hay.runes); {
		if !equalRunes(hay.runes[i:i+len(needle)], needle) {
			i++
			continue
		}
		last := i + len(needle) - 1
		span := Span{Start: hay.starts[i], End: endOf(text, hay.starts[last])}
		if opts.MatchWholeWord && !isWholeWord(text, span) {
			i++
			continue
		}
		spans = append(spans, span)
		i += len(needle)
	}
	return spans, nil
}

// endOf returns the byte offset after the rune starting at offset. Lower
// casing can change a rune's encoded length, so the original text is used.
func endOf(text string, offset int) int {
	_, size := utf8.DecodeRuneInString(text[offset:])
	return offset + size
}

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isWholeWord(text string, span Span) bool {
	if span.Start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:span.Start])
		if isWordRune(r) {
			return false
		}
	}
	if span.End < len(text) {
		r, _ := utf8.DecodeRuneInString(text[span.End:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
