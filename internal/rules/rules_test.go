// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractCategory(t *testing.T, c Category, text string) []string {
	t.Helper()
	rule, ok := For(c)
	require.True(t, ok, "no rule for %s", c)
	return Extract(text, rule)
}

func TestEmailRule(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"single address", "Reach me at jane@example.com today.", []string{"jane@example.com"}},
		{"upper case", "JANE.DOE@EXAMPLE.COM", []string{"JANE.DOE@EXAMPLE.COM"}},
		{"duplicates collapse", "a@b.io, a@b.io and c@d.org", []string{"a@b.io", "c@d.org"}},
		{"case variants stay distinct", "x@y.com X@Y.COM", []string{"x@y.com", "X@Y.COM"}},
		{"short tld rejected", "user@host.c", nil},
		{"already redacted local part", "redacted@example.com", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCategory(t, CategoryEmail, tt.text))
		})
	}
}

func TestPhoneRule(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"hyphenated", "call 555-123-4567", []string{"555-123-4567"}},
		{"dotted", "call 555.123.4567", []string{"555.123.4567"}},
		{"country code", "call 1 555 123 4567", []string{"1 555 123 4567"}},
		{"non-breaking spaces", "call 555\u00a0123\u00a04567", []string{"555\u00a0123\u00a04567"}},
		{"en dash", "call 555\u2013123\u20134567", []string{"555\u2013123\u20134567"}},
		// a word boundary cannot sit before "(", so the match starts at the digits
		{"parenthesized area code", "call (555) 123-4567", []string{"555) 123-4567"}},
		{"too short", "call 123-4567", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCategory(t, CategoryPhone, tt.text))
		})
	}
}

func TestNationalIDRule(t *testing.T) {
	assert.Equal(t, []string{"123-45-6789", "987 65 4321"},
		extractCategory(t, CategoryNationalID, "ids 123-45-6789 and 987 65 4321"))
	assert.Empty(t, extractCategory(t, CategoryNationalID, "123456789"))
	assert.Empty(t, extractCategory(t, CategoryNationalID, "123-45-67890"))
}

func TestCreditCardRule(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"hyphenated", "Card: 4111-1111-1111-1111", []string{"4111-1111-1111-1111"}},
		{"spaces", "Card: 4111 1111 1111 1111", []string{"4111 1111 1111 1111"}},
		{"contiguous", "Card: 4111111111111111", []string{"4111111111111111"}},
		{"em dashes", "Card: 4111\u20141111\u20141111\u20141111", []string{"4111\u20141111\u20141111\u20141111"}},
		{"twelve digits", "Card: 4111-1111-1111", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCategory(t, CategoryCreditCard, tt.text))
		})
	}
}

func TestValidateCreditCard(t *testing.T) {
	literal, ok := ValidateCreditCard("4111-1111-1111-1111")
	assert.True(t, ok)
	assert.Equal(t, "4111-1111-1111-1111", literal)

	_, ok = ValidateCreditCard("4111-1111-1111")
	assert.False(t, ok)

	_, ok = ValidateCreditCard("4111-1111-1111-1111-1")
	assert.False(t, ok)
}

func TestDateOfBirthRule(t *testing.T) {
	assert.Equal(t, []string{"1/2/1980", "12-31-2001"},
		extractCategory(t, CategoryDateOfBirth, "born 1/2/1980, renewed 12-31-2001"))
	assert.Empty(t, extractCategory(t, CategoryDateOfBirth, "13/01/1990"))
	assert.Empty(t, extractCategory(t, CategoryDateOfBirth, "01/02/1850"))
}

func TestOrganizationIDRule(t *testing.T) {
	got := extractCategory(t, CategoryOrganizationID, "EMP-2024-001 MRN-42 INS-7 emp-2024-001 EMP-2024-01")
	assert.Equal(t, []string{"EMP-2024-001", "MRN-42", "INS-7"}, got)
}

func TestPartialIDRule(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"keyword and digits", "ssn: 1234, ref 9999", []string{"1234"}},
		{"long keyword", "Social Security Number ending 5678.", []string{"5678"}},
		{"upper case keyword", "SSN 4321", []string{"4321"}},
		{"same digits twice", "ssn 1111 and SSN: 1111", []string{"1111"}},
		{"digits too far away", "ssn this sentence keeps going for far too long 1234", nil},
		{"no keyword", "ref 9999", nil},
		{"five digits", "ssn 12345", nil},
		{"nine digits", "SSN: 123456789", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractCategory(t, CategoryPartialID, tt.text))
		})
	}
}

func TestValidatePartialID(t *testing.T) {
	literal, ok := ValidatePartialID("SSN: 1234")
	require.True(t, ok)
	assert.Equal(t, "1234", literal)

	_, ok = ValidatePartialID("SSN: 12")
	assert.False(t, ok)
}

func TestExtractSkipsRedactedHits(t *testing.T) {
	rule := Rule{Category: CategoryEmail, Candidate: regexp.MustCompile(`\S+`)}
	got := Extract("🀫abc [REDACTED] keep keep", rule)
	assert.Equal(t, []string{"keep"}, got)
}

func TestExtractEmptyText(t *testing.T) {
	for _, rule := range All() {
		if got := Extract("", rule); got != nil {
			t.Errorf("%s: expected no matches for empty text, got %v", rule.Category, got)
		}
	}
}

func TestExtractAllScenario(t *testing.T) {
	matches := ExtractAll("Contact me at JANE.DOE@EXAMPLE.COM or 555-123-4567. SSN 123-45-6789.")

	assert.Equal(t, []string{"JANE.DOE@EXAMPLE.COM"}, matches[CategoryEmail])
	assert.Equal(t, []string{"555-123-4567"}, matches[CategoryPhone])
	assert.Equal(t, []string{"123-45-6789"}, matches[CategoryNationalID])
	assert.Equal(t, 0, matches.Count(CategoryCreditCard))
	assert.Equal(t, 0, matches.Count(CategoryPartialID))
	assert.Equal(t, 3, matches.Total())
}

func TestExtractAllOnRedactedText(t *testing.T) {
	text := "Contact me at " + Marker + " or " + Marker + ". SSN " + Marker + "."
	assert.Equal(t, 0, ExtractAll(text).Total())
}

func TestMatchSetLiteralsDeduplicatesAcrossCategories(t *testing.T) {
	m := MatchSet{
		CategoryNationalID: {"123 45 6789"},
		CategoryPhone:      {"555-123-4567", "123 45 6789"},
	}
	assert.Equal(t, []string{"555-123-4567", "123 45 6789"}, m.Literals())
	assert.Equal(t, 3, m.Total())
	assert.Equal(t, 2, m.Counts()["PHONE"])
	assert.Equal(t, 0, m.Counts()["EMAIL"])
}

func TestAllFollowsRedactionOrder(t *testing.T) {
	var got []Category
	for _, r := range All() {
		got = append(got, r.Category)
		assert.NotNil(t, r.Candidate)
		assert.NotNil(t, r.Validate)
	}
	assert.Equal(t, Categories, got)
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("credit-card")
	require.NoError(t, err)
	assert.Equal(t, CategoryCreditCard, c)

	c, err = ParseCategory(" partial_id ")
	require.NoError(t, err)
	assert.Equal(t, CategoryPartialID, c)

	_, err = ParseCategory("passport")
	assert.Error(t, err)

	for _, c := range Categories {
		parsed, err := ParseCategory(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestIsRedacted(t *testing.T) {
	assert.True(t, IsRedacted("[Redacted]"))
	assert.True(t, IsRedacted("x"+MarkerGlyph))
	assert.False(t, IsRedacted("555-123-4567"))
}

func TestGetRuleInfo(t *testing.T) {
	for _, r := range All() {
		info := r.GetRuleInfo()
		assert.Equal(t, r.Category.String(), info.Name)
		assert.NotEmpty(t, info.ShortDescription)
		assert.Contains(t, info.Patterns[len(info.Patterns)-1], "regex: ")
	}
}
