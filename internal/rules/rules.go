// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"regexp"
	"strings"
)

const (
	// Marker replaces every redacted occurrence
	Marker = "🀫🀫🀫🀫🀫🀫▍"

	// MarkerGlyph is the exclusion key: a hit containing it is already redacted
	MarkerGlyph = "🀫"
)

// separator classes. RE2's \s is ASCII only, so the Unicode spaces and dashes
// the phone and card formats accept are listed explicitly.
const (
	phoneSeparators = `[\s\x{00A0}().\-\x{2010}-\x{2012}\x{2013}\x{2014}]`
	cardSeparators  = `[- \x{00A0}\x{2010}\x{2012}\x{2013}\x{2014}]`
)

var (
	emailPattern = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)

	phonePattern = regexp.MustCompile(`\b(?:\+?1` + phoneSeparators + `*)?(?:\(?\d{3}\)?` +
		phoneSeparators + `*)\d{3}` + phoneSeparators + `*\d{4}\b`)

	nationalIDPattern = regexp.MustCompile(`\b\d{3}[- ]\d{2}[- ]\d{4}\b`)

	creditCardPattern = regexp.MustCompile(`\b(?:\d{4}` + cardSeparators + `?){3}\d{4}\b`)

	dateOfBirthPattern = regexp.MustCompile(`\b(?:0?[1-9]|1[0-2])[/-](?:0?[1-9]|[12]\d|3[01])[/-](?:19|20)\d{2}\b`)

	organizationIDPattern = regexp.MustCompile(`\b(?:EMP-\d{4}-\d{3,}|MRN-\d+|INS-\d+)\b`)

	partialIDPattern = regexp.MustCompile(`(?i)\b(?:ssn|social security number)[^0-9]{0,40}(\d{4})\b`)
)

// ValidatorFunc is the semantic stage of a rule. It receives a trimmed
// candidate hit and returns the literal to redact, or false to drop the hit.
type ValidatorFunc func(hit string) (string, bool)

// Rule pairs a syntactic candidate pattern with a semantic validator.
type Rule struct {
	Category  Category
	Candidate *regexp.Regexp
	Validate  ValidatorFunc
}

var catalog = map[Category]Rule{
	CategoryEmail:          {Category: CategoryEmail, Candidate: emailPattern, Validate: AcceptAsIs},
	CategoryPhone:          {Category: CategoryPhone, Candidate: phonePattern, Validate: AcceptAsIs},
	CategoryNationalID:     {Category: CategoryNationalID, Candidate: nationalIDPattern, Validate: AcceptAsIs},
	CategoryCreditCard:     {Category: CategoryCreditCard, Candidate: creditCardPattern, Validate: ValidateCreditCard},
	CategoryDateOfBirth:    {Category: CategoryDateOfBirth, Candidate: dateOfBirthPattern, Validate: AcceptAsIs},
	CategoryOrganizationID: {Category: CategoryOrganizationID, Candidate: organizationIDPattern, Validate: AcceptAsIs},
	CategoryPartialID:      {Category: CategoryPartialID, Candidate: partialIDPattern, Validate: ValidatePartialID},
}

// For returns the rule owned by a category
func For(c Category) (Rule, bool) {
	r, ok := catalog[c]
	return r, ok
}

// All returns every rule in redaction order
func All() []Rule {
	all := make([]Rule, 0, len(Categories))
	for _, c := range Categories {
		all = append(all, catalog[c])
	}
	return all
}

// AcceptAsIs forwards the candidate unchanged
func AcceptAsIs(hit string) (string, bool) {
	return hit, true
}

// ValidateCreditCard accepts a candidate only when exactly sixteen digits
// remain after separators are stripped.
func ValidateCreditCard(hit string) (string, bool) {
	if len(digitsOf(hit)) != 16 {
		return "", false
	}
	return hit, true
}

// ValidatePartialID reduces a keyword-prefixed hit ("SSN: 1234") to its
// last four digits.
func ValidatePartialID(hit string) (string, bool) {
	digits := digitsOf(hit)
	if len(digits) < 4 {
		return "", false
	}
	return digits[len(digits)-4:], true
}

// IsRedacted reports whether a hit overlaps text that was already redacted
func IsRedacted(hit string) bool {
	return strings.Contains(hit, MarkerGlyph) || strings.Contains(strings.ToLower(hit), "redacted")
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
