// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rules

import "docguard/internal/help"

// GetRuleInfo returns standardized information about the rule
func (r Rule) GetRuleInfo() help.RuleInfo {
	info := ruleInfo[r.Category]
	info.Name = r.Category.String()
	info.Patterns = append(append([]string(nil), info.Patterns...), "regex: "+r.Candidate.String())
	return info
}

// Providers returns a help provider per rule, in redaction order
func Providers() []help.Provider {
	providers := make([]help.Provider, 0, len(Categories))
	for _, r := range All() {
		providers = append(providers, r)
	}
	return providers
}

var ruleInfo = map[Category]help.RuleInfo{
	CategoryEmail: {
		ShortDescription:    "Email addresses",
		DetailedDescription: `Matches local-part@domain.tld addresses, ignoring case. The top level domain must have at least two letters.`,
		Patterns:            []string{"name@example.com", "First.Last+tag@sub.example.org"},
		Examples:            []string{"Contact JANE.DOE@EXAMPLE.COM -> Contact " + Marker},
	},
	CategoryPhone: {
		ShortDescription: "North American phone numbers",
		DetailedDescription: `Matches ten digit phone numbers with an optional +1 country code. Groups may be separated by any mix of spaces, non-breaking spaces, parentheses, dots, hyphens and Unicode dashes.`,
		Patterns:         []string{"555-123-4567", "(555) 123 4567", "+1 555.123.4567"},
	},
	CategoryNationalID: {
		ShortDescription:    "Nine digit national identifiers",
		DetailedDescription: `Matches XXX-XX-XXXX identifiers where each separator is a hyphen or a space.`,
		Patterns:            []string{"123-45-6789", "123 45 6789"},
	},
	CategoryCreditCard: {
		ShortDescription:    "Sixteen digit payment card numbers",
		DetailedDescription: `Matches four groups of four digits, optionally separated by a hyphen, space, non-breaking space or Unicode dash.`,
		Patterns:            []string{"4111-1111-1111-1111", "4111 1111 1111 1111", "4111111111111111"},
		Validation:          []string{"exactly 16 digits after separators are removed"},
	},
	CategoryDateOfBirth: {
		ShortDescription:    "Month/day/year dates",
		DetailedDescription: `Matches dates written month first with a slash or hyphen separator and a four digit year between 1900 and 2099.`,
		Patterns:            []string{"1/2/1980", "12-31-2001"},
	},
	CategoryOrganizationID: {
		ShortDescription:    "Employee, medical record and insurance identifiers",
		DetailedDescription: `Matches upper-case prefixed identifiers used in personnel and health records.`,
		Patterns:            []string{"EMP-2024-001", "MRN-123456", "INS-98765"},
	},
	CategoryPartialID: {
		ShortDescription:    "Last four digits after an SSN keyword",
		DetailedDescription: `Matches "SSN" or "social security number" followed within 40 non-digit characters by four digits. Only the four digits are redacted, everywhere they occur.`,
		Patterns:            []string{"SSN: 1234", "social security number ending in 1234"},
		Validation:          []string{"reduced to the last four digits", "forwarded only when exactly four digits remain"},
		Examples:            []string{"ssn: 1234, ref 9999 -> ssn: " + Marker + ", ref 9999"},
	},
}
