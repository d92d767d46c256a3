// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package rules

import (
	"fmt"
	"strings"
)

// Category identifies one kind of sensitive value. Every category owns
// exactly one rule and one redaction counter.
type Category int

const (
	// CategoryEmail matches email addresses
	CategoryEmail Category = iota

	// CategoryPhone matches North American phone numbers
	CategoryPhone

	// CategoryNationalID matches nine digit national identifiers (XXX-XX-XXXX)
	CategoryNationalID

	// CategoryCreditCard matches sixteen digit payment card numbers
	CategoryCreditCard

	// CategoryDateOfBirth matches month/day/year dates
	CategoryDateOfBirth

	// CategoryOrganizationID matches employee, medical record and insurance IDs
	CategoryOrganizationID

	// CategoryPartialID matches the last four digits following an SSN keyword
	CategoryPartialID
)

// Categories lists every category in redaction order.
var Categories = []Category{
	CategoryEmail,
	CategoryPhone,
	CategoryNationalID,
	CategoryCreditCard,
	CategoryDateOfBirth,
	CategoryOrganizationID,
	CategoryPartialID,
}

// String returns the name used in reports and on the command line
func (c Category) String() string {
	switch c {
	case CategoryEmail:
		return "EMAIL"
	case CategoryPhone:
		return "PHONE"
	case CategoryNationalID:
		return "NATIONAL_ID"
	case CategoryCreditCard:
		return "CREDIT_CARD"
	case CategoryDateOfBirth:
		return "DATE_OF_BIRTH"
	case CategoryOrganizationID:
		return "ORGANIZATION_ID"
	case CategoryPartialID:
		return "PARTIAL_ID"
	default:
		return "UNKNOWN"
	}
}

// Label is the short lower-case label used in status messages
func (c Category) Label() string {
	switch c {
	case CategoryEmail:
		return "emails"
	case CategoryPhone:
		return "phones"
	case CategoryNationalID:
		return "ssns"
	case CategoryCreditCard:
		return "cc"
	case CategoryDateOfBirth:
		return "dob"
	case CategoryOrganizationID:
		return "ids"
	case CategoryPartialID:
		return "ssn4"
	default:
		return "unknown"
	}
}

// ParseCategory converts a name (case-insensitive, dashes allowed) to a Category
func ParseCategory(name string) (Category, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	for _, c := range Categories {
		if c.String() == normalized {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown rule category: %q", name)
}

// MarshalText implements encoding.TextMarshaler so categories serialize by name
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
