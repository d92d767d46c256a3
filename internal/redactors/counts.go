// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package redactors

import (
	"fmt"
	"strings"

	"docguard/internal/rules"
)

// RedactionCounts tracks occurrences replaced per category during one run.
// The total is always derived from the per-category values.
type RedactionCounts struct {
	byCategory map[rules.Category]int
}

// NewRedactionCounts creates zeroed counts
func NewRedactionCounts() *RedactionCounts {
	return &RedactionCounts{byCategory: make(map[rules.Category]int, len(rules.Categories))}
}

// Add records n replaced occurrences for a category
func (c *RedactionCounts) Add(category rules.Category, n int) {
	c.byCategory[category] += n
}

// Get returns the count for a category
func (c *RedactionCounts) Get(category rules.Category) int {
	return c.byCategory[category]
}

// Total returns the sum over every category
func (c *RedactionCounts) Total() int {
	total := 0
	for _, n := range c.byCategory {
		total += n
	}
	return total
}

// ByName returns every category count keyed by category name
func (c *RedactionCounts) ByName() map[string]int {
	out := make(map[string]int, len(rules.Categories))
	for _, category := range rules.Categories {
		out[category.String()] = c.byCategory[category]
	}
	return out
}

// Summary renders the counts as "Emails: 1, Phones: 0, ..."
func (c *RedactionCounts) Summary() string {
	parts := make([]string, 0, len(rules.Categories))
	for _, category := range rules.Categories {
		parts = append(parts, fmt.Sprintf("%s: %d", summaryLabels[category], c.byCategory[category]))
	}
	return strings.Join(parts, ", ")
}

var summaryLabels = map[rules.Category]string{
	rules.CategoryEmail:          "Emails",
	rules.CategoryPhone:          "Phones",
	rules.CategoryNationalID:     "SSNs",
	rules.CategoryCreditCard:     "Credit Cards",
	rules.CategoryDateOfBirth:    "DOBs",
	rules.CategoryOrganizationID: "IDs",
	rules.CategoryPartialID:      "SSN last-4",
}
