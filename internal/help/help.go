// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package help

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// RuleInfo contains standardized information about a redaction rule
type RuleInfo struct {
	Name                string   // Name of the rule (e.g., "CREDIT_CARD")
	ShortDescription    string   // Short description for the rules list
	DetailedDescription string   // Detailed description of what the rule matches
	Patterns            []string // Shapes the rule looks for
	Validation          []string // Post-match checks applied to candidates
	Examples            []string // Sample inputs and what gets redacted
}

// Provider defines the interface for help content providers
type Provider interface {
	GetRuleInfo() RuleInfo
}

// System manages help content for the application
type System struct {
	providers map[string]Provider
	out       io.Writer
	colors    map[string]*color.Color
}

// NewSystem creates a new help system writing to out
func NewSystem(out io.Writer, noColor bool) *System {
	if noColor {
		color.NoColor = true
	}

	return &System{
		providers: make(map[string]Provider),
		out:       out,
		colors: map[string]*color.Color{
			"title":    color.New(color.FgWhite, color.Bold),
			"header":   color.New(color.FgBlue, color.Bold),
			"item":     color.New(color.FgCyan),
			"emphasis": color.New(color.FgWhite, color.Bold),
			"negative": color.New(color.FgRed),
			"example":  color.New(color.FgMagenta),
		},
	}
}

// RegisterProvider adds a help provider to the system
func (h *System) RegisterProvider(provider Provider) {
	info := provider.GetRuleInfo()
	h.providers[strings.ToLower(info.Name)] = provider
}

// ShowRules lists every registered rule alphabetically
func (h *System) ShowRules() {
	h.colors["title"].Fprintln(h.out, "Redaction rules")
	fmt.Fprintln(h.out, "===============")
	fmt.Fprintln(h.out)

	names := make([]string, 0, len(h.providers))
	for key := range h.providers {
		names = append(names, key)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(h.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  RULE\tDESCRIPTION")
	fmt.Fprintln(w, "  ----\t-----------")
	for _, key := range names {
		info := h.providers[key].GetRuleInfo()
		fmt.Fprintf(w, "  %s\t%s\n", info.Name, info.ShortDescription)
	}
	w.Flush()

	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, "For details on a single rule, use:")
	h.colors["example"].Fprintln(h.out, "  docguard rules <rule>")
}

// ShowRule displays detailed help for one rule. It reports false when the
// rule is unknown.
func (h *System) ShowRule(name string) bool {
	provider, exists := h.providers[strings.ToLower(strings.ReplaceAll(name, "-", "_"))]
	if !exists {
		h.colors["negative"].Fprintf(h.out, "Error: rule '%s' not found.\n", name)
		fmt.Fprintln(h.out, "Use 'docguard rules' to see a list of available rules.")
		return false
	}

	info := provider.GetRuleInfo()
	h.colors["title"].Fprintf(h.out, "%s Rule\n", info.Name)
	fmt.Fprintln(h.out, strings.Repeat("=", len(info.Name)+5))
	fmt.Fprintln(h.out)
	fmt.Fprintln(h.out, info.DetailedDescription)
	fmt.Fprintln(h.out)

	h.section("PATTERNS MATCHED:", info.Patterns, "item")
	h.section("VALIDATION:", info.Validation, "item")
	h.section("EXAMPLES:", info.Examples, "example")
	return true
}

func (h *System) section(title string, items []string, style string) {
	if len(items) == 0 {
		return
	}
	h.colors["header"].Fprintln(h.out, title)
	for _, item := range items {
		fmt.Fprint(h.out, "  - ")
		h.colors[style].Fprintln(h.out, item)
	}
	fmt.Fprintln(h.out)
}
