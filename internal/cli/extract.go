// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"docguard/internal/documents"
	"docguard/internal/rules"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type extractOptions struct {
	format      string
	showMatches bool
}

type extractReport struct {
	Document string              `json:"document"`
	Total    int                 `json:"total"`
	Found    map[string]int      `json:"found"`
	Matches  map[string][]string `json:"matches,omitempty"`
}

func (a *app) extractCmd() *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "List what would be redacted without changing anything",
		Long: `Run the pattern extractor over the body of a document and print the number of
unique matches per rule. The document is not modified. Matched values are only
printed with --show-matches.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&opts.showMatches, "show-matches", false, "Print the matched values")
	return cmd
}

func (a *app) runExtract(cmd *cobra.Command, opts *extractOptions, path string) error {
	if opts.format != "text" && opts.format != "json" {
		a.exitCode = ExitUsageError
		return fmt.Errorf("unsupported format %q (use text or json)", opts.format)
	}

	h, err := documents.Open(path)
	if err != nil {
		a.exitCode = ExitRuntimeError
		return err
	}
	text, err := h.Document().Body().Text(cmd.Context())
	if err != nil {
		a.exitCode = ExitRuntimeError
		return fmt.Errorf("failed to read body: %w", err)
	}

	extractor := rules.NewExtractor()
	extractor.SetObserver(a.observer)
	matches := extractor.ExtractAll(text)

	report := extractReport{Document: path, Total: matches.Total(), Found: matches.Counts()}
	if opts.showMatches {
		report.Matches = make(map[string][]string, len(matches))
		for c, literals := range matches {
			report.Matches[c.String()] = literals
		}
	}

	out := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	writeExtractText(out, report, matches, opts.showMatches)
	return nil
}

func writeExtractText(out io.Writer, report extractReport, matches rules.MatchSet, showMatches bool) {
	color.New(color.Bold).Fprintf(out, "%s: %d unique match(es)\n", report.Document, report.Total)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, c := range rules.Categories {
		fmt.Fprintf(w, "  %s\t%d\n", c, matches.Count(c))
		if showMatches {
			for _, literal := range matches[c] {
				fmt.Fprintf(w, "    %s\t\n", literal)
			}
		}
	}
	w.Flush()
}
