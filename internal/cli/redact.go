// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docguard/internal/documents"
	"docguard/internal/formatters"
	"docguard/internal/parallel"
	"docguard/internal/redactors"
	"docguard/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type redactOptions struct {
	format     string
	outputDir  string
	inPlace    bool
	recursive  bool
	verbose    bool
	preview    bool
	noTracking bool
	keepLinks  bool
	audit      bool
	auditLog   string
	report     string
	jobs       int
}

func (a *app) redactCmd() *cobra.Command {
	opts := &redactOptions{}
	cmd := &cobra.Command{
		Use:   "redact <file|dir>...",
		Short: "Redact documents and write redacted copies",
		Long: `Redact every supported document named on the command line. Directories are
expanded to the supported files they contain (add --recursive to descend).

Redacted copies are written under the output directory, mirroring the source
path, unless --in-place is given. A report of every document is printed to
stdout in the selected format.`,
		Example: `  docguard redact contract.docx
  docguard redact --in-place notes.txt
  docguard redact -r ./inbox --format json --audit`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runRedact(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.format, "format", "f", "", "Report format: "+strings.Join(formatters.List(), ", "))
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for redacted copies")
	f.BoolVar(&opts.inPlace, "in-place", false, "Overwrite the source documents")
	f.BoolVarP(&opts.recursive, "recursive", "r", false, "Descend into subdirectories")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Include per-category match counts in the report")
	f.BoolVar(&opts.preview, "preview", false, "Include the start of the redacted body in the report")
	f.BoolVar(&opts.noTracking, "no-tracking", false, "Do not turn on change tracking")
	f.BoolVar(&opts.keepLinks, "keep-links", false, "Keep hyperlinks on redacted text")
	f.BoolVar(&opts.audit, "audit", false, "Write an audit trail next to the redacted copies")
	f.StringVar(&opts.auditLog, "audit-log", "", "Write the audit trail to this path")
	f.StringVar(&opts.report, "report", "", "Write the report to this file instead of stdout")
	f.IntVarP(&opts.jobs, "jobs", "j", 1, "Number of documents redacted at once")
	return cmd
}

func (a *app) runRedact(cmd *cobra.Command, opts *redactOptions, args []string) error {
	cfg := a.cfg
	if opts.format != "" {
		cfg.Defaults.Format = opts.format
	}
	if _, ok := formatters.Get(cfg.Defaults.Format); !ok {
		a.exitCode = ExitUsageError
		return fmt.Errorf("unsupported format %q (available: %s)", cfg.Defaults.Format, strings.Join(formatters.List(), ", "))
	}
	if opts.outputDir != "" {
		cfg.Defaults.OutputDir = opts.outputDir
	}
	cfg.Defaults.InPlace = cfg.Defaults.InPlace || opts.inPlace
	cfg.Defaults.Verbose = cfg.Defaults.Verbose || opts.verbose
	if opts.noTracking {
		cfg.Redaction.TrackChanges = false
	}
	if opts.keepLinks {
		cfg.Redaction.ClearHyperlinks = false
	}

	output, err := documents.NewOutputManager(cfg.Defaults.OutputDir, cfg.Defaults.InPlace, a.observer)
	if err != nil {
		a.exitCode = ExitUsageError
		return err
	}

	auditPath := opts.auditLog
	if auditPath == "" {
		auditPath = cfg.Redaction.AuditLog
	}
	if auditPath == "" && opts.audit {
		auditPath = output.AuditPath()
	}
	var trail *redactors.AuditTrail
	if auditPath != "" {
		trail = redactors.NewAuditTrail(version.Short())
	}

	// each worker gets its own runner; a runner admits one run at a time
	factory := func() parallel.Processor {
		return documents.NewProcessor(a.newRunner(), output, trail, a.logger)
	}

	inputs := expandInputs(args, opts.recursive)
	reports := make([]formatters.Report, len(inputs))
	var paths []string
	var slots []int
	for i, in := range inputs {
		reports[i] = formatters.Report{Path: in.path, Err: in.err}
		if in.err == nil {
			paths = append(paths, in.path)
			slots = append(slots, i)
		}
	}
	for _, r := range parallel.ProcessAll(cmd.Context(), opts.jobs, factory, a.observer, paths) {
		reports[slots[r.Index]] = formatters.Report{
			Path:   r.Path,
			Output: r.Outcome.Output,
			Result: r.Outcome.Result,
			Err:    r.Err,
		}
	}
	for i := range reports {
		if reports[i].Err == nil && reports[i].Result == nil {
			reports[i].Err = fmt.Errorf("not processed: %w", context.Canceled)
		}
	}

	if trail != nil && len(trail.Documents) > 0 {
		if err := documents.EnsureDirectoryExists(auditPath); err != nil {
			a.exitCode = ExitRuntimeError
			return err
		}
		if err := trail.WriteFile(auditPath); err != nil {
			a.exitCode = ExitRuntimeError
			return err
		}
		a.logger.Info("audit trail written", zap.String("path", auditPath))
	}

	rendered, err := formatters.Export(cfg.Defaults.Format, reports, formatters.FormatterOptions{
		Verbose:     cfg.Defaults.Verbose,
		NoColor:     cfg.Defaults.NoColor || opts.report != "",
		ShowPreview: opts.preview,
	})
	if err != nil {
		a.exitCode = ExitRuntimeError
		return err
	}
	if opts.report != "" {
		if err := os.WriteFile(opts.report, []byte(rendered), 0600); err != nil {
			a.exitCode = ExitRuntimeError
			return fmt.Errorf("failed to write report: %w", err)
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), rendered)
	}

	for _, r := range reports {
		if r.Failed() {
			a.exitCode = ExitFailures
			break
		}
	}
	return nil
}

type input struct {
	path string
	err  error
}

// expandInputs turns arguments into document paths. Unsupported or missing
// files named directly are kept with an error so they show up as failures;
// unsupported files found inside directories are skipped.
func expandInputs(args []string, recursive bool) []input {
	var inputs []input
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			inputs = append(inputs, input{path: arg, err: fmt.Errorf("cannot access %s: %w", arg, err)})
			continue
		}
		if !info.IsDir() {
			if !documents.Supported(arg) {
				inputs = append(inputs, input{path: arg, err: fmt.Errorf("unsupported document type: %s", filepath.Ext(arg))})
				continue
			}
			inputs = append(inputs, input{path: arg})
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if documents.Supported(path) && !strings.HasPrefix(d.Name(), "~$") {
				inputs = append(inputs, input{path: path})
			}
			return nil
		})
		if err != nil {
			inputs = append(inputs, input{path: arg, err: fmt.Errorf("failed to walk %s: %w", arg, err)})
		}
	}
	return inputs
}
