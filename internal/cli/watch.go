// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"docguard/internal/documents"
	"docguard/internal/redactors"
	"docguard/internal/version"
	"docguard/internal/watch"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type watchOptions struct {
	outputDir string
	debounce  time.Duration
	existing  bool
	auditLog  string
}

func (a *app) watchCmd() *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch [inbox]",
		Short: "Redact documents as they arrive in a directory",
		Long: `Watch an inbox directory and redact every supported document that is created or
changed there, one at a time, into the output directory. A file is picked up
once it has been quiet for the debounce period.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd, opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for redacted copies (default from config)")
	f.DurationVar(&opts.debounce, "debounce", 0, "Quiet period before a file is processed (default from config)")
	f.BoolVar(&opts.existing, "existing", false, "Also redact documents already in the inbox")
	f.StringVar(&opts.auditLog, "audit-log", "", "Keep an audit trail at this path")
	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, opts *watchOptions, args []string) error {
	cfg := a.cfg
	if len(args) == 1 {
		cfg.Watch.Inbox = args[0]
	}
	if cfg.Watch.Inbox == "" {
		a.exitCode = ExitUsageError
		return fmt.Errorf("no inbox given (pass a directory or set watch.inbox)")
	}
	if opts.outputDir != "" {
		cfg.Watch.OutputDir = opts.outputDir
	}
	if opts.debounce > 0 {
		cfg.Watch.Debounce = opts.debounce
	}
	if opts.auditLog != "" {
		cfg.Redaction.AuditLog = opts.auditLog
	}

	if sameDir(cfg.Watch.Inbox, cfg.Watch.OutputDir) {
		a.exitCode = ExitUsageError
		return fmt.Errorf("output directory must differ from the inbox")
	}

	output, err := documents.NewOutputManager(cfg.Watch.OutputDir, false, a.observer)
	if err != nil {
		a.exitCode = ExitUsageError
		return err
	}
	var trail *redactors.AuditTrail
	if cfg.Redaction.AuditLog != "" {
		trail = redactors.NewAuditTrail(version.Short())
	}
	processor := documents.NewProcessor(a.newRunner(), output, trail, a.logger)

	watcher := watch.New(watch.Options{
		Inbox:           cfg.Watch.Inbox,
		Debounce:        cfg.Watch.Debounce,
		ProcessExisting: opts.existing,
	}, processor, a.logger)

	out := cmd.OutOrStdout()
	report := func(outcome documents.Outcome, err error) {
		if err != nil {
			color.New(color.FgRed).Fprintf(out, "FAILED %s: %v\n", outcome.Path, err)
			return
		}
		color.New(color.FgGreen).Fprintf(out, "REDACTED %s -> %s (%d redaction(s))\n",
			outcome.Path, outcome.Output, outcome.Result.Total)
		if trail != nil {
			if err := trail.WriteFile(cfg.Redaction.AuditLog); err != nil {
				a.logger.Warn("audit trail not written", zap.Error(err))
			}
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := watcher.Run(ctx, report); err != nil {
		a.exitCode = ExitRuntimeError
		return err
	}
	return nil
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
