// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package cli implements the docguard command tree.
package cli

import (
	"fmt"
	"io"
	"os"

	"docguard/internal/config"
	"docguard/internal/metrics"
	"docguard/internal/observability"
	"docguard/internal/pipeline"
	"docguard/internal/redactors"
	"docguard/internal/status"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	_ "docguard/internal/formatters/csv"
	_ "docguard/internal/formatters/json"
	_ "docguard/internal/formatters/text"
	_ "docguard/internal/formatters/yaml"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitFailures     = 1
	ExitUsageError   = 2
	ExitRuntimeError = 3
)

// globalOptions are the persistent flags shared by every command
type globalOptions struct {
	configFile string
	profile    string
	debug      bool
	noColor    bool
	quiet      bool
}

// app holds the state of one invocation
type app struct {
	global   globalOptions
	exitCode int

	cfg      *config.Config
	logger   *zap.Logger
	observer *observability.StandardObserver
	board    *status.Board
	sink     status.Sink
	metrics  *metrics.Metrics
}

// Run executes the root command and returns an exit code.
func Run() int {
	a := &app{}
	return a.execute(a.rootCmd())
}

func (a *app) execute(root *cobra.Command) int {
	if err := root.Execute(); err != nil {
		// Cobra already prints the error
		if a.exitCode != ExitSuccess {
			return a.exitCode
		}
		return ExitUsageError
	}
	return a.exitCode
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "docguard",
		Short: "Redact personal data from documents",
		Long: `docguard finds personal data in documents (emails, phone numbers, national IDs,
card numbers, dates of birth, organization IDs and SSN last-four digits),
replaces every occurrence with a fixed marker and stamps a CONFIDENTIAL
DOCUMENT banner into each primary header.

Word (.docx), plain text (.txt, .md, .log, .csv) and PDF sources are supported.
PDF sources are written out as plain text.`,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.global.configFile, "config", "", "Path to configuration file (default: docguard.yaml or the user config dir)")
	flags.StringVar(&a.global.profile, "profile", "", "Configuration profile to apply")
	flags.BoolVar(&a.global.debug, "debug", false, "Print step-by-step debug output to stderr")
	flags.BoolVar(&a.global.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&a.global.quiet, "quiet", "q", false, "Do not print status lines")

	root.AddCommand(a.redactCmd())
	root.AddCommand(a.extractCmd())
	root.AddCommand(a.rulesCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.watchCmd())
	root.AddCommand(a.versionCmd())
	return root
}

// setup resolves configuration and builds the ambient components
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfigOrDefault(a.global.configFile)
	if err != nil {
		if a.global.configFile != "" {
			a.exitCode = ExitUsageError
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Error loading config file: %v\nUsing default configuration\n", err)
	}
	if a.global.profile != "" {
		if err := cfg.ApplyProfile(a.global.profile); err != nil {
			a.exitCode = ExitUsageError
			return err
		}
	}
	cfg.Defaults.Debug = cfg.Defaults.Debug || a.global.debug
	cfg.Defaults.NoColor = cfg.Defaults.NoColor || a.global.noColor
	cfg.Defaults.Quiet = cfg.Defaults.Quiet || a.global.quiet
	if cfg.Defaults.NoColor || !isTerminal(os.Stderr) {
		color.NoColor = true
	}
	a.cfg = cfg

	stderr := cmd.ErrOrStderr()
	level := cfg.Defaults.LogLevel
	if cfg.Defaults.Debug {
		level = "debug"
	}
	logger, err := observability.NewLogger(observability.LoggerConfig{
		Level:  level,
		Format: cfg.Defaults.LogFormat,
		Output: stderr,
	})
	if err != nil {
		a.exitCode = ExitUsageError
		return fmt.Errorf("invalid logger configuration: %w", err)
	}
	a.logger = logger

	if cfg.Defaults.Debug {
		a.observer = observability.NewDebugObserver(stderr, logger).StandardObserver
	} else {
		a.observer = observability.NewStandardObserver(observability.ObservabilityMetrics, logger)
	}

	a.board = status.NewBoard()
	a.sink = a.board
	if !cfg.Defaults.Quiet {
		a.sink = status.Fanout{a.board, status.NewWriter(stderr)}
	}
	a.metrics = metrics.New("docguard")
	return nil
}

// newRunner builds a runner from the resolved configuration
func (a *app) newRunner() *pipeline.Runner {
	applicatorOpts := []redactors.ApplicatorOption{redactors.WithObserver(a.observer)}
	if !a.cfg.Redaction.ClearHyperlinks {
		applicatorOpts = append(applicatorOpts, redactors.WithoutHyperlinkClearing())
	}
	return pipeline.NewRunner(
		pipeline.WithStatus(a.sink),
		pipeline.WithObserver(a.observer),
		pipeline.WithMetrics(a.metrics),
		pipeline.WithApplicator(redactors.NewApplicator(applicatorOpts...)),
		pipeline.WithChangeTracking(a.cfg.Redaction.TrackChanges),
	)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
