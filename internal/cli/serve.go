// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"
	"os/signal"
	"syscall"

	"docguard/internal/web"

	"github.com/spf13/cobra"
)

type serveOptions struct {
	listen         string
	rateLimit      float64
	burst          int
	allowAnyOrigin bool
}

func (a *app) serveCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the redaction trigger over HTTP",
		Long: `Start an HTTP server exposing:

  POST /v1/redact      upload a document (multipart field "file"), receive it redacted
  GET  /v1/status      current status line
  GET  /v1/status/ws   WebSocket stream of status lines
  GET  /healthz        liveness
  GET  /metrics        Prometheus metrics

Only one redaction runs at a time; concurrent uploads are answered with 409.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = opts.listen
			}
			if cmd.Flags().Changed("rate-limit") {
				cfg.Server.RateLimit = opts.rateLimit
			}
			if cmd.Flags().Changed("burst") {
				cfg.Server.Burst = opts.burst
			}
			cfg.Server.AllowAnyOrigin = cfg.Server.AllowAnyOrigin || opts.allowAnyOrigin

			server := web.New(web.Options{
				Listen:         cfg.Server.Listen,
				RateLimit:      cfg.Server.RateLimit,
				Burst:          cfg.Server.Burst,
				AllowAnyOrigin: cfg.Server.AllowAnyOrigin,
				MaxUploadMB:    cfg.Server.MaxUploadMB,
			}, a.newRunner(), a.board, a.metrics, a.logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := server.ListenAndServe(ctx); err != nil {
				a.exitCode = ExitRuntimeError
				return err
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.listen, "listen", "", "Listen address (default from config, 127.0.0.1:8080)")
	f.Float64Var(&opts.rateLimit, "rate-limit", 0, "Redaction requests per second, 0 for unlimited")
	f.IntVar(&opts.burst, "burst", 0, "Rate limiter burst size")
	f.BoolVar(&opts.allowAnyOrigin, "allow-any-origin", false, "Accept WebSocket connections from any origin")
	return cmd
}
