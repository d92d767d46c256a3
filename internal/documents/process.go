// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package documents

import (
	"context"
	"os"

	"docguard/internal/pipeline"
	"docguard/internal/redactors"

	"go.uber.org/zap"
)

// Outcome describes one processed file
type Outcome struct {
	Path   string
	Output string
	Result *pipeline.Result
}

// Processor redacts files from disk through one Runner and writes the
// redacted copies with an OutputManager. When a trail is set every written
// document gets an audit entry.
type Processor struct {
	runner *pipeline.Runner
	output *OutputManager
	trail  *redactors.AuditTrail
	logger *zap.Logger
}

// NewProcessor creates a processor. trail and logger may be nil.
func NewProcessor(runner *pipeline.Runner, output *OutputManager, trail *redactors.AuditTrail, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{runner: runner, output: output, trail: trail, logger: logger}
}

// Process opens path, runs the pipeline over it and saves the result
func (p *Processor) Process(ctx context.Context, path string) (Outcome, error) {
	outcome := Outcome{Path: path}

	original, err := os.ReadFile(path)
	if err != nil {
		return outcome, redactors.NewRedactionError(redactors.ErrorDocumentIO,
			"failed to read document", path, "documents", err)
	}

	h, err := OpenBytes(path, original)
	if err != nil {
		return outcome, redactors.NewRedactionError(redactors.ErrorDocumentIO,
			"failed to open document", path, "documents", err)
	}
	h.Path = path

	result, err := p.runner.Trigger(ctx, h.Document())
	if err != nil {
		return outcome, err
	}
	outcome.Result = result

	out, err := p.output.Write(h)
	if err != nil {
		return outcome, redactors.NewRedactionError(redactors.ErrorDocumentIO,
			"failed to write redacted document", path, "documents", err)
	}
	outcome.Output = out
	p.logger.Info("document redacted",
		zap.String("document", path),
		zap.String("output", out),
		zap.Int("redactions", result.Total))

	if p.trail != nil {
		if err := p.audit(path, out, original, result); err != nil {
			p.logger.Warn("audit entry skipped", zap.String("document", path), zap.Error(err))
		}
	}
	return outcome, nil
}

func (p *Processor) audit(path, out string, original []byte, result *pipeline.Result) error {
	entry := redactors.NewRedactionAuditLog(result.RunID, path, out)
	entry.OriginalFileHash = redactors.GenerateDocumentHash(original)
	hash, err := redactors.HashFile(out)
	if err != nil {
		return err
	}
	entry.RedactedFileHash = hash
	entry.SetCounts(result.Counts())
	entry.RedactionSummary.TrackingEnabled = result.TrackingEnabled
	entry.RedactionSummary.HeaderAdded = result.HeaderAdded
	entry.RedactionSummary.ProcessingTime = result.Duration
	if err := entry.Validate(); err != nil {
		return err
	}
	p.trail.Add(entry)
	return nil
}
