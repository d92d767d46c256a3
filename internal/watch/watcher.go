// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package watch redacts documents dropped into an inbox directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"docguard/internal/documents"
	"docguard/internal/observability"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period a file must reach before it is processed
const DefaultDebounce = 500 * time.Millisecond

// Processor redacts one file
type Processor interface {
	Process(ctx context.Context, path string) (documents.Outcome, error)
}

// Options configures a Watcher
type Options struct {
	Inbox    string
	Debounce time.Duration
	// ProcessExisting queues supported files already in the inbox at start
	ProcessExisting bool
}

// Watcher feeds inbox changes to a Processor one file at a time
type Watcher struct {
	opts      Options
	processor Processor
	logger    *zap.Logger

	pending  map[string]time.Time
	produced map[string]struct{}
}

// New creates a watcher
func New(opts Options, processor Processor, logger *zap.Logger) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = observability.WithComponent(logger, "watch")
	return &Watcher{
		opts:      opts,
		processor: processor,
		logger:    logger,
		pending:   make(map[string]time.Time),
		produced:  make(map[string]struct{}),
	}
}

// Run watches the inbox until ctx is cancelled. report is called after
// every processed file and may be nil.
func (w *Watcher) Run(ctx context.Context, report func(documents.Outcome, error)) error {
	info, err := os.Stat(w.opts.Inbox)
	if err != nil {
		return fmt.Errorf("inbox not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("inbox is not a directory: %s", w.opts.Inbox)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.opts.Inbox); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.opts.Inbox, err)
	}
	w.logger.Info("watching inbox", zap.String("inbox", w.opts.Inbox), zap.Duration("debounce", w.opts.Debounce))

	if w.opts.ProcessExisting {
		if err := w.queueExisting(); err != nil {
			return err
		}
	}

	tick := max(w.opts.Debounce/2, 10*time.Millisecond)
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		case now := <-ticker.C:
			for _, path := range w.due(now) {
				if ctx.Err() != nil {
					return nil
				}
				outcome, err := w.processor.Process(ctx, path)
				if err != nil {
					w.logger.Error("inbox document failed", zap.String("document", path), zap.Error(err))
				} else if outcome.Output != "" {
					w.produced[filepath.Clean(outcome.Output)] = struct{}{}
				}
				if report != nil {
					report(outcome, err)
				}
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, path)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if !w.eligible(path) {
			return
		}
		w.pending[path] = time.Now()
	}
}

// eligible filters out unsupported, hidden and lock files and the
// watcher's own output
func (w *Watcher) eligible(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$") {
		return false
	}
	if !documents.Supported(path) {
		return false
	}
	if _, ok := w.produced[path]; ok {
		return false
	}
	return true
}

// due removes and returns the pending paths that have been quiet for the
// debounce period, in name order
func (w *Watcher) due(now time.Time) []string {
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.opts.Debounce {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	for _, path := range ready {
		delete(w.pending, path)
	}
	return ready
}

func (w *Watcher) queueExisting() error {
	entries, err := os.ReadDir(w.opts.Inbox)
	if err != nil {
		return fmt.Errorf("failed to list inbox: %w", err)
	}
	// backdate so the first tick picks them up
	queued := time.Now().Add(-w.opts.Debounce)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Clean(filepath.Join(w.opts.Inbox, entry.Name()))
		if w.eligible(path) {
			w.pending[path] = queued
		}
	}
	return nil
}
