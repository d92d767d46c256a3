// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"docguard/internal/documents"
	"docguard/internal/observability"
	"docguard/internal/pipeline"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingProcessor) Process(_ context.Context, path string) (documents.Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, filepath.Base(path))
	return documents.Outcome{Path: path}, nil
}

func (r *recordingProcessor) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func start(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, nil) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func TestEligible(t *testing.T) {
	w := New(Options{Inbox: t.TempDir()}, &recordingProcessor{}, nil)
	w.produced["out/report.docx"] = struct{}{}

	assert.True(t, w.eligible("inbox/report.docx"))
	assert.True(t, w.eligible("inbox/notes.txt"))
	assert.False(t, w.eligible("inbox/photo.png"))
	assert.False(t, w.eligible("inbox/.hidden.txt"))
	assert.False(t, w.eligible("inbox/~$report.docx"))
	assert.False(t, w.eligible("out/report.docx"))
}

func TestDueWaitsForDebounce(t *testing.T) {
	w := New(Options{Inbox: t.TempDir(), Debounce: time.Second}, &recordingProcessor{}, nil)
	now := time.Now()
	w.pending["b.txt"] = now.Add(-2 * time.Second)
	w.pending["a.txt"] = now.Add(-time.Second)
	w.pending["c.txt"] = now.Add(-100 * time.Millisecond)

	assert.Equal(t, []string{"a.txt", "b.txt"}, w.due(now))
	assert.Len(t, w.pending, 1)
	assert.Empty(t, w.due(now))
}

func TestHandleRemoveDropsPending(t *testing.T) {
	w := New(Options{Inbox: t.TempDir()}, &recordingProcessor{}, nil)
	w.handle(fsnotify.Event{Name: "inbox/a.txt", Op: fsnotify.Create})
	require.Contains(t, w.pending, filepath.Clean("inbox/a.txt"))

	w.handle(fsnotify.Event{Name: "inbox/a.txt", Op: fsnotify.Remove})
	assert.Empty(t, w.pending)
}

func TestRunProcessesNewFilesOnce(t *testing.T) {
	inbox := t.TempDir()
	proc := &recordingProcessor{}
	start(t, New(Options{Inbox: inbox, Debounce: 50 * time.Millisecond}, proc, nil))

	// give the watcher time to register
	time.Sleep(50 * time.Millisecond)

	path := filepath.Join(inbox, "memo.txt")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0600))
	require.NoError(t, os.WriteFile(path, []byte("second"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "photo.png"), []byte("x"), 0600))

	require.Eventually(t, func() bool { return len(proc.seen()) == 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, []string{"memo.txt"}, proc.seen())
}

func TestRunProcessExisting(t *testing.T) {
	inbox := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "b.txt"), []byte("b"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "a.md"), []byte("a"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(inbox, "skip.bin"), []byte("x"), 0600))

	proc := &recordingProcessor{}
	start(t, New(Options{Inbox: inbox, Debounce: 20 * time.Millisecond, ProcessExisting: true}, proc, nil))

	require.Eventually(t, func() bool { return len(proc.seen()) == 2 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"a.md", "b.txt"}, proc.seen())
}

func TestRunRedactsIntoOutputDir(t *testing.T) {
	inbox := t.TempDir()
	outDir := t.TempDir()

	out, err := documents.NewOutputManager(outDir, false, observability.NewStandardObserver(observability.ObservabilityOff, nil))
	require.NoError(t, err)
	proc := documents.NewProcessor(pipeline.NewRunner(), out, nil, nil)

	var mu sync.Mutex
	var outputs []string
	w := New(Options{Inbox: inbox, Debounce: 20 * time.Millisecond, ProcessExisting: true}, proc, nil)

	require.NoError(t, os.WriteFile(filepath.Join(inbox, "note.txt"), []byte("call 555-123-4567\n"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = w.Run(ctx, func(o documents.Outcome, err error) {
			if err == nil {
				mu.Lock()
				outputs = append(outputs, o.Output)
				mu.Unlock()
			}
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(outputs) == 1
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	written, err := os.ReadFile(outputs[0])
	mu.Unlock()
	require.NoError(t, err)
	assert.NotContains(t, string(written), "555-123-4567")
}
