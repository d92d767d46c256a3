// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package status carries the human readable progress line of a run.
// Messages are free-form and the last one wins.
package status

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Sink receives status messages
type Sink interface {
	SetStatus(message string)
}

// Discard drops every message
var Discard Sink = discard{}

type discard struct{}

func (discard) SetStatus(string) {}

// Board keeps the latest status message and fans it out to subscribers
type Board struct {
	mu          sync.RWMutex
	last        string
	subscribers map[chan string]struct{}
}

// NewBoard creates an empty board
func NewBoard() *Board {
	return &Board{subscribers: make(map[chan string]struct{})}
}

// SetStatus replaces the current message and notifies subscribers.
// Subscribers that are not keeping up miss intermediate messages.
func (b *Board) SetStatus(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.last = message
	for ch := range b.subscribers {
		select {
		case ch <- message:
		default:
		}
	}
}

// Last returns the current message
func (b *Board) Last() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last
}

// Subscribe returns a channel receiving every subsequent message and a
// function that unsubscribes and closes the channel.
func (b *Board) Subscribe(buffer int) (<-chan string, func()) {
	ch := make(chan string, buffer)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Writer prints each message on its own line
type Writer struct {
	mu    sync.Mutex
	out   io.Writer
	color *color.Color
}

// NewWriter creates a writer sink. Done and failure messages are highlighted
// unless color output is disabled globally.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out, color: color.New(color.FgCyan)}
}

// SetStatus implements Sink
func (w *Writer) SetStatus(message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch {
	case strings.HasPrefix(message, "Done."):
		color.New(color.FgGreen).Fprintln(w.out, message)
	case strings.Contains(message, "failed") || strings.Contains(message, "not available"):
		color.New(color.FgRed).Fprintln(w.out, message)
	default:
		w.color.Fprintln(w.out, message)
	}
}

// Fanout forwards messages to several sinks
type Fanout []Sink

// SetStatus implements Sink
func (f Fanout) SetStatus(message string) {
	for _, s := range f {
		if s != nil {
			s.SetStatus(message)
		}
	}
}

// Recorder keeps every message, for tests and reports
type Recorder struct {
	mu       sync.Mutex
	messages []string
}

// SetStatus implements Sink
func (r *Recorder) SetStatus(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

// Messages returns a copy of the recorded messages
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Last returns the latest message or ""
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return ""
	}
	return r.messages[len(r.messages)-1]
}

// Sprintf formats and sets a message
func Sprintf(s Sink, format string, args ...interface{}) {
	s.SetStatus(fmt.Sprintf(format, args...))
}
