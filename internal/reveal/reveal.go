// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package reveal discloses an already complete reply a few characters at a
// time so it reads as if it were being generated live.
package reveal

import (
	"context"
	"sync"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
)

// Defaults for chunking and pacing.
const (
	DefaultChunkSize = 10
	DefaultDelay     = 30 * time.Millisecond
)

// Options controls pacing. A non-positive ChunkSize selects the default; a
// non-positive Delay reveals without pausing.
type Options struct {
	ChunkSize int
	Delay     time.Duration
}

// DefaultOptions returns the standard pacing of 10 runes every 30ms.
func DefaultOptions() Options {
	return Options{ChunkSize: DefaultChunkSize, Delay: DefaultDelay}
}

func (o Options) normalized() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	return o
}

// UpdateFunc receives each revealed prefix. The final call carries
// StatusComplete, or StatusInterrupted when the task was stopped.
type UpdateFunc func(text string, status model.Status)

// Outcome describes how a reveal ended.
type Outcome struct {
	// Text is the last prefix delivered.
	Text string

	// Interrupted is true when the task was stopped before the full text.
	Interrupted bool
}

// Prefixes returns the successive prefixes a reveal of text delivers. Each
// step advances chunk runes. The last prefix is always text itself.
func Prefixes(text string, chunk int) []string {
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return []string{""}
	}

	var out []string
	pos := 0
	for pos < len(runes) {
		pos += chunk
		if pos > len(runes) {
			pos = len(runes)
		}
		out = append(out, string(runes[:pos]))
	}
	return out
}

// =============================================================================
// TASK
// =============================================================================

// Task is a running reveal.
type Task struct {
	stop    chan struct{}
	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

// Start reveals text in the background, calling update for every prefix.
// The task ends when the text is fully shown, Stop is called, or ctx is done.
func Start(ctx context.Context, text string, opts Options, update UpdateFunc) *Task {
	t := &Task{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run(ctx, text, opts.normalized(), update)
	return t
}

// Reveal runs a reveal to completion on the calling goroutine.
func Reveal(ctx context.Context, text string, opts Options, update UpdateFunc) Outcome {
	return Start(ctx, text, opts, update).Wait()
}

// Stop asks the task to end before its next chunk. It is safe to call more
// than once and after the task has finished.
func (t *Task) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// Wait blocks until the task has delivered its final update.
func (t *Task) Wait() Outcome {
	<-t.done
	return t.outcome
}

// Done is closed once the final update has been delivered.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) run(ctx context.Context, text string, opts Options, update UpdateFunc) {
	defer close(t.done)

	prefixes := Prefixes(text, opts.ChunkSize)
	last := ""

	var timer *time.Timer
	if opts.Delay > 0 {
		timer = time.NewTimer(opts.Delay)
		timer.Stop()
		defer timer.Stop()
	}

	for i, p := range prefixes {
		if t.stopped(ctx) {
			t.interrupt(last, update)
			return
		}
		if i == len(prefixes)-1 {
			update(p, model.StatusComplete)
			t.outcome = Outcome{Text: p}
			return
		}
		update(p, model.StatusStreaming)
		last = p

		if timer == nil {
			continue
		}
		timer.Reset(opts.Delay)
		select {
		case <-timer.C:
		case <-t.stop:
			t.interrupt(last, update)
			return
		case <-ctx.Done():
			t.interrupt(last, update)
			return
		}
	}
}

func (t *Task) stopped(ctx context.Context) bool {
	select {
	case <-t.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (t *Task) interrupt(last string, update UpdateFunc) {
	update(last, model.StatusInterrupted)
	t.outcome = Outcome{Text: last, Interrupted: true}
}
