// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/model"
)

type update struct {
	text   string
	status model.Status
}

type recorder struct {
	mu      sync.Mutex
	updates []update
}

func (r *recorder) Update(text string, status model.Status) {
	r.mu.Lock()
	r.updates = append(r.updates, update{text, status})
	r.mu.Unlock()
}

func (r *recorder) snapshot() []update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]update(nil), r.updates...)
}

func TestReveal_HelloWorld(t *testing.T) {
	rec := &recorder{}
	out := Reveal(context.Background(), "Hello World", Options{ChunkSize: 5}, rec.Update)

	assert.Equal(t, []update{
		{"Hello", model.StatusStreaming},
		{"Hello Worl", model.StatusStreaming},
		{"Hello World", model.StatusComplete},
	}, rec.snapshot())
	assert.Equal(t, Outcome{Text: "Hello World"}, out)
}

func TestReveal_EmptyText(t *testing.T) {
	rec := &recorder{}
	out := Reveal(context.Background(), "", DefaultOptions(), rec.Update)
	assert.Equal(t, []update{{"", model.StatusComplete}}, rec.snapshot())
	assert.False(t, out.Interrupted)
}

func TestPrefixes(t *testing.T) {
	tests := []struct {
		text  string
		chunk int
		want  []string
	}{
		{"short", 10, []string{"short"}},
		{"one two three four", 4, []string{"one ", "one two ", "one two thre", "one two three fo", "one two three four"}},
		{"abcdefghijklmnop", 5, []string{"abcde", "abcdefghij", "abcdefghijklmno", "abcdefghijklmnop"}},
		{"çay ve şeker", 4, []string{"çay ", "çay ve ş", "çay ve şeker"}},
		{"日本語のテキスト", 3, []string{"日本語", "日本語のテキ", "日本語のテキスト"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Prefixes(tt.text, tt.chunk), tt.text)
	}
}

func TestReveal_NoWhitespaceStillStreams(t *testing.T) {
	rec := &recorder{}
	url := "https://example.com/" + strings.Repeat("x", 30)
	out := Reveal(context.Background(), url, Options{ChunkSize: 10}, rec.Update)

	updates := rec.snapshot()
	require.Len(t, updates, 5)
	for i, u := range updates[:4] {
		assert.Equal(t, model.StatusStreaming, u.status)
		assert.Len(t, []rune(u.text), 10*(i+1))
	}
	assert.Equal(t, update{url, model.StatusComplete}, updates[4])
	assert.False(t, out.Interrupted)
}

func TestPrefixes_AlwaysEndsWithFullText(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor ", 40)
	for chunk := 1; chunk < 30; chunk++ {
		p := Prefixes(text, chunk)
		require.NotEmpty(t, p)
		assert.Equal(t, text, p[len(p)-1])
		for i := 1; i < len(p); i++ {
			assert.True(t, strings.HasPrefix(p[i], p[i-1]))
			assert.Greater(t, len(p[i]), len(p[i-1]))
		}
	}
}

func TestTask_StopLeavesLastPrefixInterrupted(t *testing.T) {
	rec := &recorder{}
	text := strings.Repeat("word ", 100)

	first := make(chan struct{})
	var once sync.Once
	task := Start(context.Background(), text, Options{ChunkSize: 5, Delay: time.Hour}, func(s string, st model.Status) {
		rec.Update(s, st)
		once.Do(func() { close(first) })
	})

	<-first
	task.Stop()
	task.Stop()
	out := task.Wait()

	updates := rec.snapshot()
	require.Len(t, updates, 2)
	assert.Equal(t, model.StatusStreaming, updates[0].status)
	assert.Equal(t, update{updates[0].text, model.StatusInterrupted}, updates[1])
	assert.True(t, out.Interrupted)
	assert.Equal(t, updates[0].text, out.Text)
}

func TestTask_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	out := Reveal(ctx, "Hello World", Options{ChunkSize: 5}, rec.Update)
	assert.True(t, out.Interrupted)
	assert.Equal(t, []update{{"", model.StatusInterrupted}}, rec.snapshot())
}

func TestTask_DoneChannel(t *testing.T) {
	task := Start(context.Background(), "a b c", Options{ChunkSize: 1}, func(string, model.Status) {})
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reveal without delay did not finish")
	}
	task.Stop() // after completion is a no-op
	assert.False(t, task.Wait().Interrupted)
}
