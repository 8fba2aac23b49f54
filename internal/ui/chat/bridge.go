// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
)

// Bridge adapts session.Renderer calls into tea messages.
//
// Calls never block: messages are queued and a single pump delivers them to
// the program in the order they were made. Messages queued before Run are
// held until it starts.
type Bridge struct {
	mu    sync.Mutex
	queue []tea.Msg

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

var _ session.Renderer = (*Bridge)(nil)

// NewBridge creates an idle bridge.
func NewBridge() *Bridge {
	return &Bridge{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Run delivers queued messages with send until Close is called. Pass
// (*tea.Program).Send and run it on its own goroutine.
func (b *Bridge) Run(send func(tea.Msg)) {
	for {
		b.mu.Lock()
		batch := b.queue
		b.queue = nil
		b.mu.Unlock()

		for _, msg := range batch {
			select {
			case <-b.done:
				return
			default:
			}
			send(msg)
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-b.wake:
		case <-b.done:
			return
		}
	}
}

// Close stops Run. Messages still queued are dropped.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

// Pending returns the number of undelivered messages.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func (b *Bridge) post(msg tea.Msg) {
	b.mu.Lock()
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// =============================================================================
// RENDERER
// =============================================================================

func (b *Bridge) MessageAdded(m model.Message) { b.post(MessageAddedMsg{Message: m}) }

func (b *Bridge) MessageUpdated(m model.Message) { b.post(MessageUpdatedMsg{Message: m}) }

func (b *Bridge) ConversationLoaded(conv *model.Conversation) {
	b.post(ConversationLoadedMsg{Conversation: conv.Clone()})
}

func (b *Bridge) ConversationRenamed(name string) { b.post(ConversationRenamedMsg{Name: name}) }

func (b *Bridge) ConversationsChanged(list []*model.Conversation) {
	b.post(ConversationsChangedMsg{Conversations: list})
}

func (b *Bridge) SettingsChanged(s model.Settings) { b.post(SettingsChangedMsg{Settings: s}) }

func (b *Bridge) Status(text string) { b.post(StatusMsg{Text: text}) }

func (b *Bridge) Alert(text string) { b.post(AlertMsg{Text: text}) }
