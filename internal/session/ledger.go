// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/jeranaias/rigchat/internal/model"

// DefaultMaxMessages is the ledger cap.
const DefaultMaxMessages = 200

// Ledger is an ordered message list with a length cap. When the cap is
// exceeded the oldest messages are dropped. It is not safe for concurrent
// use; the Controller serialises access.
type Ledger struct {
	messages []model.Message
	max      int
}

// NewLedger creates an empty ledger holding at most max messages.
func NewLedger(max int) *Ledger {
	if max <= 0 {
		max = DefaultMaxMessages
	}
	return &Ledger{max: max}
}

// Append adds m at the end and returns how many old messages were evicted.
func (l *Ledger) Append(m model.Message) int {
	l.messages = append(l.messages, m)
	return l.trim()
}

// Update changes the status, and the text when text is non-nil, of the
// message with the given ID. It reports false and changes nothing when the
// message is absent, for example after eviction.
func (l *Ledger) Update(id string, status model.Status, text *string) (model.Message, bool) {
	i := l.index(id)
	if i < 0 {
		return model.Message{}, false
	}
	l.messages[i].Status = status
	if text != nil {
		l.messages[i].Text = *text
	}
	return l.messages[i], true
}

// Find returns the message with the given ID.
func (l *Ledger) Find(id string) (model.Message, bool) {
	i := l.index(id)
	if i < 0 {
		return model.Message{}, false
	}
	return l.messages[i], true
}

// Messages returns a copy of the ledger contents.
func (l *Ledger) Messages() []model.Message {
	out := make([]model.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Recent returns a copy of the newest n messages, oldest first. A
// non-positive n or one beyond Len returns everything.
func (l *Ledger) Recent(n int) []model.Message {
	if n <= 0 || n > len(l.messages) {
		return l.Messages()
	}
	out := make([]model.Message, n)
	copy(out, l.messages[len(l.messages)-n:])
	return out
}

// Reset replaces the contents, keeping only the newest max messages.
func (l *Ledger) Reset(msgs []model.Message) {
	l.messages = make([]model.Message, len(msgs))
	copy(l.messages, msgs)
	l.trim()
}

// Len returns the number of messages.
func (l *Ledger) Len() int {
	return len(l.messages)
}

// Max returns the cap.
func (l *Ledger) Max() int {
	return l.max
}

// Real returns the messages that are not seeded greetings.
func (l *Ledger) Real() []model.Message {
	var out []model.Message
	for _, m := range l.messages {
		if !m.Seed {
			out = append(out, m)
		}
	}
	return out
}

func (l *Ledger) index(id string) int {
	for i := len(l.messages) - 1; i >= 0; i-- {
		if l.messages[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) trim() int {
	over := len(l.messages) - l.max
	if over <= 0 {
		return 0
	}
	kept := make([]model.Message, l.max)
	copy(kept, l.messages[over:])
	l.messages = kept
	return over
}
