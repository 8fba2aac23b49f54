// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// DefaultConversationName is given to conversations that have not been named
// yet, either automatically or by the user.
const DefaultConversationName = "New Conversation"

// Conversation is a named, ordered list of messages.
type Conversation struct {
	ID          string    `json:"id"`
	Name        string    `json:"convName"`
	Messages    []Message `json:"messages"`
	LastSavedAt time.Time `json:"time"`
}

// NewConversation creates an empty conversation with a fresh ID.
func NewConversation(name string) *Conversation {
	if name == "" {
		name = DefaultConversationName
	}
	return &Conversation{
		ID:       NewID(),
		Name:     name,
		Messages: []Message{},
	}
}

// IsEmpty reports whether the conversation holds no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// Last returns the most recent message, or nil if there is none.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Clone returns a deep copy. The messages slice is never shared.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}

// UserTurns counts non-seed user messages.
func (c *Conversation) UserTurns() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser && !m.Seed {
			n++
		}
	}
	return n
}
