// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem only appears in request context, never in a ledger.
	RoleSystem Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// STATUS TYPE
// =============================================================================

// Status is the lifecycle state of a message.
//
// User messages are created as StatusSent. An assistant reply starts as a
// StatusSending placeholder, moves to StatusStreaming while it is revealed and
// ends as StatusComplete, StatusError or StatusInterrupted.
type Status string

const (
	StatusSent        Status = "sent"
	StatusSending     Status = "sending"
	StatusStreaming   Status = "streaming"
	StatusComplete    Status = "complete"
	StatusError       Status = "error"
	StatusInterrupted Status = "interrupted"
)

// Terminal reports whether no further transitions are expected.
func (s Status) Terminal() bool {
	switch s {
	case StatusSent, StatusComplete, StatusError, StatusInterrupted:
		return true
	}
	return false
}

// Pending reports whether the message is waiting on a remote reply or reveal.
func (s Status) Pending() bool {
	return s == StatusSending || s == StatusStreaming
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSent, StatusSending, StatusStreaming, StatusComplete, StatusError, StatusInterrupted:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single entry in a conversation ledger.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"time"`
	Status    Status    `json:"status"`

	// Seed marks the greeting inserted into a fresh conversation. Seeded
	// messages are shown and sent as context, but a conversation holding only
	// seeds is not saved and they do not count toward automatic naming.
	Seed bool `json:"seed,omitempty"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(role Role, text string, status Status) Message {
	return Message{
		ID:        NewID(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
		Status:    status,
	}
}

// NewID returns a random identifier for messages and conversations.
func NewID() string {
	return uuid.NewString()
}

// IsUser returns true if this is a user message.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant returns true if this is an assistant message.
func (m *Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}
