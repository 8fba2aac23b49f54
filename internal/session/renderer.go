// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/jeranaias/rigchat/internal/model"

// Renderer is the surface a Controller reports to.
type Renderer interface {
	// MessageAdded is called after a message is appended to the active
	// conversation.
	MessageAdded(m model.Message)

	// MessageUpdated is called after a message's status or text changed.
	MessageUpdated(m model.Message)

	// ConversationLoaded replaces everything shown for the active
	// conversation, after a switch, a new conversation or an eviction.
	ConversationLoaded(conv *model.Conversation)

	// ConversationRenamed is called when the active conversation's name
	// changes.
	ConversationRenamed(name string)

	// ConversationsChanged delivers the saved conversations, most recent
	// first.
	ConversationsChanged(list []*model.Conversation)

	// SettingsChanged is called after settings are loaded or edited.
	SettingsChanged(s model.Settings)

	// Status shows a short progress line such as "Sending...".
	Status(text string)

	// Alert shows a dismissible error notice.
	Alert(text string)
}

// NopRenderer ignores every call. Embed it to implement part of Renderer.
type NopRenderer struct{}

func (NopRenderer) MessageAdded(model.Message)                 {}
func (NopRenderer) MessageUpdated(model.Message)               {}
func (NopRenderer) ConversationLoaded(*model.Conversation)     {}
func (NopRenderer) ConversationRenamed(string)                 {}
func (NopRenderer) ConversationsChanged([]*model.Conversation) {}
func (NopRenderer) SettingsChanged(model.Settings)             {}
func (NopRenderer) Status(string)                              {}
func (NopRenderer) Alert(string)                               {}
