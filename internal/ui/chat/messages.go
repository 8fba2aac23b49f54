// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/rigchat/internal/commands"
	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// MessageAddedMsg reports a message appended to the active conversation.
type MessageAddedMsg struct {
	Message model.Message
}

// MessageUpdatedMsg reports a changed message.
type MessageUpdatedMsg struct {
	Message model.Message
}

// ConversationLoadedMsg replaces the whole displayed conversation.
type ConversationLoadedMsg struct {
	Conversation *model.Conversation
}

// ConversationRenamedMsg carries the active conversation's new name.
type ConversationRenamedMsg struct {
	Name string
}

// ConversationsChangedMsg carries the saved conversations, newest first.
type ConversationsChangedMsg struct {
	Conversations []*model.Conversation
}

// SettingsChangedMsg carries the current settings.
type SettingsChangedMsg struct {
	Settings model.Settings
}

// StatusMsg carries a progress line.
type StatusMsg struct {
	Text string
}

// AlertMsg raises a dismissible error notice.
type AlertMsg struct {
	Text string
}

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

// clearAlertMsg hides the alert raised with the same sequence number.
type clearAlertMsg struct {
	seq int
}

// sendDoneMsg signals that a Send call returned.
type sendDoneMsg struct {
	err error
}

// commandResultMsg carries the outcome of a slash command.
type commandResultMsg struct {
	result commands.Result
	err    error
}
