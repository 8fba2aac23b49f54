// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the domain types shared by every rigchat component.
//
// # Key Types
//
//   - Message: one chat entry with a role, text and lifecycle Status
//   - Conversation: a named, ordered list of messages plus its save time
//   - Settings: user-editable endpoint, credential and generation options
//   - Status: the message state machine (sent, sending, streaming, ...)
//
// # Usage
//
//	conv := model.NewConversation("New Conversation")
//	msg := model.NewMessage(model.RoleUser, "Hello!", model.StatusSent)
//	conv.Messages = append(conv.Messages, msg)
package model
