// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat view for rigchat.

The view is a Bubble Tea model driven by a session.Controller. The
controller never runs inside Update: sends and slash commands execute as
tea.Cmd goroutines, and the controller reports back through a Bridge,
which turns renderer calls into tea messages delivered in order.

# Layout

  - Header with the conversation name and the number of saved conversations
  - Viewport with the ledger, assistant replies rendered as Markdown
  - Alert or confirmation line
  - Input line with slash command completion on Tab
  - Status bar with a spinner while a request is in flight

# Keys

	enter        send the message or run the command
	tab          complete a slash command
	esc          cancel the request in flight
	ctrl+c       cancel the request in flight, or quit when idle
	pgup/pgdown  scroll the conversation
	y/n          answer a confirmation
*/
package chat
