// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the active conversation and orchestrates sending.
//
// A Controller ties together the message Ledger, the conversation
// repository, the throttle gate, the completion client and the revealer. It
// is the only writer of the active conversation; every ledger mutation is
// written through to storage before the call returns.
//
// # Key Types
//
//   - Controller: send, new, switch, delete, rename, export and settings
//   - Ledger: the bounded, ordered message list of the active conversation
//   - Renderer: the surface the controller reports changes to
//
// # Concurrency
//
// Controller methods are safe for concurrent use. Send blocks for the
// duration of the request and reveal, so surfaces call it from a goroutine.
// Renderer methods are invoked in order, outside the controller lock, and
// must not call back into the Controller synchronously.
package session
