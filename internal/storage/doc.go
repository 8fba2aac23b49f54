// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists rigchat documents under string keys.
//
// A Store encodes documents as JSON and hands the bytes to a Backend. Three
// backends are provided:
//
//   - FileBackend: one <key>.json file per document, written atomically
//   - SQLiteBackend: a single documents table (pure Go, modernc.org/sqlite)
//   - MemoryBackend: process-local, used by tests and --ephemeral
//
// Two documents are stored: KeySettings and KeyConversations. Writes to one
// document never touch the other.
//
// Corrupt data is never fatal: Load logs it and reports the document as
// absent, so the caller falls back to defaults.
package storage
