// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes point-in-time snapshots of the chat history to files.
//
// # Formats
//
//   - JSON: the active conversation's messages and title, the export time and
//     every stored conversation, suitable for backup or re-import
//   - Markdown: the active conversation only, for reading or sharing
//
// # Usage
//
//	snap := export.Snapshot{Active: conv, All: repo.All(), ExportedAt: time.Now()}
//	path, err := export.ToFile(snap, export.NewJSONExporter(), dir)
package export
