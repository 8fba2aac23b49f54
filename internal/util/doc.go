// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across rigchat.
//
// # Key Functions
//
// Text:
//   - Prefix: NFC-normalised rune prefix with an optional "..." marker
//   - TruncateWidth: display-width truncation for list rendering
//   - Clip: plain rune truncation for log and alert text
//
// Files:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	title := util.Prefix(firstUserText, 20)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
