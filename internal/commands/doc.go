// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system shared by the TUI and
// the line-mode REPL.
//
// Handlers operate on a Session and return a Result describing what the
// surface should show or do. They never touch the terminal themselves.
//
// # Key Types
//
//   - Registry: Command registry with all available commands
//   - Parser: Splits input into a command and its arguments
//   - Result: Output text plus an Action for the surface
//   - Completer: Tab completion for command names and arguments
//
// # Usage
//
//	reg := commands.NewRegistry()
//	res, err := reg.Execute(ctx, "/rename Trip planning")
//	if res.Action == commands.ActionConfirm {
//	    // ask res.Prompt, then call res.Confirm()
//	}
package commands
