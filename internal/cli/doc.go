// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI surfaces of
// rigchat.
//
// # Key Types
//
//   - Command: Enumeration of the available subcommands
//   - Args: Parsed global flags and subcommand arguments
//   - App: The wired storage, client and session controller shared by all
//     surfaces
//   - REPL: The line-oriented chat loop behind "rigchat chat"
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	cfg, err := cli.LoadConfig(args)
//	err = cli.Run(cmd, args, cfg)
//
// Handlers return errors; main prints them and exits with status 1.
package cli
