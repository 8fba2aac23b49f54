// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for rigchat.
//
// # Key Types
//
//   - Config: Main configuration structure
//   - StorageConfig: Data directory and persistence backend
//   - EndpointConfig: Defaults for chat settings that were never saved
//   - ChatConfig: Cooldown, retries, reveal pacing and naming
//   - ValidateErrors: Every problem found by Validate
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (RIGCHAT_*), including those from .env files
//   - ~/.rigchat/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	dir, _ := cfg.DataDir()
package config
