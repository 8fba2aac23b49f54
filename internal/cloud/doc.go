// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud sends chat context to a configurable HTTP completion
// endpoint and extracts the reply text.
//
// The endpoint URL and bearer credential come from the user's settings, so a
// Client works against any OpenAI-compatible or Gemini-compatible service.
//
// # Key Types
//
//   - Client: retrying completion client
//   - Request: settings plus the context turns for one completion
//   - ResponseParser: one named strategy for extracting reply text
//
// # Errors
//
//   - *ConfigError: endpoint or credential missing, returned before any I/O
//   - *HTTPStatusError: non-2xx reply, retried
//   - *UnrecognizedResponseError: 2xx reply with no known shape, not retried
//   - ErrRetriesExhausted: wraps the last transient failure
//
// # Usage
//
//	client := cloud.NewClient().WithLogger(logger)
//	reply, err := client.Complete(ctx, cloud.Request{
//	    Settings: settings,
//	    Turns:    cloud.BuildContext(settings.SystemPrompt, messages, cloud.DefaultContextWindow),
//	})
package cloud
