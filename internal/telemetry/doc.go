// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records client-side request metrics for rigchat.
//
// Metrics are kept in a private Prometheus registry so tests and multiple
// sessions never collide. They can be exposed on a local /metrics listener
// when [metrics] addr is configured.
//
// # Key Types
//
//   - Metrics: counters and histograms for completions, retries and throttling
//
// # Usage
//
//	m := telemetry.New()
//	m.ObserveAttempt()
//	m.ObserveCompletion(telemetry.OutcomeSuccess, elapsed)
//	go m.Serve(ctx, "127.0.0.1:9464", logger)
//
// Every method is safe to call on a nil *Metrics.
package telemetry
