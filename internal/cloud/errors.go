// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/rigchat/internal/util"
)

var (
	// ErrNotConfigured indicates the endpoint URL or API key is missing.
	ErrNotConfigured = errors.New("API URL or API key is missing; check your settings")

	// ErrRetriesExhausted wraps the final transient failure.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrUnrecognizedResponse is matched by every *UnrecognizedResponseError.
	ErrUnrecognizedResponse = errors.New("unexpected response from API")
)

// dumpLimit bounds the payload excerpt carried by UnrecognizedResponseError.
const dumpLimit = 100

// bodyLimit bounds the response body captured into HTTPStatusError.
const bodyLimit = 2048

// ConfigError reports missing settings. It is returned before any network
// call and is never retried.
type ConfigError struct {
	Fields []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v (missing: %s)", ErrNotConfigured, strings.Join(e.Fields, ", "))
}

func (e *ConfigError) Unwrap() error {
	return ErrNotConfigured
}

// HTTPStatusError is a non-2xx reply. Body holds the start of the response.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, body)
}

// UnrecognizedResponseError is a successful reply that no parser matched.
type UnrecognizedResponseError struct {
	// Dump is the start of the payload, at most 100 runes.
	Dump string
}

func newUnrecognized(payload []byte) *UnrecognizedResponseError {
	return &UnrecognizedResponseError{Dump: util.Clip(string(payload), dumpLimit)}
}

func (e *UnrecognizedResponseError) Error() string {
	return ErrUnrecognizedResponse.Error() + ": " + e.Dump
}

func (e *UnrecognizedResponseError) Unwrap() error {
	return ErrUnrecognizedResponse
}
