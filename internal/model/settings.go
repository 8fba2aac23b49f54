// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"math"
	"strings"
)

// =============================================================================
// THEME
// =============================================================================

// Theme is the colour scheme preference.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeLight {
		return ThemeDark
	}
	return ThemeLight
}

// ParseTheme maps a free-form string onto a Theme, defaulting to dark.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeLight)) {
		return ThemeLight
	}
	return ThemeDark
}

// =============================================================================
// SETTINGS
// =============================================================================

// DefaultSystemPrompt is used until the user configures their own.
const DefaultSystemPrompt = "You are a helpful assistant. Answer concisely and accurately."

// DefaultTemperature is used when no valid temperature is configured.
const DefaultTemperature = 0.7

// ErrTemperatureRange is returned when a temperature lies outside [0, 1].
var ErrTemperatureRange = errors.New("temperature must be between 0 and 1")

// ErrMaxTokensRange is returned for a negative token limit.
var ErrMaxTokensRange = errors.New("max tokens must be a positive integer")

// Settings are the user-editable generation options. MaxTokens of zero means
// no limit is sent.
type Settings struct {
	EndpointURL  string
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
	Theme        Theme
}

// DefaultSettings returns settings with an empty endpoint and credential.
func DefaultSettings() Settings {
	return Settings{
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  DefaultTemperature,
		Theme:        ThemeDark,
	}
}

// Configured reports whether both the endpoint and the credential are set.
func (s Settings) Configured() bool {
	return strings.TrimSpace(s.EndpointURL) != "" && strings.TrimSpace(s.APIKey) != ""
}

// EffectiveTemperature returns Temperature, or DefaultTemperature when it is
// outside [0, 1] or not a number.
func (s Settings) EffectiveTemperature() float64 {
	if math.IsNaN(s.Temperature) || s.Temperature < 0 || s.Temperature > 1 {
		return DefaultTemperature
	}
	return s.Temperature
}

// Validate checks numeric ranges. Endpoint and key may be blank; sending
// reports that separately.
func (s Settings) Validate() error {
	var errs []error
	if math.IsNaN(s.Temperature) || s.Temperature < 0 || s.Temperature > 1 {
		errs = append(errs, ErrTemperatureRange)
	}
	if s.MaxTokens < 0 {
		errs = append(errs, ErrMaxTokensRange)
	}
	return errors.Join(errs...)
}
