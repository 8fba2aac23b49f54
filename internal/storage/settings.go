// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"strconv"
	"strings"

	"github.com/jeranaias/rigchat/internal/model"
)

// settingsDocument is the persisted form of model.Settings. Numbers are kept
// as strings so an empty max token field round-trips as "no limit".
type settingsDocument struct {
	APIURL       string `json:"apiUrl"`
	APIKey       string `json:"apiKey"`
	Model        string `json:"model,omitempty"`
	SystemPrompt string `json:"systemPrompt"`
	Theme        string `json:"theme"`
	Temperature  string `json:"temperature"`
	MaxTokens    string `json:"maxTokens"`
}

// encodeSettings converts settings to their persisted form.
func encodeSettings(s model.Settings) settingsDocument {
	doc := settingsDocument{
		APIURL:       s.EndpointURL,
		APIKey:       s.APIKey,
		Model:        s.Model,
		SystemPrompt: s.SystemPrompt,
		Theme:        string(s.Theme),
		Temperature:  strconv.FormatFloat(s.Temperature, 'f', -1, 64),
	}
	if s.MaxTokens > 0 {
		doc.MaxTokens = strconv.Itoa(s.MaxTokens)
	}
	return doc
}

// decodeSettings converts a persisted document, falling back to the defaults
// for fields that are missing or do not parse.
func decodeSettings(doc settingsDocument, defaults model.Settings) model.Settings {
	s := defaults
	s.EndpointURL = strings.TrimSpace(doc.APIURL)
	s.APIKey = strings.TrimSpace(doc.APIKey)
	s.Model = strings.TrimSpace(doc.Model)
	if doc.SystemPrompt != "" {
		s.SystemPrompt = doc.SystemPrompt
	}
	if doc.Theme != "" {
		s.Theme = model.ParseTheme(doc.Theme)
	}
	if t, err := strconv.ParseFloat(strings.TrimSpace(doc.Temperature), 64); err == nil && t >= 0 && t <= 1 {
		s.Temperature = t
	}
	s.MaxTokens = 0
	if n, err := strconv.Atoi(strings.TrimSpace(doc.MaxTokens)); err == nil && n > 0 {
		s.MaxTokens = n
	}
	return s
}

// SaveSettings writes the settings document.
func (s *Store) SaveSettings(settings model.Settings) error {
	return s.Save(KeySettings, encodeSettings(settings))
}

// LoadSettings reads the settings document. When it is missing or corrupt the
// defaults are returned with found set to false.
func (s *Store) LoadSettings(defaults model.Settings) (settings model.Settings, found bool) {
	var doc settingsDocument
	if !s.Load(KeySettings, &doc) {
		return defaults, false
	}
	return decodeSettings(doc, defaults), true
}
