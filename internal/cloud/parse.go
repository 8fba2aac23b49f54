// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"encoding/json"
	"strings"
)

// ResponseParser extracts reply text from one response shape.
type ResponseParser interface {
	// Name identifies the strategy in logs.
	Name() string

	// Parse returns the reply and true when the payload has this shape.
	Parse(payload []byte) (string, bool)
}

// DefaultParsers is the priority order used by NewClient.
var DefaultParsers = []ResponseParser{
	ChoicesParser{},
	CandidatesParser{},
	FlatFieldParser{Field: "output"},
	FlatFieldParser{Field: "text"},
}

// ParseResponse runs parsers in order and returns the first match.
func ParseResponse(payload []byte, parsers []ResponseParser) (text string, matched string, err error) {
	for _, p := range parsers {
		if text, ok := p.Parse(payload); ok {
			return text, p.Name(), nil
		}
	}
	return "", "", newUnrecognized(payload)
}

// =============================================================================
// STRATEGIES
// =============================================================================

// ChoicesParser handles OpenAI-style replies: choices[0].message.content, or
// choices[0].text for legacy completion endpoints.
type ChoicesParser struct{}

func (ChoicesParser) Name() string { return "choices" }

func (ChoicesParser) Parse(payload []byte) (string, bool) {
	var resp struct {
		Choices []struct {
			Message *struct {
				Content *string `json:"content"`
			} `json:"message"`
			Text *string `json:"text"`
		} `json:"choices"`
	}
	if json.Unmarshal(payload, &resp) != nil || len(resp.Choices) == 0 {
		return "", false
	}
	first := resp.Choices[0]
	if first.Message != nil && first.Message.Content != nil {
		return *first.Message.Content, true
	}
	if first.Text != nil {
		return *first.Text, true
	}
	return "", false
}

// CandidatesParser handles Gemini-style replies:
// candidates[0].content.parts[*].text, joined.
type CandidatesParser struct{}

func (CandidatesParser) Name() string { return "candidates" }

func (CandidatesParser) Parse(payload []byte) (string, bool) {
	var resp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text *string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if json.Unmarshal(payload, &resp) != nil || len(resp.Candidates) == 0 {
		return "", false
	}
	var sb strings.Builder
	found := false
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != nil {
			sb.WriteString(*part.Text)
			found = true
		}
	}
	return sb.String(), found
}

// FlatFieldParser handles replies that carry the text in a top-level string
// field such as {"output": "..."}.
type FlatFieldParser struct {
	Field string
}

func (p FlatFieldParser) Name() string { return p.Field }

func (p FlatFieldParser) Parse(payload []byte) (string, bool) {
	var resp map[string]json.RawMessage
	if json.Unmarshal(payload, &resp) != nil {
		return "", false
	}
	raw, ok := resp[p.Field]
	if !ok {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}
