// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/model"
)

func TestParseResponse_Strategies(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		want     string
		strategy string
	}{
		{"openai chat", `{"choices":[{"message":{"content":"hi"}}]}`, "hi", "choices"},
		{"openai legacy", `{"choices":[{"text":"legacy"}]}`, "legacy", "choices"},
		{"gemini", `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}}]}`, "ab", "candidates"},
		{"flat output", `{"output":"out"}`, "out", "output"},
		{"flat text", `{"text":"plain"}`, "plain", "text"},
		{"empty content still matches", `{"choices":[{"message":{"content":""}}]}`, "", "choices"},
		{"choices wins over output", `{"choices":[{"message":{"content":"first"}}],"output":"second"}`, "first", "choices"},
		{"empty choices falls through", `{"choices":[],"text":"fallback"}`, "fallback", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, strategy, err := ParseResponse([]byte(tt.payload), DefaultParsers)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
			assert.Equal(t, tt.strategy, strategy)
		})
	}
}

func TestParseResponse_NoMatch(t *testing.T) {
	for _, payload := range []string{`{}`, `[]`, `{"output":42}`, `{"candidates":[]}`, `not json`} {
		_, _, err := ParseResponse([]byte(payload), DefaultParsers)
		assert.ErrorIs(t, err, ErrUnrecognizedResponse, payload)
	}
}

func TestBuildContext(t *testing.T) {
	var msgs []model.Message
	for i := 0; i < 15; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		msgs = append(msgs, model.NewMessage(role, string(rune('a'+i)), model.StatusComplete))
	}
	msgs = append(msgs, model.NewMessage(model.RoleAssistant, "", model.StatusSending))

	turns := BuildContext("be nice", msgs, DefaultContextWindow)
	require.Len(t, turns, 13)
	assert.Equal(t, Turn{Role: "system", Content: "be nice"}, turns[0])
	assert.Equal(t, "d", turns[1].Content, "oldest of the last 12 non-empty messages")
	assert.Equal(t, "o", turns[12].Content)
}

func TestBuildContext_NoSystemPrompt(t *testing.T) {
	msgs := []model.Message{model.NewMessage(model.RoleUser, "hi", model.StatusSent)}
	turns := BuildContext("   ", msgs, DefaultContextWindow)
	assert.Equal(t, []Turn{{Role: "user", Content: "hi"}}, turns)
}
