// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/model"
)

func sampleSnapshot() Snapshot {
	conv := model.NewConversation("Capital question")
	greeting := model.NewMessage(model.RoleAssistant, "Hello! How can I help?", model.StatusComplete)
	greeting.Seed = true
	conv.Messages = append(conv.Messages,
		greeting,
		model.NewMessage(model.RoleUser, "What is the capital of France?", model.StatusSent),
		model.NewMessage(model.RoleAssistant, "Paris.", model.StatusComplete),
	)
	other := model.NewConversation("Other")
	return Snapshot{
		Active:     conv,
		All:        map[string]*model.Conversation{conv.ID: conv, other.ID: other},
		ExportedAt: time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func TestJSONExporter_Shape(t *testing.T) {
	data, err := NewJSONExporter().Export(sampleSnapshot())
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.ElementsMatch(t, []string{"messages", "title", "exportedAt", "allConversations"}, keys(doc))

	var title string
	require.NoError(t, json.Unmarshal(doc["title"], &title))
	assert.Equal(t, "Capital question", title)

	var all map[string]model.Conversation
	require.NoError(t, json.Unmarshal(doc["allConversations"], &all))
	assert.Len(t, all, 2)

	var msgs []model.Message
	require.NoError(t, json.Unmarshal(doc["messages"], &msgs))
	assert.Len(t, msgs, 3)
}

func TestToFile(t *testing.T) {
	dir := t.TempDir()
	path, err := ToFile(sampleSnapshot(), NewJSONExporter(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "chat-export-2025-03-04T05-06-07.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestToFile_NoActive(t *testing.T) {
	_, err := ToFile(Snapshot{}, NewJSONExporter(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoConversation)
}

func TestMarkdownExporter(t *testing.T) {
	snap := sampleSnapshot()
	snap.Active.Messages[2].Status = model.StatusInterrupted

	data, err := NewMarkdownExporter().Export(snap)
	require.NoError(t, err)
	out := string(data)

	assert.True(t, strings.HasPrefix(out, "# Capital question\n"))
	assert.Contains(t, out, "What is the capital of France?")
	assert.Contains(t, out, "[interrupted]")
	assert.NotContains(t, out, "How can I help", "seed greeting is omitted")
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
