// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
)

// artifact is the JSON export document.
type artifact struct {
	Messages         []model.Message                `json:"messages"`
	Title            string                         `json:"title"`
	ExportedAt       time.Time                      `json:"exportedAt"`
	AllConversations map[string]*model.Conversation `json:"allConversations"`
}

// JSONExporter writes the full snapshot as indented JSON.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

func (e *JSONExporter) Export(s Snapshot) ([]byte, error) {
	if s.Active == nil {
		return nil, ErrNoConversation
	}
	doc := artifact{
		Messages:         s.Active.Messages,
		Title:            s.Active.Name,
		ExportedAt:       s.ExportedAt,
		AllConversations: s.All,
	}
	if doc.Messages == nil {
		doc.Messages = []model.Message{}
	}
	if doc.AllConversations == nil {
		doc.AllConversations = map[string]*model.Conversation{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (e *JSONExporter) FileExtension() string { return ".json" }

func (e *JSONExporter) MimeType() string { return "application/json" }
