// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/rigchat/internal/model"
)

// MarkdownExporter writes the active conversation as a Markdown transcript.
type MarkdownExporter struct {
	// IncludeTimestamps adds the send time to every message heading.
	IncludeTimestamps bool
}

// NewMarkdownExporter creates a Markdown exporter with timestamps enabled.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{IncludeTimestamps: true}
}

func (e *MarkdownExporter) Export(s Snapshot) ([]byte, error) {
	if s.Active == nil {
		return nil, ErrNoConversation
	}
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", s.Active.Name)
	fmt.Fprintf(&sb, "_Exported %s_\n\n", s.ExportedAt.Format("2006-01-02 15:04"))

	for _, m := range s.Active.Messages {
		if m.Seed {
			continue
		}
		sb.WriteString("---\n\n")
		heading := "### " + m.Role.DisplayName()
		if e.IncludeTimestamps && !m.CreatedAt.IsZero() {
			heading += " (" + m.CreatedAt.Format("15:04") + ")"
		}
		if m.Status == model.StatusError || m.Status == model.StatusInterrupted {
			heading += " [" + string(m.Status) + "]"
		}
		sb.WriteString(heading + "\n\n")
		sb.WriteString(strings.TrimRight(m.Text, "\n"))
		sb.WriteString("\n\n")
	}
	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) FileExtension() string { return ".md" }

func (e *MarkdownExporter) MimeType() string { return "text/markdown" }
