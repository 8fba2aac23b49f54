// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"strings"

	"github.com/jeranaias/rigchat/internal/model"
)

// DefaultContextWindow is how many recent messages are sent with a request.
const DefaultContextWindow = 12

// Turn is one entry of the request context.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildContext returns the system prompt (when non-blank) followed by the
// last window messages. Messages without text, such as a pending placeholder
// or a failed reply, are skipped before the window is applied.
func BuildContext(systemPrompt string, messages []model.Message, window int) []Turn {
	usable := make([]model.Message, 0, len(messages))
	for _, m := range messages {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		if m.Role != model.RoleUser && m.Role != model.RoleAssistant {
			continue
		}
		usable = append(usable, m)
	}
	if window > 0 && len(usable) > window {
		usable = usable[len(usable)-window:]
	}

	turns := make([]Turn, 0, len(usable)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		turns = append(turns, Turn{Role: string(model.RoleSystem), Content: systemPrompt})
	}
	for _, m := range usable {
		turns = append(turns, Turn{Role: string(m.Role), Content: m.Text})
	}
	return turns
}
