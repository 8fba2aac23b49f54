// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigchat/internal/model"
)

// View renders the chat view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderNotice(),
		m.theme.InputContainer.Width(m.width).Render(m.input.View()),
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER AND STATUS
// =============================================================================

// renderHeader renders the title bar with the conversation name.
func (m Model) renderHeader() string {
	left := m.theme.HeaderTitle.Render("rigchat") + "  " + m.theme.HeaderSubtitle.Render(m.name)
	right := m.theme.Muted.Render(fmt.Sprintf("%d saved", m.saved))
	return m.theme.Header.Width(m.width).Render(spread(left, right, m.width-2))
}

// renderNotice renders the alert, a pending confirmation or completion hints.
func (m Model) renderNotice() string {
	switch {
	case m.confirm != nil:
		return m.theme.Confirm.Render(m.confirm.Prompt + " [y/N]")
	case m.alert != "":
		return m.theme.Alert.Render(m.alert)
	case m.hint != "":
		return m.theme.Muted.Render(m.hint)
	}
	return ""
}

// renderStatusBar renders the bottom status bar.
func (m Model) renderStatusBar() string {
	left := m.status
	if m.Busy() {
		left = m.spinner.View() + " " + left
	}
	hints := "enter send  /help commands  ctrl+c quit"
	if m.Busy() {
		hints = "esc cancel"
	}
	if s := m.settings.Model; s != "" {
		hints = s + "  " + hints
	}
	return m.theme.StatusBar.Width(m.width).Render(
		spread(m.theme.StatusText.Render(left), m.theme.Muted.Render(hints), m.width-2))
}

// spread places left and right at the two ends of width.
func spread(left, right string, width int) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

// =============================================================================
// CONVERSATION
// =============================================================================

// renderConversation renders every message followed by command output.
func (m *Model) renderConversation() string {
	var b strings.Builder
	for i := range m.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(m.messages[i]))
		b.WriteString("\n")
	}
	if m.output != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.CommandOutput.Render(m.output))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderMessage(msg model.Message) string {
	label := m.theme.AssistantLabel.Render("Assistant")
	body := m.theme.AssistantText
	if msg.IsUser() {
		label = m.theme.UserLabel.Render("You")
		body = m.theme.UserText
	} else if msg.Seed {
		body = m.theme.SeedText
	}

	header := label + " " + m.theme.Timestamp.Render(msg.CreatedAt.Format("15:04"))
	if badge := m.theme.StatusBadge(msg.Status); badge != "" {
		header += " " + badge
	}

	text := msg.Text
	switch {
	case text == "" && (msg.Status == model.StatusSending || msg.Status == model.StatusStreaming):
		text = m.theme.Pending.Render("...")
	case msg.IsAssistant() && msg.Status == model.StatusComplete && !msg.Seed:
		text = m.markdownFor(msg)
	}
	return header + "\n" + body.Width(m.contentWidth()).Render(text)
}

// markdownFor renders a finished reply, reusing an earlier rendering of the
// same text at the same width.
func (m *Model) markdownFor(msg model.Message) string {
	if m.markdown == nil {
		return msg.Text
	}
	width := m.contentWidth()
	if r, ok := m.rendered[msg.ID]; ok && r.text == msg.Text && r.width == width {
		return r.out
	}
	out, err := m.markdown.Render(msg.Text)
	if err != nil {
		return msg.Text
	}
	out = strings.Trim(out, "\n")
	m.rendered[msg.ID] = renderedReply{text: msg.Text, width: width, out: out}
	return out
}
