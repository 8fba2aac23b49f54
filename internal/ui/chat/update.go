// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigchat/internal/commands"
	"github.com/jeranaias/rigchat/internal/ui/styles"
	"github.com/jeranaias/rigchat/internal/util"
)

// maxAlertLength bounds the alert line.
const maxAlertLength = 100

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	// Session reports
	case MessageAddedMsg:
		m.messages = append(m.messages, msg.Message)
		m.refresh(true)
		return m, nil

	case MessageUpdatedMsg:
		for i := range m.messages {
			if m.messages[i].ID == msg.Message.ID {
				m.messages[i] = msg.Message
				break
			}
		}
		m.refresh(m.viewport.AtBottom())
		return m, nil

	case ConversationLoadedMsg:
		m.messages = nil
		m.name = ""
		if msg.Conversation != nil {
			m.messages = msg.Conversation.Messages
			m.name = msg.Conversation.Name
		}
		m.rendered = make(map[string]renderedReply)
		m.refresh(true)
		return m, nil

	case ConversationRenamedMsg:
		m.name = msg.Name
		return m, nil

	case ConversationsChangedMsg:
		m.saved = len(msg.Conversations)
		return m, nil

	case SettingsChangedMsg:
		themeChanged := msg.Settings.Theme != m.settings.Theme
		m.settings = msg.Settings
		if themeChanged {
			m.applyTheme(styles.NewTheme(msg.Settings.Theme))
			m.refresh(false)
		}
		return m, nil

	case StatusMsg:
		m.status = msg.Text
		return m, nil

	case AlertMsg:
		return m, m.showAlert(msg.Text)

	case clearAlertMsg:
		if msg.seq == m.alertSeq {
			m.alert = ""
		}
		return m, nil

	// Work started by the view
	case sendDoneMsg:
		if m.sending > 0 {
			m.sending--
		}
		return m, nil

	case commandResultMsg:
		return m.handleCommandResult(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirm != nil {
		return m.handleConfirmKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		if m.Busy() {
			return m, m.cancelCmd()
		}
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.Busy() {
			return m, m.cancelCmd()
		}
		m.hint = ""
		return m, nil

	case "enter":
		return m.submit()

	case "tab":
		m.complete()
		return m, nil

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	m.hint = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pending := m.confirm
	switch msg.String() {
	case "y", "Y", "enter":
		m.confirm = nil
		if pending.Confirm == nil {
			return m, nil
		}
		return m, func() tea.Msg {
			res, err := pending.Confirm()
			return commandResultMsg{result: res, err: err}
		}
	case "n", "N", "esc", "ctrl+c":
		m.confirm = nil
		m.output = "Cancelled."
		m.refresh(true)
	}
	return m, nil
}

// submit sends the input line or runs it as a command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()
	m.hint = ""
	m.output = ""

	if commands.IsCommand(text) {
		return m, m.commandCmd(text)
	}

	m.sending++
	s := m.session
	return m, func() tea.Msg {
		return sendDoneMsg{err: s.Send(context.Background(), text)}
	}
}

// complete applies tab completion to the input line.
func (m *Model) complete() {
	options := m.completer.Complete(m.input.Value())
	switch len(options) {
	case 0:
		m.hint = ""
		return
	case 1:
		m.input.SetValue(options[0].Value + " ")
		m.input.CursorEnd()
		m.hint = ""
		return
	}

	values := make([]string, len(options))
	shown := make([]string, len(options))
	for i, o := range options {
		values[i] = o.Value
		shown[i] = o.Display
	}
	if prefix := commonPrefix(values); len(prefix) > len(m.input.Value()) {
		m.input.SetValue(prefix)
		m.input.CursorEnd()
	}
	m.hint = strings.Join(shown, "  ")
}

func commonPrefix(values []string) string {
	if len(values) == 0 {
		return ""
	}
	prefix := values[0]
	for _, v := range values[1:] {
		for !strings.HasPrefix(v, prefix) {
			_, size := utf8.DecodeLastRuneInString(prefix)
			prefix = prefix[:len(prefix)-size]
		}
	}
	return prefix
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) commandCmd(input string) tea.Cmd {
	registry, ctx := m.registry, m.cmdCtx
	return func() tea.Msg {
		res, err := registry.Execute(ctx, input)
		return commandResultMsg{result: res, err: err}
	}
}

func (m Model) cancelCmd() tea.Cmd {
	s := m.session
	return func() tea.Msg {
		s.Cancel()
		return nil
	}
}

func (m Model) handleCommandResult(msg commandResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.showAlert(msg.err.Error())
	}
	res := msg.result
	switch res.Action {
	case commands.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case commands.ActionConfirm:
		m.confirm = &res
		return m, nil
	}
	m.output = res.Output
	m.refresh(true)
	return m, nil
}

// showAlert raises text and schedules its removal.
func (m *Model) showAlert(text string) tea.Cmd {
	m.alertSeq++
	m.alert = util.Clip(util.OneLine(text), maxAlertLength)
	seq := m.alertSeq
	return tea.Tick(m.opts.AlertDuration, func(time.Time) tea.Msg {
		return clearAlertMsg{seq: seq}
	})
}

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) resize(width, height int) {
	widthChanged := width != m.width
	m.width = width
	m.height = height

	vpHeight := height - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 4
	m.ready = true

	if widthChanged {
		m.rendered = make(map[string]renderedReply)
		m.buildMarkdown()
	}
	m.refresh(true)
}

// refresh re-renders the conversation into the viewport.
func (m *Model) refresh(follow bool) {
	m.viewport.SetContent(m.renderConversation())
	if follow {
		m.viewport.GotoBottom()
	}
}
