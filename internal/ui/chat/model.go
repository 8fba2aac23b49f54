// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/rigchat/internal/commands"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// Session is the controller surface the view drives.
type Session interface {
	commands.Session
	Send(ctx context.Context, text string) error
}

// Options tunes the view.
type Options struct {
	// AlertDuration is how long an alert stays up. Zero means 5s.
	AlertDuration time.Duration

	// Markdown renders assistant replies with glamour.
	Markdown bool

	// ExportDir is where /export writes.
	ExportDir string

	// ListWidth is the name width used by /list.
	ListWidth int
}

const defaultAlertDuration = 5 * time.Second

// Layout rows outside the viewport: header, alert line, input with its top
// border, status bar.
const chromeHeight = 5

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	session   Session
	registry  *commands.Registry
	completer *commands.Completer
	cmdCtx    *commands.Context
	opts      Options

	// Styling
	theme    *styles.Theme
	markdown *glamour.TermRenderer
	rendered map[string]renderedReply

	// Dimensions
	width  int
	height int
	ready  bool

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// Conversation as last reported by the session
	messages []model.Message
	name     string
	saved    int
	settings model.Settings

	// Status
	status   string
	alert    string
	alertSeq int
	output   string
	hint     string
	sending  int
	confirm  *commands.Result
	quitting bool
}

// renderedReply caches a glamour rendering of one message.
type renderedReply struct {
	text  string
	width int
	out   string
}

// New creates a chat model. The caller attaches a Bridge to the session so
// its reports reach the program.
func New(s Session, registry *commands.Registry, theme *styles.Theme, opts Options) Model {
	if opts.AlertDuration <= 0 {
		opts.AlertDuration = defaultAlertDuration
	}
	if registry == nil {
		registry = commands.NewRegistry()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message or /help..."
	ti.CharLimit = 8192
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	completer := commands.NewCompleter(registry)
	completer.ConversationsFn = s.Conversations

	m := Model{
		session:   s,
		registry:  registry,
		completer: completer,
		cmdCtx: &commands.Context{
			Session:   s,
			ExportDir: opts.ExportDir,
			ListWidth: opts.ListWidth,
			Registry:  registry,
		},
		opts:     opts,
		rendered: make(map[string]renderedReply),
		viewport: vp,
		input:    ti,
		spinner:  sp,
		status:   "Ready",
	}
	m.applyTheme(theme)
	return m
}

// Init starts the cursor blink and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Busy reports whether a send started by the view has not returned yet.
func (m Model) Busy() bool {
	return m.sending > 0
}

// Alert returns the visible alert text.
func (m Model) Alert() string {
	return m.alert
}

// Messages returns the displayed messages.
func (m Model) Messages() []model.Message {
	return m.messages
}

// applyTheme swaps styles and rebuilds the markdown renderer.
func (m *Model) applyTheme(theme *styles.Theme) {
	if theme == nil {
		theme = styles.NewTheme(model.ThemeDark)
	}
	m.theme = theme
	m.input.PromptStyle = theme.InputPrompt
	m.input.PlaceholderStyle = theme.Placeholder
	m.spinner.Style = theme.Spinner
	m.rendered = make(map[string]renderedReply)
	m.buildMarkdown()
}

func (m *Model) buildMarkdown() {
	m.markdown = nil
	if !m.opts.Markdown {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(m.contentWidth()),
	)
	if err == nil {
		m.markdown = r
	}
}

func (m Model) contentWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 76
	}
	return w
}
