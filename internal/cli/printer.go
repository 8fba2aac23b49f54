// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/session"
)

// retryPrefix starts the client's retry notices.
const retryPrefix = "API error, retrying"

// printer renders controller reports as plain terminal output.
type printer struct {
	session.NopRenderer

	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer

	// stream writes reply text as it is revealed.
	stream bool
	// transcript prints a conversation when another one is loaded, and the
	// greeting of a new one.
	transcript bool
	// alerts prints alerts to errOut.
	alerts bool

	printed  map[string]int
	loadedID string
}

func newPrinter(out, errOut io.Writer) *printer {
	return &printer{
		out:     out,
		errOut:  errOut,
		printed: make(map[string]int),
	}
}

func (p *printer) MessageAdded(m model.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.transcript && m.Seed && m.Text != "" {
		fmt.Fprintf(p.out, "%s %s\n\n", assistantStyle.Render("Assistant:"), m.Text)
	}
}

func (p *printer) MessageUpdated(m model.Message) {
	if !m.IsAssistant() || !p.stream {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.printed[m.ID]
	if n == 0 && m.Text != "" {
		fmt.Fprint(p.out, assistantStyle.Render("Assistant:")+" ")
	}
	if len(m.Text) > n {
		fmt.Fprint(p.out, m.Text[n:])
		p.printed[m.ID] = len(m.Text)
	}

	switch m.Status {
	case model.StatusComplete:
		fmt.Fprint(p.out, "\n\n")
		delete(p.printed, m.ID)
	case model.StatusInterrupted:
		fmt.Fprintln(p.out, "\n"+warningStyle.Render("[interrupted]"))
		delete(p.printed, m.ID)
	case model.StatusError:
		if n > 0 {
			fmt.Fprintln(p.out)
		}
		delete(p.printed, m.ID)
	}
}

func (p *printer) ConversationLoaded(conv *model.Conversation) {
	if conv == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.transcript || conv.ID == p.loadedID {
		return
	}
	p.loadedID = conv.ID

	fmt.Fprintln(p.out, infoStyle.Render("-- "+conv.Name+" --"))
	for _, m := range conv.Messages {
		label := assistantStyle.Render("Assistant:")
		if m.IsUser() {
			label = welcomeStyle.Render("You:")
		}
		text := m.Text
		if m.Status == model.StatusInterrupted {
			text += " " + warningStyle.Render("[interrupted]")
		}
		fmt.Fprintf(p.out, "%s %s\n\n", label, text)
	}
}

func (p *printer) Status(text string) {
	if !strings.HasPrefix(text, retryPrefix) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.errOut, infoStyle.Render(text))
}

func (p *printer) Alert(text string) {
	if !p.alerts {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.errOut, errorStyle.Render("! "+text))
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders content for the terminal, returning it unchanged
// when rendering fails.
func renderMarkdown(content string, theme model.Theme, width int) string {
	style := "dark"
	if theme == model.ThemeLight {
		style = "light"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}
