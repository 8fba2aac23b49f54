// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rigchat/internal/model"
)

// Theme holds all the styled components for the application.
type Theme struct {
	Name         model.Theme
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	UserText       lipgloss.Style
	AssistantLabel lipgloss.Style
	AssistantText  lipgloss.Style
	SeedText       lipgloss.Style
	Timestamp      lipgloss.Style
	Pending        lipgloss.Style
	ErrorText      lipgloss.Style
	Interrupted    lipgloss.Style
	CommandOutput  lipgloss.Style

	// ==========================================================================
	// INPUT AND STATUS STYLES
	// ==========================================================================

	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style
	Placeholder    lipgloss.Style
	StatusBar      lipgloss.Style
	StatusText     lipgloss.Style
	Alert          lipgloss.Style
	Confirm        lipgloss.Style
	Spinner        lipgloss.Style
	Muted          lipgloss.Style
}

// DetectTheme reports the terminal's background as a theme.
func DetectTheme() model.Theme {
	if termenv.HasDarkBackground() {
		return model.ThemeDark
	}
	return model.ThemeLight
}

// NewTheme creates a theme with all styles configured for name.
func NewTheme(name model.Theme) *Theme {
	t := &Theme{
		Name:         name,
		IsDark:       name != model.ThemeLight,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// GlamourStyle names the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// StatusBadge returns the styled indicator for a message status, or "" for
// settled messages.
func (t *Theme) StatusBadge(status model.Status) string {
	switch status {
	case model.StatusSending, model.StatusStreaming:
		return t.Pending.Render(StatusIndicators.Pending)
	case model.StatusError:
		return t.ErrorText.Render(StatusIndicators.Error + " error")
	case model.StatusInterrupted:
		return t.Interrupted.Render(StatusIndicators.Interrupted + " interrupted")
	}
	return ""
}

func (t *Theme) c(color lipgloss.AdaptiveColor) lipgloss.Color {
	return Pick(color, t.IsDark)
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(t.c(SurfaceDim)).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.c(Purple))

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(t.c(TextSecondary)).
		Italic(true)

	// Messages
	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.c(Cyan))

	t.UserText = lipgloss.NewStyle().
		Foreground(t.c(UserFg)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(t.c(UserBorder)).
		PaddingLeft(1)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(t.c(Purple))

	t.AssistantText = lipgloss.NewStyle().
		Foreground(t.c(AssistantFg)).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(t.c(AssistantBorder)).
		PaddingLeft(1)

	t.SeedText = t.AssistantText.
		Foreground(t.c(TextMuted)).
		Italic(true)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(t.c(TextMuted))

	t.Pending = lipgloss.NewStyle().
		Foreground(t.c(TextSecondary))

	t.ErrorText = lipgloss.NewStyle().
		Foreground(t.c(Rose)).
		Bold(true)

	t.Interrupted = lipgloss.NewStyle().
		Foreground(t.c(Amber))

	t.CommandOutput = lipgloss.NewStyle().
		Foreground(t.c(TextSecondary)).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.c(Overlay)).
		Padding(0, 1)

	// Input and status
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(t.c(Overlay))

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(t.c(Cyan)).
		Bold(true)

	t.Placeholder = lipgloss.NewStyle().
		Foreground(t.c(TextMuted)).
		Italic(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(t.c(SurfaceDim)).
		Foreground(t.c(TextSecondary)).
		Padding(0, 1)

	t.StatusText = lipgloss.NewStyle().
		Foreground(t.c(TextSecondary))

	t.Alert = lipgloss.NewStyle().
		Foreground(t.c(TextInverse)).
		Background(t.c(Rose)).
		Bold(true).
		Padding(0, 1)

	t.Confirm = lipgloss.NewStyle().
		Foreground(t.c(Amber)).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(t.c(Purple))

	t.Muted = lipgloss.NewStyle().
		Foreground(t.c(TextMuted))
}
