// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigchat/internal/ui/styles"
)

func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// welcomeStyle is the REPL banner.
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// infoStyle is used for status lines and hints.
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// assistantStyle labels assistant output.
	assistantStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// warningStyle marks interrupted replies and confirmations.
	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// errorStyle marks alerts.
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)
)
