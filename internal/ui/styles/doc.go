// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the rigchat TUI.

Each color is defined with a light and a dark variant. NewTheme builds every
style for the theme the user selected; DetectTheme asks the terminal for its
background when no choice has been saved yet.

	theme := styles.NewTheme(model.ThemeDark)
	line := theme.UserLabel.Render("You")
*/
package styles
