// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended by the truncating helpers when text was cut.
const Ellipsis = "..."

// Prefix returns the first n runes of s after NFC normalisation, with
// Ellipsis appended when s was longer than n. Composed and decomposed forms
// of the same text therefore yield the same prefix.
func Prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	s = norm.NFC.String(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + Ellipsis
}

// Clip truncates s to at most n runes without a marker.
func Clip(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// TruncateWidth shortens s so it occupies at most width terminal cells,
// counting wide (CJK, emoji) runes as two cells. Ellipsis is included in the
// width budget.
func TruncateWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= len(Ellipsis) {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, Ellipsis)
}

// OneLine collapses runs of whitespace, including newlines, to single spaces.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
