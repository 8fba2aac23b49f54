// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"
	"strconv"
	"strings"

	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// COMPLETER
// =============================================================================

// Completion represents a completion suggestion.
type Completion struct {
	// Value is the full input line after accepting the suggestion
	Value string

	// Display is the suggested token alone
	Display string

	// Description shown alongside
	Description string
}

// Completer handles tab completion for commands and arguments.
type Completer struct {
	registry *Registry

	// ConversationsFn returns saved conversations for ArgTypeConversation.
	ConversationsFn func() []*model.Conversation
}

// NewCompleter creates a new completer with the given registry.
func NewCompleter(registry *Registry) *Completer {
	return &Completer{registry: registry}
}

// Complete returns completions for input, assuming the cursor is at its end.
func (c *Completer) Complete(input string) []Completion {
	input = strings.TrimLeft(input, " \t")
	if !strings.HasPrefix(input, "/") {
		return nil
	}

	parts := splitCommandLine(input)
	trailingSpace := strings.HasSuffix(input, " ")
	if len(parts) == 1 && !trailingSpace {
		return c.completeCommands(parts[0])
	}

	cmd := c.registry.Get(parts[0])
	if cmd == nil {
		return nil
	}

	argIndex := len(parts) - 2
	partial := parts[len(parts)-1]
	prefix := strings.Join(parts[:len(parts)-1], " ") + " "
	if trailingSpace {
		argIndex++
		partial = ""
		prefix = strings.Join(parts, " ") + " "
	}
	if argIndex >= len(cmd.Args) {
		return nil
	}

	out := c.completeArg(cmd.Args[argIndex], partial)
	for i := range out {
		out[i].Value = prefix + out[i].Display
	}
	return out
}

// Lines returns just the completed lines, the form line editors expect.
func (c *Completer) Lines(input string) []string {
	completions := c.Complete(input)
	lines := make([]string, len(completions))
	for i, comp := range completions {
		lines[i] = comp.Value
	}
	return lines
}

// =============================================================================
// COMMAND COMPLETION
// =============================================================================

func (c *Completer) completeCommands(partial string) []Completion {
	partial = strings.ToLower(partial)
	var out []Completion
	for _, cmd := range c.registry.All() {
		if cmd.Hidden || !strings.HasPrefix(cmd.Name, partial) {
			continue
		}
		out = append(out, Completion{Value: cmd.Name, Display: cmd.Name, Description: cmd.Description})
	}
	return out
}

// =============================================================================
// ARGUMENT COMPLETION
// =============================================================================

func (c *Completer) completeArg(arg ArgDef, partial string) []Completion {
	switch arg.Type {
	case ArgTypeEnum:
		return completeFromList(arg.Values, partial)
	case ArgTypeConversation:
		if c.ConversationsFn == nil {
			return nil
		}
		var out []Completion
		for i, conv := range c.ConversationsFn() {
			n := strconv.Itoa(i + 1)
			if strings.HasPrefix(n, partial) {
				out = append(out, Completion{Display: n, Description: conv.Name})
			}
		}
		return out
	}
	return nil
}

func completeFromList(values []string, partial string) []Completion {
	partial = strings.ToLower(partial)
	var out []Completion
	for _, v := range values {
		if strings.HasPrefix(strings.ToLower(v), partial) {
			out = append(out, Completion{Display: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Display < out[j].Display })
	return out
}
