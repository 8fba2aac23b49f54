// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/repository"
	"github.com/jeranaias/rigchat/internal/util"
)

// =============================================================================
// CONVERSATION HANDLERS
// =============================================================================

// HandleNew starts a new conversation, asking first when the active one has
// user messages.
func HandleNew(ctx *Context, args []string) (Result, error) {
	if !ctx.Session.NeedsConfirmNew() {
		return HandleNewForce(ctx, args)
	}
	return Result{
		Action:  ActionConfirm,
		Prompt:  "Start a new conversation? The current one stays in /list.",
		Confirm: func() (Result, error) { return HandleNewForce(ctx, args) },
	}, nil
}

// HandleNewForce starts a new conversation without asking.
func HandleNewForce(ctx *Context, _ []string) (Result, error) {
	ctx.Session.StartNew(true)
	return Result{Output: "Started a new conversation."}, nil
}

// HandleList lists saved conversations, most recent first.
func HandleList(ctx *Context, _ []string) (Result, error) {
	list := ctx.Session.Conversations()
	if len(list) == 0 {
		return Result{Output: "No saved conversations yet."}, nil
	}
	return Result{Output: FormatConversationList(list, ctx.Session.Active().ID, ctx.listWidth())}, nil
}

// HandleSwitch activates a saved conversation.
func HandleSwitch(ctx *Context, args []string) (Result, error) {
	id, err := ResolveConversation(ctx.Session.Conversations(), args[0])
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Session.SwitchTo(id); err != nil {
		return Result{}, err
	}
	return Result{Output: "Switched to " + ctx.Session.Active().Name + "."}, nil
}

// HandleDelete asks before deleting a saved conversation.
func HandleDelete(ctx *Context, args []string) (Result, error) {
	list := ctx.Session.Conversations()
	id, err := ResolveConversation(list, args[0])
	if err != nil {
		return Result{}, err
	}
	name := id
	for _, c := range list {
		if c.ID == id {
			name = c.Name
		}
	}
	return Result{
		Action: ActionConfirm,
		Prompt: "Delete " + name + "? This cannot be undone.",
		Confirm: func() (Result, error) {
			if err := ctx.Session.Delete(id); err != nil {
				return Result{}, err
			}
			return Result{Output: "Deleted " + name + "."}, nil
		},
	}, nil
}

// HandleRename renames the active conversation. All arguments form the name.
func HandleRename(ctx *Context, args []string) (Result, error) {
	name := strings.Join(args, " ")
	if err := ctx.Session.Rename(name); err != nil {
		return Result{}, err
	}
	return Result{Output: "Renamed to " + strings.TrimSpace(name) + "."}, nil
}

// HandleExport writes the export artifact into the export directory.
func HandleExport(ctx *Context, args []string) (Result, error) {
	var exporter export.Exporter = export.NewJSONExporter()
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "markdown", "md":
			exporter = export.NewMarkdownExporter()
		}
	}
	dir := ctx.ExportDir
	if dir == "" {
		dir = "."
	}
	path, err := ctx.Session.ExportToFile(dir, exporter)
	if err != nil {
		return Result{}, fmt.Errorf("export failed: %w", err)
	}
	return Result{Output: "Exported to " + path}, nil
}

// HandleCancel interrupts the request in flight.
func HandleCancel(ctx *Context, _ []string) (Result, error) {
	if ctx.Session.Cancel() {
		return Result{Output: "Cancelled."}, nil
	}
	return Result{Output: "Nothing to cancel."}, nil
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// HandleTheme toggles the theme.
func HandleTheme(ctx *Context, _ []string) (Result, error) {
	theme := ctx.Session.ToggleTheme()
	return Result{Output: "Theme: " + string(theme)}, nil
}

// HandleSettings shows the current settings with the API key masked.
func HandleSettings(ctx *Context, _ []string) (Result, error) {
	return Result{Output: FormatSettings(ctx.Session.Settings())}, nil
}

// HandleSet changes one setting. Every argument after the key forms the
// value, so prompts need no quoting.
func HandleSet(ctx *Context, args []string) (Result, error) {
	key := strings.ToLower(args[0])
	value := strings.Join(args[1:], " ")

	s := ctx.Session.Settings()
	if err := ApplySetting(&s, key, value); err != nil {
		return Result{}, err
	}
	if err := ctx.Session.UpdateSettings(s); err != nil {
		return Result{}, err
	}
	if key == "key" {
		value = config.Mask(value)
	}
	return Result{Output: fmt.Sprintf("Set %s = %s", key, value)}, nil
}

// HandleClear wipes all stored data after confirmation.
func HandleClear(ctx *Context, _ []string) (Result, error) {
	return Result{
		Action: ActionConfirm,
		Prompt: "Delete all conversations and settings? This cannot be undone.",
		Confirm: func() (Result, error) {
			if err := ctx.Session.WipeStorage(); err != nil {
				return Result{}, fmt.Errorf("clear failed: %w", err)
			}
			return Result{Output: "All conversations and settings deleted."}, nil
		},
	}, nil
}

// =============================================================================
// NAVIGATION HANDLERS
// =============================================================================

// HandleHelp shows all commands, or one command's usage.
func HandleHelp(ctx *Context, args []string) (Result, error) {
	if len(args) > 0 {
		name := args[0]
		if !strings.HasPrefix(name, "/") {
			name = "/" + name
		}
		cmd := ctx.Registry.Get(name)
		if cmd == nil {
			return Result{}, &UnknownCommandError{Name: name}
		}
		return Result{Output: commandHelp(cmd)}, nil
	}
	return Result{Output: GenerateHelpText(ctx.Registry)}, nil
}

// HandleQuit asks the surface to exit.
func HandleQuit(_ *Context, _ []string) (Result, error) {
	return Result{Action: ActionQuit}, nil
}

// =============================================================================
// SETTINGS KEYS
// =============================================================================

// settingKeys in display order.
var settingKeys = []string{"url", "key", "model", "prompt", "temperature", "max_tokens", "theme"}

// SettingKeys returns the keys /set accepts.
func SettingKeys() []string {
	return append([]string(nil), settingKeys...)
}

// ApplySetting parses value into the field named by key. An empty value
// clears text fields and restores numeric defaults.
func ApplySetting(s *model.Settings, key, value string) error {
	value = strings.TrimSpace(value)
	switch strings.ToLower(key) {
	case "url":
		s.EndpointURL = value
	case "key":
		s.APIKey = value
	case "model":
		s.Model = value
	case "prompt":
		s.SystemPrompt = value
	case "temperature":
		if value == "" {
			s.Temperature = model.DefaultTemperature
			return nil
		}
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("temperature must be a number: %w", err)
		}
		s.Temperature = f
	case "max_tokens":
		if value == "" {
			s.MaxTokens = 0
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_tokens must be an integer: %w", err)
		}
		s.MaxTokens = n
	case "theme":
		switch strings.ToLower(value) {
		case string(model.ThemeDark), string(model.ThemeLight):
			s.Theme = model.ParseTheme(value)
		default:
			return fmt.Errorf("theme must be dark or light, got %q", value)
		}
	default:
		return fmt.Errorf("unknown setting %q (expected one of %s)", key, strings.Join(settingKeys, ", "))
	}
	return nil
}

// FormatSettings renders settings for display.
func FormatSettings(s model.Settings) string {
	orDefault := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	maxTokens := "(no limit)"
	if s.MaxTokens > 0 {
		maxTokens = strconv.Itoa(s.MaxTokens)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "url          %s\n", orDefault(s.EndpointURL, "(not set)"))
	fmt.Fprintf(&sb, "key          %s\n", orDefault(config.Mask(s.APIKey), "(not set)"))
	fmt.Fprintf(&sb, "model        %s\n", orDefault(s.Model, "(endpoint default)"))
	fmt.Fprintf(&sb, "prompt       %s\n", util.Prefix(util.OneLine(s.SystemPrompt), 60))
	fmt.Fprintf(&sb, "temperature  %s\n", strconv.FormatFloat(s.Temperature, 'f', -1, 64))
	fmt.Fprintf(&sb, "max_tokens   %s\n", maxTokens)
	fmt.Fprintf(&sb, "theme        %s", s.Theme)
	return sb.String()
}

// =============================================================================
// CONVERSATION LIST
// =============================================================================

// ResolveConversation maps a /list number or an id (or unique id prefix)
// to a conversation id.
func ResolveConversation(list []*model.Conversation, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(list) {
			return "", fmt.Errorf("no conversation number %d (see /list)", n)
		}
		return list[n-1].ID, nil
	}

	var match string
	for _, c := range list {
		if c.ID == ref {
			return c.ID, nil
		}
		if strings.HasPrefix(c.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("%q matches more than one conversation", ref)
			}
			match = c.ID
		}
	}
	if match == "" {
		return "", repository.NotFound("resolve", ref)
	}
	return match, nil
}

// FormatConversationList renders one numbered line per conversation: name
// cut to width display cells, save time as HH:MM, and a marker on the
// active one.
func FormatConversationList(list []*model.Conversation, activeID string, width int) string {
	var sb strings.Builder
	for i, c := range list {
		name := runewidth.FillRight(util.TruncateWidth(c.Name, width), width)
		marker := " "
		if c.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %2d. %s  %s  %s\n", marker, i+1, name,
			c.LastSavedAt.Local().Format("15:04"), shortID(c.ID))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// =============================================================================
// HELP TEXT GENERATION
// =============================================================================

var categoryOrder = []string{"Conversation", "Settings", "Navigation"}

// GenerateHelpText lists visible commands grouped by category.
func GenerateHelpText(r *Registry) string {
	groups := r.ByCategory()
	var names []string
	for name := range groups {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool { return categoryRank(names[i]) < categoryRank(names[j]) })

	var sb strings.Builder
	for gi, category := range names {
		if gi > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(category + "\n")
		for _, cmd := range groups[category] {
			usage := cmd.Usage
			if usage == "" {
				usage = cmd.Name
			}
			fmt.Fprintf(&sb, "  %-24s %s\n", usage, cmd.Description)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func categoryRank(name string) int {
	for i, c := range categoryOrder {
		if c == name {
			return i
		}
	}
	return len(categoryOrder)
}

func commandHelp(cmd *Command) string {
	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}
	out := usage + "\n  " + cmd.Description
	if len(cmd.Aliases) > 0 {
		out += "\n  aliases: " + strings.Join(cmd.Aliases, ", ")
	}
	return out
}
