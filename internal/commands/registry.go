// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"sort"
	"strings"

	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// HandlerFunc executes a command.
type HandlerFunc func(ctx *Context, args []string) (Result, error)

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/switch <n|id>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler HandlerFunc

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	Name        string
	Required    bool
	Type        ArgType
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString       ArgType = iota // Free-form string
	ArgTypeConversation                // Conversation number or ID
	ArgTypeEnum                        // One of predefined values
	ArgTypeSetting                     // Settings key
)

// =============================================================================
// RESULT
// =============================================================================

// Action tells the surface what to do after a command.
type Action int

const (
	// ActionNone means show Output, if any.
	ActionNone Action = iota
	// ActionQuit asks the surface to exit.
	ActionQuit
	// ActionConfirm asks the surface to show Prompt and call Confirm on yes.
	ActionConfirm
)

// Result is the outcome of a command.
type Result struct {
	Output string
	Action Action

	// Prompt and Confirm are set with ActionConfirm.
	Prompt  string
	Confirm func() (Result, error)
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the part of the session controller that commands drive.
type Session interface {
	Active() *model.Conversation
	Conversations() []*model.Conversation
	NeedsConfirmNew() bool
	StartNew(persistPrevious bool)
	SwitchTo(id string) error
	Delete(id string) error
	Rename(name string) error
	Settings() model.Settings
	UpdateSettings(s model.Settings) error
	ToggleTheme() model.Theme
	ExportToFile(dir string, exporter export.Exporter) (string, error)
	WipeStorage() error
	Cancel() bool
}

// Context provides handlers with the session and surface preferences.
type Context struct {
	Session Session

	// ExportDir is where /export writes files.
	ExportDir string

	// ListWidth is the display width conversation names are cut to in
	// /list. Zero means 30.
	ListWidth int

	// Registry is used by /help.
	Registry *Registry
}

func (c *Context) listWidth() int {
	if c.ListWidth <= 0 {
		return 30
	}
	return c.ListWidth
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// ErrNoSession is returned when a command runs without a Session.
var ErrNoSession = errors.New("no active session")

// UnknownCommandError is returned for a name nothing is registered under.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return "unknown command " + e.Name + " (try /help)"
}

// Registry holds all registered commands.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]*Command
	parser   *Parser
}

// NewRegistry creates a registry with all built-in commands.
func NewRegistry() *Registry {
	r := &Registry{
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.parser = NewParser(r)
	r.registerBuiltins()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias, ignoring case.
func (r *Registry) Get(name string) *Command {
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// Execute parses input and runs the command it names.
func (r *Registry) Execute(ctx *Context, input string) (Result, error) {
	parsed := r.parser.Parse(input)
	if !parsed.IsCommand {
		return Result{}, errors.New("not a command")
	}
	if parsed.Command == nil {
		return Result{}, &UnknownCommandError{Name: parsed.CommandName}
	}
	if err := ValidateArgs(parsed.Command, parsed.Args); err != nil {
		return Result{}, err
	}
	if ctx == nil || ctx.Session == nil {
		return Result{}, ErrNoSession
	}
	if ctx.Registry == nil {
		ctx.Registry = r
	}
	return parsed.Command.Handler(ctx, parsed.Args)
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	// Conversation commands
	r.Register(&Command{
		Name:        "/new",
		Aliases:     []string{"/n"},
		Description: "Start a new conversation",
		Category:    "Conversation",
		Handler:     HandleNew,
	})

	r.Register(&Command{
		Name:        "/new!",
		Description: "Start a new conversation without asking",
		Category:    "Conversation",
		Hidden:      true,
		Handler:     HandleNewForce,
	})

	r.Register(&Command{
		Name:        "/list",
		Aliases:     []string{"/ls", "/sessions"},
		Description: "List saved conversations",
		Category:    "Conversation",
		Handler:     HandleList,
	})

	r.Register(&Command{
		Name:        "/switch",
		Aliases:     []string{"/load", "/open"},
		Description: "Switch to a saved conversation",
		Usage:       "/switch <n|id>",
		Args: []ArgDef{
			{Name: "conversation", Required: true, Type: ArgTypeConversation, Description: "number from /list or id"},
		},
		Category: "Conversation",
		Handler:  HandleSwitch,
	})

	r.Register(&Command{
		Name:        "/delete",
		Aliases:     []string{"/rm"},
		Description: "Delete a saved conversation",
		Usage:       "/delete <n|id>",
		Args: []ArgDef{
			{Name: "conversation", Required: true, Type: ArgTypeConversation, Description: "number from /list or id"},
		},
		Category: "Conversation",
		Handler:  HandleDelete,
	})

	r.Register(&Command{
		Name:        "/rename",
		Description: "Rename the active conversation",
		Usage:       "/rename <name>",
		Args: []ArgDef{
			{Name: "name", Required: true, Type: ArgTypeString, Description: "new name"},
		},
		Category: "Conversation",
		Handler:  HandleRename,
	})

	r.Register(&Command{
		Name:        "/export",
		Description: "Export conversations to a file",
		Usage:       "/export [json|markdown]",
		Args: []ArgDef{
			{Name: "format", Type: ArgTypeEnum, Values: []string{"json", "markdown", "md"}, Description: "file format"},
		},
		Category: "Conversation",
		Handler:  HandleExport,
	})

	r.Register(&Command{
		Name:        "/cancel",
		Aliases:     []string{"/stop"},
		Description: "Cancel the request in flight",
		Category:    "Conversation",
		Handler:     HandleCancel,
	})

	// Settings commands
	r.Register(&Command{
		Name:        "/theme",
		Description: "Toggle between light and dark theme",
		Category:    "Settings",
		Handler:     HandleTheme,
	})

	r.Register(&Command{
		Name:        "/settings",
		Aliases:     []string{"/config"},
		Description: "Show current settings",
		Category:    "Settings",
		Handler:     HandleSettings,
	})

	r.Register(&Command{
		Name:        "/set",
		Description: "Change a setting",
		Usage:       "/set <key> <value>",
		Args: []ArgDef{
			{Name: "key", Required: true, Type: ArgTypeEnum, Values: SettingKeys(), Description: "setting name"},
			{Name: "value", Type: ArgTypeString, Description: "new value (empty clears)"},
		},
		Category: "Settings",
		Handler:  HandleSet,
	})

	r.Register(&Command{
		Name:        "/clear",
		Description: "Delete all conversations and settings",
		Category:    "Settings",
		Handler:     HandleClear,
	})

	// Navigation commands
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show help and available commands",
		Usage:       "/help [command]",
		Category:    "Navigation",
		Handler:     HandleHelp,
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "Exit rigchat",
		Category:    "Navigation",
		Handler:     HandleQuit,
	})
}
