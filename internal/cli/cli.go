// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/jeranaias/rigchat/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdAsk
	CmdList
	CmdExport
	CmdSettings
	CmdClear
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ConfigPath string
	DataDir    string
	Storage    string
	LogLevel   string
	NoMarkdown bool

	// Command-specific
	Subcommand string
	Query      string
	Dir        string
	Markdown   bool
	Confirm    bool
	Key        string
	Value      string

	// Raw args after the subcommand name
	Raw []string
}

// boolFlags never take a value.
var boolFlags = []string{"markdown", "md", "confirm", "y", "no-markdown", "help", "h", "version", "v"}

const usageText = `rigchat - a terminal chat client for OpenAI-compatible endpoints

Usage:
  rigchat                      Start the full-screen chat view (default)
  rigchat chat                 Line-oriented chat with slash commands
  rigchat ask "question"       Ask a single question and print the reply
  rigchat list                 List saved conversations
  rigchat export [--dir d] [--markdown]
                               Export the most recent conversation
  rigchat settings [show]      Show chat settings
  rigchat settings set <key> <value>
                               Change a setting (url, key, model, prompt,
                               temperature, max_tokens, theme)
  rigchat clear --confirm      Delete all conversations and settings
  rigchat version              Show version information

Global flags:
  --config <path>      Config file (default ~/.rigchat/config.toml)
  --data-dir <dir>     Where conversations and settings are stored
  --storage <kind>     file, sqlite or memory
  --log-level <level>  debug, info, warn or error
  --no-markdown        Print replies as plain text

Environment:
  RIGCHAT_API_URL, RIGCHAT_API_KEY, RIGCHAT_MODEL, RIGCHAT_DATA_DIR,
  RIGCHAT_STORAGE, RIGCHAT_LOG_LEVEL, RIGCHAT_THEME, RIGCHAT_COOLDOWN,
  RIGCHAT_METRICS_ADDR. A .env file in the working directory is read too.
`

// PrintUsage writes the usage text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, usageText)
}

// PrintVersion writes version information to w.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "rigchat %s\n", Version)
	fmt.Fprintf(w, "  commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  built:  %s\n", BuildDate)
	fmt.Fprintf(w, "  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse interprets argv, the arguments after the program name.
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, boolFlags...)

	args := Args{
		ConfigPath: p.Flag("config"),
		DataDir:    p.Flag("data-dir"),
		Storage:    p.Flag("storage"),
		LogLevel:   p.Flag("log-level"),
		NoMarkdown: p.BoolFlag("no-markdown"),
		Dir:        p.Flag("dir"),
		Markdown:   p.BoolFlag("markdown", "md"),
		Confirm:    p.BoolFlag("confirm", "y"),
		Raw:        p.PositionalFrom(1),
	}

	if p.BoolFlag("help", "h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version", "v") {
		return CmdVersion, args, nil
	}

	name := strings.ToLower(p.Positional(0))
	switch name {
	case "":
		return CmdTUI, args, nil
	case "chat", "repl":
		return CmdChat, args, nil
	case "ask", "a":
		args.Query = strings.TrimSpace(strings.Join(p.PositionalFrom(1), " "))
		return CmdAsk, args, nil
	case "list", "ls":
		return CmdList, args, nil
	case "export":
		return CmdExport, args, nil
	case "settings", "config":
		return parseSettingsArgs(p, args)
	case "clear":
		return CmdClear, args, nil
	case "version":
		return CmdVersion, args, nil
	case "help":
		return CmdHelp, args, nil
	}
	return CmdHelp, args, &UsageError{Reason: fmt.Sprintf("unknown command %q", name), Usage: "rigchat help"}
}

func parseSettingsArgs(p *ArgParser, args Args) (Command, Args, error) {
	const usage = "rigchat settings set <key> <value>"
	args.Subcommand = strings.ToLower(p.Positional(1))
	switch args.Subcommand {
	case "", "show":
		args.Subcommand = "show"
	case "set":
		args.Key = p.Positional(2)
		if args.Key == "" {
			return CmdSettings, args, ErrMissingArgument("settings set", "key", usage)
		}
		if p.PositionalCount() < 4 {
			return CmdSettings, args, ErrMissingArgument("settings set", "value", usage)
		}
		args.Value = strings.Join(p.PositionalFrom(3), " ")
	default:
		return CmdSettings, args, &UsageError{
			Command: "settings",
			Reason:  fmt.Sprintf("unknown subcommand %q", args.Subcommand),
			Usage:   usage,
		}
	}
	return CmdSettings, args, nil
}

// LoadConfig reads the configuration and applies command line overrides.
func LoadConfig(args Args) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.DataDir != "" {
		cfg.Storage.DataDir = args.DataDir
	}
	if args.Storage != "" {
		cfg.Storage.Backend = strings.ToLower(args.Storage)
	}
	if args.LogLevel != "" {
		cfg.Logging.Level = strings.ToLower(args.LogLevel)
	}
	if args.NoMarkdown {
		cfg.UI.Markdown = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// DISPATCH
// =============================================================================

// Run executes every command except the full-screen view, which main owns.
func Run(cmd Command, args Args, cfg *config.Config) error {
	switch cmd {
	case CmdHelp:
		PrintUsage(os.Stdout)
		return nil
	case CmdVersion:
		PrintVersion(os.Stdout)
		return nil
	case CmdTUI:
		return &UsageError{Reason: "the chat view is started by the rigchat binary"}
	}

	app, err := NewApp(cfg, AppOptions{})
	if err != nil {
		return err
	}
	defer app.Close()

	switch cmd {
	case CmdChat:
		return HandleChat(app)
	case CmdAsk:
		return HandleAsk(app, args, os.Stdin, os.Stdout)
	case CmdList:
		return HandleList(app, os.Stdout)
	case CmdExport:
		return HandleExport(app, args, os.Stdout)
	case CmdSettings:
		return HandleSettings(app, args, os.Stdout)
	case CmdClear:
		return HandleClear(app, args, os.Stdout)
	}
	return nil
}
