// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/rigchat/internal/commands"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a line editor whose history lives in dataDir. Tab
// completes slash commands with completer.
func NewChatCLI(dataDir string, completer *commands.Completer) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completer.Lines)

	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(dataDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (c *ChatCLI) Confirm(prompt string) bool {
	answer, err := c.line.Prompt(prompt + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// SaveHistory persists command history with owner-only permissions.
func (c *ChatCLI) SaveHistory() {
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL runs chat input lines against an App.
type REPL struct {
	app     *App
	cmdCtx  *commands.Context
	out     io.Writer
	errOut  io.Writer
	confirm func(prompt string) bool
}

// NewREPL creates a REPL writing to out and errOut. confirm answers
// confirmation prompts; nil declines them all.
func NewREPL(app *App, out, errOut io.Writer, confirm func(string) bool) *REPL {
	if confirm == nil {
		confirm = func(string) bool { return false }
	}
	p := newPrinter(out, errOut)
	p.stream = true
	p.transcript = true
	p.alerts = true
	app.Controller.SetRenderer(p)

	return &REPL{
		app:     app,
		cmdCtx:  app.CommandContext(),
		out:     out,
		errOut:  errOut,
		confirm: confirm,
	}
}

// Handle processes one input line. It returns false once the user asked to
// quit. Failed sends are reported through alerts, so only quitting ends the
// loop.
func (r *REPL) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if commands.IsCommand(line) {
		return r.runCommand(line)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if err := r.app.Controller.Send(ctx, line); err != nil {
		r.app.Logger.Debug("send ended", "error", err)
	}
	return true
}

func (r *REPL) runCommand(line string) bool {
	res, err := r.app.Registry.Execute(r.cmdCtx, line)
	for err == nil && res.Action == commands.ActionConfirm {
		if !r.confirm(warningStyle.Render(res.Prompt)) {
			fmt.Fprintln(r.out, infoStyle.Render("Cancelled."))
			return true
		}
		res, err = res.Confirm()
	}
	if err != nil {
		fmt.Fprintln(r.errOut, errorStyle.Render("Error: "+err.Error()))
		return true
	}
	if res.Output != "" {
		fmt.Fprintln(r.out, res.Output)
	}
	return res.Action != commands.ActionQuit
}

// HandleChat runs the interactive line-oriented chat.
func HandleChat(app *App) error {
	if err := RequiresTTY("chat"); err != nil {
		return err
	}

	completer := commands.NewCompleter(app.Registry)
	completer.ConversationsFn = app.Controller.Conversations
	line := NewChatCLI(app.DataDir, completer)
	defer line.Close()

	printWelcome(app)
	repl := NewREPL(app, os.Stdout, os.Stderr, line.Confirm)
	app.Start()

	for {
		input, err := line.ReadInput("> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return WrapError(err, "chat", "read input")
		}
		if !repl.Handle(context.Background(), input) {
			return nil
		}
	}
}

func printWelcome(app *App) {
	fmt.Println(welcomeStyle.Render("rigchat " + Version))
	endpoint := app.Config.Endpoint.URL
	if s, ok := app.Store.LoadSettings(app.Config.DefaultSettings(model.ThemeDark)); ok {
		endpoint = s.EndpointURL
	}
	if endpoint == "" {
		endpoint = "not configured (use /set url <endpoint> and /set key <key>)"
	}
	fmt.Println(infoStyle.Render("Endpoint: " + endpoint))
	fmt.Println(infoStyle.Render("Type /help for commands, Ctrl+C to cancel a reply, Ctrl+D to quit."))
	if path, err := config.ConfigPath(); err == nil {
		fmt.Println(infoStyle.Render("Config: " + path))
	}
	fmt.Println()
}
