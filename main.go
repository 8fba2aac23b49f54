// rigchat - a terminal chat client that keeps its history locally.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigchat/internal/cli"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/ui/chat"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args, err := cli.Parse(os.Args[1:])
	if err != nil {
		fail(err)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return
	}

	cfg, err := cli.LoadConfig(args)
	if err != nil {
		fail(err)
	}

	if cmd == cli.CmdTUI {
		err = runTUI(cfg)
	} else {
		err = cli.Run(cmd, args, cfg)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// runTUI starts the full-screen chat view.
func runTUI(cfg *config.Config) error {
	if !cli.IsTTY() || !cli.IsStdoutTTY() {
		return fmt.Errorf("the chat view needs a terminal; use \"rigchat chat\" or \"rigchat ask\" instead")
	}

	bridge := chat.NewBridge()
	defer bridge.Close()

	app, err := cli.NewApp(cfg, cli.AppOptions{Renderer: bridge})
	if err != nil {
		return err
	}
	defer app.Close()
	app.Start()

	theme := styles.NewTheme(app.Controller.Settings().Theme)
	m := chat.New(app.Controller, app.Registry, theme, chat.Options{
		AlertDuration: cfg.Chat.AlertDuration.Duration,
		Markdown:      cfg.UI.Markdown,
		ExportDir:     app.ExportDir(),
		ListWidth:     cfg.UI.ListWidth,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	go bridge.Run(p.Send)

	_, err = p.Run()
	return err
}
