// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/rigchat/internal/commands"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/export"
)

// HandleList prints the saved conversations, most recent first.
func HandleList(app *App, out io.Writer) error {
	app.Start()
	list := app.Controller.Conversations()
	if len(list) == 0 {
		fmt.Fprintln(out, "No saved conversations.")
		return nil
	}
	fmt.Fprintln(out, commands.FormatConversationList(list, "", app.Config.UI.ListWidth))
	return nil
}

// HandleExport writes the most recent conversation, with every saved
// conversation attached, to --dir (default ".").
func HandleExport(app *App, args Args, out io.Writer) error {
	app.Start()

	var exporter export.Exporter = export.NewJSONExporter()
	if args.Markdown {
		exporter = export.NewMarkdownExporter()
	}
	dir := args.Dir
	if dir == "" {
		dir = "."
	}
	dir, err := config.ExpandHome(dir)
	if err != nil {
		return WrapError(err, "export", "resolve directory")
	}

	path, err := app.Controller.ExportToFile(dir, exporter)
	if err != nil {
		return WrapError(err, "export", "write file")
	}
	fmt.Fprintln(out, "Exported to "+path)
	return nil
}

// HandleSettings shows or edits the chat settings.
func HandleSettings(app *App, args Args, out io.Writer) error {
	app.Start()
	ctrl := app.Controller

	if args.Subcommand == "set" {
		s := ctrl.Settings()
		if err := commands.ApplySetting(&s, args.Key, args.Value); err != nil {
			return &UsageError{Command: "settings set", Reason: err.Error()}
		}
		if err := ctrl.UpdateSettings(s); err != nil {
			return WrapError(err, "settings set", "save")
		}
		value := args.Value
		if strings.EqualFold(args.Key, "key") {
			value = config.Mask(value)
		}
		fmt.Fprintf(out, "Set %s = %s\n", args.Key, value)
		return nil
	}

	fmt.Fprintln(out, commands.FormatSettings(ctrl.Settings()))
	return nil
}

// HandleClear deletes all stored conversations and settings. It refuses to
// run without --confirm.
func HandleClear(app *App, args Args, out io.Writer) error {
	if !args.Confirm {
		return ErrNotConfirmed
	}
	app.Start()
	if err := app.Controller.WipeStorage(); err != nil {
		return WrapError(err, "clear", "wipe storage")
	}
	fmt.Fprintln(out, "All conversations and settings deleted.")
	return nil
}
