// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jeranaias/rigchat/internal/model"
)

// maxStdinQuery bounds a question read from a pipe.
const maxStdinQuery = 1 << 20

// HandleAsk sends one question in a new conversation and prints the reply.
// With no question on the command line it is read from a non-terminal stdin.
//
// Replies are rendered as Markdown when stdout is a terminal and markdown is
// enabled, otherwise they are printed as they are revealed.
func HandleAsk(app *App, args Args, stdin io.Reader, out io.Writer) error {
	const usage = `rigchat ask "question"`

	query := args.Query
	if query == "" && stdin != nil && !IsTTY() {
		data, err := io.ReadAll(io.LimitReader(stdin, maxStdinQuery))
		if err != nil {
			return WrapError(err, "ask", "read stdin")
		}
		query = strings.TrimSpace(string(data))
	}
	if query == "" {
		return ErrMissingArgument("ask", "question", usage)
	}

	rich := app.Config.UI.Markdown && IsStdoutTTY()
	p := newPrinter(out, os.Stderr)
	p.stream = !rich
	app.Controller.SetRenderer(p)
	app.Start()
	app.Controller.StartNew(true)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Controller.Send(ctx, query); err != nil {
		return err
	}
	if rich {
		reply := lastReply(app.Controller.Messages())
		fmt.Fprint(out, renderMarkdown(reply, app.Controller.Settings().Theme, GetTerminalWidth()))
	}
	return nil
}

// lastReply returns the text of the newest assistant message.
func lastReply(msgs []model.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsAssistant() {
			return msgs[i].Text
		}
	}
	return ""
}
