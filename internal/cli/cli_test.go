// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name: "flag with value",
			args: []string{"export", "--dir", "/tmp"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "export", p.Positional(0))
				assert.Equal(t, "/tmp", p.Flag("dir"))
			},
		},
		{
			name: "flag with equals",
			args: []string{"export", "--dir=/tmp/out"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "/tmp/out", p.Flag("dir"))
			},
		},
		{
			name: "declared boolean does not swallow the next argument",
			args: []string{"export", "--markdown", "extra"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("markdown"))
				assert.Equal(t, []string{"export", "extra"}, p.PositionalFrom(0))
			},
		},
		{
			name: "explicit false",
			args: []string{"--confirm=false"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.False(t, p.BoolFlag("confirm"))
				assert.True(t, p.HasFlag("confirm"))
			},
		},
		{
			name: "double dash ends flags",
			args: []string{"ask", "--", "--not-a-flag"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.Equal(t, "--not-a-flag", p.Positional(1))
				assert.False(t, p.HasFlag("not-a-flag"))
			},
		},
		{
			name: "aliases",
			args: []string{"clear", "-y"},
			validate: func(t *testing.T, p *ArgParser) {
				assert.True(t, p.BoolFlag("confirm", "y"))
			},
		},
		{
			name: "out of range positional",
			args: nil,
			validate: func(t *testing.T, p *ArgParser) {
				assert.Empty(t, p.Positional(3))
				assert.Empty(t, p.PositionalFrom(1))
				assert.Equal(t, "x", p.FlagOrDefault("missing", "x"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, NewArgParser(tt.args, boolFlags...))
		})
	}
}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse_Commands(t *testing.T) {
	tests := []struct {
		args []string
		want Command
		check func(*testing.T, Args)
	}{
		{args: nil, want: CmdTUI},
		{args: []string{"chat"}, want: CmdChat},
		{args: []string{"ask", "what", "is", "go?"}, want: CmdAsk, check: func(t *testing.T, a Args) {
			assert.Equal(t, "what is go?", a.Query)
		}},
		{args: []string{"ls"}, want: CmdList},
		{args: []string{"export", "--dir", "/tmp", "--md"}, want: CmdExport, check: func(t *testing.T, a Args) {
			assert.Equal(t, "/tmp", a.Dir)
			assert.True(t, a.Markdown)
		}},
		{args: []string{"settings"}, want: CmdSettings, check: func(t *testing.T, a Args) {
			assert.Equal(t, "show", a.Subcommand)
		}},
		{args: []string{"settings", "set", "prompt", "Be", "brief"}, want: CmdSettings, check: func(t *testing.T, a Args) {
			assert.Equal(t, "set", a.Subcommand)
			assert.Equal(t, "prompt", a.Key)
			assert.Equal(t, "Be brief", a.Value)
		}},
		{args: []string{"clear", "--confirm"}, want: CmdClear, check: func(t *testing.T, a Args) {
			assert.True(t, a.Confirm)
		}},
		{args: []string{"--data-dir", "/data", "--storage", "SQLite", "list"}, want: CmdList, check: func(t *testing.T, a Args) {
			assert.Equal(t, "/data", a.DataDir)
			assert.Equal(t, "SQLite", a.Storage)
		}},
		{args: []string{"-h"}, want: CmdHelp},
		{args: []string{"--version"}, want: CmdVersion},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			cmd, args, err := Parse(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, _, err := Parse([]string{"frobnicate"})
	assert.True(t, IsUsageError(err))
	assert.Contains(t, err.Error(), "frobnicate")

	_, _, err = Parse([]string{"settings", "set"})
	assert.True(t, IsUsageError(err))
	assert.Contains(t, err.Error(), "missing key")

	_, _, err = Parse([]string{"settings", "set", "model"})
	assert.Contains(t, err.Error(), "missing value")

	_, _, err = Parse([]string{"settings", "drop"})
	assert.True(t, IsUsageError(err))
}

func TestLoadConfig_FlagsWin(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage]\nbackend = \"file\"\n[ui]\nmarkdown = true\n"), 0600))

	cfg, err := LoadConfig(Args{
		ConfigPath: path,
		DataDir:    filepath.Join(dir, "data"),
		Storage:    "SQLITE",
		LogLevel:   "DEBUG",
		NoMarkdown: true,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.DataDir)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.UI.Markdown)
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	_, err := LoadConfig(Args{ConfigPath: path, Storage: "floppy"})
	assert.Error(t, err)
}

// =============================================================================
// APP HELPERS
// =============================================================================

func replyHandler(reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"`+reply+`"}}]}`)
	}
}

func newTestApp(t *testing.T, handler http.HandlerFunc) *App {
	t.Helper()
	return newTestAppWith(t, handler, nil)
}

func newTestAppWith(t *testing.T, handler http.HandlerFunc, adjust func(*config.Config)) *App {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Storage.DataDir = t.TempDir()
	cfg.Storage.Backend = "memory"
	cfg.Storage.WatchSettings = false
	cfg.Endpoint.URL = srv.URL
	cfg.Endpoint.APIKey = "sk-test-1234"
	cfg.Chat.Cooldown = config.D(0)
	cfg.Chat.MaxRetries = 0
	cfg.Chat.RevealDelay = config.D(0)
	cfg.UI.Theme = "dark"
	if adjust != nil {
		adjust(cfg)
	}

	app, err := NewApp(cfg, AppOptions{
		LogOutput:   io.Discard,
		DetectTheme: func() model.Theme { return model.ThemeDark },
	})
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })
	return app
}

func newTestREPL(t *testing.T, app *App, confirm func(string) bool) (*REPL, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	repl := NewREPL(app, &out, &errOut, confirm)
	app.Start()
	return repl, &out, &errOut
}

// =============================================================================
// REPL TESTS
// =============================================================================

func TestREPL_SendPrintsReply(t *testing.T) {
	app := newTestApp(t, replyHandler("Hi there, how can I help?"))
	repl, out, _ := newTestREPL(t, app, nil)

	assert.Contains(t, out.String(), "Hello! I'm your assistant.", "greeting of the new conversation")

	assert.True(t, repl.Handle(context.Background(), "hello"))
	assert.Contains(t, out.String(), "Hi there, how can I help?")

	msgs := app.Controller.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.StatusComplete, msgs[2].Status)
	assert.Equal(t, "hello", app.Controller.Active().Name)
}

func TestREPL_FailedSendAlerts(t *testing.T) {
	app := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	repl, _, errOut := newTestREPL(t, app, nil)

	assert.True(t, repl.Handle(context.Background(), "hello"))
	assert.Contains(t, errOut.String(), "! ")
	assert.Equal(t, model.StatusError, app.Controller.Messages()[2].Status)
}

func TestREPL_Commands(t *testing.T) {
	app := newTestApp(t, replyHandler("ok"))
	repl, out, errOut := newTestREPL(t, app, nil)

	assert.True(t, repl.Handle(context.Background(), "/rename Trip plans"))
	assert.Contains(t, out.String(), "Renamed to Trip plans.")

	assert.True(t, repl.Handle(context.Background(), "/switch 99"))
	assert.Contains(t, errOut.String(), "Error:")

	assert.True(t, repl.Handle(context.Background(), "   "))
	assert.False(t, repl.Handle(context.Background(), "/quit"))
}

func TestREPL_ConfirmNew(t *testing.T) {
	app := newTestApp(t, replyHandler("ok"))
	answer := false
	var asked []string
	repl, out, _ := newTestREPL(t, app, func(prompt string) bool {
		asked = append(asked, prompt)
		return answer
	})

	repl.Handle(context.Background(), "first question")
	before := app.Controller.Active().ID

	repl.Handle(context.Background(), "/new")
	require.Len(t, asked, 1)
	assert.Contains(t, out.String(), "Cancelled.")
	assert.Equal(t, before, app.Controller.Active().ID)

	answer = true
	repl.Handle(context.Background(), "/new")
	assert.NotEqual(t, before, app.Controller.Active().ID)
	assert.Len(t, app.Controller.Conversations(), 1)
}

func TestREPL_SwitchPrintsTranscript(t *testing.T) {
	app := newTestApp(t, replyHandler("Paris."))
	repl, out, _ := newTestREPL(t, app, func(string) bool { return true })

	repl.Handle(context.Background(), "capital of France?")
	repl.Handle(context.Background(), "/new")
	out.Reset()

	repl.Handle(context.Background(), "/switch 1")
	assert.Contains(t, out.String(), "-- capital of France? --")
	assert.Contains(t, out.String(), "Paris.")
}

// =============================================================================
// SUBCOMMAND TESTS
// =============================================================================

func TestHandleAsk(t *testing.T) {
	app := newTestApp(t, replyHandler("42"))
	var out bytes.Buffer

	require.NoError(t, HandleAsk(app, Args{Query: "meaning of life"}, nil, &out))
	assert.Contains(t, out.String(), "42")
	assert.Len(t, app.Controller.Conversations(), 1)
}

func TestHandleAsk_MissingQuestion(t *testing.T) {
	app := newTestApp(t, replyHandler("42"))
	err := HandleAsk(app, Args{}, nil, io.Discard)
	assert.True(t, IsUsageError(err))
}

func TestHandleList(t *testing.T) {
	app := newTestApp(t, replyHandler("ok"))
	var out bytes.Buffer

	require.NoError(t, HandleList(app, &out))
	assert.Contains(t, out.String(), "No saved conversations.")

	require.NoError(t, app.Controller.Send(context.Background(), "weekend plans"))
	out.Reset()
	require.NoError(t, HandleList(app, &out))
	assert.Contains(t, out.String(), "weekend plans")
}

func TestHandleExport(t *testing.T) {
	app := newTestApp(t, replyHandler("ok"))
	app.Start()
	require.NoError(t, app.Controller.Send(context.Background(), "export me"))

	dir := t.TempDir()
	var out bytes.Buffer
	require.NoError(t, HandleExport(app, Args{Dir: dir, Markdown: true}, &out))
	assert.Contains(t, out.String(), "Exported to ")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".md"))
}

func TestHandleSettings(t *testing.T) {
	app := newTestApp(t, replyHandler("ok"))
	var out bytes.Buffer

	require.NoError(t, HandleSettings(app, Args{Subcommand: "set", Key: "key", Value: "sk-secret-9876"}, &out))
	assert.Contains(t, out.String(), "****9876")
	assert.NotContains(t, out.String(), "sk-secret")
	assert.Equal(t, "sk-secret-9876", app.Controller.Settings().APIKey)

	err := HandleSettings(app, Args{Subcommand: "set", Key: "temperature", Value: "hot"}, &out)
	assert.True(t, IsUsageError(err))

	out.Reset()
	require.NoError(t, HandleSettings(app, Args{Subcommand: "show"}, &out))
	assert.NotEmpty(t, out.String())
}

func TestHandleClear(t *testing.T) {
	app := newTestApp(t, replyHandler("ok"))
	assert.ErrorIs(t, HandleClear(app, Args{}, io.Discard), ErrNotConfirmed)

	app.Start()
	require.NoError(t, app.Controller.Send(context.Background(), "to be wiped"))
	require.Len(t, app.Controller.Conversations(), 1)

	var out bytes.Buffer
	require.NoError(t, HandleClear(app, Args{Confirm: true}, &out))
	assert.Contains(t, out.String(), "deleted")
	assert.Empty(t, app.Controller.Conversations())
}

func TestAppClose_StopsBackground(t *testing.T) {
	app := newTestAppWith(t, replyHandler("ok"), func(cfg *config.Config) {
		cfg.Storage.Backend = "file"
		cfg.Storage.WatchSettings = true
	})
	app.Start()

	done := make(chan struct{})
	go func() {
		app.cancel()
		app.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background work did not stop")
	}
}

func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	PrintVersion(&out)
	assert.Contains(t, out.String(), "rigchat "+Version)
}
