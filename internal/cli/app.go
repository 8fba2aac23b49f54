// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/commands"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/logging"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/repository"
	"github.com/jeranaias/rigchat/internal/reveal"
	"github.com/jeranaias/rigchat/internal/session"
	"github.com/jeranaias/rigchat/internal/storage"
	"github.com/jeranaias/rigchat/internal/telemetry"
	"github.com/jeranaias/rigchat/internal/throttle"
	"github.com/jeranaias/rigchat/internal/ui/styles"
	"github.com/jeranaias/rigchat/internal/util"
)

// =============================================================================
// APP
// =============================================================================

// App holds the components every surface shares.
type App struct {
	Config     *config.Config
	Logger     *logging.Logger
	Store      *storage.Store
	Controller *session.Controller
	Registry   *commands.Registry
	Metrics    *telemetry.Metrics
	DataDir    string

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
}

// AppOptions adjusts how NewApp wires the components.
type AppOptions struct {
	// Renderer receives the controller's reports. Nil discards them until
	// one is attached with Controller.SetRenderer.
	Renderer session.Renderer

	// LogOutput replaces the log file.
	LogOutput io.Writer

	// HTTPClient replaces the completion client's transport.
	HTTPClient *http.Client

	// DetectTheme resolves ui.theme = "auto". Nil asks the terminal.
	DetectTheme func() model.Theme
}

// NewApp wires storage, the completion client and the session controller
// from cfg. Call Start before use and Close when done.
func NewApp(cfg *config.Config, opts AppOptions) (*App, error) {
	dataDir, err := cfg.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	if err := os.MkdirAll(dataDir, util.DirPerm); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	logger, err := newLogger(cfg, opts.LogOutput)
	if err != nil {
		return nil, err
	}

	backend, err := storage.Open(storage.Kind(cfg.Storage.Backend), dataDir)
	if err != nil {
		logger.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}
	store := storage.NewStore(backend, logger.WithComponent("storage"))

	metrics := telemetry.New()
	client := cloud.NewClient().
		WithTimeout(cfg.Endpoint.Timeout.Duration).
		WithMaxRetries(cfg.Chat.MaxRetries).
		WithRetryBaseDelay(cfg.Chat.RetryBaseDelay.Duration).
		WithLogger(logger.Logger).
		WithMetrics(metrics)
	if opts.HTTPClient != nil {
		client.WithHTTPClient(opts.HTTPClient)
	}

	detect := opts.DetectTheme
	if detect == nil {
		detect = styles.DetectTheme
	}
	auto := model.ThemeDark
	if cfg.UI.Theme == "auto" {
		auto = detect()
	}

	repoLogger := logger.WithComponent("repository")
	ctrl := session.NewController(session.Config{
		MaxMessages:   cfg.Chat.MaxMessages,
		ContextWindow: cfg.Chat.ContextWindow,
		TitleLength:   cfg.Chat.TitleLength,
		DefaultName:   cfg.Chat.DefaultName,
		Greeting:      cfg.Chat.Greeting,
		Reveal: reveal.Options{
			ChunkSize: cfg.Chat.RevealChunk,
			Delay:     cfg.Chat.RevealDelay.Duration,
		},
		DefaultSettings: cfg.DefaultSettings(auto),
	}, session.Deps{
		Store:      store,
		Repository: repository.New(store, repository.WithLogger(repoLogger)),
		Gate:       throttle.New(cfg.Chat.Cooldown.Duration),
		Client:     client,
		Renderer:   opts.Renderer,
		Logger:     logger.Logger,
		Metrics:    metrics,
	})

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Controller: ctrl,
		Registry:   commands.NewRegistry(),
		Metrics:    metrics,
		DataDir:    dataDir,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func newLogger(cfg *config.Config, out io.Writer) (*logging.Logger, error) {
	lc := logging.Config{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.Format == "json",
	}
	if out != nil {
		lc.Output = out
		return logging.New(lc), nil
	}
	path, err := cfg.LogPath()
	if err != nil {
		return nil, fmt.Errorf("resolve log path: %w", err)
	}
	return logging.NewFile(lc, path)
}

// Start restores the saved session and starts the background watchers.
// Later calls do nothing.
func (a *App) Start() {
	a.startOnce.Do(a.start)
}

func (a *App) start() {
	a.Controller.Restore()

	if fb, ok := a.Store.Backend().(*storage.FileBackend); ok && a.Config.Storage.WatchSettings {
		a.goBackground("settings watcher", func(ctx context.Context) error {
			return fb.Watch(ctx, storage.KeySettings, a.Controller.ReloadSettings)
		})
	}
	if a.Config.Metrics.Enabled {
		a.goBackground("metrics listener", func(ctx context.Context) error {
			return a.Metrics.Serve(ctx, a.Config.Metrics.Addr, a.Logger.WithComponent("metrics"))
		})
	}
}

func (a *App) goBackground(name string, fn func(ctx context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := fn(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.LogError(err, name+" stopped")
		}
	}()
}

// ExportDir is where exports are written by default.
func (a *App) ExportDir() string {
	return filepath.Join(a.DataDir, "exports")
}

// CommandContext returns the slash command context for this app.
func (a *App) CommandContext() *commands.Context {
	return &commands.Context{
		Session:   a.Controller,
		ExportDir: a.ExportDir(),
		ListWidth: a.Config.UI.ListWidth,
		Registry:  a.Registry,
	}
}

// Close cancels any request in flight, stops the watchers and releases
// storage and the log file.
func (a *App) Close() error {
	a.Controller.Cancel()
	a.cancel()
	a.wg.Wait()
	return errors.Join(a.Store.Close(), a.Logger.Close())
}
