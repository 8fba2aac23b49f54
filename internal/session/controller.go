// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/repository"
	"github.com/jeranaias/rigchat/internal/reveal"
	"github.com/jeranaias/rigchat/internal/storage"
	"github.com/jeranaias/rigchat/internal/telemetry"
	"github.com/jeranaias/rigchat/internal/throttle"
	"github.com/jeranaias/rigchat/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyName is returned by Rename for a blank name.
	ErrEmptyName = errors.New("conversation name cannot be empty")

	// ErrInterrupted is returned by Send when the request was cancelled by a
	// switch, new conversation, delete or explicit Cancel.
	ErrInterrupted = errors.New("request interrupted")

	// ErrConversationNotFound is returned for unknown conversation IDs.
	ErrConversationNotFound = repository.ErrConversationNotFound
)

// Status line texts.
const (
	StatusReady     = "Ready"
	StatusSending   = "Sending..."
	StatusDone      = "Done"
	StatusFailed    = "Something went wrong."
	StatusThrottled = "Slow down, please wait..."
	StatusCancelled = "Cancelled"
)

// alertLimit bounds the length of error alerts.
const alertLimit = 100

// configAlert directs the user to settings when the endpoint is not set up.
const configAlert = "API URL or API key is missing. Open settings (/settings) to configure them."

// =============================================================================
// CONFIG
// =============================================================================

// Config holds the controller's tunables.
type Config struct {
	// MaxMessages is the ledger cap.
	MaxMessages int

	// ContextWindow is how many recent messages are sent with a request.
	ContextWindow int

	// TitleLength is how many runes of the first user message become the
	// automatic conversation name.
	TitleLength int

	// DefaultName is the name of a conversation before it is named.
	DefaultName string

	// Greeting is the seeded assistant message of a new conversation. Empty
	// disables the greeting.
	Greeting string

	// Reveal controls the pacing of reply disclosure.
	Reveal reveal.Options

	// DefaultSettings are used when no settings document exists.
	DefaultSettings model.Settings
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		MaxMessages:     DefaultMaxMessages,
		ContextWindow:   cloud.DefaultContextWindow,
		TitleLength:     20,
		DefaultName:     model.DefaultConversationName,
		Greeting:        "Hello! I'm your assistant. How can I help you today?",
		Reveal:          reveal.DefaultOptions(),
		DefaultSettings: model.DefaultSettings(),
	}
}

// Completer produces a reply for a request.
type Completer interface {
	Complete(ctx context.Context, req cloud.Request) (string, error)
}

// Deps are the collaborators a Controller needs.
type Deps struct {
	Store      *storage.Store
	Repository *repository.Repository
	Gate       *throttle.Gate
	Client     Completer
	Renderer   Renderer
	Logger     *slog.Logger
	Metrics    *telemetry.Metrics
	Now        func() time.Time
}

// =============================================================================
// CONTROLLER
// =============================================================================

// request tracks the one send in flight.
type request struct {
	convID        string
	placeholderID string
	cancel        context.CancelFunc
}

// Controller owns the active conversation and the send flow.
type Controller struct {
	mu       sync.Mutex
	conv     *model.Conversation
	ledger   *Ledger
	settings model.Settings
	inflight *request

	// Renderer calls are queued in outbox and run by a single drainer so
	// they keep their order without holding mu.
	outMu    sync.Mutex
	outbox   []func(Renderer)
	draining bool

	cfg      Config
	store    *storage.Store
	repo     *repository.Repository
	gate     *throttle.Gate
	client   Completer
	renderer Renderer
	logger   *slog.Logger
	metrics  *telemetry.Metrics
	now      func() time.Time
}

// NewController creates a controller. Call Restore before use.
func NewController(cfg Config, deps Deps) *Controller {
	def := DefaultConfig()
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = def.MaxMessages
	}
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = def.ContextWindow
	}
	if cfg.TitleLength <= 0 {
		cfg.TitleLength = def.TitleLength
	}
	if cfg.DefaultName == "" {
		cfg.DefaultName = def.DefaultName
	}

	c := &Controller{
		cfg:      cfg,
		store:    deps.Store,
		repo:     deps.Repository,
		gate:     deps.Gate,
		client:   deps.Client,
		renderer: deps.Renderer,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		now:      deps.Now,
		ledger:   NewLedger(cfg.MaxMessages),
		settings: cfg.DefaultSettings,
	}
	if c.renderer == nil {
		c.renderer = NopRenderer{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	c.logger = c.logger.With("component", "session")
	if c.now == nil {
		c.now = time.Now
	}
	if c.gate == nil {
		c.gate = throttle.New(throttle.DefaultCooldown)
	}
	if c.repo == nil {
		c.repo = repository.New(c.store, repository.WithLogger(c.logger))
	}
	c.conv = model.NewConversation(cfg.DefaultName)
	return c
}

// SetRenderer replaces the renderer. Surfaces that are constructed after the
// controller use it to attach themselves.
func (c *Controller) SetRenderer(r Renderer) {
	if r == nil {
		r = NopRenderer{}
	}
	c.outMu.Lock()
	c.renderer = r
	c.outMu.Unlock()
}

// Restore loads settings and conversations from storage and activates the
// most recently saved conversation, or starts a new one.
func (c *Controller) Restore() {
	c.mu.Lock()
	defer c.unlock()

	c.settings, _ = c.store.LoadSettings(c.cfg.DefaultSettings)
	n := c.repo.Load()
	c.logger.Info("session restored", "conversations", n)

	if recent := c.repo.MostRecent(); recent != nil {
		c.loadLocked(recent)
	} else {
		c.startNewLocked()
	}
	settings := c.settings
	c.emit(func(r Renderer) { r.SettingsChanged(settings) })
	c.emitStatus(StatusReady)
}

// =============================================================================
// LEDGER OPERATIONS
// =============================================================================

// AppendMessage adds a message to the active conversation and persists it.
func (c *Controller) AppendMessage(role model.Role, text string, status model.Status) model.Message {
	c.mu.Lock()
	defer c.unlock()
	return c.appendLocked(role, text, status, false)
}

// UpdateMessage changes a message's status, and its text when text is
// non-nil. Unknown IDs are ignored.
func (c *Controller) UpdateMessage(id string, status model.Status, text *string) {
	c.mu.Lock()
	defer c.unlock()
	c.updateLocked(id, status, text)
}

// Messages returns a copy of the active ledger.
func (c *Controller) Messages() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Messages()
}

// Active returns a copy of the active conversation including its messages.
func (c *Controller) Active() *model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Conversations lists saved conversations, most recent first.
func (c *Controller) Conversations() []*model.Conversation {
	return c.repo.ListSortedByRecency()
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	return c.gate.InFlight()
}

// NeedsConfirmNew reports whether starting a new conversation would leave
// one the user has written in. Surfaces ask before StartNew when it does.
func (c *Controller) NeedsConfirmNew() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked().UserTurns() > 0
}

func (c *Controller) appendLocked(role model.Role, text string, status model.Status, seed bool) model.Message {
	m := model.NewMessage(role, text, status)
	m.CreatedAt = c.now()
	m.Seed = seed

	evicted := c.ledger.Append(m)
	c.metrics.ObserveMessage(string(role))
	c.applyNamingLocked()
	c.persistLocked()

	if evicted > 0 {
		snap := c.snapshotLocked()
		c.emit(func(r Renderer) { r.ConversationLoaded(snap) })
	} else {
		c.emit(func(r Renderer) { r.MessageAdded(m) })
	}
	return m
}

func (c *Controller) updateLocked(id string, status model.Status, text *string) {
	m, ok := c.ledger.Update(id, status, text)
	if !ok {
		return
	}
	c.persistLocked()
	c.emit(func(r Renderer) { r.MessageUpdated(m) })
}

// applyNamingLocked names the conversation after its first user message
// once the ledger holds exactly one user and one assistant message.
func (c *Controller) applyNamingLocked() {
	msgs := c.ledger.Real()
	if len(msgs) != 2 || msgs[0].Role != model.RoleUser || msgs[1].Role != model.RoleAssistant {
		return
	}
	name := util.Prefix(msgs[0].Text, c.cfg.TitleLength)
	if name == c.conv.Name {
		return
	}
	c.conv.Name = name
	c.emit(func(r Renderer) { r.ConversationRenamed(name) })
}

// persistLocked writes the active conversation once it has a real message or
// has been saved before. Seed-only drafts stay in memory.
func (c *Controller) persistLocked() {
	if len(c.ledger.Real()) == 0 && !c.repo.Has(c.conv.ID) {
		return
	}
	c.conv.Messages = c.ledger.Messages()
	c.conv.LastSavedAt = c.repo.Upsert(c.conv)

	list := c.repo.ListSortedByRecency()
	c.emit(func(r Renderer) { r.ConversationsChanged(list) })
}

func (c *Controller) snapshotLocked() *model.Conversation {
	snap := c.conv.Clone()
	snap.Messages = c.ledger.Messages()
	return snap
}

// =============================================================================
// CONVERSATION OPERATIONS
// =============================================================================

// StartNew interrupts any request in flight, optionally saves the active
// conversation, and activates a fresh one containing only the greeting.
func (c *Controller) StartNew(persistPrevious bool) {
	c.mu.Lock()
	defer c.unlock()

	c.interruptLocked()
	if persistPrevious {
		c.persistLocked()
	}
	c.startNewLocked()
}

func (c *Controller) startNewLocked() {
	c.conv = model.NewConversation(c.cfg.DefaultName)
	c.ledger.Reset(nil)

	snap := c.snapshotLocked()
	c.emit(func(r Renderer) { r.ConversationLoaded(snap) })
	if c.cfg.Greeting != "" {
		c.appendLocked(model.RoleAssistant, c.cfg.Greeting, model.StatusComplete, true)
	}
	list := c.repo.ListSortedByRecency()
	c.emit(func(r Renderer) { r.ConversationsChanged(list) })
	c.emitStatus(StatusReady)
}

// SwitchTo saves the active conversation and activates the one with id.
func (c *Controller) SwitchTo(id string) error {
	c.mu.Lock()
	defer c.unlock()

	if id == c.conv.ID {
		return nil
	}
	target, err := c.repo.Get(id)
	if err != nil {
		return err
	}

	c.interruptLocked()
	c.persistLocked()
	c.loadLocked(target)
	return nil
}

// loadLocked activates conv. Messages left pending by an earlier process are
// marked interrupted since nothing will complete them.
func (c *Controller) loadLocked(conv *model.Conversation) {
	for i := range conv.Messages {
		if conv.Messages[i].Status.Pending() {
			conv.Messages[i].Status = model.StatusInterrupted
		}
	}
	c.conv = conv
	c.ledger.Reset(conv.Messages)

	snap := c.snapshotLocked()
	list := c.repo.ListSortedByRecency()
	c.emit(func(r Renderer) {
		r.ConversationLoaded(snap)
		r.ConversationsChanged(list)
	})
}

// Delete removes a conversation. Deleting the active conversation starts a
// new one.
func (c *Controller) Delete(id string) error {
	c.mu.Lock()
	defer c.unlock()

	active := id == c.conv.ID
	if !active && !c.repo.Has(id) {
		return repository.NotFound("delete", id)
	}
	if active {
		c.interruptLocked()
	}
	c.repo.Delete(id)
	c.logger.Info("conversation deleted", "id", id, "active", active)

	if active {
		c.startNewLocked()
		return nil
	}
	list := c.repo.ListSortedByRecency()
	c.emit(func(r Renderer) { r.ConversationsChanged(list) })
	return nil
}

// Rename sets the active conversation's name.
func (c *Controller) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}

	c.mu.Lock()
	defer c.unlock()
	c.conv.Name = name
	c.persistLocked()
	c.emit(func(r Renderer) { r.ConversationRenamed(name) })
	return nil
}

// =============================================================================
// SEND
// =============================================================================

// Send appends text as a user message, requests a completion and reveals it
// into an assistant placeholder. It blocks until the reveal ends.
//
// Blank text is ignored. ErrThrottled and ErrInFlight are returned when the
// gate refuses; ErrInterrupted when the request was cancelled.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	release, err := c.gate.Acquire()
	if err != nil {
		c.metrics.ObserveThrottled()
		c.notify(func(r Renderer) {
			r.Status(StatusThrottled)
			r.Alert("You're sending too fast, please wait a second.")
		})
		return err
	}
	defer release()

	c.mu.Lock()
	c.appendLocked(model.RoleUser, text, model.StatusSent, false)
	placeholder := c.appendLocked(model.RoleAssistant, "", model.StatusSending, false)
	settings := c.settings
	turns := cloud.BuildContext(settings.SystemPrompt, c.ledger.Messages(), c.cfg.ContextWindow)

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req := &request{convID: c.conv.ID, placeholderID: placeholder.ID, cancel: cancel}
	c.inflight = req
	c.emitStatus(StatusSending)
	c.unlock()

	c.logger.Debug("sending", "conversation", req.convID, "turns", len(turns))
	reply, err := c.client.Complete(reqCtx, cloud.Request{
		Settings: settings,
		Turns:    turns,
		OnStatus: func(s string) { c.notify(func(r Renderer) { r.Status(s) }) },
	})

	c.mu.Lock()
	if c.inflight != req {
		c.unlock()
		return ErrInterrupted
	}
	if err != nil {
		c.inflight = nil
		c.failLocked(req, err)
		c.unlock()
		if errors.Is(err, context.Canceled) {
			return ErrInterrupted
		}
		return err
	}
	c.unlock()

	out := reveal.Reveal(reqCtx, reply, c.cfg.Reveal, func(s string, st model.Status) {
		c.mu.Lock()
		defer c.unlock()
		if c.inflight != req {
			return
		}
		c.updateLocked(req.placeholderID, st, &s)
	})

	c.mu.Lock()
	defer c.unlock()
	if c.inflight != req {
		return ErrInterrupted
	}
	c.inflight = nil
	if out.Interrupted {
		c.emitStatus(StatusCancelled)
		return ErrInterrupted
	}
	c.emitStatus(StatusDone)
	return nil
}

// failLocked marks the placeholder of a failed request and raises an alert.
func (c *Controller) failLocked(req *request, err error) {
	if errors.Is(err, context.Canceled) {
		c.updateLocked(req.placeholderID, model.StatusInterrupted, nil)
		c.emitStatus(StatusCancelled)
		return
	}

	var text *string
	var unrec *cloud.UnrecognizedResponseError
	if errors.As(err, &unrec) {
		diag := cloud.ErrUnrecognizedResponse.Error() + ": " + unrec.Dump
		text = &diag
	}
	c.updateLocked(req.placeholderID, model.StatusError, text)

	alert := util.Clip(err.Error(), alertLimit)
	var cfgErr *cloud.ConfigError
	if errors.As(err, &cfgErr) {
		alert = configAlert
	}
	c.logger.Warn("send failed", "conversation", req.convID, "error", err)
	c.emit(func(r Renderer) {
		r.Status(StatusFailed)
		r.Alert(alert)
	})
}

// Cancel interrupts the request in flight, if any.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.unlock()
	return c.interruptLocked()
}

// interruptLocked cancels the request in flight and marks its placeholder
// interrupted. The completion, when it arrives, is discarded.
func (c *Controller) interruptLocked() bool {
	req := c.inflight
	if req == nil {
		return false
	}
	c.inflight = nil
	req.cancel()

	if req.convID == c.conv.ID {
		if m, ok := c.ledger.Find(req.placeholderID); ok && m.Status.Pending() {
			c.updateLocked(req.placeholderID, model.StatusInterrupted, nil)
		}
	}
	c.logger.Info("request interrupted", "conversation", req.convID)
	c.emitStatus(StatusCancelled)
	return true
}

// =============================================================================
// SETTINGS
// =============================================================================

// Settings returns the current settings.
func (c *Controller) Settings() model.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// UpdateSettings validates and persists s. A failed write is logged; the new
// settings stay in effect for this session.
func (c *Controller) UpdateSettings(s model.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.unlock()
	c.applySettingsLocked(s)
	return nil
}

// ToggleTheme flips between light and dark and persists the choice.
func (c *Controller) ToggleTheme() model.Theme {
	c.mu.Lock()
	defer c.unlock()
	s := c.settings
	s.Theme = s.Theme.Toggle()
	c.applySettingsLocked(s)
	return s.Theme
}

// ReloadSettings rereads the settings document, picking up edits made by
// another process.
func (c *Controller) ReloadSettings() {
	c.mu.Lock()
	defer c.unlock()
	s, found := c.store.LoadSettings(c.cfg.DefaultSettings)
	if !found || s == c.settings {
		return
	}
	c.settings = s
	c.emit(func(r Renderer) { r.SettingsChanged(s) })
}

func (c *Controller) applySettingsLocked(s model.Settings) {
	c.settings = s
	if err := c.store.SaveSettings(s); err != nil {
		c.logger.Error("failed to persist settings", "error", err)
	}
	c.emit(func(r Renderer) { r.SettingsChanged(s) })
}

// =============================================================================
// EXPORT AND WIPE
// =============================================================================

// Snapshot captures the active conversation and every saved one.
func (c *Controller) Snapshot() export.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return export.Snapshot{
		Active:     c.snapshotLocked(),
		All:        c.repo.All(),
		ExportedAt: c.now(),
	}
}

// Export writes the snapshot with exporter to w.
func (c *Controller) Export(w io.Writer, exporter export.Exporter) error {
	data, err := exporter.Export(c.Snapshot())
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ExportToFile writes the snapshot with exporter into dir and returns the
// file path.
func (c *Controller) ExportToFile(dir string, exporter export.Exporter) (string, error) {
	path, err := export.ToFile(c.Snapshot(), exporter, dir)
	if err != nil {
		return "", err
	}
	c.logger.Info("exported", "path", path)
	return path, nil
}

// WipeStorage deletes both stored documents and resets all in-memory state
// to a fresh session with default settings.
func (c *Controller) WipeStorage() error {
	c.mu.Lock()
	defer c.unlock()

	c.interruptLocked()
	err := c.store.Clear()
	if err != nil {
		c.logger.Error("failed to clear storage", "error", err)
	}
	c.repo.Reset()
	c.settings = c.cfg.DefaultSettings
	settings := c.settings
	c.emit(func(r Renderer) { r.SettingsChanged(settings) })
	c.startNewLocked()
	return err
}

// =============================================================================
// RENDER DISPATCH
// =============================================================================

// emit queues a renderer call.
func (c *Controller) emit(fn func(Renderer)) {
	c.outMu.Lock()
	c.outbox = append(c.outbox, fn)
	c.outMu.Unlock()
}

func (c *Controller) emitStatus(text string) {
	c.emit(func(r Renderer) { r.Status(text) })
}

// unlock releases c.mu and then delivers queued renderer calls.
func (c *Controller) unlock() {
	c.mu.Unlock()
	c.flush()
}

// notify queues a renderer call from outside the lock and delivers it.
func (c *Controller) notify(fn func(Renderer)) {
	c.emit(fn)
	c.flush()
}

// flush runs queued renderer calls in order. When another goroutine is
// already draining, it picks up the new calls and flush returns at once.
func (c *Controller) flush() {
	c.outMu.Lock()
	if c.draining {
		c.outMu.Unlock()
		return
	}
	c.draining = true
	for len(c.outbox) > 0 {
		batch := c.outbox
		c.outbox = nil
		r := c.renderer
		c.outMu.Unlock()
		for _, fn := range batch {
			fn(r)
		}
		c.outMu.Lock()
	}
	c.draining = false
	c.outMu.Unlock()
}
