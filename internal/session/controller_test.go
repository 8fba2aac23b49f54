// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/export"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/reveal"
	"github.com/jeranaias/rigchat/internal/storage"
	"github.com/jeranaias/rigchat/internal/throttle"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	calls   int
	last    cloud.Request
	started chan struct{}
}

func (f *fakeCompleter) Complete(ctx context.Context, req cloud.Request) (string, error) {
	f.mu.Lock()
	f.calls++
	f.last = req
	block, reply, err := f.block, f.reply, f.err
	f.mu.Unlock()

	if f.started != nil {
		close(f.started)
	}
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

type recordingRenderer struct {
	NopRenderer
	mu       sync.Mutex
	alerts   []string
	statuses []string
	names    []string
	updates  []model.Message
	onUpdate func(model.Message)
}

func (r *recordingRenderer) Alert(s string) {
	r.mu.Lock()
	r.alerts = append(r.alerts, s)
	r.mu.Unlock()
}

func (r *recordingRenderer) Status(s string) {
	r.mu.Lock()
	r.statuses = append(r.statuses, s)
	r.mu.Unlock()
}

func (r *recordingRenderer) ConversationRenamed(name string) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
}

func (r *recordingRenderer) MessageUpdated(m model.Message) {
	r.mu.Lock()
	r.updates = append(r.updates, m)
	fn := r.onUpdate
	r.mu.Unlock()
	if fn != nil {
		fn(m)
	}
}

func (r *recordingRenderer) Alerts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.alerts...)
}

type harness struct {
	ctrl     *Controller
	store    *storage.Store
	renderer *recordingRenderer
	client   *fakeCompleter
	gate     *throttle.Gate
}

func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()
	return newHarnessWithStore(t, storage.NewStore(storage.NewMemoryBackend(), nil), mutate...)
}

func newHarnessWithStore(t *testing.T, store *storage.Store, mutate ...func(*Config)) *harness {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Reveal = reveal.Options{ChunkSize: 5}
	cfg.DefaultSettings.EndpointURL = "https://api.example.com/v1/chat/completions"
	cfg.DefaultSettings.APIKey = "sk-test"
	for _, fn := range mutate {
		fn(&cfg)
	}

	h := &harness{
		store:    store,
		renderer: &recordingRenderer{},
		client:   &fakeCompleter{reply: "Paris is the capital of France."},
		gate:     throttle.New(0),
	}
	h.ctrl = NewController(cfg, Deps{
		Store:    store,
		Gate:     h.gate,
		Client:   h.client,
		Renderer: h.renderer,
	})
	h.ctrl.Restore()
	return h
}

func lastMessage(t *testing.T, c *Controller) model.Message {
	t.Helper()
	msgs := c.Messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func findSaved(t *testing.T, c *Controller, id string) *model.Conversation {
	t.Helper()
	for _, conv := range c.Conversations() {
		if conv.ID == id {
			return conv
		}
	}
	return nil
}

// =============================================================================
// SEND
// =============================================================================

func TestSend_Success(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Send(context.Background(), "  What is the capital of France?  "))

	msgs := h.ctrl.Messages()
	require.Len(t, msgs, 3, "greeting, user, assistant")
	assert.True(t, msgs[0].Seed)
	assert.Equal(t, model.RoleUser, msgs[1].Role)
	assert.Equal(t, "What is the capital of France?", msgs[1].Text)
	assert.Equal(t, model.StatusSent, msgs[1].Status)
	assert.Equal(t, "Paris is the capital of France.", msgs[2].Text)
	assert.Equal(t, model.StatusComplete, msgs[2].Status)

	assert.Equal(t, "What is the capital ...", h.ctrl.Active().Name)
	assert.False(t, h.gate.InFlight())

	// The request carried the system prompt and the user message but not the
	// empty placeholder.
	turns := h.client.last.Turns
	require.NotEmpty(t, turns)
	assert.Equal(t, "system", turns[0].Role)
	assert.Equal(t, "What is the capital of France?", turns[len(turns)-1].Content)
}

func TestSend_RevealUpdatesInOrder(t *testing.T) {
	h := newHarness(t)
	h.client.reply = "Hello World"
	require.NoError(t, h.ctrl.Send(context.Background(), "hi"))

	var texts []string
	var statuses []model.Status
	for _, m := range h.renderer.updates {
		texts = append(texts, m.Text)
		statuses = append(statuses, m.Status)
	}
	assert.Equal(t, []string{"Hello", "Hello Worl", "Hello World"}, texts)
	assert.Equal(t, []model.Status{model.StatusStreaming, model.StatusStreaming, model.StatusComplete}, statuses)
}

func TestSend_BlankIgnored(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Send(context.Background(), "   \n"))
	assert.Zero(t, h.client.calls)
	assert.Len(t, h.ctrl.Messages(), 1)
}

func TestSend_PersistsWriteThrough(t *testing.T) {
	store := storage.NewStore(storage.NewMemoryBackend(), nil)
	h := newHarnessWithStore(t, store)
	require.NoError(t, h.ctrl.Send(context.Background(), "remember me"))
	id := h.ctrl.Active().ID

	restored := newHarnessWithStore(t, store)
	active := restored.ctrl.Active()
	assert.Equal(t, id, active.ID, "most recent conversation is restored")
	require.Len(t, active.Messages, 3)
	assert.Equal(t, "remember me", active.Messages[1].Text)
}

func TestSend_ConfigErrorAlertsAndReleases(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.DefaultSettings.APIKey = "" })
	h.client.err = &cloud.ConfigError{Fields: []string{"API key"}}

	err := h.ctrl.Send(context.Background(), "hi")
	var cfgErr *cloud.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	assert.Equal(t, model.StatusError, lastMessage(t, h.ctrl).Status)
	assert.Equal(t, []string{configAlert}, h.renderer.Alerts())
	assert.False(t, h.gate.InFlight(), "gate released after failure")
}

func TestSend_TransientErrorTruncatesAlert(t *testing.T) {
	h := newHarness(t)
	h.client.err = errors.New(strings.Repeat("x", 300))

	require.Error(t, h.ctrl.Send(context.Background(), "hi"))
	alerts := h.renderer.Alerts()
	require.Len(t, alerts, 1)
	assert.Len(t, alerts[0], 100)
	assert.Equal(t, model.StatusError, lastMessage(t, h.ctrl).Status)
}

func TestSend_UnrecognizedShowsDiagnostic(t *testing.T) {
	h := newHarness(t)
	h.client.err = &cloud.UnrecognizedResponseError{Dump: `{"weird":true}`}

	err := h.ctrl.Send(context.Background(), "hi")
	require.ErrorIs(t, err, cloud.ErrUnrecognizedResponse)

	last := lastMessage(t, h.ctrl)
	assert.Equal(t, model.StatusError, last.Status)
	assert.Contains(t, last.Text, `{"weird":true}`)
}

func TestSend_Throttled(t *testing.T) {
	h := newHarness(t)
	h.gate = throttle.New(time.Hour)
	h.ctrl.gate = h.gate

	require.NoError(t, h.ctrl.Send(context.Background(), "first"))
	err := h.ctrl.Send(context.Background(), "second")
	require.ErrorIs(t, err, throttle.ErrThrottled)

	assert.Equal(t, 1, h.client.calls)
	assert.Len(t, h.renderer.Alerts(), 1)
	assert.Len(t, h.ctrl.Messages(), 3, "throttled send appends nothing")
}

func TestSend_InterruptedByStartNew(t *testing.T) {
	h := newHarness(t)
	h.client.block = true
	h.client.started = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Send(context.Background(), "slow question") }()
	<-h.client.started

	oldID := h.ctrl.Active().ID
	h.ctrl.StartNew(true)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrInterrupted)
	case <-time.After(3 * time.Second):
		t.Fatal("Send did not return after interrupt")
	}

	old := findSaved(t, h.ctrl, oldID)
	require.NotNil(t, old)
	assert.Equal(t, model.StatusInterrupted, old.Messages[len(old.Messages)-1].Status)

	// The new conversation holds only the greeting.
	msgs := h.ctrl.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Seed)
	assert.False(t, h.gate.InFlight())
}

func TestSend_CancelDuringReveal(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.Reveal = reveal.Options{ChunkSize: 5, Delay: time.Hour} })
	h.client.reply = strings.Repeat("word ", 50)

	streaming := make(chan struct{})
	var once sync.Once
	h.renderer.onUpdate = func(m model.Message) {
		if m.Status == model.StatusStreaming {
			once.Do(func() { close(streaming) })
		}
	}

	done := make(chan error, 1)
	go func() { done <- h.ctrl.Send(context.Background(), "tell me") }()
	<-streaming
	assert.True(t, h.ctrl.Cancel())

	require.ErrorIs(t, <-done, ErrInterrupted)
	last := lastMessage(t, h.ctrl)
	assert.Equal(t, model.StatusInterrupted, last.Status)
	assert.Equal(t, "word ", last.Text, "reveal stops at the last committed prefix")
	assert.False(t, h.ctrl.Cancel(), "nothing left to cancel")
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func TestSwitchTo_PersistsOutgoingFirst(t *testing.T) {
	h := newHarness(t)
	h.ctrl.AppendMessage(model.RoleUser, "in B", model.StatusSent)
	b := h.ctrl.Active().ID

	h.ctrl.StartNew(true)
	a := h.ctrl.Active().ID
	h.ctrl.AppendMessage(model.RoleUser, "unsaved in A", model.StatusSent)

	require.NoError(t, h.ctrl.SwitchTo(b))
	assert.Equal(t, b, h.ctrl.Active().ID)

	saved := findSaved(t, h.ctrl, a)
	require.NotNil(t, saved)
	assert.Equal(t, "unsaved in A", saved.Messages[len(saved.Messages)-1].Text)
}

func TestSwitchTo_Unknown(t *testing.T) {
	h := newHarness(t)
	before := h.ctrl.Active().ID
	err := h.ctrl.SwitchTo("does-not-exist")
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Equal(t, before, h.ctrl.Active().ID)
}

func TestDelete_ActiveStartsFresh(t *testing.T) {
	h := newHarness(t)
	h.ctrl.AppendMessage(model.RoleUser, "doomed", model.StatusSent)
	id := h.ctrl.Active().ID
	require.NotNil(t, findSaved(t, h.ctrl, id))

	require.NoError(t, h.ctrl.Delete(id))
	assert.NotEqual(t, id, h.ctrl.Active().ID)
	assert.Nil(t, findSaved(t, h.ctrl, id))
	assert.Len(t, h.ctrl.Messages(), 1)
}

func TestDelete_Background(t *testing.T) {
	h := newHarness(t)
	h.ctrl.AppendMessage(model.RoleUser, "old", model.StatusSent)
	old := h.ctrl.Active().ID
	h.ctrl.StartNew(true)
	current := h.ctrl.Active().ID

	require.NoError(t, h.ctrl.Delete(old))
	assert.Equal(t, current, h.ctrl.Active().ID)
	assert.ErrorIs(t, h.ctrl.Delete(old), ErrConversationNotFound)
}

func TestRename(t *testing.T) {
	h := newHarness(t)
	h.ctrl.AppendMessage(model.RoleUser, "x", model.StatusSent)

	assert.ErrorIs(t, h.ctrl.Rename("   "), ErrEmptyName)
	require.NoError(t, h.ctrl.Rename("  Trip planning "))
	assert.Equal(t, "Trip planning", h.ctrl.Active().Name)
	assert.Equal(t, "Trip planning", findSaved(t, h.ctrl, h.ctrl.Active().ID).Name)
}

func TestNaming_OnlyAtExactlyTwoRealMessages(t *testing.T) {
	h := newHarness(t)
	h.ctrl.AppendMessage(model.RoleUser, "Short", model.StatusSent)
	assert.Equal(t, model.DefaultConversationName, h.ctrl.Active().Name)

	h.ctrl.AppendMessage(model.RoleAssistant, "reply", model.StatusComplete)
	assert.Equal(t, "Short", h.ctrl.Active().Name)

	require.NoError(t, h.ctrl.Rename("Custom"))
	h.ctrl.AppendMessage(model.RoleUser, "more", model.StatusSent)
	assert.Equal(t, "Custom", h.ctrl.Active().Name, "later messages keep the user's name")
}

func TestSeedOnlyConversationNotListed(t *testing.T) {
	h := newHarness(t)
	h.ctrl.StartNew(true)
	h.ctrl.StartNew(true)
	assert.Empty(t, h.ctrl.Conversations())
	assert.False(t, h.ctrl.NeedsConfirmNew())

	h.ctrl.AppendMessage(model.RoleUser, "hi", model.StatusSent)
	assert.True(t, h.ctrl.NeedsConfirmNew())
}

func TestLedgerCapThroughController(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.MaxMessages = 5 })
	for i := 0; i < 8; i++ {
		h.ctrl.AppendMessage(model.RoleUser, string(rune('a'+i)), model.StatusSent)
	}
	msgs := h.ctrl.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, "d", msgs[0].Text)
	assert.Equal(t, "h", msgs[4].Text)

	h.ctrl.UpdateMessage("missing-id", model.StatusError, nil)
}

func TestRestore_MarksPendingInterrupted(t *testing.T) {
	store := storage.NewStore(storage.NewMemoryBackend(), nil)
	conv := model.NewConversation("crashed")
	conv.Messages = []model.Message{
		model.NewMessage(model.RoleUser, "q", model.StatusSent),
		model.NewMessage(model.RoleAssistant, "half", model.StatusStreaming),
	}
	conv.LastSavedAt = time.Now()
	require.NoError(t, store.Save(storage.KeyConversations, map[string]*model.Conversation{conv.ID: conv}))

	h := newHarnessWithStore(t, store)
	assert.Equal(t, conv.ID, h.ctrl.Active().ID)
	assert.Equal(t, model.StatusInterrupted, lastMessage(t, h.ctrl).Status)
}

// =============================================================================
// SETTINGS, EXPORT, WIPE
// =============================================================================

func TestSettings_UpdateAndToggle(t *testing.T) {
	store := storage.NewStore(storage.NewMemoryBackend(), nil)
	h := newHarnessWithStore(t, store)

	s := h.ctrl.Settings()
	s.Temperature = 2
	assert.ErrorIs(t, h.ctrl.UpdateSettings(s), model.ErrTemperatureRange)

	s.Temperature = 0.1
	s.Model = "gemini-2.5-flash"
	require.NoError(t, h.ctrl.UpdateSettings(s))
	assert.Equal(t, model.ThemeLight, h.ctrl.ToggleTheme())

	loaded, found := store.LoadSettings(model.DefaultSettings())
	require.True(t, found)
	assert.Equal(t, 0.1, loaded.Temperature)
	assert.Equal(t, "gemini-2.5-flash", loaded.Model)
	assert.Equal(t, model.ThemeLight, loaded.Theme)
}

func TestReloadSettings(t *testing.T) {
	store := storage.NewStore(storage.NewMemoryBackend(), nil)
	h := newHarnessWithStore(t, store)

	external := h.ctrl.Settings()
	external.SystemPrompt = "edited elsewhere"
	require.NoError(t, store.SaveSettings(external))

	h.ctrl.ReloadSettings()
	assert.Equal(t, "edited elsewhere", h.ctrl.Settings().SystemPrompt)
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.ctrl.Send(context.Background(), "export me"))

	var buf bytes.Buffer
	require.NoError(t, h.ctrl.Export(&buf, export.NewJSONExporter()))

	var doc struct {
		Messages         []model.Message                `json:"messages"`
		Title            string                         `json:"title"`
		AllConversations map[string]*model.Conversation `json:"allConversations"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Len(t, doc.Messages, 3)
	assert.Equal(t, "export me", doc.Title)
	assert.Contains(t, doc.AllConversations, h.ctrl.Active().ID)

	path, err := h.ctrl.ExportToFile(t.TempDir(), export.NewMarkdownExporter())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".md"))
}

func TestWipeStorage(t *testing.T) {
	store := storage.NewStore(storage.NewMemoryBackend(), nil)
	h := newHarnessWithStore(t, store)
	require.NoError(t, h.ctrl.Send(context.Background(), "to be wiped"))
	h.ctrl.ToggleTheme()

	require.NoError(t, h.ctrl.WipeStorage())

	keys, err := store.Backend().Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Empty(t, h.ctrl.Conversations())
	assert.Len(t, h.ctrl.Messages(), 1)
	assert.Equal(t, model.ThemeDark, h.ctrl.Settings().Theme)
}
