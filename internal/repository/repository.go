// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package repository keeps the set of saved conversations and writes it
// through to storage on every change.
package repository

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/storage"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation does not exist.
var ErrConversationNotFound = &ConversationError{Op: "get", Err: errors.New("conversation not found")}

// ConversationError describes a failed operation on one conversation.
type ConversationError struct {
	Op  string
	ID  string
	Err error
}

func (e *ConversationError) Error() string {
	if e.ID == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *ConversationError) Unwrap() error {
	return e.Err
}

// Is matches any ConversationError wrapping the same error, so callers can use
// errors.Is(err, ErrConversationNotFound) regardless of Op or ID.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	return ok && t.Err == e.Err
}

// NotFound returns an error matching ErrConversationNotFound for id.
func NotFound(op, id string) error {
	return &ConversationError{Op: op, ID: id, Err: ErrConversationNotFound.Err}
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository holds every saved conversation keyed by ID. Memory is the source
// of truth; persistence failures are logged and never returned.
type Repository struct {
	mu            sync.RWMutex
	conversations map[string]*model.Conversation

	store    *storage.Store
	logger   *slog.Logger
	now      func() time.Time
	onChange func()
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock replaces time.Now, used to stamp LastSavedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// WithOnChange registers a hook called after the set of conversations
// changes. It runs outside the repository lock.
func WithOnChange(fn func()) Option {
	return func(r *Repository) { r.onChange = fn }
}

// New creates an empty repository backed by store.
func New(store *storage.Store, opts ...Option) *Repository {
	r := &Repository{
		conversations: make(map[string]*model.Conversation),
		store:         store,
		now:           time.Now,
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "repository")
	return r
}

// Load replaces the in-memory set with the persisted document. A missing or
// corrupt document yields an empty repository.
func (r *Repository) Load() int {
	doc := make(map[string]*model.Conversation)
	if !r.store.Load(storage.KeyConversations, &doc) {
		doc = make(map[string]*model.Conversation)
	}

	r.mu.Lock()
	r.conversations = make(map[string]*model.Conversation, len(doc))
	for id, conv := range doc {
		if conv == nil {
			continue
		}
		if conv.ID == "" {
			conv.ID = id
		}
		if conv.Messages == nil {
			conv.Messages = []model.Message{}
		}
		r.conversations[conv.ID] = conv
	}
	n := len(r.conversations)
	r.mu.Unlock()

	r.logger.Debug("conversations loaded", "count", n)
	return n
}

// Upsert inserts or replaces conv by ID, stamps LastSavedAt and writes the
// whole set through to storage. The caller's value is copied.
func (r *Repository) Upsert(conv *model.Conversation) time.Time {
	stored := conv.Clone()

	r.mu.Lock()
	stored.LastSavedAt = r.now()
	r.conversations[stored.ID] = stored
	r.persistLocked()
	r.mu.Unlock()

	r.notify()
	return stored.LastSavedAt
}

// Delete removes a conversation. It reports whether one was removed.
func (r *Repository) Delete(id string) bool {
	r.mu.Lock()
	_, ok := r.conversations[id]
	if ok {
		delete(r.conversations, id)
		r.persistLocked()
	}
	r.mu.Unlock()

	if ok {
		r.notify()
	}
	return ok
}

// Get returns a copy of the conversation with the given ID.
func (r *Repository) Get(id string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, NotFound("get", id)
	}
	return conv.Clone(), nil
}

// Has reports whether a conversation with the given ID has been saved.
func (r *Repository) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conversations[id]
	return ok
}

// Len returns the number of stored conversations, including empty ones.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conversations)
}

// ListSortedByRecency returns copies of every non-empty conversation, most
// recently saved first. Ties are ordered by ID for a stable listing.
func (r *Repository) ListSortedByRecency() []*model.Conversation {
	r.mu.RLock()
	list := make([]*model.Conversation, 0, len(r.conversations))
	for _, c := range r.conversations {
		if !c.IsEmpty() {
			list = append(list, c.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if !list[i].LastSavedAt.Equal(list[j].LastSavedAt) {
			return list[i].LastSavedAt.After(list[j].LastSavedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// MostRecent returns the non-empty conversation saved last, or nil.
func (r *Repository) MostRecent() *model.Conversation {
	list := r.ListSortedByRecency()
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// All returns copies of every stored conversation keyed by ID.
func (r *Repository) All() map[string]*model.Conversation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*model.Conversation, len(r.conversations))
	for id, c := range r.conversations {
		out[id] = c.Clone()
	}
	return out
}

// Reset forgets every conversation in memory without touching storage. It
// is used after the storage has been wiped.
func (r *Repository) Reset() {
	r.mu.Lock()
	r.conversations = make(map[string]*model.Conversation)
	r.mu.Unlock()
	r.notify()
}

// persistLocked writes the whole set. Failures are logged; the in-memory
// state stays authoritative. r.mu must be held.
func (r *Repository) persistLocked() {
	if err := r.store.Save(storage.KeyConversations, r.conversations); err != nil {
		r.logger.Error("failed to persist conversations", "count", len(r.conversations), "error", err)
	}
}

func (r *Repository) notify() {
	if r.onChange != nil {
		r.onChange()
	}
}
