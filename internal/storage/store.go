// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Document keys.
const (
	KeySettings      = "settings"
	KeyConversations = "conversations"
)

// =============================================================================
// STORE
// =============================================================================

// Store saves and loads JSON documents through a Backend.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// NewStore wraps backend. A nil logger discards log output.
func NewStore(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{backend: backend, logger: logger.With("component", "storage")}
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Save encodes doc as JSON and writes it under key.
func (s *Store) Save(key string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.backend.Put(key, data); err != nil {
		return err
	}
	s.logger.Debug("document saved", "key", key, "bytes", len(data))
	return nil
}

// Load decodes the document stored under key into doc and reports whether one
// was found. Missing, unreadable and corrupt documents all report false;
// the latter two are logged.
func (s *Store) Load(key string, doc any) bool {
	data, err := s.backend.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		s.logger.Warn("document unreadable, using defaults", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Warn("document corrupt, using defaults", "key", key, "error", err)
		return false
	}
	return true
}

// Remove deletes the document stored under key.
func (s *Store) Remove(key string) error {
	return s.backend.Delete(key)
}

// Clear deletes every stored document.
func (s *Store) Clear() error {
	keys, err := s.backend.Keys()
	if err != nil {
		return err
	}
	var errs []error
	for _, k := range keys {
		if err := s.backend.Delete(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
