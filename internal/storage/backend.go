// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned by a Backend when no document exists for a key.
var ErrNotFound = errors.New("document not found")

// ErrInvalidKey is returned for keys that cannot be stored safely.
var ErrInvalidKey = errors.New("invalid document key")

// ErrUnknownBackend is returned by Open for an unsupported backend kind.
var ErrUnknownBackend = errors.New("unknown storage backend")

// =============================================================================
// BACKEND INTERFACE
// =============================================================================

// Backend is raw key/value document storage.
type Backend interface {
	// Get returns the bytes stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Put replaces the bytes stored under key.
	Put(key string, data []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Keys lists every stored key in sorted order.
	Keys() ([]string, error)

	// Close releases resources held by the backend.
	Close() error
}

// Kind names a backend implementation in configuration.
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindMemory Kind = "memory"
)

// Open creates the backend named by kind rooted at dir. The SQLite backend
// uses dir/rigchat.db.
func Open(kind Kind, dir string) (Backend, error) {
	switch kind {
	case "", KindFile:
		return NewFileBackend(dir)
	case KindSQLite:
		return NewSQLiteBackend(filepath.Join(dir, "rigchat.db"))
	case KindMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}

// validateKey rejects keys that would escape the data directory or produce
// hidden files.
func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// =============================================================================
// MEMORY BACKEND
// =============================================================================

// MemoryBackend keeps documents in a map.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[string][]byte

	// FailPuts makes every Put fail with the given error. Tests use it to
	// simulate a full or read-only disk.
	FailPuts error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.docs[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemoryBackend) Put(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPuts != nil {
		return m.FailPuts
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	m.docs[key] = stored
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, key)
	return nil
}

func (m *MemoryBackend) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.docs))
	for k := range m.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBackend) Close() error { return nil }
