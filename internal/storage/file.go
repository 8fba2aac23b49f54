// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jeranaias/rigchat/internal/util"
)

// docExt is the extension of document files.
const docExt = ".json"

// watchDebounce coalesces the burst of events produced by one atomic rename.
const watchDebounce = 50 * time.Millisecond

// =============================================================================
// FILE BACKEND
// =============================================================================

// FileBackend stores each document as <dir>/<key>.json.
type FileBackend struct {
	dir string
}

// NewFileBackend creates a file backend, creating dir if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, errors.New("file backend: directory is required")
	}
	if err := os.MkdirAll(dir, util.DirPerm); err != nil {
		return nil, fmt.Errorf("file backend: create directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Dir returns the directory documents are stored in.
func (f *FileBackend) Dir() string {
	return f.dir
}

// Path returns the file that holds key.
func (f *FileBackend) Path(key string) string {
	return filepath.Join(f.dir, key+docExt)
}

func (f *FileBackend) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Put writes the document atomically with owner-only permissions since the
// settings document carries the API key.
func (f *FileBackend) Put(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := util.AtomicWriteFile(f.Path(key), data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (f *FileBackend) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	err := os.Remove(f.Path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (f *FileBackend) Keys() ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, docExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, docExt))
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *FileBackend) Close() error { return nil }

// =============================================================================
// WATCH
// =============================================================================

// Watch calls fn whenever the file for key is created or replaced, until ctx
// is cancelled. The directory is watched rather than the file because atomic
// writes replace the inode. Bursts of events are coalesced into one call.
func (f *FileBackend) Watch(ctx context.Context, key string, fn func()) error {
	if err := validateKey(key); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(f.dir); err != nil {
		w.Close()
		return fmt.Errorf("watch %s: %w", f.dir, err)
	}

	target := filepath.Clean(f.Path(key))
	go func() {
		defer w.Close()

		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
				} else {
					timer.Reset(watchDebounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				fn()
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return nil
}
