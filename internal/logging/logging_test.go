// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNew_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Output: &buf})
	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug", JSON: true, Output: &buf})
	l.WithComponent("session").Debug("restored", "conversations", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "restored", rec["msg"])
	assert.Equal(t, "session", rec["component"])
	assert.EqualValues(t, 3, rec["conversations"])
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf}).LogError(errors.New("disk full"), "save failed", "key", "settings")
	assert.Contains(t, buf.String(), "error=\"disk full\"")
	assert.Contains(t, buf.String(), "key=settings")
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "rigchat.log")
	l, err := NewFile(DefaultConfig(), path)
	require.NoError(t, err)
	l.Info("hello")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=hello")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestDiscard(t *testing.T) {
	l := Discard()
	l.Error("nothing")
	assert.NoError(t, l.Close())
}
