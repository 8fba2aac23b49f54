// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/util"
)

// FilenameTimeLayout formats the export time in file names. Colons are
// avoided so the name is valid on every platform.
const FilenameTimeLayout = "2006-01-02T15-04-05"

// ErrNoConversation is returned when a snapshot has no active conversation.
var ErrNoConversation = errors.New("no active conversation to export")

// Snapshot is the state captured by an export.
type Snapshot struct {
	Active     *model.Conversation
	All        map[string]*model.Conversation
	ExportedAt time.Time
}

// Exporter renders a snapshot in one format.
type Exporter interface {
	// Export renders the snapshot.
	Export(s Snapshot) ([]byte, error)

	// FileExtension returns the file extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the rendered output.
	MimeType() string
}

// Filename returns the file name used for a snapshot taken at t.
func Filename(t time.Time, ext string) string {
	return "chat-export-" + t.Format(FilenameTimeLayout) + ext
}

// ToFile renders s with exporter and writes it into dir, returning the path.
func ToFile(s Snapshot, exporter Exporter, dir string) (string, error) {
	if s.Active == nil {
		return "", ErrNoConversation
	}
	if s.ExportedAt.IsZero() {
		s.ExportedAt = time.Now()
	}
	if dir == "" {
		dir = "."
	}

	content, err := exporter.Export(s)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, Filename(s.ExportedAt, exporter.FileExtension()))
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
