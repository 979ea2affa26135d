// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/danielhkuo/quickly-rank/models"
)

const (
	dirPerms  = 0o755
	filePerms = 0o644
)

var (
	ErrInvalidPollID = errors.New("invalid poll id")
)

type Writer struct {
	Dir string
}

// Enabled reports whether snapshots are written at all
func (w Writer) Enabled() bool {
	return w.Dir != ""
}

// Path returns where the snapshot for pollID is written
func (w Writer) Path(pollID string) string {
	return filepath.Join(w.Dir, pollID+".json")
}

// WriteSnapshot writes the snapshot and returns its path, or "" when the
// writer is disabled.
func (w Writer) WriteSnapshot(snapshot models.ResultSnapshot) (string, error) {
	if !w.Enabled() {
		return "", nil
	}
	if snapshot.PollID == "" || strings.ContainsAny(snapshot.PollID, `/\`) || strings.HasPrefix(snapshot.PollID, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPollID, snapshot.PollID)
	}

	if err := os.MkdirAll(w.Dir, dirPerms); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	data = append(data, '\n')

	path := w.Path(snapshot.PollID)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	// atomic.WriteFile leaves new files with the temp file's mode
	if err := os.Chmod(path, filePerms); err != nil {
		return "", fmt.Errorf("failed to set snapshot permissions: %w", err)
	}

	return path, nil
}
