// Package checkpoint persists per-dataset modification watermarks.
//
// The checkpoint is loaded once at run start, mutated in memory as ingestion
// successes accrue, and written back once at run end. A watermark advances
// only for datasets whose ingestion succeeded in the current run.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCorrupt indicates the checkpoint file exists but cannot be parsed.
// Callers may degrade to an empty checkpoint; the next Save rewrites the
// full in-memory state, so no half-written file survives a run.
var ErrCorrupt = errors.New("corrupt checkpoint")

// Checkpoint maps dataset identifier to the last committed modification
// date in YYYY-MM-DD form.
type Checkpoint map[string]string

// FileStore persists a Checkpoint as an indented JSON object.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the checkpoint. A missing file yields an empty checkpoint; an
// unparsable file yields an error matching both ErrCorrupt and the decode
// error.
func (s *FileStore) Load() (Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Checkpoint{}, nil
		}

		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	if cp == nil {
		cp = Checkpoint{}
	}

	return cp, nil
}

// Save atomically replaces the checkpoint file with the full mapping. The
// write goes to a temp file in the same directory followed by a rename, so
// an interrupted run never leaves a half-written checkpoint behind.
func (s *FileStore) Save(cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint file: %w", err)
	}

	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("failed to write temp checkpoint file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("failed to close temp checkpoint file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	return nil
}
