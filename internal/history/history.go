// Package history keeps a YAML log of release attempts in the state
// directory, pruned to a maximum number of entries.
package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// HistoryEntry is one package outcome.
type HistoryEntry struct {
	Timestamp time.Time `yaml:"timestamp"`
	Package   string    `yaml:"package"`
	Version   string    `yaml:"version,omitempty"`
	Status    string    `yaml:"status"`
	Artifact  string    `yaml:"artifact,omitempty"`
	Duration  string    `yaml:"duration,omitempty"`
	Error     string    `yaml:"error,omitempty"`
}

// HistoryFile is the on-disk layout of the history log.
type HistoryFile struct {
	Entries []HistoryEntry `yaml:"entries"`
}

// LoadHistory reads the history file. A missing file is an empty history.
func LoadHistory(path string) (*HistoryFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &HistoryFile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var h HistoryFile
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing history file %s: %w", path, err)
	}
	return &h, nil
}

// SaveHistory writes the history file atomically through a temp file.
func SaveHistory(path string, h *HistoryFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}

// ClearHistory removes the history file. A missing file is not an error.
func ClearHistory(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing history file: %w", err)
	}
	return nil
}
