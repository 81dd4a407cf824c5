package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/ariel-frischer/releasekit/internal/release"
)

// Writer provides thread-safe history logging with automatic pruning.
type Writer struct {
	// Path is the history file.
	Path string
	// MaxEntries is the maximum number of entries to retain (0 = unlimited).
	MaxEntries int

	mu  sync.Mutex
	now func() time.Time
}

// NewWriter creates a new history writer.
func NewWriter(path string, maxEntries int) *Writer {
	return &Writer{
		Path:       path,
		MaxEntries: maxEntries,
		now:        time.Now,
	}
}

// Append loads the history, appends entry, prunes the oldest entries over
// the limit and saves.
func (w *Writer) Append(entry HistoryEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	history, err := LoadHistory(w.Path)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	history.Entries = append(history.Entries, entry)

	if w.MaxEntries > 0 && len(history.Entries) > w.MaxEntries {
		excess := len(history.Entries) - w.MaxEntries
		history.Entries = history.Entries[excess:]
	}

	if err := SaveHistory(w.Path, history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}

	return nil
}

// Record stores a release outcome. It satisfies release.HistoryRecorder.
func (w *Writer) Record(o release.Outcome) error {
	return w.Append(FromOutcome(o, w.clock()))
}

// FromOutcome converts a release outcome into a history entry.
func FromOutcome(o release.Outcome, at time.Time) HistoryEntry {
	entry := HistoryEntry{
		Timestamp: at,
		Package:   o.Package,
		Version:   o.Version,
		Status:    string(o.Status),
		Artifact:  o.Artifact,
	}
	if o.Duration > 0 {
		entry.Duration = o.Duration.Round(time.Millisecond).String()
	}
	if o.Err != nil {
		entry.Error = o.Err.Error()
	}
	return entry
}

func (w *Writer) clock() time.Time {
	if w.now == nil {
		return time.Now()
	}
	return w.now()
}
