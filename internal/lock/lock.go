// Package lock guards a repository against two concurrent publish runs.
// The lock is a YAML file recording the holder's PID; a lock whose process
// is gone is stale and gets replaced.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
)

// PublishLock is the content of the lock file.
type PublishLock struct {
	// PID is the process ID holding the lock.
	PID int `yaml:"pid"`
	// StartedAt is when the lock was acquired.
	StartedAt time.Time `yaml:"started_at"`
	// Packages lists the packages the holder is releasing.
	Packages []string `yaml:"packages"`
}

// HeldError is returned when a live process holds the lock.
type HeldError struct {
	Path string
	Lock PublishLock
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("publish already running (PID %d since %s, lock %s)",
		e.Lock.PID, e.Lock.StartedAt.Format(time.RFC3339), e.Path)
}

// Lock is an acquired lock file.
type Lock struct {
	path string
}

// Acquire creates the lock file at path. A stale lock left by a dead
// process, or by this process, is replaced.
func Acquire(path string, packages []string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	data, err := yaml.Marshal(&PublishLock{
		PID:       os.Getpid(),
		StartedAt: time.Now(),
		Packages:  packages,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling lock: %w", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		err := createExclusive(path, data)
		if err == nil {
			return &Lock{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("writing lock file: %w", err)
		}

		existing, loadErr := Load(path)
		if loadErr == nil && existing != nil && !IsStale(existing) && existing.PID != os.Getpid() {
			return nil, &HeldError{Path: path, Lock: *existing}
		}
		// Stale, unreadable or our own leftover lock.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("removing stale lock: %w", err)
		}
	}

	return nil, fmt.Errorf("could not acquire lock %s", path)
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Release removes the lock file.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// Load reads a lock file from disk.
// Returns nil and no error if the lock file doesn't exist.
func Load(path string) (*PublishLock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading lock file: %w", err)
	}

	var l PublishLock
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing lock file: %w", err)
	}

	return &l, nil
}

// IsStale checks if a lock is stale based on PID.
// A lock is stale if the PID that created it is no longer running.
func IsStale(l *PublishLock) bool {
	if l == nil || l.PID <= 0 {
		return true
	}
	return !isProcessRunning(l.PID)
}

// isProcessRunning checks if a process with the given PID exists.
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds. Send signal 0 to check existence.
	err = process.Signal(syscall.Signal(0))
	return err == nil
}

func createExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
