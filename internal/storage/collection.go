package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrCorrupt signals a collection file that exists but cannot be parsed.
// Callers must not treat this like an absent file: starting empty over a
// corrupt file would silently discard data.
var ErrCorrupt = errors.New("storage: collection file is corrupt")

// Collection holds one named slice of records, backed by a single JSON
// file. All records live in memory; every mutation runs under an
// exclusive lock and is flushed with a write-temp-then-rename so a crash
// mid-write never truncates the file. Readers share an RLock, so reads
// run concurrently with each other but never with a writer.
type Collection[T any] struct {
	name   string
	path   string
	logger *logrus.Logger

	mu      sync.RWMutex
	records []T
}

// Open loads the collection named name from dir. An absent or empty file
// yields an empty collection; a present but unparseable file fails with
// ErrCorrupt, leaving the file untouched for the operator.
func Open[T any](dir, name string, logger *logrus.Logger) (*Collection[T], error) {
	c := &Collection[T]{
		name:   name,
		path:   filepath.Join(dir, name+".json"),
		logger: logger,
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.WithField("collection", name).Info("collection file absent, starting empty")
			return c, nil
		}
		return nil, fmt.Errorf("failed to read collection %s: %w", name, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil
	}

	if err := json.Unmarshal(data, &c.records); err != nil {
		logger.WithFields(logrus.Fields{
			"collection": name,
			"path":       c.path,
		}).WithError(err).Error("collection file is unparseable, refusing to start empty")
		return nil, fmt.Errorf("collection %s: %w: %v", name, ErrCorrupt, err)
	}

	logger.WithFields(logrus.Fields{
		"collection": name,
		"records":    len(c.records),
	}).Info("collection loaded")
	return c, nil
}

// Snapshot returns a copy of the current records. The slice is the
// caller's to keep; record contents must be treated as read-only.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.records))
	copy(out, c.records)
	return out
}

// Update runs fn on a copy of the records and durably replaces the
// collection with fn's result. The whole read-modify-write cycle holds
// the writer lock, so concurrent updates serialize and none is lost. If
// fn returns an error, or the flush fails, the collection is unchanged.
func (c *Collection[T]) Update(fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fn(append([]T(nil), c.records...))
	if err != nil {
		return err
	}
	if err := c.flush(next); err != nil {
		return err
	}
	c.records = next
	return nil
}

// flush writes records to a temporary file and renames it over the
// backing file. Callers must hold the writer lock.
func (c *Collection[T]) flush(records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal collection %s: %w", c.name, err)
	}

	tmp := c.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open temp file for collection %s: %w", c.name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write collection %s: %w", c.name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync collection %s: %w", c.name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close collection %s: %w", c.name, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace collection %s: %w", c.name, err)
	}
	return nil
}
