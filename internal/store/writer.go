package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// atomicWriter serializes writes per destination path, so writes to the same
// logical file land in enqueue order and never interleave. Each individual
// write goes to a temporary sibling first and is renamed over the
// destination, so a reader never observes a partial file.
type atomicWriter struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newAtomicWriter() *atomicWriter {
	return &atomicWriter{locks: make(map[string]*sync.Mutex)}
}

func (w *atomicWriter) lockFor(path string) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()

	lock, ok := w.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[path] = lock
	}
	return lock
}

// Write atomically replaces the destination with data.
func (w *atomicWriter) Write(path string, data []byte) error {
	lock := w.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
