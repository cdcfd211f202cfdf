package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"budget-engine/internal/model"
)

// lockTimeout is how long Load and Save wait for another process.
const lockTimeout = 5 * time.Second

func lockPath(path string) string {
	return path + ".lock"
}

func acquire(path string, exclusive bool) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating document directory: %w", err)
	}
	lock := flock.New(lockPath(path))
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	var locked bool
	var err error
	if exclusive {
		locked, err = lock.TryLockContext(ctx, 50*time.Millisecond)
	} else {
		locked, err = lock.TryRLockContext(ctx, 50*time.Millisecond)
	}
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("timeout waiting for lock on %s", path)
	}
	return lock, nil
}

// Load reads and decodes the document at path under a shared lock.
func Load(path string, defaults model.Settings) (model.Document, error) {
	lock, err := acquire(path, false)
	if err != nil {
		return model.Document{}, err
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Decode(data, defaults)
	if err != nil {
		return model.Document{}, fmt.Errorf("loading %s: %w", path, err)
	}
	return doc, nil
}

// Save encodes doc and replaces the file at path atomically under an
// exclusive lock.
func Save(path string, doc model.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	lock, err := acquire(path, true)
	if err != nil {
		return err
	}
	defer lock.Unlock()
	return writeAtomic(path, data, 0644)
}

// Update loads the document at path, passes it to fn and saves the result,
// holding the exclusive lock throughout.
func Update(path string, defaults model.Settings, fn func(doc model.Document) (model.Document, error)) error {
	lock, err := acquire(path, true)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Decode(data, defaults)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	doc, err = fn(doc)
	if err != nil {
		return err
	}
	out, err := Encode(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}
	return writeAtomic(path, out, 0644)
}

// writeAtomic writes to a temporary file and renames it over path.
func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
