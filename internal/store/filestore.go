// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pulsefit/pulsefitLocal/internal/util"
)

// FileStore persists one JSON file per key under the State Box collections
// directory. Writes go through the atomic rename-swap helper so a crash
// mid-write never leaves a half-written payload behind.
type FileStore struct {
	sb  *util.StateBox
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a file-backed store rooted at sb's collections
// directory. The directory is created lazily on first write.
func NewFileStore(sb *util.StateBox) *FileStore {
	return &FileStore{sb: sb, dir: sb.CollectionsDir()}
}

func (f *FileStore) path(key Key) string {
	return filepath.Join(f.dir, string(key)+".json")
}

// GetRaw implements Store.
func (f *FileStore) GetRaw(_ context.Context, key Key) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("filestore: read %s: %w", key, err)
	}
	return raw, true, nil
}

// SetRaw implements Store.
func (f *FileStore) SetRaw(_ context.Context, key Key, raw []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := util.SecureWrite(f.sb, f.path(key), raw, nil); err != nil {
		return fmt.Errorf("filestore: write %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (f *FileStore) Delete(_ context.Context, key Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sb != nil && f.sb.IsReadOnly() {
		return util.ErrReadOnlyMode
	}
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore: delete %s: %w", key, err)
	}
	return nil
}

// Keys implements Store.
func (f *FileStore) Keys(_ context.Context) ([]Key, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("filestore: list keys: %w", err)
	}

	var keys []Key
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, Key(strings.TrimSuffix(name, ".json")))
	}
	return keys, nil
}

// Close implements Store. The file store holds no open handles.
func (f *FileStore) Close() error { return nil }
