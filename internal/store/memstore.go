// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory Store used by tests and throwaway sessions.
type MemStore struct {
	mu   sync.RWMutex
	data map[Key][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{data: make(map[Key][]byte)}
}

// GetRaw implements Store.
func (m *MemStore) GetRaw(_ context.Context, key Key) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, true, nil
}

// SetRaw implements Store.
func (m *MemStore) SetRaw(_ context.Context, key Key, raw []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]byte, len(raw))
	copy(stored, raw)
	m.data[key] = stored
	return nil
}

// Delete implements Store.
func (m *MemStore) Delete(_ context.Context, key Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys implements Store.
func (m *MemStore) Keys(_ context.Context) ([]Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]Key, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// Close implements Store.
func (m *MemStore) Close() error { return nil }
