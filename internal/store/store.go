// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package store is the sole persistence boundary of the data layer. It maps
// typed keys to opaque byte payloads and offers three interchangeable
// backends: a file store (one JSON document per key), a SQLite store, and an
// in-memory store for tests.
//
// Collection payloads are decoded through GetCollection/SetCollection, which
// treat a missing key and a corrupted payload the same way: an empty
// collection. Corruption is logged and discarded rather than surfaced.
package store

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/pulsefit/pulsefitLocal/internal/record"
)

const keyPrefix = "pulsefit"

// Key identifies one persisted payload. Collection keys are derived from the
// entity name through CollectionKey; the remaining keys are fixed.
type Key string

// Fixed non-collection keys.
const (
	KeyCacheVersion     Key = keyPrefix + "_cacheVersion"
	KeyAuthToken        Key = keyPrefix + "_authToken"
	KeyCurrentUser      Key = keyPrefix + "_currentUser"
	KeyLocalCredentials Key = keyPrefix + "_localCredentials"
)

// CollectionKey derives the storage key for an entity collection,
// e.g. CollectionKey("Exercise") == "pulsefit_Exercise".
func CollectionKey(entity string) Key {
	return Key(keyPrefix + "_" + entity)
}

// IsCollection reports whether k names an entity collection rather than one
// of the fixed bookkeeping keys.
func (k Key) IsCollection() bool {
	switch k {
	case KeyCacheVersion, KeyAuthToken, KeyCurrentUser, KeyLocalCredentials:
		return false
	}
	return strings.HasPrefix(string(k), keyPrefix+"_")
}

// Entity returns the entity name of a collection key, or "" for fixed keys.
func (k Key) Entity() string {
	if !k.IsCollection() {
		return ""
	}
	return strings.TrimPrefix(string(k), keyPrefix+"_")
}

// Store abstracts durable key/value persistence. Implementations return
// found=false (never an error) for a missing key.
type Store interface {
	// GetRaw returns the payload stored under key.
	GetRaw(ctx context.Context, key Key) (raw []byte, found bool, err error)
	// SetRaw persists the payload under key, replacing any previous value.
	SetRaw(ctx context.Context, key Key, raw []byte) error
	// Delete removes the payload under key. Deleting a missing key is a no-op.
	Delete(ctx context.Context, key Key) error
	// Keys lists every stored key.
	Keys(ctx context.Context) ([]Key, error)
	// Close releases backend resources.
	Close() error
}

// GetCollection loads and decodes the collection stored under key. A missing
// key yields an empty collection; so does a corrupted payload, which is
// logged and effectively discarded.
func GetCollection(ctx context.Context, s Store, key Key) ([]record.Record, error) {
	raw, found, err := s.GetRaw(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return []record.Record{}, nil
	}
	records, err := record.Decode(raw)
	if err != nil {
		log.Warnf("store: discarding corrupted payload for %s: %v", key, err)
		return []record.Record{}, nil
	}
	return records, nil
}

// SetCollection encodes and persists a whole collection image under key.
func SetCollection(ctx context.Context, s Store, key Key, records []record.Record) error {
	raw, err := record.Encode(records)
	if err != nil {
		return err
	}
	return s.SetRaw(ctx, key, raw)
}
