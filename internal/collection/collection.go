// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package collection implements the local CRUD engine: create, read, update,
// delete and filter against one persisted collection. It is the fallback
// path behind every entity and owns the in-memory mirror of its collection
// for the lifetime of the instance.
package collection

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pulsefit/pulsefitLocal/internal/record"
	"github.com/pulsefit/pulsefitLocal/internal/store"
)

// Query narrows and shapes a read. Fields are matched by strict equality;
// OrderBy takes "<field> <asc|desc>" and Limit caps the result size. Both
// directives apply after the equality filters.
type Query struct {
	Fields  map[string]any
	OrderBy string
	Limit   int
}

// Collection is the local CRUD engine for one entity collection.
// Two live instances for the same entity name over the same store can
// diverge; callers construct exactly one per entity.
type Collection struct {
	name  string
	key   store.Key
	store store.Store

	mu      sync.Mutex // held across load-mutate-persist sequences
	records []record.Record
	loaded  bool

	now   func() time.Time
	newID func() string
}

// Option customizes a Collection.
type Option func(*Collection)

// WithClock overrides the timestamp source. Tests use this to pin time.
func WithClock(now func() time.Time) Option {
	return func(c *Collection) { c.now = now }
}

// WithIDGenerator overrides the fresh-id source.
func WithIDGenerator(gen func() string) Option {
	return func(c *Collection) { c.newID = gen }
}

// New creates the CRUD engine for the named entity backed by st.
func New(name string, st store.Store, opts ...Option) *Collection {
	c := &Collection{
		name:  name,
		key:   store.CollectionKey(name),
		store: st,
		now:   time.Now,
		newID: generateID,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the entity name this engine serves.
func (c *Collection) Name() string { return c.name }

// generateID produces a time-ordered id with a random suffix so ids created
// in the same millisecond still cannot collide.
func generateID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.New().String()[:8])
}

// load populates the in-memory mirror on first use. Callers hold the lock.
func (c *Collection) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	records, err := store.GetCollection(ctx, c.store, c.key)
	if err != nil {
		return fmt.Errorf("collection %s: load: %w", c.name, err)
	}
	c.records = records
	c.loaded = true
	return nil
}

// persist writes the candidate collection image and commits it to the
// mirror only when the write succeeds, so a failed persist cannot leave the
// mirror ahead of the store. Callers hold the lock.
func (c *Collection) persist(ctx context.Context, records []record.Record) error {
	if err := store.SetCollection(ctx, c.store, c.key, records); err != nil {
		return fmt.Errorf("collection %s: persist: %w", c.name, err)
	}
	c.records = records
	return nil
}

// Create inserts a new record. When partial carries no id a fresh one is
// generated; createdAt and updatedAt are set to the same instant. The stored
// collection is persisted before the new record is returned.
func (c *Collection) Create(ctx context.Context, partial record.Record) (record.Record, error) {
	rec, err := record.Normalize(partial)
	if err != nil {
		return nil, fmt.Errorf("collection %s: create: %w", c.name, err)
	}
	if rec == nil {
		rec = record.Record{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, err
	}

	if rec.ID() == "" {
		rec.SetID(c.freshID())
	} else if c.indexOf(rec.ID()) >= 0 {
		return nil, fmt.Errorf("collection %s: duplicate id %q", c.name, rec.ID())
	}
	rec.Stamp(c.now())

	next := append(append([]record.Record(nil), c.records...), rec)
	if err := c.persist(ctx, next); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// freshID draws ids until one does not collide with the mirror. Callers
// hold the lock.
func (c *Collection) freshID() string {
	for {
		id := c.newID()
		if c.indexOf(id) < 0 {
			return id
		}
	}
}

// List returns every record in insertion order.
func (c *Collection) List(ctx context.Context) ([]record.Record, error) {
	return c.Find(ctx, Query{})
}

// Find applies the query's equality filters, then ordering, then the limit.
// An empty query returns all records in current order.
func (c *Collection) Find(ctx context.Context, q Query) ([]record.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, err
	}

	return cloneAll(Apply(c.records, q)), nil
}

// Apply shapes an already-loaded record slice with a query: equality
// filters first, then ordering, then the limit. The remote path uses this
// to give network results the same query semantics as the cache.
func Apply(records []record.Record, q Query) []record.Record {
	out := matchAll(records, q.Fields)
	if q.OrderBy != "" {
		sortBy(out, q.OrderBy)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// Filter returns the records whose fields equal every query key/value pair.
// Absent query keys are ignored.
func (c *Collection) Filter(ctx context.Context, fields map[string]any) ([]record.Record, error) {
	return c.Find(ctx, Query{Fields: fields})
}

// FindByID returns the record with the given id, or nil when absent.
func (c *Collection) FindByID(ctx context.Context, id string) (record.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	if i := c.indexOf(id); i >= 0 {
		return c.records[i].Clone(), nil
	}
	return nil, nil
}

// FindOne returns the first record matching the fields, or nil.
func (c *Collection) FindOne(ctx context.Context, fields map[string]any) (record.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	for _, r := range c.records {
		if matches(r, fields) {
			return r.Clone(), nil
		}
	}
	return nil, nil
}

// Update shallow-merges patch into the record with the given id, preserving
// id and createdAt and bumping updatedAt. It returns nil (not an error) when
// the id is absent and leaves the collection untouched.
func (c *Collection) Update(ctx context.Context, id string, patch record.Record) (record.Record, error) {
	normalized, err := record.Normalize(patch)
	if err != nil {
		return nil, fmt.Errorf("collection %s: update: %w", c.name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, err
	}

	i := c.indexOf(id)
	if i < 0 {
		return nil, nil
	}

	rec := c.records[i].Clone()
	for k, v := range normalized {
		switch k {
		case record.FieldID, record.FieldCreatedAt, record.FieldUpdatedAt:
			// The engine owns these.
		default:
			rec[k] = v
		}
	}
	rec.Touch(c.now())

	next := append([]record.Record(nil), c.records...)
	next[i] = rec
	if err := c.persist(ctx, next); err != nil {
		return nil, err
	}
	return rec.Clone(), nil
}

// Delete removes the record with the given id and reports whether a removal
// occurred. A second call on the same id returns false, not an error.
func (c *Collection) Delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return false, err
	}

	i := c.indexOf(id)
	if i < 0 {
		return false, nil
	}

	next := append([]record.Record(nil), c.records[:i]...)
	next = append(next, c.records[i+1:]...)
	if err := c.persist(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// indexOf returns the mirror index of id, or -1. Callers hold the lock.
func (c *Collection) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, r := range c.records {
		if r.ID() == id {
			return i
		}
	}
	return -1
}

func cloneAll(records []record.Record) []record.Record {
	out := make([]record.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

func matchAll(records []record.Record, fields map[string]any) []record.Record {
	if len(fields) == 0 {
		return append([]record.Record(nil), records...)
	}
	var out []record.Record
	for _, r := range records {
		if matches(r, fields) {
			out = append(out, r)
		}
	}
	return out
}

// matches tests strict equality of every query field against the record.
// Query values pass through a JSON round trip first so an int in the query
// equals the float64 a decode produces.
func matches(r record.Record, fields map[string]any) bool {
	for k, want := range fields {
		got, ok := r[k]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(normalizeValue(want), got) {
			return false
		}
	}
	return true
}

func normalizeValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// sortBy orders records in place by an "<field> <asc|desc>" directive.
// A bare field name sorts ascending.
func sortBy(records []record.Record, orderBy string) {
	parts := strings.Fields(orderBy)
	if len(parts) == 0 {
		return
	}
	field := parts[0]
	desc := len(parts) > 1 && strings.EqualFold(parts[1], "desc")

	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return lessValue(records[j][field], records[i][field])
		}
		return lessValue(records[i][field], records[j][field])
	})
}

// lessValue compares two field values: numbers numerically, strings
// lexically, bools with false first, everything else by its JSON rendering.
func lessValue(a, b any) bool {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			return av < bv
		}
	case string:
		if bv, ok := b.(string); ok {
			return av < bv
		}
	case bool:
		if bv, ok := b.(bool); ok {
			return !av && bv
		}
	case nil:
		return b != nil
	}
	ra, _ := json.Marshal(a)
	rb, _ := json.Marshal(b)
	return string(ra) < string(rb)
}
