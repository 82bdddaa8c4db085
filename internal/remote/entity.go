// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package remote implements the network-first entity engine. Every CRUD
// operation attempts the backend endpoint described by the entity's
// Descriptor; depending on the configured Policy a failure (non-2xx,
// transport error, or response-shape mismatch) falls back to the wrapped
// local collection. A successful remote result is never written back into
// the local cache: the cache only ever holds locally-created fallback data
// and seed fixtures.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/pulsefit/pulsefitLocal/internal/collection"
	"github.com/pulsefit/pulsefitLocal/internal/record"
)

const apiPrefix = "api/v1"

// HeaderSource supplies authentication headers for remote attempts.
type HeaderSource interface {
	AuthHeaders(ctx context.Context) map[string]string
}

// Entity is the remote-first engine for one resource. It wraps exactly one
// local collection, which serves as the fallback path.
type Entity struct {
	desc   Descriptor
	local  *collection.Collection
	base   string
	client *http.Client
	auth   HeaderSource

	mu      sync.RWMutex
	policy  Policy
	retries int
}

// Option customizes an Entity.
type Option func(*Entity)

// WithHTTPClient overrides the HTTP client used for remote attempts.
func WithHTTPClient(client *http.Client) Option {
	return func(e *Entity) { e.client = client }
}

// WithAuth wires the header source consulted on every remote attempt.
func WithAuth(auth HeaderSource) Option {
	return func(e *Entity) { e.auth = auth }
}

// WithPolicy sets the initial fallback policy.
func WithPolicy(p Policy) Option {
	return func(e *Entity) { e.policy = p }
}

// WithRetries sets how many extra remote attempts retry-then-fallback makes.
func WithRetries(n int) Option {
	return func(e *Entity) {
		if n > 0 {
			e.retries = n
		}
	}
}

// NewEntity builds the engine for one resource. An empty baseURL disables
// remote attempts entirely: every operation is served by the local
// collection regardless of policy.
func NewEntity(desc Descriptor, local *collection.Collection, baseURL string, opts ...Option) *Entity {
	e := &Entity{
		desc:   desc,
		local:  local,
		base:   strings.TrimSuffix(baseURL, "/"),
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the entity name this engine serves.
func (e *Entity) Name() string { return e.desc.Name }

// Local exposes the wrapped fallback collection. Bootstrap seeding writes
// through it.
func (e *Entity) Local() *collection.Collection { return e.local }

// SetPolicy swaps the fallback policy at runtime (config hot reload).
func (e *Entity) SetPolicy(p Policy, retries int) {
	e.mu.Lock()
	e.policy = p
	if retries >= 0 {
		e.retries = retries
	}
	e.mu.Unlock()
}

func (e *Entity) snapshot() (Policy, int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy, e.retries
}

// run drives one operation through the remote-then-local sequence and
// reports which path served it.
func run[T any](e *Entity, ctx context.Context, op string, remote func(context.Context) (T, error), local func(context.Context) (T, error)) (T, Source, error) {
	var zero T

	if e.base == "" {
		v, err := local(ctx)
		if err != nil {
			return zero, SourceNone, err
		}
		return v, SourceCache, nil
	}

	policy, retries := e.snapshot()
	attempts := 1
	if policy == RetryThenFallback {
		attempts += retries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		v, err := remote(ctx)
		if err == nil {
			return v, SourceRemote, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	if policy == FailFast {
		return zero, SourceNone, fmt.Errorf("%s %s: %w", e.desc.Name, op, lastErr)
	}

	// The fallback is the whole point: callers get a result either way, and
	// this trace is the only observable sign the network path was skipped.
	log.Debugf("%s %s: remote attempt failed, serving from cache: %v", e.desc.Name, op, lastErr)

	v, err := local(ctx)
	if err != nil {
		return zero, SourceNone, err
	}
	return v, SourceCache, nil
}

// Create inserts a record remotely, else locally.
func (e *Entity) Create(ctx context.Context, data record.Record) (record.Record, Source, error) {
	return run(e, ctx, "create",
		func(ctx context.Context) (record.Record, error) {
			body, err := json.Marshal(data)
			if err != nil {
				return nil, fmt.Errorf("encode request: %w", err)
			}
			resp, err := e.doJSON(ctx, http.MethodPost, e.url(""), body)
			if err != nil {
				return nil, err
			}
			return e.unwrapItem(resp)
		},
		func(ctx context.Context) (record.Record, error) {
			return e.local.Create(ctx, data)
		})
}

// List returns every record of the resource.
func (e *Entity) List(ctx context.Context) ([]record.Record, Source, error) {
	return e.Find(ctx, collection.Query{})
}

// Find lists the resource and applies the query's filters, ordering and
// limit to whichever record set came back.
func (e *Entity) Find(ctx context.Context, q collection.Query) ([]record.Record, Source, error) {
	return run(e, ctx, "list",
		func(ctx context.Context) ([]record.Record, error) {
			resp, err := e.doJSON(ctx, http.MethodGet, e.url(""), nil)
			if err != nil {
				return nil, err
			}
			records, err := e.unwrapList(resp)
			if err != nil {
				return nil, err
			}
			return collection.Apply(records, q), nil
		},
		func(ctx context.Context) ([]record.Record, error) {
			return e.local.Find(ctx, q)
		})
}

// Filter returns records whose fields equal every key/value pair.
func (e *Entity) Filter(ctx context.Context, fields map[string]any) ([]record.Record, Source, error) {
	return e.Find(ctx, collection.Query{Fields: fields})
}

// FindOne returns the first match or nil.
func (e *Entity) FindOne(ctx context.Context, fields map[string]any) (record.Record, Source, error) {
	records, src, err := e.Find(ctx, collection.Query{Fields: fields, Limit: 1})
	if err != nil {
		return nil, src, err
	}
	if len(records) == 0 {
		return nil, src, nil
	}
	return records[0], src, nil
}

// Get fetches one record by id; nil when absent. It is the findById alias
// of the page contract and runs through the same remote/local fallback.
func (e *Entity) Get(ctx context.Context, id string) (record.Record, Source, error) {
	return run(e, ctx, "get",
		func(ctx context.Context) (record.Record, error) {
			resp, err := e.doJSON(ctx, http.MethodGet, e.url(id), nil)
			if err != nil {
				return nil, err
			}
			return e.unwrapItem(resp)
		},
		func(ctx context.Context) (record.Record, error) {
			return e.local.FindByID(ctx, id)
		})
}

// Update patches one record; nil when the id is absent.
func (e *Entity) Update(ctx context.Context, id string, patch record.Record) (record.Record, Source, error) {
	return run(e, ctx, "update",
		func(ctx context.Context) (record.Record, error) {
			body, err := json.Marshal(patch)
			if err != nil {
				return nil, fmt.Errorf("encode request: %w", err)
			}
			resp, err := e.doJSON(ctx, http.MethodPut, e.url(id), body)
			if err != nil {
				return nil, err
			}
			return e.unwrapItem(resp)
		},
		func(ctx context.Context) (record.Record, error) {
			return e.local.Update(ctx, id, patch)
		})
}

// Delete removes one record and reports whether a removal occurred.
func (e *Entity) Delete(ctx context.Context, id string) (bool, Source, error) {
	return run(e, ctx, "delete",
		func(ctx context.Context) (bool, error) {
			if _, err := e.doJSON(ctx, http.MethodDelete, e.url(id), nil); err != nil {
				return false, err
			}
			return true, nil
		},
		func(ctx context.Context) (bool, error) {
			return e.local.Delete(ctx, id)
		})
}

// url builds the endpoint for the resource, optionally addressing one id.
func (e *Entity) url(id string) string {
	u := fmt.Sprintf("%s/%s/%s", e.base, apiPrefix, e.desc.Path)
	if id != "" {
		u += "/" + id
	}
	return u
}

// doJSON performs one authenticated request and returns the response body.
// Non-2xx statuses come back as a statusErr.
func (e *Entity) doJSON(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pulsefit-local")
	if e.auth != nil {
		for k, v := range e.auth.AuthHeaders(ctx) {
			req.Header.Set(k, v)
		}
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			log.Errorf("%s: close response body error: %v", e.desc.Name, errClose)
		}
	}()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Debugf("%s %s %s: error status %d", e.desc.Name, method, url, resp.StatusCode)
		return nil, statusErr{code: resp.StatusCode, msg: strings.TrimSpace(string(payload))}
	}
	return payload, nil
}

// unwrapList extracts and normalizes the record array from a list response.
func (e *Entity) unwrapList(body []byte) ([]record.Record, error) {
	payload := gjson.ParseBytes(body)
	if e.desc.ListPath != "" {
		payload = gjson.GetBytes(body, e.desc.ListPath)
		if !payload.Exists() {
			return nil, fmt.Errorf("response envelope missing %q", e.desc.ListPath)
		}
	}
	if !payload.IsArray() {
		return nil, fmt.Errorf("response payload is not an array")
	}

	items := payload.Array()
	records := make([]record.Record, 0, len(items))
	for _, item := range items {
		rec, err := e.normalizeItem([]byte(item.Raw))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// unwrapItem extracts and normalizes one record from an item response.
func (e *Entity) unwrapItem(body []byte) (record.Record, error) {
	raw := body
	if e.desc.ItemPath != "" {
		payload := gjson.GetBytes(body, e.desc.ItemPath)
		if !payload.Exists() {
			return nil, fmt.Errorf("response envelope missing %q", e.desc.ItemPath)
		}
		raw = []byte(payload.Raw)
	}
	return e.normalizeItem(raw)
}

// normalizeItem translates the backend identifier into "id", drops the
// original field, and decodes the record. A record with no usable id is a
// shape mismatch, which the caller treats like any other remote failure.
func (e *Entity) normalizeItem(raw []byte) (record.Record, error) {
	if alt := e.desc.AltIDField; alt != "" {
		if v := gjson.GetBytes(raw, alt); v.Exists() {
			var err error
			if raw, err = sjson.SetBytes(raw, record.FieldID, v.String()); err != nil {
				return nil, fmt.Errorf("normalize id: %w", err)
			}
			if raw, err = sjson.DeleteBytes(raw, alt); err != nil {
				return nil, fmt.Errorf("drop %s: %w", alt, err)
			}
		}
	}

	var rec record.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	if rec.ID() == "" {
		return nil, fmt.Errorf("response record has no id")
	}
	return rec, nil
}
