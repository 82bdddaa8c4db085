// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package record defines the canonical entity record shape shared by the
// local cache, the remote client, and the seed fixtures. A record is an
// arbitrary field mapping with a mandatory string id and creation/update
// timestamps.
package record

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// Field names every record carries once it leaves the data layer.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// TimeLayout is the wire format for record timestamps.
const TimeLayout = time.RFC3339Nano

// Record is one entity instance. Values hold whatever JSON produced:
// string, float64, bool, nil, []any or map[string]any.
type Record map[string]any

// ID returns the record id, or "" when unset.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// SetID overwrites the record id.
func (r Record) SetID(id string) { r[FieldID] = id }

// Clone returns a shallow copy of the record. Nested values are shared.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Stamp sets createdAt and updatedAt to the same instant.
func (r Record) Stamp(now time.Time) {
	ts := now.Format(TimeLayout)
	r[FieldCreatedAt] = ts
	r[FieldUpdatedAt] = ts
}

// Touch bumps updatedAt, leaving createdAt alone.
func (r Record) Touch(now time.Time) {
	r[FieldUpdatedAt] = now.Format(TimeLayout)
}

// CreatedAt parses the createdAt field; zero time when missing or malformed.
func (r Record) CreatedAt() time.Time { return r.timeField(FieldCreatedAt) }

// UpdatedAt parses the updatedAt field; zero time when missing or malformed.
func (r Record) UpdatedAt() time.Time { return r.timeField(FieldUpdatedAt) }

func (r Record) timeField(name string) time.Time {
	s, _ := r[name].(string)
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Normalize re-encodes the record through JSON so that field values use the
// same concrete types a decode from storage would produce (numbers become
// float64 and so on). Equality filters rely on this.
func Normalize(r Record) (Record, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("record: normalize marshal: %w", err)
	}
	var out Record
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("record: normalize unmarshal: %w", err)
	}
	return out, nil
}

// Encode marshals a whole collection image.
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("record: encode collection: %w", err)
	}
	return raw, nil
}

// Decode unmarshals a collection image. A nil or empty payload yields an
// empty slice; a malformed payload is reported so the caller can decide
// whether to discard it.
func Decode(raw []byte) ([]Record, error) {
	if len(raw) == 0 {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("record: decode collection: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
