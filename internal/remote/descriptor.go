// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package remote

// Descriptor declares everything entity-specific about a backend resource:
// where it lives, how its response envelope nests the payload, and which
// backend field carries the identifier. One generic engine parameterized by
// a Descriptor replaces a subclass per entity.
type Descriptor struct {
	// Name is the entity/collection name, e.g. "Workout".
	Name string
	// Path is the resource segment under the API base, e.g. "workouts".
	Path string
	// ListPath is the gjson path locating the record array inside a list
	// response. Empty means the array sits at the top level.
	ListPath string
	// ItemPath is the gjson path locating the record object inside a
	// single-item response. Empty means top level.
	ItemPath string
	// AltIDField names the backend identifier field (e.g. "_id") that is
	// copied into "id" and dropped before a record leaves this layer.
	// Empty when the backend already uses "id".
	AltIDField string
}
