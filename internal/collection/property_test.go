// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package collection

import (
	"context"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/pulsefit/pulsefitLocal/internal/record"
	"github.com/pulsefit/pulsefitLocal/internal/store"
)

// TestProperty_UniqueIDs validates that any sequence of creates yields
// pairwise distinct ids and that every record is retrievable by its id.
func TestProperty_UniqueIDs(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("created ids are unique and retrievable", prop.ForAll(
		func(names []string) bool {
			ctx := context.Background()
			c := New("Exercise", store.NewMemStore())

			seen := map[string]bool{}
			for _, name := range names {
				rec, err := c.Create(ctx, record.Record{"name": name})
				if err != nil {
					return false
				}
				id := rec.ID()
				if id == "" || seen[id] {
					return false
				}
				seen[id] = true

				got, err := c.FindByID(ctx, id)
				if err != nil || got == nil || got["name"] != name {
					return false
				}
			}

			all, err := c.List(ctx)
			return err == nil && len(all) == len(names)
		},
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

// TestProperty_DeleteShrinksByOne validates delete idempotency: the first
// delete removes exactly one record, the second is a no-op returning false.
func TestProperty_DeleteShrinksByOne(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("delete removes exactly one record once", prop.ForAll(
		func(n uint8) bool {
			count := int(n%10) + 1
			ctx := context.Background()
			c := New("Workout", store.NewMemStore())

			var ids []string
			for i := 0; i < count; i++ {
				rec, err := c.Create(ctx, record.Record{"n": i})
				if err != nil {
					return false
				}
				ids = append(ids, rec.ID())
			}

			victim := ids[count/2]
			removed, err := c.Delete(ctx, victim)
			if err != nil || !removed {
				return false
			}
			all, err := c.List(ctx)
			if err != nil || len(all) != count-1 {
				return false
			}

			removed, err = c.Delete(ctx, victim)
			if err != nil || removed {
				return false
			}
			all, err = c.List(ctx)
			return err == nil && len(all) == count-1
		},
		gen.UInt8(),
	))

	properties.TestingRun(t)
}

// TestProperty_UpdatePreservesIdentity validates that updates never change
// id or createdAt and never change the collection size.
func TestProperty_UpdatePreservesIdentity(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("update keeps id and createdAt", prop.ForAll(
		func(initial string, patched string) bool {
			ctx := context.Background()
			c := New("Goal", store.NewMemStore())

			created, err := c.Create(ctx, record.Record{"name": initial})
			if err != nil {
				return false
			}

			updated, err := c.Update(ctx, created.ID(), record.Record{"name": patched})
			if err != nil || updated == nil {
				return false
			}
			if updated.ID() != created.ID() {
				return false
			}
			if updated[record.FieldCreatedAt] != created[record.FieldCreatedAt] {
				return false
			}
			if updated["name"] != patched {
				return false
			}

			all, err := c.List(ctx)
			return err == nil && len(all) == 1
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
