// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsefit/pulsefitLocal/internal/record"
	"github.com/pulsefit/pulsefitLocal/internal/resource"
	"github.com/pulsefit/pulsefitLocal/internal/store"
)

func TestRunSeedsEmptyStore(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()

	reseeded, err := New(st).Run(ctx)
	require.NoError(t, err)
	assert.True(t, reseeded)

	raw, found, err := st.GetRaw(ctx, store.KeyCacheVersion)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, CacheVersion, string(raw))

	// Every known entity gets a collection key, seeded or empty.
	for _, desc := range resource.All {
		_, found, err := st.GetRaw(ctx, store.CollectionKey(desc.Name))
		require.NoError(t, err)
		assert.True(t, found, "missing collection for %s", desc.Name)
	}

	exercises, err := store.GetCollection(ctx, st, store.CollectionKey(resource.Exercise))
	require.NoError(t, err)
	assert.NotEmpty(t, exercises)
	for _, rec := range exercises {
		assert.NotEmpty(t, rec.ID())
	}
}

func TestRunIsIdempotentWhenTagMatches(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()

	_, err := New(st).Run(ctx)
	require.NoError(t, err)

	// A record created after the seed must survive a second run.
	key := store.CollectionKey(resource.Workout)
	workouts, err := store.GetCollection(ctx, st, key)
	require.NoError(t, err)
	workouts = append(workouts, record.Record{"id": "w1", "name": "Morning Run"})
	require.NoError(t, store.SetCollection(ctx, st, key, workouts))

	reseeded, err := New(st).Run(ctx)
	require.NoError(t, err)
	assert.False(t, reseeded)

	after, err := store.GetCollection(ctx, st, key)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "w1", after[0].ID())
}

func TestRunWipesStaleCollections(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()

	require.NoError(t, st.SetRaw(ctx, store.KeyCacheVersion, []byte("2025.01.0")))
	key := store.CollectionKey(resource.Workout)
	require.NoError(t, store.SetCollection(ctx, st, key, []record.Record{
		{"id": "stale-1", "name": "Old Workout"},
	}))
	require.NoError(t, st.SetRaw(ctx, store.KeyAuthToken, []byte("tok-123")))

	reseeded, err := New(st).Run(ctx)
	require.NoError(t, err)
	assert.True(t, reseeded)

	workouts, err := store.GetCollection(ctx, st, key)
	require.NoError(t, err)
	assert.Empty(t, workouts, "stale records must not survive a reseed")

	// Non-collection keys are untouched.
	tok, found, err := st.GetRaw(ctx, store.KeyAuthToken)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "tok-123", string(tok))

	raw, _, err := st.GetRaw(ctx, store.KeyCacheVersion)
	require.NoError(t, err)
	assert.Equal(t, CacheVersion, string(raw))
}

func TestFixturesAreDeterministic(t *testing.T) {
	ctx := context.Background()

	stA := store.NewMemStore()
	stB := store.NewMemStore()
	_, err := New(stA).Run(ctx)
	require.NoError(t, err)
	_, err = New(stB).Run(ctx)
	require.NoError(t, err)

	key := store.CollectionKey(resource.Exercise)
	a, _, err := stA.GetRaw(ctx, key)
	require.NoError(t, err)
	b, _, err := stB.GetRaw(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
