// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pulsefit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsefit/pulsefitLocal/internal/config"
	"github.com/pulsefit/pulsefitLocal/internal/record"
	"github.com/pulsefit/pulsefitLocal/internal/remote"
)

func newTestClient(t *testing.T, mutate func(*config.Config)) *Client {
	t.Helper()
	cfg := &config.Config{StateDir: t.TempDir()}
	cfg.Default()
	if mutate != nil {
		mutate(cfg)
	}
	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewRunsBootstrapOnce(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := &config.Config{StateDir: dir}
	cfg.Default()

	first, err := New(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, first.Reseeded)
	require.NoError(t, first.Close())

	second, err := New(ctx, cfg)
	require.NoError(t, err)
	defer second.Close()
	assert.False(t, second.Reseeded, "matching cache version must not reseed")
}

func TestOfflineCreateSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := &config.Config{StateDir: dir}
	cfg.Default()

	client, err := New(ctx, cfg)
	require.NoError(t, err)

	created, src, err := client.Workouts().Create(ctx, record.Record{
		"name":     "Evening Ride",
		"duration": 45,
	})
	require.NoError(t, err)
	assert.Equal(t, remote.SourceCache, src)
	require.NotEmpty(t, created.ID())

	got, src, err := client.Workouts().Get(ctx, created.ID())
	require.NoError(t, err)
	assert.Equal(t, remote.SourceCache, src)
	require.NotNil(t, got)
	assert.Equal(t, "Evening Ride", got["name"])

	require.NoError(t, client.Close())

	// A fresh client over the same state dir sees the record.
	reopened, err := New(ctx, cfg)
	require.NoError(t, err)
	defer reopened.Close()

	got, _, err = reopened.Workouts().Get(ctx, created.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Evening Ride", got["name"])
	assert.Equal(t, created.CreatedAt(), got.CreatedAt())
}

func TestUpdateMissingIDReturnsNil(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, nil)

	before, _, err := client.Goals().List(ctx)
	require.NoError(t, err)

	updated, src, err := client.Goals().Update(ctx, "no-such-id", record.Record{"target": 10})
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.Equal(t, remote.SourceCache, src)

	after, _, err := client.Goals().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "missing-id update must not change the collection")
}

func TestSeedDataIsVisibleThroughEntities(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, nil)

	exercises, src, err := client.Exercises().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, remote.SourceCache, src)
	assert.NotEmpty(t, exercises)

	pushups, _, err := client.Exercises().FindOne(ctx, map[string]any{"name": "Push-up"})
	require.NoError(t, err)
	require.NotNil(t, pushups)
	assert.Equal(t, "seed-exercise-001", pushups.ID())
}

func TestRemoteBackendServesWorkouts(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workouts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"_id": "r-1", "name": "Track Intervals"}]`))
	}))
	defer server.Close()

	client := newTestClient(t, func(cfg *config.Config) {
		cfg.APIBaseURL = server.URL
	})

	workouts, src, err := client.Workouts().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, remote.SourceRemote, src)
	require.Len(t, workouts, 1)
	assert.Equal(t, "r-1", workouts[0].ID())
	assert.NotContains(t, workouts[0], "_id")
}

func TestSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, func(cfg *config.Config) {
		cfg.StoreBackend = "sqlite"
	})

	created, _, err := client.Plans().Create(ctx, record.Record{"title": "Cut Phase"})
	require.NoError(t, err)

	got, _, err := client.Plans().Get(ctx, created.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Cut Phase", got["title"])
}

func TestEntityLookup(t *testing.T) {
	client := newTestClient(t, nil)

	e, err := client.Entity("Workout")
	require.NoError(t, err)
	assert.Equal(t, "Workout", e.Name())

	_, err = client.Entity("Nonsense")
	assert.Error(t, err)
}

func TestConfigWatcherSwapsPolicy(t *testing.T) {
	ctx := context.Background()

	// A server that always fails makes the active policy observable.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	writeConfig := func(policy string) {
		body := "api-base-url: " + server.URL + "\nfallback-policy: " + policy + "\n"
		require.NoError(t, os.WriteFile(configFile, []byte(body), 0o644))
	}
	writeConfig("always-fallback")

	cfg, err := config.LoadConfig(configFile)
	require.NoError(t, err)
	cfg.StateDir = t.TempDir()

	client, err := New(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()

	watcher, err := WatchConfig(configFile, client)
	require.NoError(t, err)
	defer watcher.Close()

	_, src, err := client.Workouts().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, remote.SourceCache, src)

	writeConfig("fail-fast")

	assert.Eventually(t, func() bool {
		_, _, err := client.Workouts().List(ctx)
		return err != nil
	}, 5*time.Second, 50*time.Millisecond, "fail-fast policy should surface the remote error")
}
