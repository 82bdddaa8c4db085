// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package bootstrap manages the cache generation lifecycle. On startup the
// controller compares the persisted version tag with the build's expected
// tag; a mismatch wipes every collection and reseeds from fixtures.
package bootstrap

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/pulsefit/pulsefitLocal/internal/fixtures"
	"github.com/pulsefit/pulsefitLocal/internal/resource"
	"github.com/pulsefit/pulsefitLocal/internal/store"
)

// CacheVersion is the generation tag this build expects to find in the
// store. Bump it whenever the fixture data or record layout changes in a
// way that invalidates previously persisted collections.
const CacheVersion = "2026.08.1"

// Controller runs the version check and reseed against a single store.
type Controller struct {
	store store.Store
}

func New(st store.Store) *Controller {
	return &Controller{store: st}
}

// Run checks the persisted cache version and reseeds when it does not match
// CacheVersion. It reports whether a reseed happened. Running it again with
// an unchanged tag is a no-op.
func (c *Controller) Run(ctx context.Context) (bool, error) {
	raw, found, err := c.store.GetRaw(ctx, store.KeyCacheVersion)
	if err != nil {
		return false, fmt.Errorf("bootstrap: reading cache version: %w", err)
	}
	if found && string(raw) == CacheVersion {
		log.Debugf("cache version %q is current, skipping reseed", CacheVersion)
		return false, nil
	}

	if found {
		log.Infof("cache version mismatch (have %q, want %q), reseeding", string(raw), CacheVersion)
	} else {
		log.Infof("no cache version found, seeding collections for %q", CacheVersion)
	}

	if err := c.wipeCollections(ctx); err != nil {
		return false, err
	}
	if err := c.reseed(ctx); err != nil {
		return false, err
	}

	if err := c.store.SetRaw(ctx, store.KeyCacheVersion, []byte(CacheVersion)); err != nil {
		return false, fmt.Errorf("bootstrap: writing cache version: %w", err)
	}
	return true, nil
}

// wipeCollections removes every persisted collection key. Keys that are not
// collections (auth token, current user) survive a reseed.
func (c *Controller) wipeCollections(ctx context.Context) error {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return fmt.Errorf("bootstrap: listing keys: %w", err)
	}
	for _, k := range keys {
		if !k.IsCollection() {
			continue
		}
		if err := c.store.Delete(ctx, k); err != nil {
			return fmt.Errorf("bootstrap: wiping %s: %w", k, err)
		}
	}
	return nil
}

func (c *Controller) reseed(ctx context.Context) error {
	for _, desc := range resource.All {
		key := store.CollectionKey(desc.Name)
		if err := store.SetCollection(ctx, c.store, key, fixtures.For(desc.Name)); err != nil {
			return fmt.Errorf("bootstrap: seeding %s: %w", desc.Name, err)
		}
	}
	return nil
}
