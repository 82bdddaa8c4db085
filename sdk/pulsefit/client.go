// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pulsefit is the embedding surface of the data layer. A Client
// owns the persistent store, the auth context and one remote entity per
// known resource, and runs the cache bootstrap on construction.
package pulsefit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/pulsefit/pulsefitLocal/internal/auth"
	"github.com/pulsefit/pulsefitLocal/internal/bootstrap"
	"github.com/pulsefit/pulsefitLocal/internal/collection"
	"github.com/pulsefit/pulsefitLocal/internal/config"
	"github.com/pulsefit/pulsefitLocal/internal/remote"
	"github.com/pulsefit/pulsefitLocal/internal/resource"
	"github.com/pulsefit/pulsefitLocal/internal/store"
	"github.com/pulsefit/pulsefitLocal/internal/util"
)

// Client bundles everything an application needs to read and write fitness
// data: entity engines, authentication and the bootstrap lifecycle.
type Client struct {
	cfg      *config.Config
	box      *util.StateBox
	store    store.Store
	auth     *auth.Context
	entities map[string]*remote.Entity

	// Reseeded reports whether construction wiped and reseeded the cache.
	Reseeded bool
}

// New builds a Client from the given configuration, opens the configured
// store backend and runs the cache version check before returning.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg == nil {
		cfg = &config.Config{}
		cfg.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	box, err := openStateBox(cfg)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cfg, box)
	if err != nil {
		return nil, err
	}

	client := &Client{
		cfg:      cfg,
		box:      box,
		store:    st,
		entities: make(map[string]*remote.Entity, len(resource.All)),
	}

	reseeded, err := bootstrap.New(st).Run(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	client.Reseeded = reseeded

	httpClient := buildHTTPClient(cfg)
	authOpts := []auth.Option{auth.WithHTTPClient(httpClient)}
	if oc := oauthConfig(cfg); oc != nil {
		authOpts = append(authOpts, auth.WithOAuth(oc))
	}
	client.auth = auth.New(st, cfg.APIBaseURL, authOpts...)
	if err := client.auth.Restore(ctx); err != nil {
		client.Close()
		return nil, err
	}

	policy, err := remote.ParsePolicy(cfg.FallbackPolicy)
	if err != nil {
		client.Close()
		return nil, err
	}
	for _, desc := range resource.All {
		local := collection.New(desc.Name, st)
		client.entities[desc.Name] = remote.NewEntity(desc, local, cfg.APIBaseURL,
			remote.WithHTTPClient(httpClient),
			remote.WithAuth(client.auth),
			remote.WithPolicy(policy),
			remote.WithRetries(cfg.RequestRetry),
		)
	}
	return client, nil
}

func openStateBox(cfg *config.Config) (*util.StateBox, error) {
	if cfg.StateDir != "" {
		return util.NewStateBoxAt(cfg.StateDir)
	}
	return util.NewStateBox()
}

func openStore(cfg *config.Config, box *util.StateBox) (store.Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		return store.NewSQLiteStore(box.DatabasePath())
	default:
		return store.NewFileStore(box), nil
	}
}

func buildHTTPClient(cfg *config.Config) *http.Client {
	client := &http.Client{}
	if cfg.RequestTimeoutSeconds > 0 {
		client.Timeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	}
	return client
}

func oauthConfig(cfg *config.Config) *oauth2.Config {
	oc := cfg.OAuth
	if oc.ClientID == "" || oc.AuthURL == "" || oc.TokenURL == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     oc.ClientID,
		ClientSecret: oc.ClientSecret,
		RedirectURL:  oc.RedirectURL,
		Scopes:       oc.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  oc.AuthURL,
			TokenURL: oc.TokenURL,
		},
	}
}

// Entity returns the engine for a known resource name.
func (c *Client) Entity(name string) (*remote.Entity, error) {
	e, ok := c.entities[name]
	if !ok {
		return nil, fmt.Errorf("unknown entity %q", name)
	}
	return e, nil
}

// Auth exposes the authentication context.
func (c *Client) Auth() *auth.Context { return c.auth }

// Store exposes the underlying persistence for callers that need raw keys.
func (c *Client) Store() store.Store { return c.store }

// StateBox exposes the resolved state directory layout.
func (c *Client) StateBox() *util.StateBox { return c.box }

// SetFallbackPolicy swaps the fallback policy on every entity at runtime.
func (c *Client) SetFallbackPolicy(p remote.Policy, retries int) {
	for _, e := range c.entities {
		e.SetPolicy(p, retries)
	}
}

// Typed accessors for the known resources.

func (c *Client) Workouts() *remote.Entity           { return c.entities[resource.Workout] }
func (c *Client) Exercises() *remote.Entity          { return c.entities[resource.Exercise] }
func (c *Client) Goals() *remote.Entity              { return c.entities[resource.Goal] }
func (c *Client) Plans() *remote.Entity              { return c.entities[resource.Plan] }
func (c *Client) PredefinedWorkouts() *remote.Entity { return c.entities[resource.PredefinedWorkout] }
func (c *Client) Users() *remote.Entity              { return c.entities[resource.User] }
func (c *Client) Progress() *remote.Entity           { return c.entities[resource.Progress] }

// Close releases the store backend. Safe to call on a partially built
// client.
func (c *Client) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}
