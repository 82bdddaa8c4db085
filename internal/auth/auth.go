// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package auth holds the bearer token and current user profile, persists
// both across restarts, and produces the Authorization header every remote
// attempt carries. Sign-in prefers the backend; when it is unreachable a
// synthetic local session keeps the rest of the app functioning offline.
// The synthetic path is a degraded-usability stand-in, not a security
// boundary.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/pulsefit/pulsefitLocal/internal/record"
	"github.com/pulsefit/pulsefitLocal/internal/store"
)

const (
	loginPath   = "api/v1/auth/login"
	profilePath = "api/v1/users/me"
)

// ErrInvalidCredentials is returned when an offline sign-in does not match
// the locally stored verifier for that identifier.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Session is one signed-in state: an opaque bearer token plus the user
// profile record.
type Session struct {
	Token string
	User  record.Record
}

// Offline reports whether this session was synthesized locally.
func (s *Session) Offline() bool {
	return strings.HasPrefix(s.Token, "local.")
}

// Context owns authentication state for one client instance. It is
// constructed once at startup and passed by reference into every entity.
type Context struct {
	store  store.Store
	base   string
	client *http.Client
	oauth  *oauth2.Config

	mu    sync.RWMutex
	token string
	user  record.Record
}

// Option customizes a Context.
type Option func(*Context)

// WithHTTPClient overrides the HTTP client used for login and profile calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Context) { c.client = client }
}

// WithOAuth enables the authorization-code sign-in flow.
func WithOAuth(cfg *oauth2.Config) Option {
	return func(c *Context) { c.oauth = cfg }
}

// New creates an auth context persisting into st and logging in against
// baseURL. An empty baseURL makes every sign-in take the offline path.
func New(st store.Store, baseURL string, opts ...Option) *Context {
	c := &Context{
		store:  st,
		base:   strings.TrimSuffix(baseURL, "/"),
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore loads a previously persisted session into memory. Call it once at
// startup; a missing session is not an error.
func (c *Context) Restore(ctx context.Context) error {
	raw, found, err := c.store.GetRaw(ctx, store.KeyAuthToken)
	if err != nil {
		return fmt.Errorf("auth: restore token: %w", err)
	}
	if !found {
		return nil
	}

	var user record.Record
	rawUser, foundUser, err := c.store.GetRaw(ctx, store.KeyCurrentUser)
	switch {
	case err != nil:
		log.Warnf("auth: restoring user profile: %v", err)
	case foundUser:
		if err := json.Unmarshal(rawUser, &user); err != nil {
			log.Warnf("auth: discarding corrupted user profile: %v", err)
			user = nil
		}
	}

	c.mu.Lock()
	c.token = string(raw)
	c.user = user
	c.mu.Unlock()
	return nil
}

// SignIn authenticates against the backend; when that fails for any reason
// it falls back to a synthetic local session so the app keeps working
// offline. The session is persisted before it is returned.
func (c *Context) SignIn(ctx context.Context, identifier, secret string) (*Session, error) {
	if c.base != "" {
		session, err := c.remoteSignIn(ctx, identifier, secret)
		if err == nil {
			return session, c.adopt(ctx, session)
		}
		log.Debugf("auth: remote sign-in failed, using offline session: %v", err)
	}

	session, err := c.offlineSignIn(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}
	return session, c.adopt(ctx, session)
}

func (c *Context) remoteSignIn(ctx context.Context, identifier, secret string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": identifier, "password": secret})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/"+loginPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("login status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	// The login envelope carries the token and profile either at the top
	// level or under "data".
	token := gjson.GetBytes(payload, "token")
	if !token.Exists() {
		token = gjson.GetBytes(payload, "data.token")
	}
	if !token.Exists() || token.String() == "" {
		return nil, fmt.Errorf("login response has no token")
	}

	userNode := gjson.GetBytes(payload, "user")
	if !userNode.Exists() {
		userNode = gjson.GetBytes(payload, "data.user")
	}
	var user record.Record
	if userNode.Exists() {
		if err := json.Unmarshal([]byte(userNode.Raw), &user); err != nil {
			return nil, fmt.Errorf("decode login profile: %w", err)
		}
	}
	if user == nil {
		user = record.Record{"email": identifier}
	}
	if user.ID() == "" {
		if alt := user["_id"]; alt != nil {
			if s, ok := alt.(string); ok {
				user.SetID(s)
			}
			delete(user, "_id")
		}
	}

	return &Session{Token: token.String(), User: user}, nil
}

// offlineSignIn checks the secret against the locally stored bcrypt
// verifier for this identifier (recording one on first use) and synthesizes
// a session.
func (c *Context) offlineSignIn(ctx context.Context, identifier, secret string) (*Session, error) {
	creds, err := c.loadCredentials(ctx)
	if err != nil {
		return nil, err
	}

	if hash, ok := creds[identifier]; ok {
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
			return nil, ErrInvalidCredentials
		}
	} else {
		hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("auth: hash credential: %w", err)
		}
		creds[identifier] = string(hashed)
		if err := c.saveCredentials(ctx, creds); err != nil {
			return nil, err
		}
	}

	user := record.Record{
		record.FieldID: "local-" + uuid.New().String()[:8],
		"email":        identifier,
		"offline":      true,
	}
	return &Session{Token: "local." + uuid.New().String(), User: user}, nil
}

func (c *Context) loadCredentials(ctx context.Context) (map[string]string, error) {
	raw, found, err := c.store.GetRaw(ctx, store.KeyLocalCredentials)
	if err != nil {
		return nil, fmt.Errorf("auth: load credentials: %w", err)
	}
	creds := map[string]string{}
	if found {
		if err := json.Unmarshal(raw, &creds); err != nil {
			log.Warnf("auth: discarding corrupted credential store: %v", err)
			creds = map[string]string{}
		}
	}
	return creds, nil
}

func (c *Context) saveCredentials(ctx context.Context, creds map[string]string) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("auth: encode credentials: %w", err)
	}
	return c.store.SetRaw(ctx, store.KeyLocalCredentials, raw)
}

// adopt makes the session current in memory and persists it immediately.
func (c *Context) adopt(ctx context.Context, session *Session) error {
	c.mu.Lock()
	c.token = session.Token
	c.user = session.User
	c.mu.Unlock()

	if err := c.store.SetRaw(ctx, store.KeyAuthToken, []byte(session.Token)); err != nil {
		return fmt.Errorf("auth: persist token: %w", err)
	}
	rawUser, err := json.Marshal(session.User)
	if err != nil {
		return fmt.Errorf("auth: encode profile: %w", err)
	}
	if err := c.store.SetRaw(ctx, store.KeyCurrentUser, rawUser); err != nil {
		return fmt.Errorf("auth: persist profile: %w", err)
	}
	return nil
}

// AuthCodeURL returns the browser URL starting the OAuth sign-in flow.
func (c *Context) AuthCodeURL(state string) (string, error) {
	if c.oauth == nil {
		return "", fmt.Errorf("auth: oauth is not configured")
	}
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// HandleOAuthCallback exchanges the authorization code for a token, fetches
// the user profile, and adopts the session. When the profile fetch fails
// the session still succeeds with a minimal synthesized profile.
func (c *Context) HandleOAuthCallback(ctx context.Context, code string) (*Session, error) {
	if c.oauth == nil {
		return nil, fmt.Errorf("auth: oauth is not configured")
	}

	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: code exchange: %w", err)
	}

	user, err := c.fetchProfile(ctx, tok.AccessToken)
	if err != nil {
		log.Debugf("auth: profile fetch failed after oauth sign-in: %v", err)
		user = record.Record{
			record.FieldID: "oauth-" + uuid.New().String()[:8],
		}
	}

	session := &Session{Token: tok.AccessToken, User: user}
	return session, c.adopt(ctx, session)
}

func (c *Context) fetchProfile(ctx context.Context, token string) (record.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+profilePath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("profile status %d", resp.StatusCode)
	}

	node := gjson.GetBytes(payload, "data.user")
	if !node.Exists() {
		node = gjson.ParseBytes(payload)
	}
	var user record.Record
	if err := json.Unmarshal([]byte(node.Raw), &user); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if user.ID() == "" {
		if s, ok := user["_id"].(string); ok {
			user.SetID(s)
			delete(user, "_id")
		}
	}
	return user, nil
}

// AuthHeaders derives request headers from the current token, re-reading
// the persisted token when memory is empty (covers process restarts). With
// no session at all it returns no headers.
func (c *Context) AuthHeaders(ctx context.Context) map[string]string {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()

	if token == "" {
		raw, found, err := c.store.GetRaw(ctx, store.KeyAuthToken)
		if err != nil || !found {
			return nil
		}
		token = string(raw)
		c.mu.Lock()
		c.token = token
		c.mu.Unlock()
	}

	return map[string]string{"Authorization": "Bearer " + token}
}

// CurrentUser returns the signed-in profile, or nil.
func (c *Context) CurrentUser() record.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user.Clone()
}

// SignOut destroys the session in memory and in the store.
func (c *Context) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.token = ""
	c.user = nil
	c.mu.Unlock()

	if err := c.store.Delete(ctx, store.KeyAuthToken); err != nil {
		return fmt.Errorf("auth: clear token: %w", err)
	}
	if err := c.store.Delete(ctx, store.KeyCurrentUser); err != nil {
		return fmt.Errorf("auth: clear profile: %w", err)
	}
	return nil
}
