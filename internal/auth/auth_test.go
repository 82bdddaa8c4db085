// Copyright 2026 The pulsefitLocal Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsefit/pulsefitLocal/internal/store"
)

func TestSignIn_Remote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"data":{"token":"srv-token","user":{"_id":"u1","email":"a@b.c"}}}`))
	}))
	defer srv.Close()

	st := store.NewMemStore()
	c := New(st, srv.URL)

	session, err := c.SignIn(context.Background(), "a@b.c", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "srv-token", session.Token)
	assert.False(t, session.Offline())
	assert.Equal(t, "u1", session.User.ID())
	_, leaked := session.User["_id"]
	assert.False(t, leaked, "alternate identifier must be dropped")

	headers := c.AuthHeaders(context.Background())
	assert.Equal(t, "Bearer srv-token", headers["Authorization"])

	// The session is persisted immediately.
	raw, found, err := st.GetRaw(context.Background(), store.KeyAuthToken)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "srv-token", string(raw))
}

func TestSignIn_OfflineFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	st := store.NewMemStore()
	c := New(st, srv.URL)

	session, err := c.SignIn(context.Background(), "a@b.c", "hunter2")
	require.NoError(t, err)
	assert.True(t, session.Offline())
	assert.NotEmpty(t, session.User.ID())
	assert.Equal(t, "a@b.c", session.User["email"])

	headers := c.AuthHeaders(context.Background())
	assert.Contains(t, headers["Authorization"], "Bearer local.")
}

func TestSignIn_OfflineVerifierRejectsWrongSecret(t *testing.T) {
	st := store.NewMemStore()
	c := New(st, "") // no backend: offline by construction

	_, err := c.SignIn(context.Background(), "a@b.c", "first-secret")
	require.NoError(t, err)

	// Same identifier, wrong secret.
	_, err = c.SignIn(context.Background(), "a@b.c", "other-secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Same identifier, right secret.
	_, err = c.SignIn(context.Background(), "a@b.c", "first-secret")
	assert.NoError(t, err)
}

func TestAuthHeaders_RereadsPersistedToken(t *testing.T) {
	st := store.NewMemStore()
	require.NoError(t, st.SetRaw(context.Background(), store.KeyAuthToken, []byte("persisted-token")))

	// A fresh context over the same store (page-reload analog) finds the
	// token without a sign-in.
	c := New(st, "")
	headers := c.AuthHeaders(context.Background())
	assert.Equal(t, "Bearer persisted-token", headers["Authorization"])
}

func TestAuthHeaders_NoSession(t *testing.T) {
	c := New(store.NewMemStore(), "")
	assert.Empty(t, c.AuthHeaders(context.Background()))
}

func TestSignOut_ClearsEverything(t *testing.T) {
	st := store.NewMemStore()
	c := New(st, "")

	_, err := c.SignIn(context.Background(), "a@b.c", "s3cret")
	require.NoError(t, err)

	require.NoError(t, c.SignOut(context.Background()))

	assert.Empty(t, c.AuthHeaders(context.Background()))
	assert.Nil(t, c.CurrentUser())

	_, found, _ := st.GetRaw(context.Background(), store.KeyAuthToken)
	assert.False(t, found)
	_, found, _ = st.GetRaw(context.Background(), store.KeyCurrentUser)
	assert.False(t, found)
}

func TestRestore(t *testing.T) {
	st := store.NewMemStore()
	first := New(st, "")
	_, err := first.SignIn(context.Background(), "a@b.c", "s3cret")
	require.NoError(t, err)
	wantUser := first.CurrentUser()

	second := New(st, "")
	require.NoError(t, second.Restore(context.Background()))
	assert.Equal(t, wantUser.ID(), second.CurrentUser().ID())
	assert.NotEmpty(t, second.AuthHeaders(context.Background()))
}
