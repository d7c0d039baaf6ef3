package client

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Varun5711/bookshelf/internal/auth"
)

func issueToken(t *testing.T, ttl time.Duration) string {
	t.Helper()
	token, _, err := auth.NewJWTManager("test-secret", ttl).GenerateToken(auth.Identity{
		ID:       "u-1",
		Username: "alice",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	return token
}

func TestSession_LoginPersistsAndDecodes(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bookshelf.db")
	store, err := NewLocalStore(path)
	require.NoError(t, err)
	defer store.Close()

	s, err := NewSession(ctx, store)
	require.NoError(t, err)
	assert.False(t, s.LoggedIn())
	assert.Empty(t, s.Token())

	token := issueToken(t, time.Hour)
	require.NoError(t, s.Login(ctx, token))
	assert.True(t, s.LoggedIn())
	assert.Equal(t, token, s.Token())

	id, err := s.Identity()
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.ID)
	assert.Equal(t, "alice", id.Username)

	again, err := NewSession(ctx, store)
	require.NoError(t, err)
	assert.True(t, again.LoggedIn())
}

func TestSession_ExpiredTokenIsNotLoggedIn(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	s, err := NewSession(ctx, store)
	require.NoError(t, err)

	require.NoError(t, s.Login(ctx, issueToken(t, -time.Minute)))
	assert.False(t, s.LoggedIn())
	assert.Empty(t, s.Token())

	_, err = s.Identity()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSession_GarbageToken(t *testing.T) {
	ctx := context.Background()
	s, err := NewSession(ctx, newTestStore(t))
	require.NoError(t, err)

	require.NoError(t, s.Login(ctx, "not-a-jwt"))
	assert.False(t, s.LoggedIn())
}

func TestSession_LogoutClearsLocalState(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	s, err := NewSession(ctx, store)
	require.NoError(t, err)

	require.NoError(t, s.Login(ctx, issueToken(t, time.Hour)))
	require.NoError(t, store.AddSavedBookID(ctx, "b1"))

	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.LoggedIn())

	token, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	ids, err := store.SavedBookIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
