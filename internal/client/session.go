package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Varun5711/bookshelf/internal/auth"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Session keeps the signed-in token in memory and in the local store. The token is decoded
// without verification; only the server can verify it.
type Session struct {
	store *LocalStore

	mu    sync.RWMutex
	token string
	now   func() time.Time
}

// NewSession loads any previously saved token from store.
func NewSession(ctx context.Context, store *LocalStore) (*Session, error) {
	token, err := store.Token(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{store: store, token: token, now: time.Now}, nil
}

// Token is a TokenSource for the GraphQL client. Expired tokens are not sent.
func (s *Session) Token() string {
	if !s.LoggedIn() {
		return ""
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Login(ctx context.Context, token string) error {
	if err := s.store.SaveToken(ctx, token); err != nil {
		return err
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Logout forgets the token and the saved id list locally. Nothing is sent to the server; the
// token stays valid there until it expires.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	if err := s.store.ClearToken(ctx); err != nil {
		return err
	}
	return s.store.ReplaceSavedBookIDs(ctx, nil)
}

// LoggedIn reports whether a token is held and its exp claim is still in the future.
func (s *Session) LoggedIn() bool {
	claims, err := s.claims()
	if err != nil || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.After(s.now())
}

// Identity returns who the held token was issued to.
func (s *Session) Identity() (auth.Identity, error) {
	if !s.LoggedIn() {
		return auth.Identity{}, ErrNotLoggedIn
	}
	claims, err := s.claims()
	if err != nil {
		return auth.Identity{}, err
	}
	return claims.Identity(), nil
}

func (s *Session) claims() (*auth.Claims, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return nil, ErrNotLoggedIn
	}

	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrNotLoggedIn
	}
	return claims, nil
}
