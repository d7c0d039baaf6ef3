//go:build integration

package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Varun5711/bookshelf/internal/apperr"
	"github.com/Varun5711/bookshelf/internal/database"
	"github.com/Varun5711/bookshelf/internal/models"
	usermodel "github.com/Varun5711/bookshelf/internal/models/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *PostgresUserStorage {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		t.Skip("Docker not available, skipping integration tests")
	}
	provider.Close()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("bookshelf_test"),
		postgres.WithUsername("bookshelf"),
		postgres.WithPassword("bookshelf"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.NewDBManager(ctx, database.Config{
		PrimaryDSN:      dsn,
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(ctx))

	return NewUserStorage(db)
}

func TestPostgresUserStorage(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, &usermodel.CreateUserRequest{Username: "ada", Email: "a@x.com"}, "hash")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	t.Run("conflicts map to fields", func(t *testing.T) {
		var conflict *apperr.ConflictError

		_, err := s.CreateUser(ctx, &usermodel.CreateUserRequest{Username: "ada", Email: "b@x.com"}, "h")
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "username", conflict.Field)

		_, err = s.CreateUser(ctx, &usermodel.CreateUserRequest{Username: "bob", Email: "a@x.com"}, "h")
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, "email", conflict.Field)
	})

	t.Run("lookups", func(t *testing.T) {
		u, err := s.GetUserByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, created.ID, u.ID)
		assert.Equal(t, "hash", u.PasswordHash)

		missing, err := s.GetUserByID(ctx, "not-a-uuid")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("books keep save order", func(t *testing.T) {
		_, err := s.AddBook(ctx, created.ID, models.Book{BookID: "B1", Title: "T1", Authors: []string{"A", "B"}})
		require.NoError(t, err)
		_, err = s.AddBook(ctx, created.ID, models.Book{BookID: "B2", Title: "T2"})
		require.NoError(t, err)
		u, err := s.AddBook(ctx, created.ID, models.Book{BookID: "B1", Title: "dup"})
		require.NoError(t, err)

		require.Len(t, u.SavedBooks, 2)
		assert.Equal(t, "B1", u.SavedBooks[0].BookID)
		assert.Equal(t, []string{"A", "B"}, u.SavedBooks[0].Authors)
		assert.Equal(t, "B2", u.SavedBooks[1].BookID)
	})

	t.Run("remove then remove again", func(t *testing.T) {
		u, err := s.RemoveBook(ctx, created.ID, "B1")
		require.NoError(t, err)
		require.Len(t, u.SavedBooks, 1)

		_, err = s.RemoveBook(ctx, created.ID, "B1")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("password update", func(t *testing.T) {
		require.NoError(t, s.UpdatePasswordHash(ctx, created.ID, "new"))
		u, err := s.GetUserByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "new", u.PasswordHash)
	})
}

func TestPostgresUserStorage_ConcurrentDuplicateRegistration(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CreateUser(ctx, &usermodel.CreateUserRequest{
				Username: "ada",
				Email:    []string{"one@x.com", "two@x.com"}[i],
			}, "h")
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		if err == nil {
			ok++
		} else if errors.Is(err, apperr.ErrConflict) {
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, conflicts)

	count, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
