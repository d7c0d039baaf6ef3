package client

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Varun5711/bookshelf/internal/apperr"
	"github.com/Varun5711/bookshelf/internal/logger"
	"github.com/Varun5711/bookshelf/internal/models"
)

type fakeRemote struct {
	mu      sync.Mutex
	removed []string
	saved   []string
	gates   map[string]chan struct{}
	failOn  map[string]error
	me      *Me
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{gates: map[string]chan struct{}{}, failOn: map[string]error{}}
}

func (f *fakeRemote) Me(ctx context.Context) (*Me, error) {
	return f.me, nil
}

func (f *fakeRemote) SaveBook(ctx context.Context, book models.Book) (*Me, error) {
	if err := f.failOn[book.BookID]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.saved = append(f.saved, book.BookID)
	f.mu.Unlock()
	return &Me{}, nil
}

func (f *fakeRemote) RemoveBook(ctx context.Context, bookID string) (*Me, error) {
	f.mu.Lock()
	gate := f.gates[bookID]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err := f.failOn[bookID]; err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.removed = append(f.removed, bookID)
	f.mu.Unlock()
	return &Me{}, nil
}

type fakeIDs struct {
	mu        sync.Mutex
	ids       map[string]bool
	removeErr error
}

func newFakeIDs(ids ...string) *fakeIDs {
	f := &fakeIDs{ids: map[string]bool{}}
	for _, id := range ids {
		f.ids[id] = true
	}
	return f
}

func (f *fakeIDs) HasSavedBookID(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[id], nil
}

func (f *fakeIDs) AddSavedBookID(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids[id] = true
	return nil
}

func (f *fakeIDs) RemoveSavedBookID(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.ids, id)
	return nil
}

func (f *fakeIDs) ReplaceSavedBookIDs(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = map[string]bool{}
	for _, id := range ids {
		f.ids[id] = true
	}
	return nil
}

func (f *fakeIDs) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ids[id]
}

func seededCache(userID string, bookIDs ...string) *QueryCache {
	c := NewQueryCache()
	me := Me{ID: userID, Username: "alice"}
	for _, id := range bookIDs {
		me.SavedBooks = append(me.SavedBooks, models.Book{BookID: id, Title: "T-" + id, Authors: []string{"A"}})
	}
	me.BookCount = len(me.SavedBooks)
	c.Write(userID, me)
	return c
}

func bookIDs(me Me) []string {
	out := []string{}
	for _, b := range me.SavedBooks {
		out = append(out, b.BookID)
	}
	return out
}

func TestSynchronizer_RemoveBook_Success(t *testing.T) {
	cache := seededCache("u1", "b1", "b2")
	ids := newFakeIDs("b1", "b2")
	remote := newFakeRemote()
	s := NewSynchronizer(remote, cache, ids, logger.Discard())

	require.NoError(t, s.RemoveBook(context.Background(), "u1", "b1"))

	me, ok := s.Snapshot("u1")
	require.True(t, ok)
	assert.Equal(t, []string{"b2"}, bookIDs(me))
	assert.Equal(t, 1, me.BookCount)
	assert.False(t, ids.has("b1"))
	assert.True(t, ids.has("b2"))
	assert.Equal(t, []string{"b1"}, remote.removed)
}

func TestSynchronizer_OverlappingRemovalsBuildOnLatestSnapshot(t *testing.T) {
	cache := seededCache("u1", "b1", "b2", "b3")
	ids := newFakeIDs("b1", "b2", "b3")
	remote := newFakeRemote()
	gate := make(chan struct{})
	remote.gates["b1"] = gate
	s := NewSynchronizer(remote, cache, ids, logger.Discard())

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- s.RemoveBook(context.Background(), "u1", "b1")
	}()

	// wait until the first removal's local effects are visible
	require.Eventually(t, func() bool { return !ids.has("b1") }, timeoutShort, tick)

	require.NoError(t, s.RemoveBook(context.Background(), "u1", "b2"))

	me, _ := s.Snapshot("u1")
	assert.Equal(t, []string{"b3"}, bookIDs(me))

	close(gate)
	require.NoError(t, <-firstDone)

	me, _ = s.Snapshot("u1")
	assert.Equal(t, []string{"b3"}, bookIDs(me))
	assert.Equal(t, 1, me.BookCount)
	assert.ElementsMatch(t, []string{"b1", "b2"}, remote.removed)
}

func TestSynchronizer_RemoteFailureKeepsOptimisticStateByDefault(t *testing.T) {
	cache := seededCache("u1", "b1", "b2")
	ids := newFakeIDs("b1", "b2")
	remote := newFakeRemote()
	remote.failOn["b1"] = &apperr.NotFoundError{Resource: "book", ID: "b1"}
	s := NewSynchronizer(remote, cache, ids, logger.Discard())

	err := s.RemoveBook(context.Background(), "u1", "b1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	me, _ := s.Snapshot("u1")
	assert.Equal(t, []string{"b2"}, bookIDs(me))
	assert.False(t, ids.has("b1"))
}

func TestSynchronizer_RemoteFailureWithRollback(t *testing.T) {
	cache := seededCache("u1", "b1", "b2", "b3")
	ids := newFakeIDs("b1", "b2", "b3")
	remote := newFakeRemote()
	remote.failOn["b2"] = errors.New("connection refused")
	s := NewSynchronizer(remote, cache, ids, logger.Discard(), WithRollback(true))

	require.Error(t, s.RemoveBook(context.Background(), "u1", "b2"))

	me, _ := s.Snapshot("u1")
	assert.Equal(t, []string{"b1", "b2", "b3"}, bookIDs(me))
	assert.Equal(t, 3, me.BookCount)
	assert.True(t, ids.has("b2"))
}

func TestSynchronizer_RollbackSkipsBookAlreadyGoneOnServer(t *testing.T) {
	cache := seededCache("u1", "b1", "b2")
	ids := newFakeIDs("b1", "b2")
	remote := newFakeRemote()
	remote.failOn["b1"] = &apperr.NotFoundError{Resource: "book", ID: "b1"}
	s := NewSynchronizer(remote, cache, ids, logger.Discard(), WithRollback(true))

	err := s.RemoveBook(context.Background(), "u1", "b1")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	me, _ := s.Snapshot("u1")
	assert.Equal(t, []string{"b2"}, bookIDs(me))
	assert.Equal(t, 1, me.BookCount)
	assert.False(t, ids.has("b1"))
}

func TestSynchronizer_LocalStoreFailureRevertsCache(t *testing.T) {
	cache := seededCache("u1", "b1")
	ids := newFakeIDs("b1")
	ids.removeErr = errors.New("disk full")
	remote := newFakeRemote()
	s := NewSynchronizer(remote, cache, ids, logger.Discard())

	err := s.RemoveBook(context.Background(), "u1", "b1")
	require.Error(t, err)

	me, _ := s.Snapshot("u1")
	assert.Equal(t, []string{"b1"}, bookIDs(me))
	assert.Empty(t, remote.removed, "remote must not be called when local effects fail")
}

func TestSynchronizer_RemoveWithoutSnapshotStillUpdatesLocalList(t *testing.T) {
	ids := newFakeIDs("b1")
	remote := newFakeRemote()
	s := NewSynchronizer(remote, NewQueryCache(), ids, logger.Discard())

	require.NoError(t, s.RemoveBook(context.Background(), "u1", "b1"))

	_, ok := s.Snapshot("u1")
	assert.False(t, ok)
	assert.False(t, ids.has("b1"))
}

func TestSynchronizer_SaveBook(t *testing.T) {
	cache := seededCache("u1", "b1")
	ids := newFakeIDs("b1")
	remote := newFakeRemote()
	s := NewSynchronizer(remote, cache, ids, logger.Discard())

	book := models.Book{BookID: "b2", Title: "New", Authors: []string{"X"}}
	require.NoError(t, s.SaveBook(context.Background(), "u1", book))
	require.NoError(t, s.SaveBook(context.Background(), "u1", book))

	me, _ := s.Snapshot("u1")
	assert.Equal(t, []string{"b1", "b2"}, bookIDs(me))
	assert.Equal(t, 2, me.BookCount)
	assert.True(t, ids.has("b2"))
}

func TestSynchronizer_SaveBookFailureLeavesStateAlone(t *testing.T) {
	cache := seededCache("u1")
	ids := newFakeIDs()
	remote := newFakeRemote()
	remote.failOn["b9"] = apperr.NotAuthenticated()
	s := NewSynchronizer(remote, cache, ids, logger.Discard())

	err := s.SaveBook(context.Background(), "u1", models.Book{BookID: "b9"})
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))

	me, _ := s.Snapshot("u1")
	assert.Empty(t, me.SavedBooks)
	assert.False(t, ids.has("b9"))
}

func TestSynchronizer_Refresh(t *testing.T) {
	ids := newFakeIDs("stale")
	remote := newFakeRemote()
	remote.me = &Me{ID: "u1", BookCount: 1, SavedBooks: []models.Book{{BookID: "b7", Authors: []string{}}}}
	s := NewSynchronizer(remote, NewQueryCache(), ids, logger.Discard())

	me, err := s.Refresh(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)

	cached, ok := s.Snapshot("u1")
	require.True(t, ok)
	assert.Equal(t, []string{"b7"}, bookIDs(cached))
	assert.False(t, ids.has("stale"))
	assert.True(t, ids.has("b7"))
}

func TestSynchronizer_RefreshDuringRemovalKeepsBookRemoved(t *testing.T) {
	cache := seededCache("u1", "b1", "b2")
	ids := newFakeIDs("b1", "b2")
	remote := newFakeRemote()
	gate := make(chan struct{})
	remote.gates["b1"] = gate
	remote.me = &Me{ID: "u1", BookCount: 2, SavedBooks: []models.Book{{BookID: "b1"}, {BookID: "b2"}}}
	s := NewSynchronizer(remote, cache, ids, logger.Discard())

	done := make(chan error, 1)
	go func() {
		done <- s.RemoveBook(context.Background(), "u1", "b1")
	}()
	require.Eventually(t, func() bool { return !ids.has("b1") }, timeoutShort, tick)

	// the server has not processed the removal yet and still lists b1
	me, err := s.Refresh(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b2"}, bookIDs(*me))
	assert.Equal(t, 1, me.BookCount)
	assert.Len(t, remote.me.SavedBooks, 2, "server view must not be mutated")

	cached, _ := s.Snapshot("u1")
	assert.Equal(t, []string{"b2"}, bookIDs(cached))
	assert.False(t, ids.has("b1"))

	close(gate)
	require.NoError(t, <-done)

	cached, _ = s.Snapshot("u1")
	assert.Equal(t, []string{"b2"}, bookIDs(cached))
	assert.False(t, ids.has("b1"))

	// once settled, the server view is taken as is
	remote.me = &Me{ID: "u1", BookCount: 1, SavedBooks: []models.Book{{BookID: "b1"}}}
	me, err = s.Refresh(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, bookIDs(*me))
	assert.True(t, ids.has("b1"))
}

func TestSynchronizer_RefreshAnonymous(t *testing.T) {
	s := NewSynchronizer(newFakeRemote(), NewQueryCache(), newFakeIDs(), logger.Discard())

	_, err := s.Refresh(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
