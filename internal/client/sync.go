package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Varun5711/bookshelf/internal/apperr"
	"github.com/Varun5711/bookshelf/internal/models"
)

// Remote is the part of the API the synchronizer calls.
type Remote interface {
	Me(ctx context.Context) (*Me, error)
	SaveBook(ctx context.Context, book models.Book) (*Me, error)
	RemoveBook(ctx context.Context, bookID string) (*Me, error)
}

// SavedIDStore persists the advisory list of saved book ids.
type SavedIDStore interface {
	HasSavedBookID(ctx context.Context, bookID string) (bool, error)
	AddSavedBookID(ctx context.Context, bookID string) error
	RemoveSavedBookID(ctx context.Context, bookID string) error
	ReplaceSavedBookIDs(ctx context.Context, ids []string) error
}

var errNoSnapshot = errors.New("no cached snapshot")

// Synchronizer keeps the query cache and the local id list in step with mutations sent to
// the server. Local effects of a mutation happen together under one lock; the remote call
// happens outside it.
type Synchronizer struct {
	remote   Remote
	cache    *QueryCache
	ids      SavedIDStore
	log      *logrus.Entry
	rollback bool

	mu sync.Mutex
	// pending counts removals per book id whose remote call has not returned yet.
	pending map[string]int
}

type SyncOption func(*Synchronizer)

// WithRollback restores the cache and the id list when the server rejects a removal.
// Without it the optimistic result stays until the next Refresh. A not-found rejection is
// never rolled back since the book is already gone on the server.
func WithRollback(enabled bool) SyncOption {
	return func(s *Synchronizer) { s.rollback = enabled }
}

func NewSynchronizer(remote Remote, cache *QueryCache, ids SavedIDStore, log *logrus.Entry, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		remote:  remote,
		cache:   cache,
		ids:     ids,
		log:     log,
		pending: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// removal records what an optimistic removal took away so it can be put back.
type removal struct {
	book    models.Book
	index   int
	inCache bool
	inLocal bool
}

// RemoveBook removes bookID from the cached snapshot of userID and from the local id list,
// then asks the server to remove it. A second call made before the first returns builds on
// the first's optimistic result. A Refresh that lands while the remote call is in flight
// keeps the book out of the local view.
func (s *Synchronizer) RemoveBook(ctx context.Context, userID, bookID string) error {
	rm, err := s.applyRemoval(ctx, userID, bookID)
	if err != nil {
		return err
	}
	defer s.settle(bookID)

	if _, err := s.remote.RemoveBook(ctx, bookID); err != nil {
		s.log.WithError(err).WithField("book_id", bookID).Warn("Remote removeBook failed")
		if s.rollback && !errors.Is(err, apperr.ErrNotFound) {
			s.undoRemoval(ctx, userID, rm)
		}
		return fmt.Errorf("remove book %s: %w", bookID, err)
	}

	return nil
}

func (s *Synchronizer) settle(bookID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending[bookID] <= 1 {
		delete(s.pending, bookID)
		return
	}
	s.pending[bookID]--
}

func (s *Synchronizer) applyRemoval(ctx context.Context, userID, bookID string) (removal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rm := removal{book: models.Book{BookID: bookID}, index: -1}

	inLocal, err := s.ids.HasSavedBookID(ctx, bookID)
	if err != nil {
		return rm, err
	}
	rm.inLocal = inLocal

	previous, _, err := s.cache.Modify(userID, func(me Me, ok bool) (Me, error) {
		if !ok {
			return me, errNoSnapshot
		}
		kept := make([]models.Book, 0, len(me.SavedBooks))
		for i, b := range me.SavedBooks {
			if b.BookID == bookID {
				rm.book = b
				rm.index = i
				rm.inCache = true
				continue
			}
			kept = append(kept, b)
		}
		me.SavedBooks = kept
		return me, nil
	})
	cacheWritten := err == nil
	if err != nil && !errors.Is(err, errNoSnapshot) {
		return rm, err
	}

	if err := s.ids.RemoveSavedBookID(ctx, bookID); err != nil {
		if cacheWritten {
			s.cache.Write(userID, previous)
		}
		return rm, err
	}

	s.pending[bookID]++
	return rm, nil
}

func (s *Synchronizer) undoRemoval(ctx context.Context, userID string, rm removal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rm.inCache {
		_, _, _ = s.cache.Modify(userID, func(me Me, ok bool) (Me, error) {
			if !ok {
				return me, errNoSnapshot
			}
			for _, b := range me.SavedBooks {
				if b.BookID == rm.book.BookID {
					return me, nil
				}
			}
			idx := rm.index
			if idx > len(me.SavedBooks) {
				idx = len(me.SavedBooks)
			}
			books := make([]models.Book, 0, len(me.SavedBooks)+1)
			books = append(books, me.SavedBooks[:idx]...)
			books = append(books, rm.book)
			books = append(books, me.SavedBooks[idx:]...)
			me.SavedBooks = books
			return me, nil
		})
	}

	if rm.inLocal {
		if err := s.ids.AddSavedBookID(ctx, rm.book.BookID); err != nil {
			s.log.WithError(err).Warn("Failed to restore saved book id")
		}
	}
}

// SaveBook saves on the server first and only then records the book locally.
func (s *Synchronizer) SaveBook(ctx context.Context, userID string, book models.Book) error {
	if _, err := s.remote.SaveBook(ctx, book); err != nil {
		s.log.WithError(err).WithField("book_id", book.BookID).Warn("Remote saveBook failed")
		return fmt.Errorf("save book %s: %w", book.BookID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _, err := s.cache.Modify(userID, func(me Me, ok bool) (Me, error) {
		if !ok {
			return me, errNoSnapshot
		}
		for _, b := range me.SavedBooks {
			if b.BookID == book.BookID {
				return me, nil
			}
		}
		me.SavedBooks = append(me.SavedBooks, book.Clone())
		return me, nil
	})
	if err != nil && !errors.Is(err, errNoSnapshot) {
		return err
	}

	return s.ids.AddSavedBookID(ctx, book.BookID)
}

// Refresh replaces the cached snapshot and the local id list with the server's view, minus
// books whose removal is still in flight.
func (s *Synchronizer) Refresh(ctx context.Context, userID string) (*Me, error) {
	fetched, err := s.remote.Me(ctx)
	if err != nil {
		return nil, err
	}
	if fetched == nil {
		return nil, ErrNotLoggedIn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	me := fetched.Clone()
	if len(s.pending) > 0 {
		kept := make([]models.Book, 0, len(me.SavedBooks))
		for _, b := range me.SavedBooks {
			if s.pending[b.BookID] > 0 {
				continue
			}
			kept = append(kept, b)
		}
		me.SavedBooks = kept
		me.BookCount = len(kept)
	}

	s.cache.Write(userID, me)

	ids := make([]string, 0, len(me.SavedBooks))
	for _, b := range me.SavedBooks {
		ids = append(ids, b.BookID)
	}
	if err := s.ids.ReplaceSavedBookIDs(ctx, ids); err != nil {
		return nil, err
	}

	return &me, nil
}

// Snapshot returns the cached view of userID, if any.
func (s *Synchronizer) Snapshot(userID string) (Me, bool) {
	return s.cache.Read(userID)
}
