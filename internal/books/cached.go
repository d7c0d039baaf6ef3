package books

import (
	"context"
	"strings"

	"github.com/Varun5711/bookshelf/internal/cache"
	"github.com/Varun5711/bookshelf/internal/models"
	"github.com/sirupsen/logrus"
)

// CachedSearcher serves repeated queries from the multi-tier cache. Cache failures are logged
// and never fail a search.
type CachedSearcher struct {
	next  Searcher
	cache *cache.Cache
	log   *logrus.Entry
}

func NewCachedSearcher(next Searcher, c *cache.Cache, log *logrus.Entry) *CachedSearcher {
	return &CachedSearcher{next: next, cache: c, log: log}
}

func cacheKey(query string) string {
	return "search:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (s *CachedSearcher) Search(ctx context.Context, query string) ([]models.Book, error) {
	key := cacheKey(query)

	var cached []models.Book
	found, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Dropping unreadable cache entry")
		_ = s.cache.Delete(ctx, key)
	} else if found {
		return cached, nil
	}

	results, err := s.next.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, key, results); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Failed to cache search results")
	}

	return results, nil
}
