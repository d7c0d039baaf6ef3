package client

import "sync"

// QueryCache holds the last known `me` result per user id. It is an explicit object handed to
// whoever needs it; there is no package-level cache.
//
// Modify is the only safe way to derive a new snapshot from the current one: the function
// runs under the cache lock against the latest value, so concurrent writers can't clobber
// each other with stale copies.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]Me
}

func NewQueryCache() *QueryCache {
	return &QueryCache{entries: make(map[string]Me)}
}

// Read returns a copy of the cached snapshot for userID.
func (c *QueryCache) Read(userID string) (Me, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	me, ok := c.entries[userID]
	if !ok {
		return Me{}, false
	}
	return me.Clone(), true
}

func (c *QueryCache) Write(userID string, me Me) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[userID] = me.Clone()
}

// Modify applies fn to the current snapshot and stores the result. fn receives a copy and
// whether an entry existed; returning an error leaves the cache untouched. Modify returns
// the snapshot it replaced so the caller can restore it later.
func (c *QueryCache) Modify(userID string, fn func(me Me, ok bool) (Me, error)) (previous Me, existed bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.entries[userID]
	if ok {
		previous = current.Clone()
	}

	next, err := fn(current.Clone(), ok)
	if err != nil {
		return previous, ok, err
	}

	next.BookCount = len(next.SavedBooks)
	c.entries[userID] = next.Clone()
	return previous, ok, nil
}

func (c *QueryCache) Delete(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
}

func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]Me)
}
