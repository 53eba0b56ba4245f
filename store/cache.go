package store

import "sync"

// Cache holds at most one Database snapshot. There is no expiry: the Store
// sets it after a successful load and invalidates it after every successful
// save.
type Cache struct {
	mu sync.RWMutex
	db *Database
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{}
}

// Get returns the cached snapshot, if any. Callers must not mutate it.
func (c *Cache) Get() (*Database, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db, c.db != nil
}

// Set replaces the cached snapshot.
func (c *Cache) Set(db *Database) {
	c.mu.Lock()
	c.db = db
	c.mu.Unlock()
}

// Invalidate drops the cached snapshot so the next load reads the resource.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.db = nil
	c.mu.Unlock()
}
