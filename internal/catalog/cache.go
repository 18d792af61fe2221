package catalog

import "sync"

// Cache loads a Catalog on first use and returns the same result, success
// or failure, on every later call.
type Cache struct {
	once sync.Once
	load func() (*Catalog, error)
	cat  *Catalog
	err  error
}

// NewCache wraps load in a once-only cache.
func NewCache(load func() (*Catalog, error)) *Cache {
	return &Cache{load: load}
}

// Get returns the cached catalog, loading it on the first call.
func (c *Cache) Get() (*Catalog, error) {
	c.once.Do(func() {
		c.cat, c.err = c.load()
	})
	return c.cat, c.err
}
