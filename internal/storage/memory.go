package storage

import (
	"github.com/gregjones/httpcache"
)

// Cache stores slots in an httpcache.Cache, which lets any of the httpcache
// backends hold session state.
type Cache struct {
	cache httpcache.Cache
}

var _ Storage = (*Cache)(nil)

// NewMemory creates an in-process Storage. Values are lost when the process
// exits, which is what session scoped slots need.
func NewMemory() *Cache {
	return NewCache(httpcache.NewMemoryCache())
}

// NewCache wraps an existing httpcache.Cache.
func NewCache(c httpcache.Cache) *Cache {
	return &Cache{cache: c}
}

func (c *Cache) Get(key string) (string, error) {
	b, ok := c.cache.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	return string(b), nil
}

func (c *Cache) Set(key, value string) error {
	c.cache.Set(key, []byte(value))
	return nil
}

func (c *Cache) Remove(key string) error {
	c.cache.Delete(key)
	return nil
}
