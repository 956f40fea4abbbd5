package cache

import (
	"errors"
	"time"
)

// LayeredCache reads through a fast layer to a slow one and promotes hits
type LayeredCache struct {
	fast Cache
	slow Cache
}

// NewLayeredCache stacks fast (usually memory) over slow (usually disk)
func NewLayeredCache(fast, slow Cache) *LayeredCache {
	return &LayeredCache{fast: fast, slow: slow}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, ok := c.fast.Get(key); ok {
		return val, true
	}
	val, ok := c.slow.Get(key)
	if !ok {
		return nil, false
	}
	_ = c.fast.Set(key, val, 0)
	return val, true
}

func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	return errors.Join(c.fast.Set(key, value, ttl), c.slow.Set(key, value, ttl))
}

func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.fast.Delete(key), c.slow.Delete(key))
}

func (c *LayeredCache) Clear() error {
	return errors.Join(c.fast.Clear(), c.slow.Clear())
}
