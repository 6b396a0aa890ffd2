package cache

import (
	"strings"
	"sync"
	"time"
)

// TTL is an in-memory cache of raw bytes with a fixed time to live per entry.
// Expired entries are dropped on read and by a background sweep.
type TTL struct {
	mu    sync.RWMutex
	items map[string]entry
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

type entry struct {
	data    []byte
	expires time.Time
}

func New(ttl time.Duration) *TTL {
	c := &TTL{
		items: make(map[string]entry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if ttl > 0 {
		go c.sweep()
	}
	return c
}

func (c *TTL) sweep() {
	tick := time.NewTicker(c.ttl)
	defer tick.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-tick.C:
			now := c.now()
			c.mu.Lock()
			for k, e := range c.items {
				if !now.Before(e.expires) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Close stops the background sweep.
func (c *TTL) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *TTL) TTL() time.Duration { return c.ttl }

// Get returns the stored bytes and true while the entry is fresh.
func (c *TTL) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.data, true
}

func (c *TTL) Set(key string, value []byte) {
	c.mu.Lock()
	c.items[key] = entry{data: value, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTL) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// DeletePrefix drops every key starting with prefix.
func (c *TTL) DeletePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}
