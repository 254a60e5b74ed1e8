// Package idempotency remembers the outcome of keyed event registrations so
// a retried request returns the original event instead of a duplicate.
package idempotency

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/imobrank/internal/domain/model"
)

const defaultMaxSize = 10000

// Entry is the remembered outcome for one key. Fingerprint identifies the
// request body that produced Event.
type Entry struct {
	Fingerprint string
	Event       model.ActionEvent
}

// Cache is a bounded key → entry map. Reads never refresh a key, so when
// full the oldest stored key is evicted.
type Cache struct {
	entries *lru.Cache[string, Entry]
	maxSize int
}

// New creates an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(c)
	}
	entries, err := lru.New[string, Entry](c.maxSize)
	if err != nil {
		// Only a non-positive size fails, and options reject those.
		panic(err)
	}
	c.entries = entries
	return c
}

// Get returns the entry stored under key.
func (c *Cache) Get(key string) (Entry, bool) {
	return c.entries.Peek(key)
}

// Put stores entry under key unless the key is already present, and returns
// the entry that ends up stored.
func (c *Cache) Put(key string, entry Entry) Entry {
	if prev, ok, _ := c.entries.PeekOrAdd(key, entry); ok {
		return prev
	}
	return entry
}

// Len returns the number of stored keys.
func (c *Cache) Len() int {
	return c.entries.Len()
}
