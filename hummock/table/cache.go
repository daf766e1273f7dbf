// Copyright 2024 The Hummock Authors
// This file is part of hummock.

package table

import (
	"context"
	"sync"

	"github.com/erigontech/hummock/hummock/objstore"
)

// Cache is the compute node's read path into published tables: it opens a
// table's meta list from the object store at most once per ID and hands
// out the same *Table to every subsequent caller (§3.4's tables are
// published, immutable, and safe to share once open).
type Cache struct {
	store objstore.ObjectStore

	mu     sync.Mutex
	tables map[string]*Table
}

// NewCache wraps store with a by-ID table cache.
func NewCache(store objstore.ObjectStore) *Cache {
	return &Cache{store: store, tables: make(map[string]*Table)}
}

// Open returns the cached Table for id, opening and caching it from store
// on first reference.
func (c *Cache) Open(ctx context.Context, id string) (*Table, error) {
	c.mu.Lock()
	if t, ok := c.tables[id]; ok {
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	t, err := Open(ctx, c.store, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.tables[id]; ok {
		return existing, nil
	}
	c.tables[id] = t
	return t, nil
}

// Evict drops id from the cache, e.g. once a compaction retires the table.
func (c *Cache) Evict(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tables, id)
}
