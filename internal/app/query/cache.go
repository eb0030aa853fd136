// Package query caches server reads per key and keeps them coherent with
// the writes made through the same client instance.
package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key addresses one cached server read.
type Key string

const patientsKey Key = "patients"

// PatientsKey addresses the patient list.
func PatientsKey() Key { return patientsKey }

// PatientKey addresses one patient's detail record.
func PatientKey(id string) Key { return patientsKey + "/" + Key(id) }

type entry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

// Cache holds the last value fetched for each key. Concurrent reads of a
// key with no fresh value share one fetch.
//
// Every invalidation bumps the key's generation. A fetch only stores its
// result if the generation it started under is still current, so a read
// racing a write can never leave pre-write data looking fresh.
type Cache struct {
	mu         sync.Mutex
	entries    map[Key]*entry
	gens       map[Key]uint64
	epoch      uint64
	staleAfter time.Duration
	now        func() time.Time

	group singleflight.Group
}

// NewCache returns an empty cache. With staleAfter > 0 entries also expire
// by age; with 0 only invalidation makes them stale.
func NewCache(staleAfter time.Duration) *Cache {
	return &Cache{
		entries:    make(map[Key]*entry),
		gens:       make(map[Key]uint64),
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// FetchFunc loads the value for a key from the server.
type FetchFunc func(ctx context.Context) (any, error)

// Fetch returns the cached value for key if fresh and otherwise calls fn,
// joining any fetch of the same key already in flight. Failures are not
// cached. A caller whose ctx ends stops waiting; the shared fetch carries on
// for the others.
func (c *Cache) Fetch(ctx context.Context, key Key, fn FetchFunc) (any, error) {
	c.mu.Lock()
	if v, ok := c.freshLocked(key); ok {
		c.mu.Unlock()
		return v, nil
	}
	gen, epoch := c.gens[key], c.epoch
	c.mu.Unlock()

	ch := c.group.DoChan(fmt.Sprintf("%s#%d.%d", key, epoch, gen), func() (any, error) {
		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.epoch == epoch && c.gens[key] == gen {
			c.entries[key] = &entry{value: v, fetchedAt: c.now()}
		}
		c.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (c *Cache) freshLocked(key Key) (any, bool) {
	e, ok := c.entries[key]
	if !ok || e.stale {
		return nil, false
	}
	if c.staleAfter > 0 && c.now().Sub(e.fetchedAt) >= c.staleAfter {
		return nil, false
	}
	return e.value, true
}

// Peek returns the cached value for key regardless of freshness.
func (c *Cache) Peek(key Key) (value any, fresh bool, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, false
	}
	_, fresh = c.freshLocked(key)
	return e.value, fresh, true
}

// Set stores value as fresh, superseding any fetch in flight.
func (c *Cache) Set(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	c.entries[key] = &entry{value: value, fetchedAt: c.now()}
}

// Invalidate drops the value for key; the next read refetches.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		c.gens[key]++
		delete(c.entries, key)
	}
}

// MarkStale keeps the value for key but forces the next read to refetch.
func (c *Cache) MarkStale(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	if e, ok := c.entries[key]; ok {
		e.stale = true
	}
}

// Reset empties the cache, e.g. when the session ends.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries = make(map[Key]*entry)
}

// Fetch is the typed form of Cache.Fetch.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("query: cached value for %s is %T", key, v)
	}
	return t, nil
}
