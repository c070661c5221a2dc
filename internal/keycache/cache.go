package keycache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Fetcher resolves a key to its query result. The projection layer provides
// the store-backed implementation; alternate backends satisfy the same keys.
type Fetcher interface {
	Fetch(ctx context.Context, key Key) (any, error)
}

// LoadError reports a failed load for a key. The previously cached value,
// if any, is still in place.
type LoadError struct {
	Key Key
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s failed: %v", e.Key, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one Load, delivered on the channel Load returns.
type Result struct {
	Value any
	Err   error
}

// entry is one cached value plus the generation of the load that wrote it.
type entry struct {
	value any
	gen   int64
}

// Cache stores query results by key and publishes updates to subscriptions.
//
// Generations implement last-issued-wins: every Load stamps a generation at
// issue time, and installs its result only if no younger-issued load for the
// same key has already landed. Values are swapped under the mutex, so a
// reader observes either the previous or the new value, never a mix.
type Cache struct {
	fetcher Fetcher
	gen     atomic.Int64

	mu      sync.Mutex
	entries map[Key]entry
	subs    map[*Subscription]struct{}
}

// New creates an empty cache backed by the given fetcher.
func New(fetcher Fetcher) *Cache {
	return &Cache{
		fetcher: fetcher,
		entries: make(map[Key]entry),
		subs:    make(map[*Subscription]struct{}),
	}
}

// Load asynchronously fetches the value for key and caches it. The returned
// channel receives exactly one Result when the fetch completes; callers that
// only care about the cached value may ignore it.
//
// Issuing Load twice for the same key before the first resolves is safe:
// each resolution materializes at most one cache update, and the update
// belonging to the last issued load wins. A fetch error is delivered as a
// *LoadError and leaves the cached value untouched.
func (c *Cache) Load(ctx context.Context, key Key) <-chan Result {
	ch := make(chan Result, 1)
	gen := c.gen.Add(1)

	go func() {
		value, err := c.fetcher.Fetch(ctx, key)
		if err != nil {
			ch <- Result{Err: &LoadError{Key: key, Err: err}}
			return
		}

		c.mu.Lock()
		cur, ok := c.entries[key]
		if !ok || gen > cur.gen {
			c.entries[key] = entry{value: value, gen: gen}
			for s := range c.subs {
				s.notify(key, value)
			}
		}
		c.mu.Unlock()

		ch <- Result{Value: value}
	}()

	return ch
}

// Get returns the cached value for key, if any. Synchronous; never fetches.
func (c *Cache) Get(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Invalidate drops the cached value for key. Subscriptions keep their last
// known value until a subsequent Load resolves; a write path calls this for
// affected keys and then triggers reloads.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Subscribe returns a handle that tracks the cached value for key. If a
// value is already cached it is visible through Current immediately.
func (c *Cache) Subscribe(key Key) *Subscription {
	s := &Subscription{
		c:       c,
		key:     key,
		updates: make(chan struct{}, 1),
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		s.value = e.value
		s.ok = true
	}
	c.subs[s] = struct{}{}
	c.mu.Unlock()

	return s
}

// Subscription is an explicit subscribe handle holding (key, last value).
// It exposes the most recently loaded value synchronously and is updated in
// place as loads for its key resolve.
type Subscription struct {
	c *Cache

	mu     sync.Mutex
	key    Key
	value  any
	ok     bool
	closed bool

	// updates is a coalescing signal channel: buffered size 1, one token
	// per batch of updates, never blocking the notifier.
	updates chan struct{}
}

// Key returns the key this subscription currently watches.
func (s *Subscription) Key() Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// Current returns the last value loaded for the subscription's key. It is
// synchronous: it never blocks on an in-flight Load. ok is false until the
// first load for the key resolves (or after a Rekey).
func (s *Subscription) Current() (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.ok
}

// Updates signals when the subscription's value changed. The channel
// coalesces: one receive may cover several updates, so consumers re-read
// Current after each signal.
func (s *Subscription) Updates() <-chan struct{} {
	return s.updates
}

// Rekey switches the subscription to a new key. The prior value is
// discarded; Current reports nothing until an explicit Load for the new key
// resolves, even if the cache already holds one. A load for the old key
// that resolves after the switch is ignored by this subscription.
func (s *Subscription) Rekey(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
	s.value = nil
	s.ok = false
}

// Close detaches the subscription. An in-flight Load for its key is
// abandoned harmlessly: the cache may still be updated, but this handle no
// longer observes it.
func (s *Subscription) Close() {
	s.c.mu.Lock()
	delete(s.c.subs, s)
	s.c.mu.Unlock()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// notify is called by the cache (under its mutex) when a value lands for
// some key. Lock order is always cache.mu then Subscription.mu.
func (s *Subscription) notify(key Key, value any) {
	s.mu.Lock()
	if s.closed || s.key != key {
		s.mu.Unlock()
		return
	}
	s.value = value
	s.ok = true
	s.mu.Unlock()

	select {
	case s.updates <- struct{}{}:
	default:
	}
}
