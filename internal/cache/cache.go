// SPDX-License-Identifier: MPL-2.0

// Package cache memoizes expensive computations for a bounded lifetime.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type (
	// Producer computes a value on a cache miss.
	Producer func(ctx context.Context) (any, error)

	// Cache is the result-level cache the repository memoizes views in.
	Cache interface {
		// Remember returns the value stored under key when present and unexpired.
		// Otherwise it runs producer and stores its result for ttl. A ttl of zero
		// or less runs producer without storing. Producer errors are returned and
		// never stored.
		Remember(ctx context.Context, key string, ttl time.Duration, producer Producer) (any, error)
		// Forget drops the value stored under key.
		Forget(key string)
	}

	// Clock supplies the current time. testutil.FakeClock satisfies it.
	Clock interface {
		Now() time.Time
	}

	// Option configures a Memory cache.
	Option func(*Memory)

	// Memory is an in-process Cache. Concurrent misses on the same key share
	// one producer call.
	Memory struct {
		mu      sync.RWMutex
		entries map[string]entry
		group   singleflight.Group
		clock   Clock
	}

	// Nop is a Cache that stores nothing.
	Nop struct{}

	entry struct {
		value   any
		expires time.Time
	}

	systemClock struct{}
)

func (systemClock) Now() time.Time { return time.Now() }

// WithClock overrides the time source.
func WithClock(c Clock) Option {
	return func(m *Memory) { m.clock = c }
}

// NewMemory creates an empty Memory cache.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		entries: make(map[string]entry),
		clock:   systemClock{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Remember implements Cache.
func (m *Memory) Remember(ctx context.Context, key string, ttl time.Duration, producer Producer) (any, error) {
	if ttl <= 0 {
		return producer(ctx)
	}

	if v, ok := m.lookup(key); ok {
		return v, nil
	}

	// The shared fill outlives the caller that started it; each caller only
	// stops waiting when its own ctx ends.
	fill := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		// A concurrent caller may have stored the value while we waited.
		if v, ok := m.lookup(key); ok {
			return v, nil
		}
		v, err := producer(fill)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.entries[key] = entry{value: v, expires: m.clock.Now().Add(ttl)}
		m.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("cache %q: %w", key, ctx.Err())
	case res := <-ch:
		return res.Val, res.Err
	}
}

// Forget implements Cache.
func (m *Memory) Forget(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) lookup(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || !m.clock.Now().Before(e.expires) {
		return nil, false
	}
	return e.value, true
}

// Remember implements Cache by always running producer.
func (Nop) Remember(ctx context.Context, _ string, _ time.Duration, producer Producer) (any, error) {
	return producer(ctx)
}

// Forget implements Cache.
func (Nop) Forget(string) {}

// RememberAs is Remember with the stored value asserted to T.
func RememberAs[T any](ctx context.Context, c Cache, key string, ttl time.Duration, producer func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Remember(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return producer(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache key %q holds %T, not %T", key, v, zero)
	}
	return typed, nil
}
