package cache

import (
	"context"
	"sync"
)

// Meta is the pagination envelope the server returns with every list.
type Meta struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// Result is one cached list response: the rows plus their pagination
// metadata. Results are stored and restored as a unit.
type Result[T any] struct {
	Data []T  `json:"data"`
	Meta Meta `json:"meta"`
}

// clone copies a Result deeply enough that mutating the copy's Data
// slice never aliases the original. Elements are copied by value.
func clone[T any](r Result[T]) Result[T] {
	data := make([]T, len(r.Data))
	copy(data, r.Data)
	return Result[T]{Data: data, Meta: r.Meta}
}

// Store is a keyed cache of list results with optimistic-mutation
// support: a mutation snapshots the affected entries, applies its
// optimistic transform, runs the server call, and either invalidates
// (success) or restores the snapshot verbatim (failure). Keys are
// opaque strings; the query layer derives them from filters and
// pagination.
type Store[T any] struct {
	mu      sync.Mutex
	entries map[string]Result[T]
}

// NewStore returns an empty store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{entries: make(map[string]Result[T])}
}

// Get returns a copy of the entry under key.
func (s *Store[T]) Get(key string) (Result[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.entries[key]
	if !ok {
		return Result[T]{}, false
	}
	return clone(r), true
}

// Set stores a copy of r under key.
func (s *Store[T]) Set(key string, r Result[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = clone(r)
}

// Invalidate drops every entry whose key matches.
func (s *Store[T]) Invalidate(match func(key string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if match(key) {
			delete(s.entries, key)
		}
	}
}

// Keys returns the keys of all cached entries, in no particular order.
func (s *Store[T]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}

// Snapshot deep-copies every entry whose key matches. The snapshot is
// detached: later writes to the store do not leak into it.
func (s *Store[T]) Snapshot(match func(key string) bool) map[string]Result[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[string]Result[T])
	for key, r := range s.entries {
		if match(key) {
			snap[key] = clone(r)
		}
	}
	return snap
}

// Restore writes the snapshot back verbatim. Only snapshotted keys are
// touched; entries created since the snapshot under other keys survive.
// Restoring the same snapshot twice is idempotent.
func (s *Store[T]) Restore(snap map[string]Result[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, r := range snap {
		s.entries[key] = clone(r)
	}
}

// Mutate runs one optimistic mutation: it snapshots the entries whose
// key matches, rewrites each of them with apply so readers see the
// expected outcome immediately, then runs serverCall. On failure the
// snapshot is restored and the server's error is returned as-is; on
// success the matching entries are invalidated so the next read
// refetches authoritative data.
func (s *Store[T]) Mutate(ctx context.Context, match func(key string) bool, apply func(Result[T]) Result[T], serverCall func(ctx context.Context) error) error {
	snap := s.Snapshot(match)

	s.mu.Lock()
	for key := range snap {
		s.entries[key] = clone(apply(clone(s.entries[key])))
	}
	s.mu.Unlock()

	if err := serverCall(ctx); err != nil {
		s.Restore(snap)
		return err
	}

	s.Invalidate(match)
	return nil
}
