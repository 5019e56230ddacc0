// Package querycache is a versioned in-memory store for client-side query
// results. Every key carries a generation; invalidating a key moves it to a
// fresh generation so results of requests started earlier can be recognised
// and dropped.
package querycache

import "sync"

type entry[V any] struct {
	value V
	gen   uint64
}

type Store[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]
	next    uint64
}

func New[V any]() *Store[V] {
	return &Store[V]{entries: make(map[string]*entry[V])}
}

// caller holds mu
func (s *Store[V]) lookup(key string) *entry[V] {
	e, ok := s.entries[key]
	if !ok {
		s.next++
		e = &entry[V]{gen: s.next}
		s.entries[key] = e
	}
	return e
}

// Load returns the value and current generation for key. A key seen for the
// first time starts with the zero value.
func (s *Store[V]) Load(key string) (V, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(key)
	return e.value, e.gen
}

// Modify runs fn on the current value under the store lock and returns the
// generation it ran against.
func (s *Store[V]) Modify(key string, fn func(v *V)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.lookup(key)
	fn(&e.value)
	return e.gen
}

// Commit runs fn only if key is still at generation gen. It reports whether
// fn ran.
func (s *Store[V]) Commit(key string, gen uint64, fn func(v *V)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || e.gen != gen {
		return false
	}
	fn(&e.value)
	return true
}

// Invalidate resets key to the zero value under a new generation.
func (s *Store[V]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[key]; ok {
		s.reset(e)
	}
}

// InvalidateAll resets every key.
func (s *Store[V]) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		s.reset(e)
	}
}

// Forget drops a key entirely. Responses still in flight for it are discarded.
func (s *Store[V]) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *Store[V]) reset(e *entry[V]) {
	var zero V
	s.next++
	e.value = zero
	e.gen = s.next
}
