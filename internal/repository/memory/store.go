// Package memory implements an in-memory slots.Store used by tests and
// throwaway demo runs.
package memory

import (
	"context"
	"sync"
)

// Store guards a plain map with an RWMutex.
type Store struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{slots: make(map[string]string)}
}

// Get returns the value held under key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.slots[key]
	return value, ok, nil
}

// Set replaces the value held under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
	return nil
}

// Remove deletes key.
func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	return nil
}

// Len reports how many slots are populated.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}
