package store

import (
	"context"
	"sync"

	id "agritrace/pkg/domain"
	"agritrace/pkg/platform/sentinel"
)

// InMemory keeps the verified set in a map.
type InMemory struct {
	mu      sync.RWMutex
	farmers map[id.Principal]struct{}
}

// NewInMemory constructs an empty in-memory farmer store.
func NewInMemory() *InMemory {
	return &InMemory{farmers: make(map[id.Principal]struct{})}
}

func (s *InMemory) Add(_ context.Context, farmer id.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.farmers[farmer]; ok {
		return sentinel.ErrConflict
	}
	s.farmers[farmer] = struct{}{}
	return nil
}

func (s *InMemory) Contains(_ context.Context, farmer id.Principal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.farmers[farmer]
	return ok, nil
}
