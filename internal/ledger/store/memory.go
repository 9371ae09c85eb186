package store

import (
	"context"
	"sync"

	"agritrace/internal/ledger/models"
	id "agritrace/pkg/domain"
	"agritrace/pkg/platform/sentinel"
)

// InMemory keeps the whole ledger in process memory. It favors clarity over
// performance and is the default backend for tests and single-node setups.
type InMemory struct {
	mu       sync.RWMutex
	products map[id.ProductID]*models.Product
	counter  uint64
}

// NewInMemory constructs an empty in-memory product store.
func NewInMemory() *InMemory {
	return &InMemory{products: make(map[id.ProductID]*models.Product)}
}

func (s *InMemory) Create(_ context.Context, product *models.Product) (id.ProductID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	product.ID = id.ProductID(s.counter)
	s.products[product.ID] = product.Clone()
	return product.ID, nil
}

func (s *InMemory) FindByID(_ context.Context, productID id.ProductID) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.products[productID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return product.Clone(), nil
}

// Execute runs fn on a working copy under the write lock. The stored record
// is replaced only when fn succeeds, so a failed payment call inside fn
// leaves no trace. Readers block for the duration of fn; holding the lock
// across the external call is what keeps mutations serially ordered.
func (s *InMemory) Execute(_ context.Context, productID id.ProductID, fn func(product *models.Product) error) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.products[productID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.products[productID] = working
	return working.Clone(), nil
}

func (s *InMemory) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counter, nil
}
