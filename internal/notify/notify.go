// Package notify provides sinks for the ledger notification stream. The
// ledger emits immutable records after each committed mutation and never
// depends on delivery; sinks own their durability story.
package notify

import (
	"context"
	"sync"

	"agritrace/internal/ledger/models"
)

// Memory records events in order. It backs unit tests and single-node
// deployments where observers poll in process.
type Memory struct {
	mu     sync.Mutex
	events []models.Event
}

// NewMemory constructs an empty memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Emit(_ context.Context, event models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (m *Memory) Events() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Event(nil), m.events...)
}
