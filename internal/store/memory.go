package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory implementation of [Repository].
//
// MemoryStore keeps records in insertion order and is safe for concurrent
// use. Nothing is persisted across process restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
	index   map[string]int
}

// NewMemoryStore creates a new in-memory [Repository] implementation.
//
// The store is immediately ready for use. No cleanup is required when done.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		index: make(map[string]int),
	}
}

// Insert appends a record, rejecting duplicate IDs.
func (m *MemoryStore) Insert(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.index[r.ID]; exists {
		return fmt.Errorf("insert %s: %w", r.ID, ErrAlreadyExists)
	}
	m.index[r.ID] = len(m.records)
	m.records = append(m.records, r)
	return nil
}

// List returns a snapshot of all records in insertion order.
//
// The returned slice is a copy; modifications do not affect the store.
func (m *MemoryStore) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

// Get returns the record with the given ID.
func (m *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return Record{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return m.records[i], nil
}

// Update applies a partial update to an existing record.
func (m *MemoryStore) Update(_ context.Context, id string, f Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	r := &m.records[i]
	if f.Title != nil {
		r.Title = *f.Title
	}
	if f.Image != nil {
		r.Image = *f.Image
	}
	if f.Status != nil {
		r.Status = *f.Status
	}
	return nil
}

// Delete removes a record. Unknown IDs are ignored.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return nil
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	delete(m.index, id)
	for j := i; j < len(m.records); j++ {
		m.index[m.records[j].ID] = j
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
