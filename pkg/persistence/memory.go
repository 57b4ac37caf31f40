package persistence

import (
	"context"
	"sync"
)

// MemoryStore keeps execution records in process memory. Intended for tests
// and single-process deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*ExecutionRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*ExecutionRecord)}
}

func (s *MemoryStore) SaveExecution(_ context.Context, record *ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ExecutionID] = record

	return nil
}

func (s *MemoryStore) GetExecution(_ context.Context, executionID string) (*ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[executionID]
	if !ok {
		return nil, ErrNotFound
	}

	return record, nil
}

func (s *MemoryStore) Close(_ context.Context) error {
	return nil
}
