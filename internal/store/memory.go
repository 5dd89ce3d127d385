package store

import (
	"context"
	"sync"

	"sentinelscan/internal/model"
)

// MemoryStore keeps reports for the lifetime of the process, in insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*model.ScanReport
	order   []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*model.ScanReport)}
}

// Put stores report unless its id is already present.
func (s *MemoryStore) Put(_ context.Context, report *model.ScanReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[report.ScanID]; ok {
		return ErrDuplicate
	}
	s.reports[report.ScanID] = report
	s.order = append(s.order, report.ScanID)
	return nil
}

// Get returns the report stored under id.
func (s *MemoryStore) Get(_ context.Context, id string) (*model.ScanReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// List returns every report, oldest first.
func (s *MemoryStore) List(_ context.Context) ([]*model.ScanReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.ScanReport, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.reports[id])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
