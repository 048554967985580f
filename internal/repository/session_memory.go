package repository

import (
	"context"
	"sync"
	"time"

	"propertyagent/internal/model"
)

type memoryEntry struct {
	record    model.Fields
	expiresAt time.Time
}

// InMemorySessionStore keeps records in process memory. Used for local runs and tests.
type InMemorySessionStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	records map[string]memoryEntry
	now     func() time.Time
}

func NewInMemorySessionStore(ttl time.Duration) *InMemorySessionStore {
	return &InMemorySessionStore{
		ttl:     ttl,
		records: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *InMemorySessionStore) Get(_ context.Context, sessionID string) (model.Fields, bool, error) {
	s.mu.RLock()
	entry, ok := s.records[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.records, sessionID)
		s.mu.Unlock()
		return nil, false, nil
	}
	return entry.record.Clone(), true, nil
}

func (s *InMemorySessionStore) Set(_ context.Context, sessionID string, record model.Fields) error {
	entry := memoryEntry{record: record.Clone()}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.records[sessionID] = entry
	s.mu.Unlock()
	return nil
}

func (s *InMemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.records, sessionID)
	s.mu.Unlock()
	return nil
}

func (s *InMemorySessionStore) Close() error { return nil }
