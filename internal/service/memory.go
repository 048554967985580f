package service

import (
	"context"
	"log"
	"sync"

	"propertyagent/internal/model"
	"propertyagent/internal/observability"
	"propertyagent/internal/repository"
)

// SessionMemory keeps the partially filled record of each session.
// Store failures are logged and counted but never returned: a broken
// store makes the agent forget, not fail.
type SessionMemory struct {
	store   repository.SessionStore
	metrics *observability.Metrics
	locks   keyedMutex
}

func NewSessionMemory(store repository.SessionStore, metrics *observability.Metrics) *SessionMemory {
	return &SessionMemory{
		store:   store,
		metrics: metrics,
		locks:   keyedMutex{locks: make(map[string]*refMutex)},
	}
}

// Get returns the stored record, or an empty one
func (m *SessionMemory) Get(ctx context.Context, sessionID string) model.Fields {
	record, ok, err := m.store.Get(ctx, sessionID)
	if err != nil {
		log.Printf("⚠️  [Memory] get %s failed: %v", sessionID, err)
		m.metrics.SessionError("get")
		return model.Fields{}
	}
	if !ok || record == nil {
		return model.Fields{}
	}
	return record
}

// Update stores {..current, ..partial} and returns it.
// When the store is unavailable it returns a copy of partial.
func (m *SessionMemory) Update(ctx context.Context, sessionID string, partial model.Fields) model.Fields {
	current, _, err := m.store.Get(ctx, sessionID)
	if err != nil {
		log.Printf("⚠️  [Memory] get %s failed: %v", sessionID, err)
		m.metrics.SessionError("get")
		return partial.Clone()
	}

	merged := current.Merge(partial)
	if err := m.store.Set(ctx, sessionID, merged); err != nil {
		log.Printf("⚠️  [Memory] update %s failed: %v", sessionID, err)
		m.metrics.SessionError("set")
		return partial.Clone()
	}
	return merged
}

// Clear removes the session's record
func (m *SessionMemory) Clear(ctx context.Context, sessionID string) {
	if err := m.store.Delete(ctx, sessionID); err != nil {
		log.Printf("⚠️  [Memory] clear %s failed: %v", sessionID, err)
		m.metrics.SessionError("delete")
		return
	}
	log.Printf("[Memory] Cleared session: %s", sessionID)
}

// Lock serializes read-merge-write for one session; call the returned func to release.
// Different sessions never wait on each other.
func (m *SessionMemory) Lock(sessionID string) func() {
	return m.locks.Lock(sessionID)
}

type refMutex struct {
	sync.Mutex
	refs int
}

// keyedMutex hands out one mutex per key and forgets it once nobody holds or waits for it
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
