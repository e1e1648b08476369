package store

import (
	"context"
	"sync"

	"github.com/layer-3/xamanauth/core"
	"github.com/layer-3/xamanauth/ports"
)

// MemoryStore keeps the session record in process memory.
// It is intended for tests and for runs that must not touch disk.
type MemoryStore struct {
	record []byte
	mu     sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

var _ ports.SessionStore = (*MemoryStore)(nil)

// Restore returns the stored session
func (s *MemoryStore) Restore(ctx context.Context) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.record == nil {
		return nil, nil
	}
	return restoreRecord(ctx, s.record, s.clearLocked)
}

// Save replaces the stored session
func (s *MemoryStore) Save(ctx context.Context, session core.Session) error {
	data, err := encodeSession(session)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = data
	return nil
}

// Clear removes the stored session
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearLocked(ctx)
}

func (s *MemoryStore) clearLocked(ctx context.Context) error {
	s.record = nil
	return nil
}

// Raw returns the serialized record as persisted
func (s *MemoryStore) Raw() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return nil, false
	}
	return append([]byte(nil), s.record...), true
}

// SetRaw overwrites the record with arbitrary bytes
func (s *MemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = append([]byte(nil), data...)
}
