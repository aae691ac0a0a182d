package guard

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the consumed set in process memory, matching the
// single-device deployment where one scanner owns the whole set. The mutex
// makes check-then-insert a critical section for concurrent scans on the
// same device.
type MemoryStore struct {
	mu       sync.Mutex
	consumed map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{consumed: make(map[string]time.Time)}
}

func (s *MemoryStore) InsertIfAbsent(_ context.Context, ticketID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.consumed[ticketID]; exists {
		return false, nil
	}
	s.consumed[ticketID] = time.Now().UTC()
	return true, nil
}

func (s *MemoryStore) Contains(_ context.Context, ticketID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.consumed[ticketID]
	return exists, nil
}

func (s *MemoryStore) RedeemedAt(_ context.Context, ticketID string) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, exists := s.consumed[ticketID]
	if !exists {
		return time.Time{}, ErrNotConsumed
	}
	return at, nil
}
