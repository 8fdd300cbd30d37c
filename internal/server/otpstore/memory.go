package otpstore

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	hash     string
	attempts int
	expires  time.Time
}

// MemoryStore is the single-process Store used when no Redis is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry), now: time.Now}
}

func (s *MemoryStore) Save(_ context.Context, key, codeHash string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = &memoryEntry{hash: codeHash, expires: s.now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, key, codeHash string, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		return ErrNotFound
	}

	if e.hash == codeHash {
		delete(s.entries, key)
		return nil
	}

	return s.strike(key, e, maxAttempts)
}

func (s *MemoryStore) Fail(_ context.Context, key string, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	if !ok {
		return ErrNotFound
	}
	return s.strike(key, e, maxAttempts)
}

// strike counts a wrong guess. Callers hold mu.
func (s *MemoryStore) strike(key string, e *memoryEntry, maxAttempts int) error {
	e.attempts++
	if e.attempts >= maxAttempts {
		delete(s.entries, key)
		return ErrAttemptsExceeded
	}
	return ErrMismatch
}

func (s *MemoryStore) Pending(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.live(key)
	return ok, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// live returns the entry under key, dropping it if it has expired.
// Callers hold mu.
func (s *MemoryStore) live(key string) (*memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return nil, false
	}
	return e, true
}
