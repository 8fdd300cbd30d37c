package backupcodes

import (
	"context"
	"sync"
)

// MemoryRepository maps a user to its code hashes; the value records use.
type MemoryRepository struct {
	mu    sync.Mutex
	codes map[string]map[string]bool
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{codes: make(map[string]map[string]bool)}
}

func (r *MemoryRepository) Replace(_ context.Context, userID string, hashes []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		set[h] = false
	}
	r.codes[userID] = set
	return nil
}

func (r *MemoryRepository) Consume(_ context.Context, userID, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	used, ok := r.codes[userID][hash]
	if !ok || used {
		return false, nil
	}
	r.codes[userID][hash] = true
	return true, nil
}

func (r *MemoryRepository) DeleteAll(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.codes, userID)
	return nil
}
