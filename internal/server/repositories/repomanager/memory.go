package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/hireloop/internal/server/repositories/backupcodes"
	"github.com/dmitrijs2005/hireloop/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. InTx only
// serializes callers; writes made before fn fails are not rolled back.
type MemoryRepositoryManager struct {
	txMu  sync.Mutex
	repos Repos
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		repos: Repos{
			Users:       users.NewMemoryRepository(),
			BackupCodes: backupcodes.NewMemoryRepository(),
		},
	}
}

func (m *MemoryRepositoryManager) Repos() Repos {
	return m.repos
}

func (m *MemoryRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, m.repos)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
