// Package repomanager vends the credential store repositories, either backed
// by PostgreSQL or kept in process memory, together with a transaction hook.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/hireloop/internal/server/repositories/backupcodes"
	"github.com/dmitrijs2005/hireloop/internal/server/repositories/users"
)

// Repos is the repository set bound to one connection or transaction.
type Repos struct {
	Users       users.Repository
	BackupCodes backupcodes.Repository
}

type RepositoryManager interface {
	// Repos returns repositories outside of any transaction.
	Repos() Repos
	// InTx runs fn with repositories bound to a single transaction. The
	// transaction commits when fn returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
	Close() error
}
