package backupcodes

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/hireloop/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Replace is not atomic on its own; run it inside a transaction.
func (r *PostgresRepository) Replace(ctx context.Context, userID string, hashes []string) error {
	if err := r.DeleteAll(ctx, userID); err != nil {
		return err
	}

	for _, h := range hashes {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO backup_codes (user_id, code_hash) VALUES ($1, $2)`, userID, h)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) Consume(ctx context.Context, userID, hash string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE backup_codes SET used_at = now() WHERE user_id = $1 AND code_hash = $2 AND used_at IS NULL`,
		userID, hash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM backup_codes WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
