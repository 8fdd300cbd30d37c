package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hireloop/internal/common"
	"github.com/dmitrijs2005/hireloop/internal/dbx"
	"github.com/dmitrijs2005/hireloop/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const selectUser = `SELECT id, email, full_name, role, password_hash, status, two_factor_enabled, onboarding_completed, created_at FROM users`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, full_name, role, password_hash, status)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.FullName, string(user.Role), user.PasswordHash, string(user.Status)).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user         models.User
		role, status string
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Email, &user.FullName, &role,
		&user.PasswordHash, &status, &user.TwoFactorEnabled, &user.OnboardingCompleted, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.Role = models.Role(role)
	user.Status = models.Status(status)
	return &user, nil
}

func (r *PostgresRepository) UpdatePending(ctx context.Context, user *models.User) error {
	return r.exec(ctx,
		`UPDATE users SET full_name = $2, role = $3, password_hash = $4 WHERE id = $1 AND status = 'pending'`,
		user.ID, user.FullName, string(user.Role), user.PasswordHash)
}

func (r *PostgresRepository) Activate(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE users SET status = 'active' WHERE id = $1`, id)
}

func (r *PostgresRepository) SetTwoFactor(ctx context.Context, id string, enabled bool) error {
	return r.exec(ctx, `UPDATE users SET two_factor_enabled = $2 WHERE id = $1`, id, enabled)
}

func (r *PostgresRepository) SetOnboardingCompleted(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE users SET onboarding_completed = TRUE WHERE id = $1`, id)
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	return r.exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
}

// exec runs a single-row statement and maps "no row touched" to ErrorNotFound.
func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
