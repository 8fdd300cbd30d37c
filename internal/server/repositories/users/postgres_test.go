package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/hireloop/internal/common"
	"github.com/dmitrijs2005/hireloop/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

const insertQ = `(?s)^INSERT\s+INTO\s+users\s*\(email,\s*full_name,\s*role,\s*password_hash,\s*status\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id,\s*created_at\s*$`

var userColumns = []string{"id", "email", "full_name", "role", "password_hash", "status", "two_factor_enabled", "onboarding_completed", "created_at"}

func pendingJane() *models.User {
	return &models.User{
		Email:        "jane@example.com",
		FullName:     "Jane Doe",
		Role:         models.RoleJobSeeker,
		PasswordHash: []byte("hash"),
		Status:       models.StatusPending,
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(insertQ).
		WithArgs("jane@example.com", "Jane Doe", "job_seeker", []byte("hash"), "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", created))

	got, err := repo.Create(context.Background(), pendingJane())
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.ID)
	assert.Equal(t, created, got.CreatedAt)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), pendingJane())
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), pendingJane())
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^SELECT\s+id,\s*email,.*onboarding_completed,\s*created_at\s+FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`

	mock.ExpectQuery(q).
		WithArgs("boss@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-2", "boss@example.com", "Boss", "employer", []byte("h"), "active", true, false, time.Now()))

	got, err := repo.GetByEmail(context.Background(), "boss@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u-2", got.ID)
	assert.Equal(t, models.RoleEmployer, got.Role)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.True(t, got.TwoFactorEnabled)
	assert.True(t, got.NeedsOnboarding())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`

	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+users`).WithArgs("u-1").WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), "u-1")
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db err`, err.Error())
}

func TestUpdates(t *testing.T) {
	tests := []struct {
		name  string
		query string
		args  []driver.Value
		call  func(r *PostgresRepository) error
	}{
		{"update pending", `^UPDATE\s+users\s+SET\s+full_name\s*=\s*\$2,\s*role\s*=\s*\$3,\s*password_hash\s*=\s*\$4\s+WHERE\s+id\s*=\s*\$1\s+AND\s+status\s*=\s*'pending'$`,
			[]driver.Value{"u-1", "Jane Doe", "job_seeker", []byte("hash")},
			func(r *PostgresRepository) error {
				u := pendingJane()
				u.ID = "u-1"
				return r.UpdatePending(context.Background(), u)
			}},
		{"activate", `^UPDATE\s+users\s+SET\s+status\s*=\s*'active'\s+WHERE\s+id\s*=\s*\$1$`, []driver.Value{"u-1"},
			func(r *PostgresRepository) error { return r.Activate(context.Background(), "u-1") }},
		{"two factor", `^UPDATE\s+users\s+SET\s+two_factor_enabled\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`, []driver.Value{"u-1", true},
			func(r *PostgresRepository) error { return r.SetTwoFactor(context.Background(), "u-1", true) }},
		{"onboarding", `^UPDATE\s+users\s+SET\s+onboarding_completed\s*=\s*TRUE\s+WHERE\s+id\s*=\s*\$1$`, []driver.Value{"u-1"},
			func(r *PostgresRepository) error { return r.SetOnboardingCompleted(context.Background(), "u-1") }},
		{"password", `^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`, []driver.Value{"u-1", []byte("new")},
			func(r *PostgresRepository) error { return r.UpdatePassword(context.Background(), "u-1", []byte("new")) }},
		{"delete", `^DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`, []driver.Value{"u-1"},
			func(r *PostgresRepository) error { return r.Delete(context.Background(), "u-1") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(tt.query).WithArgs(tt.args...).WillReturnResult(sqlmock.NewResult(0, 1))
			require.NoError(t, tt.call(repo))
		})

		t.Run(tt.name+" no rows", func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(tt.query).WillReturnResult(sqlmock.NewResult(0, 0))
			require.ErrorIs(t, tt.call(repo), common.ErrorNotFound)
		})

		t.Run(tt.name+" db error", func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(tt.query).WillReturnError(errors.New("boom"))
			err := tt.call(repo)
			require.Error(t, err)
			assert.Regexp(t, `db error: .*boom`, err.Error())
		})
	}
}
