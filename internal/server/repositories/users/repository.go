// Package users stores credential store accounts. Lookups by email expect
// the normalized form (models.NormalizeEmail).
package users

import (
	"context"

	"github.com/dmitrijs2005/hireloop/internal/server/models"
)

// Repository returns common.ErrorNotFound when the addressed user does not
// exist and common.ErrorAlreadyExists when Create hits a taken email.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// UpdatePending overwrites the name, role and password of an account
	// that has not been verified yet.
	UpdatePending(ctx context.Context, user *models.User) error
	Activate(ctx context.Context, id string) error
	SetTwoFactor(ctx context.Context, id string, enabled bool) error
	SetOnboardingCompleted(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, hash []byte) error
	Delete(ctx context.Context, id string) error
}
