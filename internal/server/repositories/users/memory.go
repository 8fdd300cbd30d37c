package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/hireloop/internal/common"
	"github.com/dmitrijs2005/hireloop/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It hands out copies so
// callers cannot mutate stored records.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	user.ID = uuid.NewString()
	user.CreatedAt = r.now().UTC()

	stored := *user
	r.byID[user.ID] = &stored
	r.byEmail[user.Email] = user.ID
	return user, nil
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *r.byID[id]
	return &u, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u := *stored
	return &u, nil
}

func (r *MemoryRepository) UpdatePending(_ context.Context, user *models.User) error {
	return r.update(user.ID, func(u *models.User) bool {
		if u.Status != models.StatusPending {
			return false
		}
		u.FullName = user.FullName
		u.Role = user.Role
		u.PasswordHash = append([]byte(nil), user.PasswordHash...)
		return true
	})
}

func (r *MemoryRepository) Activate(_ context.Context, id string) error {
	return r.update(id, func(u *models.User) bool {
		u.Status = models.StatusActive
		return true
	})
}

func (r *MemoryRepository) SetTwoFactor(_ context.Context, id string, enabled bool) error {
	return r.update(id, func(u *models.User) bool {
		u.TwoFactorEnabled = enabled
		return true
	})
}

func (r *MemoryRepository) SetOnboardingCompleted(_ context.Context, id string) error {
	return r.update(id, func(u *models.User) bool {
		u.OnboardingCompleted = true
		return true
	})
}

func (r *MemoryRepository) UpdatePassword(_ context.Context, id string, hash []byte) error {
	return r.update(id, func(u *models.User) bool {
		u.PasswordHash = append([]byte(nil), hash...)
		return true
	})
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byEmail, u.Email)
	delete(r.byID, id)
	return nil
}

// update applies fn to the stored user; fn returning false counts as no match.
func (r *MemoryRepository) update(id string, fn func(u *models.User) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok || !fn(u) {
		return common.ErrorNotFound
	}
	return nil
}
