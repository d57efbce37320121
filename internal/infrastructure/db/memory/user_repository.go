package memory

import (
	"context"
	"sync"
	"time"

	"github.com/clinicdesk/clinic-client/internal/core/domain"
	"github.com/clinicdesk/clinic-client/internal/core/ports"
)

// UserRepository keeps accounts in memory, keyed by id with a unique
// email index.
type UserRepository struct {
	mu      sync.RWMutex
	byID    map[int64]*domain.Account
	byEmail map[string]int64
	nextID  int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[int64]*domain.Account),
		byEmail: make(map[string]int64),
		nextID:  1,
	}
}

func (r *UserRepository) Create(_ context.Context, acct *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[acct.Email]; exists {
		return nil, domain.ErrUserExists
	}

	stored := cloneAccount(acct)
	stored.ID = r.nextID
	r.nextID++

	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	return cloneAccount(stored), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneAccount(r.byID[id]), nil
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	acct, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneAccount(acct), nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id int64, hash string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	acct, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	acct.PasswordHash = hash
	ts := domain.NewTimestamp(at)
	acct.UpdatedAt = &ts
	return nil
}

func cloneAccount(a *domain.Account) *domain.Account {
	clone := *a
	if a.UpdatedAt != nil {
		ts := *a.UpdatedAt
		clone.UpdatedAt = &ts
	}
	return &clone
}

var _ ports.UserRepository = (*UserRepository)(nil)
