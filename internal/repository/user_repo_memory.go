package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"

	"hashchat/internal/domain"
)

// MemoryUserRepository replica el comportamiento de PgUserRepository sin base de datos.
// Devuelve pgx.ErrNoRows igual que postgres para que los servicios no distingan.
type MemoryUserRepository struct {
	mu     sync.RWMutex
	byID   map[string]domain.User
	emails map[string]string
	names  map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:   make(map[string]domain.User),
		emails: make(map[string]string),
		names:  make(map[string]string),
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.names[user.Username]; ok {
		return &DuplicateError{Field: "username"}
	}
	if _, ok := r.emails[user.Email]; ok {
		return &DuplicateError{Field: "email"}
	}
	r.byID[user.ID] = user
	r.emails[user.Email] = user.ID
	r.names[user.Username] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	id, ok := r.emails[email]
	r.mu.RUnlock()
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	r.mu.RLock()
	id, ok := r.names[username]
	r.mu.RUnlock()
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func (r *MemoryUserRepository) SearchByUsernamePrefix(_ context.Context, prefix, excludeID string, limit int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]domain.User, 0)
	for name, id := range r.names {
		if id == excludeID || !strings.HasPrefix(name, prefix) {
			continue
		}
		u := r.byID[id]
		u.PasswordHash = ""
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}
