package users

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryRepo keeps accounts in process memory, indexed by id and by
// lowercased email.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]User
	byEmail map[string]string
	now     func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Upsert stores an OAuth identity. The password hash of an existing row is
// never overwritten, and an address owned by another account is rejected
// like the unique email index does.
func (r *MemoryRepo) Upsert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, ok := r.byEmail[emailKey(user.Email)]; ok && owner != user.ID {
		return ErrEmailTaken
	}

	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now
	if prev, ok := r.byID[user.ID]; ok {
		user.CreatedAt = prev.CreatedAt
		user.PasswordHash = prev.PasswordHash
		delete(r.byEmail, emailKey(prev.Email))
	}
	r.put(user)
	return nil
}

// Create inserts a new account, failing with ErrEmailTaken on a duplicate
// address.
func (r *MemoryRepo) Create(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[emailKey(user.Email)]; taken {
		return ErrEmailTaken
	}
	now := r.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.put(user)
	return nil
}

func (r *MemoryRepo) put(user User) {
	r.byID[user.ID] = user
	if key := emailKey(user.Email); key != "" {
		r.byEmail[key] = user.ID
	}
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u, ok := r.byID[userID]; ok {
		return u, nil
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.byEmail[emailKey(email)]; ok {
		return r.byID[id], nil
	}
	return User{}, ErrNotFound
}
