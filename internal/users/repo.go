package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned by Create when another account uses the email.
	ErrEmailTaken = errors.New("email already registered")
)

type Repo interface {
	// Upsert stores an OAuth identity. The password hash is never touched.
	Upsert(ctx context.Context, user User) error
	// Create inserts a new password account.
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (User, error)
}
