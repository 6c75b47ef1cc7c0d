package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

// Repo defines persistence operations for users.
type Repo interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	// Insert creates a new user; a duplicate email yields ErrEmailTaken.
	Insert(ctx context.Context, user User) error
	// Upsert creates or refreshes a user row keyed by email, used for
	// identities arriving through OAuth.
	Upsert(ctx context.Context, user User) (User, error)
}
