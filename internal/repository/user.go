package repository

import (
	"context"

	"auth-broker/internal/domain"
)

// UserRepository defines persistence operations for User entities. Username
// uniqueness is enforced by the store itself, not by a preceding lookup:
// Create reports domain.ErrUsernameTaken on conflict.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
