package repository

import (
	"context"

	"github.com/ErlanBelekov/task-tracker/internal/domain"
)

type UserRepository interface {
	// FindByUsername and FindByID return domain.ErrUserNotFound when no row matches.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Create returns domain.ErrUsernameTaken on a unique violation.
	Create(ctx context.Context, user *domain.User) (int64, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}
