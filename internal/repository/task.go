package repository

import (
	"context"

	"github.com/ErlanBelekov/task-tracker/internal/domain"
)

// TaskRepository depends on interface, not concrete implementation, so the
// usecases run unchanged against Postgres, MySQL or a test fake.
type TaskRepository interface {
	// List returns tasks ordered by id. A nil ownerID lists every task.
	List(ctx context.Context, ownerID *int64) ([]*domain.Task, error)
	// Get returns domain.ErrTaskNotFound when no row matches.
	Get(ctx context.Context, id int64) (*domain.Task, error)
	// Create inserts the task and returns the id the store assigned.
	Create(ctx context.Context, task *domain.Task) (int64, error)
	// Update applies the non-nil fields and reports whether a row matched.
	Update(ctx context.Context, id int64, fields domain.TaskFields) (bool, error)
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, id int64) (bool, error)
	// OwnerOf answers existence and ownership in one round trip.
	// Returns domain.ErrTaskNotFound when the task does not exist.
	OwnerOf(ctx context.Context, id int64) (int64, error)
}
