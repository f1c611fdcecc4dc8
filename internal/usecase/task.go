package usecase

import (
	"context"
	"errors"

	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/domain"
	"github.com/ErlanBelekov/task-tracker/internal/metrics"
	"github.com/ErlanBelekov/task-tracker/internal/policy"
	"github.com/ErlanBelekov/task-tracker/internal/repository"
)

type TaskUsecase struct {
	tasks repository.TaskRepository
	users repository.UserRepository
}

func NewTaskUsecase(tasks repository.TaskRepository, users repository.UserRepository) *TaskUsecase {
	return &TaskUsecase{tasks: tasks, users: users}
}

// Authorize gates operations that do not target a single task.
func (u *TaskUsecase) Authorize(id domain.Identity, op policy.Operation) error {
	return policy.Enforce(policy.Authorize(id, op, nil))
}

// AuthorizeTask looks up the owner of taskID and gates op on it. A missing
// task is NotFound for every caller, so admins and owners get the same answer.
func (u *TaskUsecase) AuthorizeTask(ctx context.Context, id domain.Identity, op policy.Operation, taskID int64) error {
	owner, err := u.tasks.OwnerOf(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return apperr.NotFound("task not found")
		}
		return apperr.Store("task owner", err)
	}
	return policy.Enforce(policy.Authorize(id, op, &owner))
}

// List returns every task for admins and the caller's own tasks otherwise.
func (u *TaskUsecase) List(ctx context.Context, id domain.Identity) ([]*domain.Task, error) {
	if err := u.Authorize(id, policy.OpListTasks); err != nil {
		return nil, err
	}
	tasks, err := u.tasks.List(ctx, policy.ListScope(id))
	if err != nil {
		return nil, apperr.Store("list tasks", err)
	}
	countOp(policy.OpListTasks)
	return tasks, nil
}

// ListByOwner returns the tasks of userID. Admin only.
func (u *TaskUsecase) ListByOwner(ctx context.Context, id domain.Identity, userID int64) ([]*domain.Task, error) {
	if err := u.Authorize(id, policy.OpListUserTasks); err != nil {
		return nil, err
	}
	if _, err := u.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Store("find user", err)
	}
	tasks, err := u.tasks.List(ctx, &userID)
	if err != nil {
		return nil, apperr.Store("list user tasks", err)
	}
	countOp(policy.OpListUserTasks)
	return tasks, nil
}

// Get expects AuthorizeTask to have passed.
func (u *TaskUsecase) Get(ctx context.Context, taskID int64) (*domain.Task, error) {
	task, err := u.fetch(ctx, taskID, "task not found")
	if err != nil {
		return nil, err
	}
	countOp(policy.OpReadTask)
	return task, nil
}

// Create stores a task owned by the caller and returns it as persisted.
func (u *TaskUsecase) Create(ctx context.Context, id domain.Identity, fields domain.TaskFields) (*domain.Task, error) {
	if fields.Title == nil {
		return nil, apperr.Validation("title is required")
	}
	task := &domain.Task{
		Title:       *fields.Title,
		Description: fields.Description,
		Status:      domain.StatusPending,
		OwnerID:     id.SubjectID,
	}
	if fields.Status != nil {
		task.Status = *fields.Status
	}

	taskID, err := u.tasks.Create(ctx, task)
	if err != nil {
		return nil, apperr.Store("create task", err)
	}

	created, err := u.fetch(ctx, taskID, "task no longer exists")
	if err != nil {
		return nil, err
	}
	countOp(policy.OpCreateTask)
	return created, nil
}

// Update applies fields to taskID and returns the task as persisted.
// Expects AuthorizeTask to have passed.
func (u *TaskUsecase) Update(ctx context.Context, taskID int64, fields domain.TaskFields) (*domain.Task, error) {
	if fields.Empty() {
		return nil, apperr.Validation("no update data provided")
	}
	ok, err := u.tasks.Update(ctx, taskID, fields)
	if err != nil {
		return nil, apperr.Store("update task", err)
	}
	if !ok {
		return nil, apperr.NotFound("task not found")
	}

	updated, err := u.fetch(ctx, taskID, "task no longer exists")
	if err != nil {
		return nil, err
	}
	countOp(policy.OpUpdateTask)
	return updated, nil
}

// Delete removes taskID. Expects AuthorizeTask to have passed.
func (u *TaskUsecase) Delete(ctx context.Context, taskID int64) error {
	ok, err := u.tasks.Delete(ctx, taskID)
	if err != nil {
		return apperr.Store("delete task", err)
	}
	if !ok {
		return apperr.NotFound("task not found")
	}
	countOp(policy.OpDeleteTask)
	return nil
}

func (u *TaskUsecase) fetch(ctx context.Context, taskID int64, missing string) (*domain.Task, error) {
	task, err := u.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, apperr.NotFound(missing)
		}
		return nil, apperr.Store("get task", err)
	}
	return task, nil
}

func countOp(op policy.Operation) {
	metrics.TaskOperationsTotal.WithLabelValues(string(op)).Inc()
}
