package usecase_test

import (
	"context"

	"github.com/ErlanBelekov/task-tracker/internal/domain"
)

// ---- fakes ----

type fakeUserRepo struct {
	findByUsername func(ctx context.Context, username string) (*domain.User, error)
	findByID       func(ctx context.Context, id int64) (*domain.User, error)
	create         func(ctx context.Context, u *domain.User) (int64, error)
	usernameExists func(ctx context.Context, username string) (bool, error)
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findByUsername(ctx, username)
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findByID(ctx, id)
}

func (r *fakeUserRepo) Create(ctx context.Context, u *domain.User) (int64, error) {
	return r.create(ctx, u)
}

func (r *fakeUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.usernameExists(ctx, username)
}

type fakeTaskRepo struct {
	list    func(ctx context.Context, ownerID *int64) ([]*domain.Task, error)
	get     func(ctx context.Context, id int64) (*domain.Task, error)
	create  func(ctx context.Context, t *domain.Task) (int64, error)
	update  func(ctx context.Context, id int64, f domain.TaskFields) (bool, error)
	delete  func(ctx context.Context, id int64) (bool, error)
	ownerOf func(ctx context.Context, id int64) (int64, error)
}

func (r *fakeTaskRepo) List(ctx context.Context, ownerID *int64) ([]*domain.Task, error) {
	return r.list(ctx, ownerID)
}

func (r *fakeTaskRepo) Get(ctx context.Context, id int64) (*domain.Task, error) {
	return r.get(ctx, id)
}

func (r *fakeTaskRepo) Create(ctx context.Context, t *domain.Task) (int64, error) {
	return r.create(ctx, t)
}

func (r *fakeTaskRepo) Update(ctx context.Context, id int64, f domain.TaskFields) (bool, error) {
	return r.update(ctx, id, f)
}

func (r *fakeTaskRepo) Delete(ctx context.Context, id int64) (bool, error) {
	return r.delete(ctx, id)
}

func (r *fakeTaskRepo) OwnerOf(ctx context.Context, id int64) (int64, error) {
	return r.ownerOf(ctx, id)
}

var (
	admin = domain.Identity{SubjectID: 1, Role: domain.RoleAdmin}
	alice = domain.Identity{SubjectID: 2, Role: domain.RoleUser}
)

func ptr[T any](v T) *T { return &v }
