package httptransport_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ErlanBelekov/task-tracker/internal/domain"
)

// memStore is an in-memory task and user store shared by memTasks and memUsers.
type memStore struct {
	mu       sync.Mutex
	users    map[int64]*domain.User
	tasks    map[int64]*domain.Task
	nextUser int64
	nextTask int64
	pingErr  error
}

func newMemStore() *memStore {
	return &memStore{users: map[int64]*domain.User{}, tasks: map[int64]*domain.Task{}}
}

func (s *memStore) Ping(context.Context) error { return s.pingErr }

type memTasks struct{ *memStore }

func (s memTasks) List(_ context.Context, ownerID *int64) ([]*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*domain.Task{}
	for _, t := range s.tasks {
		if ownerID == nil || t.OwnerID == *ownerID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s memTasks) Get(_ context.Context, id int64) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s memTasks) Create(_ context.Context, t *domain.Task) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTask++
	cp := *t
	cp.ID = s.nextTask
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.tasks[cp.ID] = &cp
	return cp.ID, nil
}

func (s memTasks) Update(_ context.Context, id int64, f domain.TaskFields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return false, nil
	}
	if f.Title != nil {
		t.Title = *f.Title
	}
	if f.Description != nil {
		t.Description = f.Description
	}
	if f.Status != nil {
		t.Status = *f.Status
	}
	t.UpdatedAt = time.Now()
	return true, nil
}

func (s memTasks) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return false, nil
	}
	delete(s.tasks, id)
	return true, nil
}

func (s memTasks) OwnerOf(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return 0, domain.ErrTaskNotFound
	}
	return t.OwnerID, nil
}

type memUsers struct{ *memStore }

func (s memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s memUsers) FindByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s memUsers) Create(_ context.Context, u *domain.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return 0, domain.ErrUsernameTaken
		}
	}
	s.nextUser++
	cp := *u
	cp.ID = s.nextUser
	s.users[cp.ID] = &cp
	return cp.ID, nil
}

func (s memUsers) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := s.FindByUsername(ctx, username)
	return err == nil, nil
}
