package domain

import (
	"errors"
	"time"
)

var ErrTaskNotFound = errors.New("task not found")

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists the canonical values in their legacy numeric order (1, 2, 3).
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID          int64
	Title       string
	Description *string // nil means no description
	Status      Status
	OwnerID     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TaskFields is a normalized change set. Nil fields are left untouched.
type TaskFields struct {
	Title       *string
	Description *string
	Status      *Status
}

func (f TaskFields) Empty() bool {
	return f.Title == nil && f.Description == nil && f.Status == nil
}
