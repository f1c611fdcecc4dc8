// Package policy decides whether a verified identity may perform a task
// operation. Decisions are pure: the caller supplies the target's owner.
package policy

import (
	"errors"

	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/domain"
)

type Operation string

const (
	OpListTasks     Operation = "list_tasks"
	OpListUserTasks Operation = "list_user_tasks"
	OpReadTask      Operation = "read_task"
	OpCreateTask    Operation = "create_task"
	OpUpdateTask    Operation = "update_task"
	OpDeleteTask    Operation = "delete_task"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Reason: reason} }

// Authorize applies the access rules. ownerID is the owner of the targeted
// task for read/update/delete and must be nil for the other operations.
//
// Admins may do anything. Users may list and create their own tasks, and
// read, update or delete tasks they own. Per-user listings are admin only.
func Authorize(id domain.Identity, op Operation, ownerID *int64) Decision {
	if id.IsAdmin() {
		return allow()
	}
	if id.Role != domain.RoleUser {
		return deny("unknown role")
	}

	switch op {
	case OpListTasks, OpCreateTask:
		return allow()
	case OpListUserTasks:
		return deny("admin role required")
	case OpReadTask, OpUpdateTask, OpDeleteTask:
		if ownerID == nil {
			return deny("task owner unknown")
		}
		if *ownerID != id.SubjectID {
			return deny("you do not own this task")
		}
		return allow()
	}
	return deny("unknown operation")
}

// Enforce converts a denial into a Forbidden error. The reason is kept as
// the cause for logs; clients only see "forbidden".
func Enforce(d Decision) error {
	if d.Allowed {
		return nil
	}
	return apperr.Wrap(apperr.KindForbidden, "forbidden", errors.New(d.Reason))
}

// ListScope is the owner filter for a general task listing: nil (everything)
// for admins, the caller's own id otherwise.
func ListScope(id domain.Identity) *int64 {
	if id.IsAdmin() {
		return nil
	}
	sub := id.SubjectID
	return &sub
}
