package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/domain"
	"github.com/ErlanBelekov/task-tracker/internal/policy"
	"github.com/ErlanBelekov/task-tracker/internal/taskinput"
	"github.com/gin-gonic/gin"
)

const maxBodyBytes = 1 << 20

// taskUsecaser is the subset of TaskUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type taskUsecaser interface {
	Authorize(id domain.Identity, op policy.Operation) error
	AuthorizeTask(ctx context.Context, id domain.Identity, op policy.Operation, taskID int64) error
	List(ctx context.Context, id domain.Identity) ([]*domain.Task, error)
	ListByOwner(ctx context.Context, id domain.Identity, userID int64) ([]*domain.Task, error)
	Get(ctx context.Context, taskID int64) (*domain.Task, error)
	Create(ctx context.Context, id domain.Identity, fields domain.TaskFields) (*domain.Task, error)
	Update(ctx context.Context, taskID int64, fields domain.TaskFields) (*domain.Task, error)
	Delete(ctx context.Context, taskID int64) error
}

type TaskHandler struct {
	tasks    taskUsecaser
	pipeline *Pipeline
}

func NewTaskHandler(tasks taskUsecaser, pipeline *Pipeline) *TaskHandler {
	return &TaskHandler{tasks: tasks, pipeline: pipeline}
}

type taskResponse struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Status      domain.Status `json:"status"`
	OwnerID     int64         `json:"owner_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func toTaskResponse(t *domain.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		OwnerID:     t.OwnerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskList(tasks []*domain.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}

// GET /tasks
func (h *TaskHandler) List() gin.HandlerFunc {
	return Protected(h.pipeline, Stages[struct{}]{
		Authorize: func(_ *gin.Context, id domain.Identity) error {
			return h.tasks.Authorize(id, policy.OpListTasks)
		},
		Execute: func(c *gin.Context, id domain.Identity, _ struct{}) (Result, error) {
			tasks, err := h.tasks.List(c.Request.Context(), id)
			if err != nil {
				return Result{}, err
			}
			return Result{Status: http.StatusOK, Data: toTaskList(tasks), Msg: "tasks retrieved"}, nil
		},
	})
}

// GET /users/:userId/tasks
func (h *TaskHandler) ListByOwner() gin.HandlerFunc {
	return Protected(h.pipeline, Stages[int64]{
		Authorize: func(_ *gin.Context, id domain.Identity) error {
			return h.tasks.Authorize(id, policy.OpListUserTasks)
		},
		Normalize: func(c *gin.Context) (int64, error) {
			return pathID(c, "userId", "user")
		},
		Execute: func(c *gin.Context, id domain.Identity, userID int64) (Result, error) {
			tasks, err := h.tasks.ListByOwner(c.Request.Context(), id, userID)
			if err != nil {
				return Result{}, err
			}
			return Result{Status: http.StatusOK, Data: toTaskList(tasks), Msg: "tasks retrieved"}, nil
		},
	})
}

// GET /tasks/:id
func (h *TaskHandler) Get() gin.HandlerFunc {
	return Protected(h.pipeline, Stages[struct{}]{
		Authorize: h.authorizeTask(policy.OpReadTask),
		Execute: func(c *gin.Context, _ domain.Identity, _ struct{}) (Result, error) {
			task, err := h.tasks.Get(c.Request.Context(), mustTaskID(c))
			if err != nil {
				return Result{}, err
			}
			return Result{Status: http.StatusOK, Data: toTaskResponse(task), Msg: "task retrieved"}, nil
		},
	})
}

// POST /tasks
func (h *TaskHandler) Create() gin.HandlerFunc {
	return Protected(h.pipeline, Stages[domain.TaskFields]{
		Authorize: func(_ *gin.Context, id domain.Identity) error {
			return h.tasks.Authorize(id, policy.OpCreateTask)
		},
		Normalize: normalizeBody(false),
		Execute: func(c *gin.Context, id domain.Identity, fields domain.TaskFields) (Result, error) {
			task, err := h.tasks.Create(c.Request.Context(), id, fields)
			if err != nil {
				return Result{}, err
			}
			return Result{Status: http.StatusCreated, Data: toTaskResponse(task), Msg: "task created"}, nil
		},
	})
}

// PUT /tasks/:id
func (h *TaskHandler) Update() gin.HandlerFunc {
	return Protected(h.pipeline, Stages[domain.TaskFields]{
		Authorize: h.authorizeTask(policy.OpUpdateTask),
		Normalize: normalizeBody(true),
		Execute: func(c *gin.Context, _ domain.Identity, fields domain.TaskFields) (Result, error) {
			task, err := h.tasks.Update(c.Request.Context(), mustTaskID(c), fields)
			if err != nil {
				return Result{}, err
			}
			return Result{Status: http.StatusOK, Data: toTaskResponse(task), Msg: "task updated"}, nil
		},
	})
}

// DELETE /tasks/:id
// Answers 200 with null data so the envelope survives; 204 could not carry it.
func (h *TaskHandler) Delete() gin.HandlerFunc {
	return Protected(h.pipeline, Stages[struct{}]{
		Authorize: h.authorizeTask(policy.OpDeleteTask),
		Execute: func(c *gin.Context, _ domain.Identity, _ struct{}) (Result, error) {
			if err := h.tasks.Delete(c.Request.Context(), mustTaskID(c)); err != nil {
				return Result{}, err
			}
			return Result{Status: http.StatusOK, Data: nil, Msg: "task deleted"}, nil
		},
	})
}

func (h *TaskHandler) authorizeTask(op policy.Operation) func(*gin.Context, domain.Identity) error {
	return func(c *gin.Context, id domain.Identity) error {
		taskID, err := pathID(c, "id", "task")
		if err != nil {
			return err
		}
		return h.tasks.AuthorizeTask(c.Request.Context(), id, op, taskID)
	}
}

func normalizeBody(partial bool) func(*gin.Context) (domain.TaskFields, error) {
	return func(c *gin.Context) (domain.TaskFields, error) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		body, err := c.GetRawData()
		if err != nil {
			return domain.TaskFields{}, apperr.Wrap(apperr.KindValidation, "request body could not be read", err)
		}
		payload, err := taskinput.Decode(body)
		if err != nil {
			return domain.TaskFields{}, err
		}
		return taskinput.Normalize(payload, partial)
	}
}

func pathID(c *gin.Context, param, what string) (int64, error) {
	raw := c.Param(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s id %q", what, raw)
	}
	return id, nil
}

// mustTaskID is only called after authorizeTask has accepted the id.
func mustTaskID(c *gin.Context) int64 {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	return id
}
