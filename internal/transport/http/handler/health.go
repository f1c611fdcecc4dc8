package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/health"
	"github.com/ErlanBelekov/task-tracker/internal/transport/http/response"
	"github.com/gin-gonic/gin"
)

type readinessChecker interface {
	Readiness(ctx context.Context) health.HealthResult
}

type HealthHandler struct {
	checker readinessChecker
	errors  *response.Errors
}

func NewHealthHandler(checker readinessChecker, errs *response.Errors) *HealthHandler {
	return &HealthHandler{checker: checker, errors: errs}
}

// GET /health
// Returns 200 with per-dependency status, 503 Unavailable when the store is down.
func (h *HealthHandler) Check(c *gin.Context) {
	result := h.checker.Readiness(c.Request.Context())
	if !result.Up() {
		var cause error = errors.New("store unreachable")
		for name, check := range result.Checks {
			if check.Status == health.StatusDown {
				cause = errors.New(name + ": " + check.Error)
			}
		}
		h.errors.Write(c, apperr.Wrap(apperr.KindUnavailable, "database unavailable", cause))
		return
	}
	response.Success(c, http.StatusOK, result, "ok")
}
