package httptransport

import (
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/transport/http/handler"
	"github.com/ErlanBelekov/task-tracker/internal/transport/http/middleware"
	"github.com/ErlanBelekov/task-tracker/internal/transport/http/response"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type Handlers struct {
	Auth   *handler.AuthHandler
	Tasks  *handler.TaskHandler
	Health *handler.HealthHandler
}

// NewRouter wires every route. errs is the same translator the handlers
// use, so route misses and panics answer with the envelope too.
func NewRouter(logger *slog.Logger, errs *response.Errors, h Handlers) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	// Redirects would answer outside the envelope; misses go to NoRoute.
	r.RedirectTrailingSlash = false

	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		errs.Write(c, apperr.Internal(fmt.Errorf("panic: %v", recovered)))
	}))

	r.NoRoute(func(c *gin.Context) {
		errs.Write(c, apperr.NotFound("route not found"))
	})
	r.NoMethod(func(c *gin.Context) {
		errs.Write(c, apperr.New(apperr.KindMethodNotAllowed, "method "+c.Request.Method+" not allowed"))
	})

	r.GET("/health", h.Health.Check)

	authGroup := r.Group("/auth")
	authGroup.POST("/register", h.Auth.Register())
	authGroup.POST("/login", h.Auth.Login())

	tasks := r.Group("/tasks")
	tasks.GET("", h.Tasks.List())
	tasks.POST("", h.Tasks.Create())
	tasks.GET("/:id", h.Tasks.Get())
	tasks.PUT("/:id", h.Tasks.Update())
	tasks.DELETE("/:id", h.Tasks.Delete())

	r.GET("/users/:userId/tasks", h.Tasks.ListByOwner())

	return r
}
