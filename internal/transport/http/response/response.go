// Package response writes the {data, msg, code} envelope every endpoint
// answers with, and is the one place failures become HTTP responses.
package response

import (
	"log/slog"

	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Envelope is the body of every response. Code is 0 on success and the
// domain code of the failure otherwise; Data is null on failure.
type Envelope struct {
	Data  any    `json:"data"`
	Msg   string `json:"msg"`
	Code  int    `json:"code"`
	Debug string `json:"debug,omitempty"`
}

func Success(c *gin.Context, status int, data any, msg string) {
	c.JSON(status, Envelope{Data: data, Msg: msg})
}

// Errors translates errors into envelopes. Causes are echoed to the client
// only when debug is set.
type Errors struct {
	logger *slog.Logger
	debug  bool
}

func NewErrors(logger *slog.Logger, debug bool) *Errors {
	return &Errors{logger: logger.With("component", "response"), debug: debug}
}

// Write aborts the request with the envelope for err. Errors that carry no
// kind are reported as Internal.
func (e *Errors) Write(c *gin.Context, err error) {
	appErr := apperr.From(err)
	ctx := c.Request.Context()

	if appErr.Operational() {
		e.logger.DebugContext(ctx, "request failed", "kind", appErr.Kind.String(), "error", err)
	} else {
		e.logger.ErrorContext(ctx, "request failed", "kind", appErr.Kind.String(), "error", err)
	}
	metrics.AppErrorsTotal.WithLabelValues(appErr.Kind.String()).Inc()

	env := Envelope{Msg: appErr.PublicMessage(), Code: appErr.Code()}
	if e.debug {
		env.Debug = appErr.Error()
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(appErr.HTTPStatus(), env)
}
