package handler

import (
	"github.com/ErlanBelekov/task-tracker/internal/auth"
	"github.com/ErlanBelekov/task-tracker/internal/domain"
	"github.com/ErlanBelekov/task-tracker/internal/transport/http/response"
	"github.com/gin-gonic/gin"
)

// verifier turns an Authorization header into a verified identity.
type verifier interface {
	Verify(header string) (domain.Identity, error)
}

// Result is what a successful request puts in the envelope.
type Result struct {
	Status int
	Data   any
	Msg    string
}

// Stages are the per-route steps of a request. The pipeline always runs
// them as authenticate, Authorize, Normalize, Execute and stops at the first
// error. Nil Authorize or Normalize stages are skipped; T is the normalized
// input handed to Execute.
type Stages[T any] struct {
	Authorize func(c *gin.Context, id domain.Identity) error
	Normalize func(c *gin.Context) (T, error)
	Execute   func(c *gin.Context, id domain.Identity, in T) (Result, error)
}

type Pipeline struct {
	verifier verifier
	errors   *response.Errors
}

func NewPipeline(v verifier, errs *response.Errors) *Pipeline {
	return &Pipeline{verifier: v, errors: errs}
}

// Protected builds a handler for a route that requires a bearer credential.
func Protected[T any](p *Pipeline, s Stages[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := p.verifier.Verify(c.GetHeader("Authorization"))
		if err != nil {
			p.errors.Write(c, err)
			return
		}
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))

		run(p, c, id, s)
	}
}

// Public builds a handler for a route open to anonymous callers. Execute
// receives the zero Identity.
func Public[T any](p *Pipeline, s Stages[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		run(p, c, domain.Identity{}, s)
	}
}

func run[T any](p *Pipeline, c *gin.Context, id domain.Identity, s Stages[T]) {
	if s.Authorize != nil {
		if err := s.Authorize(c, id); err != nil {
			p.errors.Write(c, err)
			return
		}
	}

	var in T
	if s.Normalize != nil {
		var err error
		if in, err = s.Normalize(c); err != nil {
			p.errors.Write(c, err)
			return
		}
	}

	res, err := s.Execute(c, id, in)
	if err != nil {
		p.errors.Write(c, err)
		return
	}
	response.Success(c, res.Status, res.Data, res.Msg)
}
