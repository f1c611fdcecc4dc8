package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/domain"
	"github.com/ErlanBelekov/task-tracker/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, input usecase.RegisterInput) (int64, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type AuthHandler struct {
	authUsecase authUsecaser
	pipeline    *Pipeline
}

func NewAuthHandler(authUsecase authUsecaser, pipeline *Pipeline) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase, pipeline: pipeline}
}

type registerRequest struct {
	Username string      `json:"username" binding:"required,max=64"`
	Password string      `json:"password" binding:"required,max=72"`
	Role     domain.Role `json:"role"     binding:"omitempty,oneof=user admin"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/register
// Returns 201 {"id": <new user id>}, 409 when the username is taken.
func (h *AuthHandler) Register() gin.HandlerFunc {
	return Public(h.pipeline, Stages[registerRequest]{
		Normalize: bindJSON[registerRequest],
		Execute: func(c *gin.Context, _ domain.Identity, req registerRequest) (Result, error) {
			id, err := h.authUsecase.Register(c.Request.Context(), usecase.RegisterInput{
				Username: req.Username,
				Password: req.Password,
				Role:     req.Role,
			})
			if err != nil {
				return Result{}, err
			}
			return Result{Status: http.StatusCreated, Data: gin.H{"id": id}, Msg: "user registered"}, nil
		},
	})
}

// POST /auth/login
// Returns 200 {"token": "<jwt>"}, 401 on a wrong username or password.
func (h *AuthHandler) Login() gin.HandlerFunc {
	return Public(h.pipeline, Stages[loginRequest]{
		Normalize: bindJSON[loginRequest],
		Execute: func(c *gin.Context, _ domain.Identity, req loginRequest) (Result, error) {
			token, err := h.authUsecase.Login(c.Request.Context(), req.Username, req.Password)
			if err != nil {
				return Result{}, err
			}
			return Result{Status: http.StatusOK, Data: gin.H{"token": token}, Msg: "login successful"}, nil
		},
	})
}

// bindJSON decodes and validates the body, turning binding failures into
// ValidationErrors that name the offending fields.
func bindJSON[T any](c *gin.Context) (T, error) {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return req, apperr.Wrap(apperr.KindValidation, describe(verrs), err)
		}
		return req, apperr.Wrap(apperr.KindValidation, "malformed JSON body", err)
	}
	return req, nil
}

func describe(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", ")))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
