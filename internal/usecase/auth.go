package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/auth"
	"github.com/ErlanBelekov/task-tracker/internal/domain"
	"github.com/ErlanBelekov/task-tracker/internal/repository"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) (bool, error)
}

type TokenIssuer interface {
	Issue(u *domain.User) (string, error)
}

type AuthUsecase struct {
	users     repository.UserRepository
	passwords PasswordHasher
	tokens    TokenIssuer
}

func NewAuthUsecase(users repository.UserRepository, passwords PasswordHasher, tokens TokenIssuer) *AuthUsecase {
	return &AuthUsecase{users: users, passwords: passwords, tokens: tokens}
}

type RegisterInput struct {
	Username string
	Password string
	Role     domain.Role // empty defaults to user
}

// Register creates an account and returns its id. A taken username is Conflict.
func (u *AuthUsecase) Register(ctx context.Context, input RegisterInput) (int64, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return 0, apperr.Validation("username and password are required")
	}
	if len(input.Password) > auth.MaxPasswordBytes {
		return 0, apperr.Validation("password must be at most %d bytes", auth.MaxPasswordBytes)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return 0, apperr.Validation("invalid role %q: accepted values are user, admin", role)
	}

	exists, err := u.users.UsernameExists(ctx, username)
	if err != nil {
		return 0, apperr.Store("check username", err)
	}
	if exists {
		return 0, apperr.Conflict("username already exists")
	}

	hash, err := u.passwords.Hash(input.Password)
	if err != nil {
		return 0, apperr.Internal(fmt.Errorf("hash password: %w", err))
	}

	id, err := u.users.Create(ctx, &domain.User{Username: username, PasswordHash: hash, Role: role})
	if err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return 0, apperr.Conflict("username already exists")
		}
		return 0, apperr.Store("create user", err)
	}
	return id, nil
}

// Login checks the credentials and returns a signed token. Unknown usernames
// and wrong passwords fail identically.
func (u *AuthUsecase) Login(ctx context.Context, username, password string) (string, error) {
	user, err := u.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", apperr.BadCredentials()
		}
		return "", apperr.Store("find user", err)
	}

	ok, err := u.passwords.Verify(user.PasswordHash, password)
	if err != nil {
		return "", apperr.Internal(fmt.Errorf("verify password: %w", err))
	}
	if !ok {
		return "", apperr.BadCredentials()
	}

	token, err := u.tokens.Issue(user)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return token, nil
}
