// seed creates an admin, a regular user and a few tasks in the configured
// database. Existing accounts are reused, so it is safe to run repeatedly.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/ErlanBelekov/task-tracker/config"
	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/auth"
	"github.com/ErlanBelekov/task-tracker/internal/domain"
	"github.com/ErlanBelekov/task-tracker/internal/infrastructure/storage"
	"github.com/ErlanBelekov/task-tracker/internal/usecase"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
)

type account struct {
	username string
	password string
	role     domain.Role
}

var accounts = []account{
	{"admin", "admin-password", domain.RoleAdmin},
	{"demo", "demo-password", domain.RoleUser},
}

type seedTask struct {
	title       string
	description string
	status      domain.Status
}

var tasks = []seedTask{
	{"Write project README", "Cover setup, env vars and the seed command", domain.StatusCompleted},
	{"Review open pull requests", "", domain.StatusInProgress},
	{"Plan next sprint", "Collect estimates from the team", domain.StatusPending},
	{"Rotate JWT secret", "", domain.StatusPending},
}

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	cfg.MigrateOnStart = true

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: cfg.SlogLevel()}))

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer store.Close()

	tokens := auth.NewTokens([]byte(cfg.JWTSecret), cfg.TokenTTL)
	authUC := usecase.NewAuthUsecase(store.Users, auth.NewPasswords(cfg.BcryptCost), tokens)
	taskUC := usecase.NewTaskUsecase(store.Tasks, store.Users)

	for _, a := range accounts {
		id, err := ensureAccount(ctx, authUC, store, a)
		if err != nil {
			log.Fatalf("seed %s: %v", a.username, err)
		}
		identity := domain.Identity{SubjectID: id, Role: a.role}

		created, err := seedTasks(ctx, taskUC, identity)
		if err != nil {
			log.Fatalf("seed tasks for %s: %v", a.username, err)
		}

		token, err := authUC.Login(ctx, a.username, a.password)
		if err != nil {
			fmt.Printf("%-6s id=%d tasks+%d (login failed: %v)\n", a.username, id, created, err)
			continue
		}
		fmt.Printf("%-6s id=%d tasks+%d\n  Authorization: Bearer %s\n", a.username, id, created, token)
	}
}

func ensureAccount(ctx context.Context, uc *usecase.AuthUsecase, store *storage.Store, a account) (int64, error) {
	id, err := uc.Register(ctx, usecase.RegisterInput{Username: a.username, Password: a.password, Role: a.role})
	if err == nil {
		return id, nil
	}
	if !apperr.Is(err, apperr.KindConflict) {
		return 0, err
	}
	u, err := store.Users.FindByUsername(ctx, a.username)
	if err != nil {
		return 0, fmt.Errorf("find existing user: %w", err)
	}
	return u.ID, nil
}

// seedTasks creates the sample tasks for id unless it already owns some.
func seedTasks(ctx context.Context, uc *usecase.TaskUsecase, id domain.Identity) (int, error) {
	if id.IsAdmin() {
		return 0, nil
	}
	existing, err := uc.List(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i, spec := range tasks {
		fields := domain.TaskFields{Title: &spec.title, Status: &spec.status}
		if spec.description != "" {
			fields.Description = &spec.description
		}
		if _, err := uc.Create(ctx, id, fields); err != nil {
			return i, errors.Join(fmt.Errorf("create %q", spec.title), err)
		}
	}
	return len(tasks), nil
}
