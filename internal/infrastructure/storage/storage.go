// Package storage opens the configured task store and hands back the
// repositories, a health pinger and a closer behind driver-neutral types.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/task-tracker/config"
	"github.com/ErlanBelekov/task-tracker/internal/health"
	"github.com/ErlanBelekov/task-tracker/internal/infrastructure/mysql"
	"github.com/ErlanBelekov/task-tracker/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/task-tracker/internal/repository"
)

type Store struct {
	Driver string
	Tasks  repository.TaskRepository
	Users  repository.UserRepository
	Pinger health.Pinger
	close  func()
}

func (s *Store) Close() {
	if s.close != nil {
		s.close()
	}
}

// Open connects to the store selected by cfg.DBDriver and, when
// cfg.MigrateOnStart is set, brings its schema up to date.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
			logger.InfoContext(ctx, "migrations applied", "driver", cfg.DBDriver)
		}
		return &Store{
			Driver: cfg.DBDriver,
			Tasks:  postgres.NewTaskRepository(pool),
			Users:  postgres.NewUserRepository(pool),
			Pinger: pool,
			close:  pool.Close,
		}, nil

	case config.DriverMySQL:
		db, err := mysql.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.MigrateOnStart {
			if err := mysql.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
			logger.InfoContext(ctx, "migrations applied", "driver", cfg.DBDriver)
		}
		return &Store{
			Driver: cfg.DBDriver,
			Tasks:  mysql.NewTaskRepository(db),
			Users:  mysql.NewUserRepository(db),
			Pinger: sqlPinger{db},
			close:  func() { _ = db.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
}

// sqlPinger adapts *sql.DB to health.Pinger.
type sqlPinger struct{ db *sql.DB }

func (p sqlPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
