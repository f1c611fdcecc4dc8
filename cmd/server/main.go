package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/task-tracker/config"
	"github.com/ErlanBelekov/task-tracker/internal/auth"
	"github.com/ErlanBelekov/task-tracker/internal/health"
	"github.com/ErlanBelekov/task-tracker/internal/infrastructure/storage"
	ctxlog "github.com/ErlanBelekov/task-tracker/internal/log"
	"github.com/ErlanBelekov/task-tracker/internal/metrics"
	httptransport "github.com/ErlanBelekov/task-tracker/internal/transport/http"
	"github.com/ErlanBelekov/task-tracker/internal/transport/http/handler"
	"github.com/ErlanBelekov/task-tracker/internal/transport/http/response"
	"github.com/ErlanBelekov/task-tracker/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer store.Close()

	tokens := auth.NewTokens([]byte(cfg.JWTSecret), cfg.TokenTTL)
	passwords := auth.NewPasswords(cfg.BcryptCost)
	errs := response.NewErrors(logger, cfg.Debug())
	pipeline := handler.NewPipeline(tokens, errs)

	// Auth
	authUsecase := usecase.NewAuthUsecase(store.Users, passwords, tokens)
	authHandler := handler.NewAuthHandler(authUsecase, pipeline)

	// Tasks
	taskUsecase := usecase.NewTaskUsecase(store.Tasks, store.Users)
	taskHandler := handler.NewTaskHandler(taskUsecase, pipeline)

	metrics.Register()
	checker := health.NewChecker(store.Driver, store.Pinger, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, errs, httptransport.Handlers{
			Auth:   authHandler,
			Tasks:  taskHandler,
			Health: handler.NewHealthHandler(checker, errs),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "driver", store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
