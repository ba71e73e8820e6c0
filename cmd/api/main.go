package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/library/library-go/internal/config"
	"github.com/library/library-go/internal/crypto"
	"github.com/library/library-go/internal/handler"
	"github.com/library/library-go/internal/metrics"
	"github.com/library/library-go/internal/middleware"
	"github.com/library/library-go/internal/repository"
	"github.com/library/library-go/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg))

	db, err := repository.NewDB(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		slog.Error("database open failed", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := repository.Migrate(ctx, db)
		cancel()
		if err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
	}

	retry := repository.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.DBRetries
	retry.BaseDelay = cfg.DBRetryDelay
	store := repository.NewStore(db).WithRetryPolicy(retry)
	m := metrics.New()
	tokens := crypto.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateRPS, cfg.AuthRateBurst)
	defer authLimiter.Stop()

	router := handler.NewRouter(handler.RouterDeps{
		Auth:        service.NewAuthService(store, crypto.NewHasher(crypto.DefaultHashParams()), tokens, m),
		Catalog:     service.NewCatalogService(store),
		Loans:       service.NewLoanService(store, m),
		Metrics:     m,
		AuthLimiter: authLimiter,
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env, "driver", cfg.DatabaseDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		return
	}

	slog.Info("server stopped")
}

func newLogger(cfg config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
