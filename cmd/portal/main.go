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

	"github.com/joho/godotenv"

	"github.com/evmotion/dealer-portal/internal/app"
	"github.com/evmotion/dealer-portal/internal/auth"
	"github.com/evmotion/dealer-portal/internal/backend"
	"github.com/evmotion/dealer-portal/internal/dashboard"
	"github.com/evmotion/dealer-portal/internal/observability"
	"github.com/evmotion/dealer-portal/internal/platform/store"
	"github.com/evmotion/dealer-portal/internal/rbac"
	"github.com/evmotion/dealer-portal/internal/session"
	"github.com/evmotion/dealer-portal/internal/view"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Default().Warn("load .env", slog.Any("error", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := rbac.Validate(); err != nil {
		logger.Error("access table", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := store.Open(ctx, store.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	opts := session.DefaultOptions()
	opts.TabTTL = cfg.SessionTTL
	opts.PersistentTTL = cfg.RememberTTL
	opts.Secure = cfg.IsProduction()
	sessions := session.NewManager(redisClient, opts)
	csrf := session.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}
	page := dashboard.NewPage(logger, templates, csrf)
	metrics := observability.NewMetrics()

	api, err := backend.NewClient(backend.Config{
		BaseURL:  cfg.BackendBaseURL,
		Timeout:  cfg.BackendTimeout,
		RetryMax: cfg.BackendRetryMax,
		Tokens:   session.TokenFromContext,
		Logger:   logger,
		Observer: metrics,
	})
	if err != nil {
		logger.Error("backend client", slog.Any("error", err))
		os.Exit(1)
	}

	guard := rbac.Middleware{Sessions: session.Resolver{}, Logger: logger, Observer: metrics}
	authHandler := auth.NewHandler(auth.NewService(auth.NewGateway(api)), page, cfg.LoginRateLimit)

	router := app.NewRouter(app.RouterParams{
		Logger:    logger,
		Config:    cfg,
		Page:      page,
		Sessions:  sessions,
		CSRF:      csrf,
		Auth:      authHandler,
		Dashboard: dashboard.NewHandler(guard, app.Areas(api, page)...),
		Metrics:   metrics,
		Ready:     store.Pinger(redisClient),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendBaseURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
