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

	"github.com/gin-gonic/gin"
	"github.com/maritime-school/training-admin/internal/cache"
	"github.com/maritime-school/training-admin/internal/config"
	"github.com/maritime-school/training-admin/internal/handlers"
	"github.com/maritime-school/training-admin/internal/jobs"
	"github.com/maritime-school/training-admin/internal/models"
	"github.com/maritime-school/training-admin/internal/permissions"
	"github.com/maritime-school/training-admin/internal/repositories/postgres"
	"github.com/maritime-school/training-admin/internal/services"
	"github.com/maritime-school/training-admin/internal/utils"
	"github.com/maritime-school/training-admin/internal/validator"
	"github.com/maritime-school/training-admin/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	appLogger := utils.NewLogger(cfg.IsProduction(), os.Stdout)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := appLogger.Slog()

	if err := run(cfg, appLogger, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger utils.Logger, logger *slog.Logger) error {
	ctx := context.Background()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := postgres.Migrate(db, cfg.ResetDB); err != nil {
		return err
	}

	store := newCache(ctx, cfg, logger)

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	v := validator.New()
	deps := services.Dependencies{
		Repo:      postgres.NewRepository(db),
		Validator: v,
		Publisher: publisher,
		Cache:     store,
		Logger:    logger,
	}

	var verifier services.IdentityVerifier
	if cfg.AuthProvider == config.AuthProviderCasdoor {
		verifier = services.NewCasdoorVerifier(cfg.Casdoor)
		logger.Info("Casdoor login enabled", "endpoint", cfg.Casdoor.Endpoint)
	}

	var sm services.ServiceManager
	resolver := permissions.NewResolver(permissions.RoleSourceFunc(func(ctx context.Context) ([]*models.Role, error) {
		return sm.Role().ListAll(ctx)
	}), store, permissions.DefaultTTL, logger)
	sm = services.NewServiceManager(deps, services.AuthOptions{
		Tokens:     services.NewTokenService(cfg.JWTSecret),
		Verifier:   verifier,
		SessionTTL: cfg.SessionTTL,
	}, resolver)

	if err := sm.Role().EnsureDefaults(ctx); err != nil {
		return err
	}
	seedAdmin(ctx, cfg, sm.User(), logger)

	if cfg.CronEnabled {
		scheduler, err := jobs.NewScheduler(sm.Auth(), sm.SessionFormation(), logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			scheduler.Stop(stopCtx)
		}()
	}

	router := gin.New()
	router.Use(gin.Recovery(), utils.ContextLogger(appLogger), utils.LoggerMiddleware(appLogger))
	handlers.NewHandlerManager(sm, resolver, v, appLogger).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return err
	case sig := <-quit:
		logger.Info("Shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCache uses Redis when REDIS_URL is set and reachable, memory otherwise.
func newCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) cache.CacheService {
	if cfg.RedisURL == "" {
		return cache.NewMemoryCache()
	}
	client, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, using in-memory cache", "error", err)
		return cache.NewMemoryCache()
	}
	return cache.NewRedisCache(client, logger)
}

// seedAdmin creates the first administrator when SEED_ADMIN_PASSWORD is set.
func seedAdmin(ctx context.Context, cfg *config.Config, users services.UserService, logger *slog.Logger) {
	if cfg.SeedAdminPassword == "" {
		return
	}
	_, err := users.Create(ctx, &services.CreateUserRequest{
		Email:    cfg.SeedAdminEmail,
		Name:     "Administrator",
		Password: cfg.SeedAdminPassword,
		Role:     "admin",
	}, services.Actor{UserID: "system"})
	switch {
	case err == nil:
		logger.Info("Seed administrator created", "email", cfg.SeedAdminEmail)
	case errors.Is(err, services.ErrEmailTaken):
	default:
		logger.Warn("Failed to create seed administrator", "error", err)
	}
}
