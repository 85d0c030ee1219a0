package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-dive-auth/internal/cache"
	"go-dive-auth/internal/config"
	"go-dive-auth/internal/database"
	"go-dive-auth/internal/handler"
	"go-dive-auth/internal/middleware"
	"go-dive-auth/internal/repository"
	"go-dive-auth/internal/router"
	"go-dive-auth/internal/service"
	"go-dive-auth/internal/storage"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()
	a := &App{}

	checks := map[string]handler.HealthCheck{}
	store, err := a.newUserStore(ctx, cfg, checks)
	if err != nil {
		a.cleanup()
		return nil, err
	}

	sink, err := newDocumentSink(ctx, cfg)
	if err != nil {
		a.cleanup()
		return nil, fmt.Errorf("failed to initialize document store: %w", err)
	}

	identities, err := a.newIdentityCache(ctx, cfg, checks)
	if err != nil {
		a.cleanup()
		return nil, err
	}

	credentials := service.NewCredentialService(store, identities, cfg.BcryptCost)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	verification := service.NewVerificationService(store, identities)
	authService := service.NewAuthService(credentials, service.NewDocumentValidator(), tokens, sink)

	if cfg.AdminEmail != "" {
		if err := credentials.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			a.cleanup()
			return nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(tokens, credentials)
	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:    handler.NewAuthHandler(authService, cfg.MaxUploadSize),
		Profile: handler.NewProfileHandler(credentials),
		Admin:   handler.NewAdminHandler(verification),
		Health:  handler.NewHealthHandler(checks),
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

func (a *App) newUserStore(ctx context.Context, cfg *config.Config, checks map[string]handler.HealthCheck) (service.UserStore, error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		slog.Warn("using in-memory user store, accounts are lost on restart")
		return repository.NewMemoryUserRepository(), nil
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

	if err := db.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	checks["database"] = db.Health
	slog.Info("database ready")
	return repository.NewUserRepository(db.Pool), nil
}

func newDocumentSink(ctx context.Context, cfg *config.Config) (storage.DocumentSink, error) {
	if cfg.DocumentStore == config.DocumentStoreS3 {
		slog.Info("storing documents in S3", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix, "endpoint", cfg.S3Endpoint)
		return storage.NewS3Sink(ctx, s3Options(cfg))
	}

	sink, err := storage.NewLocalSink(cfg.UploadRoot)
	if err != nil {
		return nil, err
	}
	slog.Info("storing documents on disk", "root", sink.RootAbs())
	return sink, nil
}

func s3Options(cfg *config.Config) storage.S3Options {
	return storage.S3Options{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Prefix:    cfg.S3Prefix,
	}
}

func (a *App) newIdentityCache(ctx context.Context, cfg *config.Config, checks map[string]handler.HealthCheck) (service.IdentityCache, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}

	client, err := cache.Connect(ctx, cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, func() {
		_ = client.Close()
	})

	checks["redis"] = func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
	slog.Info("identity cache enabled", "ttl", cfg.IdentityCacheTTL)
	return cache.NewIdentityCache(client, cfg.IdentityCacheTTL), nil
}

func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)
	a.cleanup()
	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
