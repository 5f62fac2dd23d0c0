package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"go-video-backend/internal/config"
	"go-video-backend/internal/database"
	"go-video-backend/internal/event"
	"go-video-backend/internal/handler"
	"go-video-backend/internal/media"
	"go-video-backend/internal/middleware"
	"go-video-backend/internal/password"
	"go-video-backend/internal/ratelimit"
	"go-video-backend/internal/repository"
	"go-video-backend/internal/router"
	"go-video-backend/internal/service"
	"go-video-backend/internal/token"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

type stores struct {
	users  service.UserStore
	audit  service.AuditStore
	health interface{ Ping(context.Context) error }
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			a.cleanup()
		}
	}()

	hasher, err := password.NewHasher(cfg.PasswordHashAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	tokens, err := token.NewManager(cfg.TokenConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token manager: %w", err)
	}

	st, err := a.openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	throttle, err := a.openThrottle(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		uploader     media.Uploader
		mediaHandler http.Handler
	)
	switch {
	case cfg.S3.Enabled():
		s3Uploader, err := media.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize media uploader: %w", err)
		}
		uploader = s3Uploader
		slog.Info("media uploads enabled", "bucket", cfg.S3.Bucket)
	case cfg.MediaDir != "":
		diskUploader, err := media.NewDiskUploader(cfg.MediaDir, cfg.MediaPublicURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize media uploader: %w", err)
		}
		uploader = diskUploader
		mediaHandler = http.FileServer(http.Dir(diskUploader.Root()))
		slog.Info("media uploads stored on disk", "root", diskUploader.Root())
	}

	bus := event.NewBus()
	auditService := service.NewAuditService(st.audit)
	a.cleanupFuncs = append(a.cleanupFuncs, auditService.Start(bus))

	authService := service.NewAuthService(st.users, hasher, tokens, service.AuthOptions{
		Throttle:               throttle,
		Bus:                    bus,
		RevokeOnPasswordChange: cfg.RevokeOnPasswordChange,
	})
	userService := service.NewUserService(st.users, hasher, uploader, bus)

	cookies := handler.CookiePolicy{Secure: cfg.CookieSecure, SameSite: cfg.CookieSameSite}
	appRouter := router.New(cfg, logger, middleware.NewAuthMiddleware(tokens), router.Handlers{
		Auth:   handler.NewAuthHandler(authService, cookies),
		User:   handler.NewUserHandler(userService),
		Audit:  handler.NewAuditHandler(auditService),
		Health: handler.NewHealthHandler(st.health),
		Media:  mediaHandler,
	})

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		ReadTimeout:       cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

func (a *App) openStores(ctx context.Context, cfg *config.Config) (stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		return stores{
			users: repository.NewMemoryUserRepository(),
			audit: repository.NewMemoryAuditRepository(),
		}, nil
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, database.Options{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return stores{}, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

	if err := db.Migrate(ctx); err != nil {
		return stores{}, fmt.Errorf("failed to migrate database: %w", err)
	}

	return stores{
		users:  repository.NewUserRepository(db.Pool),
		audit:  repository.NewAuditRepository(db.Pool),
		health: db,
	}, nil
}

func (a *App) openThrottle(ctx context.Context, cfg *config.Config) (service.LoginThrottle, error) {
	limits := ratelimit.Config{MaxAttempts: cfg.LoginMaxAttempts, Window: cfg.LoginLockoutWindow}
	if cfg.RedisURL == "" {
		return ratelimit.NewMemoryLimiter(limits), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	a.cleanupFuncs = append(a.cleanupFuncs, func() { _ = client.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("login throttle backed by redis", "addr", opts.Addr)
	return ratelimit.NewRedisLimiter(client, limits), nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is cancelled or the process receives SIGINT/SIGTERM,
// then drains in-flight requests before releasing resources.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		a.cleanup()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	a.cleanup()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
