package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"companion-backend/internal/auth"
	"companion-backend/internal/config"
	"companion-backend/internal/database"
	"companion-backend/internal/handlers"
	"companion-backend/internal/logging"
	"companion-backend/internal/middleware"
	"companion-backend/internal/services"
	"companion-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(os.Stdout, cfg.Env, cfg.LogLevel)
	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Init(cfg.DatabaseURL, database.Options{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.DBSyncOnStartup {
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info(ctx, "database schema up to date")
	}

	store, err := newObjectStore(ctx, cfg)
	if err != nil {
		return err
	}

	codec := auth.NewCodec(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	users := services.NewUserService(db, hasher, store, log)
	errs := handlers.NewErrorWriter(log, cfg.IsDevelopment())

	router := &handlers.Router{
		Auth:    handlers.NewAuthHandler(services.NewAuthService(db, codec, hasher), errs),
		Users:   handlers.NewUserHandler(users, errs, cfg.AvatarMaxBytes),
		Tasks:   handlers.NewTaskHandler(services.NewTaskService(db), errs),
		Events:  handlers.NewEventHandler(services.NewCalendarService(db), errs),
		Health:  handlers.NewHealthHandler(services.NewHealthService(db), errs),
		Mood:    handlers.NewMoodHandler(services.NewMoodService(db), errs),
		Status:  handlers.NewStatusHandler(db),
		Gate:    middleware.NewAuthMiddleware(codec),
		Policy:  middleware.NewPolicy(users, log),
		Limiter: middleware.NewRateLimiter(ctx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst),
		Log:     log,
		Origins: cfg.CORSOrigins,
		DevMode: cfg.IsDevelopment(),
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "server starting", "addr", server.Addr, "env", cfg.Env, "avatar_storage", cfg.AvatarStorage)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down", "timeout", cfg.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func newObjectStore(ctx context.Context, cfg *config.Config) (storage.ObjectStore, error) {
	if cfg.AvatarStorage == config.StorageS3 {
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}

	local := storage.NewLocalStorage(cfg.UploadDir)
	if err := local.LoadIndex(); err != nil {
		return nil, fmt.Errorf("failed to load avatar index: %w", err)
	}
	return local, nil
}
