package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"kirshify/admin/internal/cache"
	"kirshify/admin/internal/config"
	"kirshify/admin/internal/database"
	"kirshify/admin/internal/handlers"
	"kirshify/admin/internal/jobs"
	"kirshify/admin/internal/log"
	"kirshify/admin/internal/repository"
	"kirshify/admin/internal/server"
	"kirshify/admin/internal/service"
	"kirshify/admin/internal/storage"
)

func main() {
	flags := pflag.NewFlagSet("kirshify-api", pflag.ExitOnError)
	flags.String("http-host", "0.0.0.0", "listen address")
	flags.Int("http-port", 8080, "listen port")
	flags.String("environment", "development", "development or production")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(cfg.Environment, "")

	if cfg.Security.JWTSecret == "" {
		logger.Fatal().Msg("security.jwtsecret (KIRSHIFY_SECURITY_JWTSECRET) is required")
	}

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	if err := database.Migrate(ctx, dbPool, logger); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate schema")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	var archive service.ImportArchive
	importStore, err := storage.NewImportStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init import store")
	}
	if importStore != nil {
		if err := importStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure imports bucket failed")
		}
		archive = importStore
	} else {
		logger.Info().Msg("storage endpoint not set, import archiving disabled")
	}

	users := repository.NewUserRepository(dbPool)
	sessions := repository.NewSessionRepository(dbPool)
	authService := service.NewAuthService(users, sessions, cfg, logger)
	userService := service.NewUserService(users, archive, logger)

	if _, err := authService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		logger.Fatal().Err(err).Msg("failed to bootstrap admin")
	}

	handlerSet := handlers.NewHandlerSet(logger, cfg, authService, userService,
		handlers.HealthCheck{Name: "database", Ping: dbPool.Ping},
		handlers.HealthCheck{Name: "cache", Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}},
	)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(authService, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("scheduler stop timed out")
	}

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
