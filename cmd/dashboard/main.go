package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"kirshify/admin/internal/cache"
	"kirshify/admin/internal/client"
	"kirshify/admin/internal/config"
	"kirshify/admin/internal/dashboard"
	"kirshify/admin/internal/kv"
	"kirshify/admin/internal/log"
	"kirshify/admin/internal/mockapi"
)

func main() {
	flags := pflag.NewFlagSet("kirshify-dashboard", pflag.ExitOnError)
	flags.String("client-baseurl", "http://127.0.0.1:8080", "admin API base URL")
	flags.Bool("client-usemock", false, "serve the API in-process from mock data")
	flags.Duration("client-timeout", 10*time.Second, "per-request timeout")
	flags.Int("client-perpage", 10, "rows per table page")
	flags.String("client-mockstore", "file", "mock persistence: memory, file or redis")
	flags.String("client-mockdir", ".kirshify", "directory for the file mock store")
	flags.String("client-loglevel", "warn", "debug, info, warn or error")
	flags.String("redis-addr", "127.0.0.1:6379", "redis address for the redis mock store")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewWithWriter(os.Stderr, cfg.Environment, cfg.Client.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := newBackend(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init api backend")
	}
	defer closeBackend()

	console := dashboard.New(client.New(backend), os.Stdout,
		dashboard.WithPerPage(cfg.Client.PerPage),
		dashboard.WithLogger(logger),
	)
	if err := console.Run(ctx, os.Stdin); err != nil {
		logger.Error().Err(err).Msg("console stopped")
	}
}

func newBackend(ctx context.Context, cfg *config.AppConfig, logger zerolog.Logger) (client.Backend, func(), error) {
	noop := func() {}

	if !cfg.Client.UseMock {
		backend, err := client.NewHTTPBackend(cfg.Client.BaseURL, cfg.Client.Timeout)
		if err != nil {
			return nil, noop, err
		}
		logger.Debug().Str("base_url", cfg.Client.BaseURL).Msg("using http backend")
		return backend, noop, nil
	}

	store, closer, err := newMockStore(ctx, cfg)
	if err != nil {
		return nil, noop, err
	}
	logger.Info().Str("store", cfg.Client.MockStore).Msg("using mock backend")

	closeStore := func() {
		if closer == nil {
			return
		}
		if err := closer.Close(); err != nil {
			logger.Error().Err(err).Msg("mock store close error")
		}
	}
	return mockapi.New(mockapi.NewRepository(store), mockapi.WithLogger(logger)), closeStore, nil
}

func newMockStore(ctx context.Context, cfg *config.AppConfig) (kv.Store, io.Closer, error) {
	switch cfg.Client.MockStore {
	case "memory":
		return kv.NewMemory(), nil, nil
	case "redis":
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return kv.NewRedis(redisClient, "kirshify:"), redisClient, nil
	default:
		store, err := kv.NewFile(cfg.Client.MockDir)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}
