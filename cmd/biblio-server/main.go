// Package main is the entry point for the Biblio API server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/biblio/internal/auth"
	cachememory "github.com/prn-tf/biblio/internal/cache/memory"
	cacheredis "github.com/prn-tf/biblio/internal/cache/redis"
	"github.com/prn-tf/biblio/internal/config"
	"github.com/prn-tf/biblio/internal/graphql"
	"github.com/prn-tf/biblio/internal/handler"
	"github.com/prn-tf/biblio/internal/metrics"
	"github.com/prn-tf/biblio/internal/repository"
	"github.com/prn-tf/biblio/internal/repository/postgres"
	"github.com/prn-tf/biblio/internal/repository/sqlite"
	"github.com/prn-tf/biblio/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := newLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Str("driver", cfg.Database.Driver).
		Msg("starting biblio server")

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal().Msg("auth.jwt_secret is required; generate one with biblio-admin gen-secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, dbHealth, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer dbHealth.Close()

	cache, closeCache := openCache(ctx, cfg, logger)
	defer closeCache()

	repos.Users = repository.NewCachedUserRepository(repos.Users, cache, logger)
	repos.Books = repository.NewCachedBookRepository(repos.Books, cache, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	userSvc := service.NewUserService(repos.Users, tokens, logger)
	bookSvc := service.NewBookService(repos.Books, repos.Borrows, logger)
	borrowSvc := service.NewBorrowService(repos.Borrows, repos.Books, repos.Users, cfg.Library, logger)
	analyticsSvc := service.NewAnalyticsService(repos.Borrows, repos.Books, repos.Users, logger)

	gql, err := graphql.NewHandler(graphql.Services{
		Users:     userSvc,
		Books:     bookSvc,
		Borrows:   borrowSvc,
		Analytics: analyticsSvc,
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build graphql schema")
	}

	routerCfg := handler.RouterConfig{
		UserHandler:      handler.NewUserHandler(userSvc, logger),
		BookHandler:      handler.NewBookHandler(bookSvc, logger),
		BorrowHandler:    handler.NewBorrowHandler(borrowSvc, logger),
		AnalyticsHandler: handler.NewAnalyticsHandler(analyticsSvc, logger),
		GraphQL:          gql,
		AuthMiddleware:   auth.NewMiddleware(tokens, repos.Users, logger).Handler,
		Logger:           logger,
	}

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		m := metrics.New(logger)
		routerCfg.Middlewares = append(routerCfg.Middlewares, m.Middleware)
		metricsServer = m.Server(cfg.Metrics)

		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Str("path", cfg.Metrics.Path).Msg("metrics listener started")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics listener failed")
			}
		}()
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler.NewRouter(routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("http listener started")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http listener failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	logger.Info().Msg("server stopped")
}

// openStore connects to the configured database, runs migrations, and
// builds the repository set.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return repository.Repositories{}, nil, err
		}
		return repository.Repositories{
			Users:   postgres.NewUserRepository(db),
			Books:   postgres.NewBookRepository(db),
			Borrows: postgres.NewBorrowRepository(db),
		}, db, nil

	default: // sqlite
		db, err := sqlite.NewDB(ctx, sqliteConfig(cfg.Database), logger)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return repository.Repositories{}, nil, err
		}
		return repository.Repositories{
			Users:   sqlite.NewUserRepository(db),
			Books:   sqlite.NewBookRepository(db),
			Borrows: sqlite.NewBorrowRepository(db),
		}, db, nil
	}
}

func sqliteConfig(cfg config.DatabaseConfig) sqlite.Config {
	sc := sqlite.DefaultConfig(cfg.Path)
	if cfg.JournalMode != "" {
		sc.JournalMode = cfg.JournalMode
	}
	if cfg.BusyTimeout > 0 {
		sc.BusyTimeout = cfg.BusyTimeout
	}
	if cfg.CacheSize != 0 {
		sc.CacheSize = cfg.CacheSize
	}
	if cfg.SynchronousMode != "" {
		sc.SynchronousMode = cfg.SynchronousMode
	}
	return sc
}

// openCache selects Redis when enabled, falling back to the in-process
// cache otherwise.
func openCache(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Cache, func()) {
	if cfg.Redis.Enabled {
		cache, err := cacheredis.NewCache(ctx, cfg.Redis, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
		} else {
			return cache, func() { _ = cache.Close() }
		}
	}

	cache := cachememory.NewCache()
	return cache, cache.Stop
}

// newLogger builds the root logger from the logging configuration.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(out)
	}

	return logger.Level(level).With().Timestamp().Logger()
}
