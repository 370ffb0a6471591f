// Package app is the composition root: it constructs the repository, the
// use cases and the HTTP handlers in that order, passing references down
// explicitly, and runs the HTTP server until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"golang.org/x/sync/errgroup"

	api "github.com/mbocharov/url-shortener/internal/api/http"
	"github.com/mbocharov/url-shortener/internal/config"
	pgrepo "github.com/mbocharov/url-shortener/internal/database/postgres"
	redisrepo "github.com/mbocharov/url-shortener/internal/database/redis"
	"github.com/mbocharov/url-shortener/internal/entity"
	"github.com/mbocharov/url-shortener/internal/metrics"
	"github.com/mbocharov/url-shortener/internal/usecase"
	"github.com/mbocharov/url-shortener/pkg/postgres"
)

// urlRepository matches the store contract the use cases expect, so the
// plain postgres repository and its cached decorator are interchangeable.
type urlRepository interface {
	Create(ctx context.Context, url *entity.URL) error
	FindByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	Exists(ctx context.Context, shortCode string) (bool, error)
	Save(ctx context.Context, url *entity.URL) error
}

func newLogger(env string) *httplog.Logger {
	return httplog.NewLogger("url-shortener", httplog.Options{
		JSON:     env == config.EnvProd,
		LogLevel: slog.LevelInfo,
		Concise:  env != config.EnvProd,
	})
}

func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	logger := newLogger(cfg.Env)

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := postgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	var urlRepo urlRepository = pgrepo.NewURLRepository(db)

	if cfg.Redis.Enabled {
		cache, err := redisrepo.NewURLCache(ctx, redisrepo.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.CacheTTL,
		})
		if err != nil {
			return fmt.Errorf("%s: failed to connect to redis: %w", op, err)
		}
		defer cache.Close()

		urlRepo = redisrepo.NewCachedURLRepository(urlRepo, cache, logger.Logger)
	}

	urlUseCase := usecase.New(cfg.ShortCodeLength, urlRepo)
	m := metrics.New()

	router := api.NewRouter(logger, urlUseCase, m, api.RouterOptions{
		BaseURL:     cfg.BaseURL,
		StatsAPIKey: cfg.StatsAPIKey,
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
