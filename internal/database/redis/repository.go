package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mbocharov/url-shortener/internal/entity"
)

// urlRepository is the subset of the persistent repository the cache decorates.
type urlRepository interface {
	Create(ctx context.Context, url *entity.URL) error
	FindByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	Exists(ctx context.Context, shortCode string) (bool, error)
	Save(ctx context.Context, url *entity.URL) error
}

// CachedURLRepository decorates a URL repository with a Redis read/write-through
// cache. Cache failures are logged and never fail the underlying operation;
// the repository remains the source of truth.
type CachedURLRepository struct {
	repo   urlRepository
	cache  *URLCache
	logger *slog.Logger
	now    func() time.Time
}

func NewCachedURLRepository(repo urlRepository, cache *URLCache, logger *slog.Logger) *CachedURLRepository {
	return &CachedURLRepository{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// Create persists the URL and primes the cache.
func (r *CachedURLRepository) Create(ctx context.Context, url *entity.URL) error {
	if err := r.repo.Create(ctx, url); err != nil {
		return err
	}

	if err := r.cache.Set(ctx, url, r.now()); err != nil {
		r.logger.Warn("failed to cache created url", slog.String("short_code", url.ShortCode), slog.Any("err", err))
	}

	return nil
}

// FindByShortCode serves from cache when possible and falls back to the repository.
func (r *CachedURLRepository) FindByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	url, err := r.cache.Get(ctx, shortCode)
	if err == nil {
		return url, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.logger.Warn("url cache lookup failed", slog.String("short_code", shortCode), slog.Any("err", err))
	}

	url, err = r.repo.FindByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, url, r.now()); err != nil {
		r.logger.Warn("failed to cache url", slog.String("short_code", shortCode), slog.Any("err", err))
	}

	return url, nil
}

// Exists always consults the repository: short code uniqueness decisions
// must see the authoritative store, not a possibly stale cache.
func (r *CachedURLRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	return r.repo.Exists(ctx, shortCode)
}

// Save writes through to the repository and refreshes the cached entry.
func (r *CachedURLRepository) Save(ctx context.Context, url *entity.URL) error {
	if err := r.repo.Save(ctx, url); err != nil {
		return err
	}

	if err := r.cache.Set(ctx, url, r.now()); err != nil {
		r.logger.Warn("failed to refresh cached url", slog.String("short_code", url.ShortCode), slog.Any("err", err))

		if err := r.cache.Delete(ctx, url.ShortCode); err != nil {
			r.logger.Warn("failed to drop stale cached url", slog.String("short_code", url.ShortCode), slog.Any("err", err))
		}
	}

	return nil
}
