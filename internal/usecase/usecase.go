// Package usecase implements the URL lifecycle operations: creating short
// URLs, serving redirects with a computed cache policy, reading statistics
// and deactivating URLs.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbocharov/url-shortener/internal/entity"
)

var (
	// ErrCodeExhausted is returned when the collision retry cap is reached
	// while generating a short code. With a 56-character alphabet and codes
	// of length 6 the collision probability is astronomically low, so
	// hitting this repeatedly indicates a deeper problem worth surfacing.
	ErrCodeExhausted = errors.New("exhausted attempts to generate unique short code")
	// ErrURLGone is returned when a URL exists but is no longer eligible
	// for redirects because it expired or was deactivated. It is a distinct
	// condition from database.ErrURLNotFound and must never be conflated
	// with it.
	ErrURLGone = errors.New("url is expired or inactive")
)

// maxGenerationAttempts caps the collision retry loop to keep request
// latency bounded.
const maxGenerationAttempts = 3

const (
	// noExpiryCacheMaxAge is the redirect cache duration for URLs that
	// never expire.
	noExpiryCacheMaxAge = 24 * time.Hour
	// boundedCacheMaxAge caps the redirect cache duration for URLs with
	// an expiration.
	boundedCacheMaxAge = time.Hour
)

// urlRepository is the durable store the use cases depend on. It must
// provide read-after-write consistency for the same short code within a
// single request.
type urlRepository interface {
	Create(ctx context.Context, url *entity.URL) error
	FindByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	Exists(ctx context.Context, shortCode string) (bool, error)
	Save(ctx context.Context, url *entity.URL) error
}

// RedirectResult carries the redirect destination and the cache policy
// computed for it. The HTTP layer translates the policy into headers; the
// use case never decides status codes or header names.
type RedirectResult struct {
	OriginalURL string
	Cacheable   bool
	MaxAge      int // seconds; meaningful only when Cacheable is true
}

// URLUseCase orchestrates the URL lifecycle against the repository.
type URLUseCase struct {
	shortCodeLength int
	urlRepo         urlRepository
	now             func() time.Time
}

func New(shortCodeLength int, urlRepo urlRepository) *URLUseCase {
	if shortCodeLength <= 0 {
		shortCodeLength = DefaultShortCodeLength
	}

	return &URLUseCase{
		shortCodeLength: shortCodeLength,
		urlRepo:         urlRepo,
		now:             time.Now,
	}
}

// ShortenURL creates a shortened URL for originalURL. The expiration is
// optional: an empty expiresAt yields a default of 24 hours from now, and a
// non-empty value must be an RFC 3339 instant strictly in the future.
//
// Short codes are drawn at random and checked against the repository; after
// maxGenerationAttempts collisions the call fails with ErrCodeExhausted
// rather than retrying silently.
func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL, expiresAt string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	shortCode, err := uc.pickShortCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := uc.now()

	expiration := entity.DefaultExpirationDate(now)
	if expiresAt != "" {
		expiration, err = entity.ParseExpirationDate(expiresAt, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	url := entity.NewURL(shortCode, originalURL, &expiration, now)

	if err := uc.urlRepo.Create(ctx, url); err != nil {
		return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
	}

	return url, nil
}

func (uc *URLUseCase) pickShortCode(ctx context.Context) (string, error) {
	for i := 0; i < maxGenerationAttempts; i++ {
		shortCode, err := generateShortCode(uc.shortCodeLength)
		if err != nil {
			return "", fmt.Errorf("failed to generate short code: %w", err)
		}

		exists, err := uc.urlRepo.Exists(ctx, shortCode)
		if err != nil {
			return "", fmt.Errorf("failed to check short code existence: %w", err)
		}
		if !exists {
			return shortCode, nil
		}
	}

	return "", ErrCodeExhausted
}

// RedirectURL resolves a short code to its destination, records the visit
// and computes the cache policy for the redirect response.
//
// Returns database.ErrURLNotFound for unknown codes and ErrURLGone for
// codes that exist but are expired or deactivated. Two concurrent redirects
// of the same code may lose one visit increment; exact counts under
// concurrency require compare-and-swap at the repository.
func (uc *URLUseCase) RedirectURL(ctx context.Context, shortCode string) (*RedirectResult, error) {
	const op = "usecase.URLUseCase.RedirectURL"

	url, err := uc.urlRepo.FindByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	now := uc.now()

	if !url.ValidForRedirect(now) {
		return nil, fmt.Errorf("%s: %w", op, ErrURLGone)
	}

	url.RegisterVisit(now)

	if err := uc.urlRepo.Save(ctx, url); err != nil {
		return nil, fmt.Errorf("%s: failed to record visit: %w", op, err)
	}

	result := &RedirectResult{OriginalURL: url.OriginalURL}
	result.Cacheable, result.MaxAge = cachePolicy(url.ExpiresAt, now)

	return result, nil
}

// cachePolicy decides whether a redirect response may be cached and for how
// long. URLs without an expiration are cacheable for a full day. Within the
// final hour before expiry caching is disabled entirely, so a stale redirect
// is never served past its expiration. Otherwise the duration is capped at
// an hour and never exceeds the time remaining.
func cachePolicy(expiresAt *time.Time, now time.Time) (bool, int) {
	if expiresAt == nil {
		return true, int(noExpiryCacheMaxAge.Seconds())
	}

	remaining := expiresAt.Sub(now)
	if remaining < entity.NearExpirationThreshold {
		return false, 0
	}

	maxAge := boundedCacheMaxAge
	if remaining < maxAge {
		maxAge = remaining
	}

	return true, int(maxAge.Seconds())
}

// GetURLStats retrieves the URL for a read-only statistics projection.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.FindByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}

// DeactivateURL disables redirects for a short code. Deactivation is
// terminal; deactivating an already inactive URL is a no-op.
func (uc *URLUseCase) DeactivateURL(ctx context.Context, shortCode string) error {
	const op = "usecase.URLUseCase.DeactivateURL"

	url, err := uc.urlRepo.FindByShortCode(ctx, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to deactivate url: %w", op, err)
	}

	if !url.Active {
		return nil
	}

	url.Deactivate(uc.now())

	if err := uc.urlRepo.Save(ctx, url); err != nil {
		return fmt.Errorf("%s: failed to deactivate url: %w", op, err)
	}

	return nil
}
