package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mbocharov/url-shortener/internal/database/redis"
	"github.com/mbocharov/url-shortener/internal/entity"
)

func setupURLCache(t testing.TB, ttl time.Duration) *redis.URLCache {
	t.Helper()

	ctx := context.Background()

	redisCont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		if err := redisCont.Terminate(ctx); err != nil {
			t.Fatalf("Failed to terminate redis container: %v", err)
		}
	})

	redisHost, err := redisCont.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	redisPort, err := redisCont.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cache, err := redis.NewURLCache(ctx, redis.Options{
		Addr: redisHost + ":" + redisPort.Port(),
		TTL:  ttl,
	})
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	t.Cleanup(func() {
		if err := cache.Close(); err != nil {
			t.Fatalf("Failed to close redis connection: %v", err)
		}
	})

	return cache
}

func testURL(expiresAt *time.Time) *entity.URL {
	now := time.Now().UTC().Truncate(time.Second)

	return &entity.URL{
		ID:          1,
		ShortCode:   "abc234",
		OriginalURL: "https://example.com",
		Visits:      3,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   expiresAt,
	}
}

func TestURLCache(t *testing.T) {
	if testing.Short() {
		t.SkipNow()
	}

	t.Run("cache miss", func(t *testing.T) {
		cache := setupURLCache(t, time.Hour)

		url, err := cache.Get(context.Background(), "abc234")

		assert.ErrorIs(t, err, redis.ErrCacheMiss)
		assert.Nil(t, url)
	})

	t.Run("set and get", func(t *testing.T) {
		ctx := context.Background()
		cache := setupURLCache(t, time.Hour)

		url := testURL(nil)
		err := cache.Set(ctx, url, time.Now())

		assert.NoError(t, err)

		cached, err := cache.Get(ctx, url.ShortCode)

		assert.NoError(t, err)
		assert.NotNil(t, cached)
		assert.Equal(t, url.ShortCode, cached.ShortCode)
		assert.Equal(t, url.OriginalURL, cached.OriginalURL)
		assert.Equal(t, url.Visits, cached.Visits)
	})

	t.Run("entry ttl capped by url expiration", func(t *testing.T) {
		ctx := context.Background()
		cache := setupURLCache(t, time.Hour)

		expiresAt := time.Now().UTC().Add(time.Second)
		url := testURL(&expiresAt)
		err := cache.Set(ctx, url, time.Now())

		assert.NoError(t, err)

		time.Sleep(2 * time.Second)

		cached, err := cache.Get(ctx, url.ShortCode)

		assert.ErrorIs(t, err, redis.ErrCacheMiss)
		assert.Nil(t, cached)
	})

	t.Run("expired url is not cached", func(t *testing.T) {
		ctx := context.Background()
		cache := setupURLCache(t, time.Hour)

		expiresAt := time.Now().UTC().Add(-time.Hour)
		url := testURL(&expiresAt)
		err := cache.Set(ctx, url, time.Now())

		assert.NoError(t, err)

		cached, err := cache.Get(ctx, url.ShortCode)

		assert.ErrorIs(t, err, redis.ErrCacheMiss)
		assert.Nil(t, cached)
	})

	t.Run("delete", func(t *testing.T) {
		ctx := context.Background()
		cache := setupURLCache(t, time.Hour)

		url := testURL(nil)
		if err := cache.Set(ctx, url, time.Now()); err != nil {
			t.Fatalf("Failed to cache url: %v", err)
		}

		err := cache.Delete(ctx, url.ShortCode)

		assert.NoError(t, err)

		cached, err := cache.Get(ctx, url.ShortCode)

		assert.ErrorIs(t, err, redis.ErrCacheMiss)
		assert.Nil(t, cached)
	})
}

type MockURLRepository struct {
	mock.Mock
}

func (r *MockURLRepository) Create(ctx context.Context, url *entity.URL) error {
	args := r.Called(ctx, url)
	return args.Error(0)
}

func (r *MockURLRepository) FindByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	args := r.Called(ctx, shortCode)
	url, _ := args.Get(0).(*entity.URL)
	return url, args.Error(1)
}

func (r *MockURLRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	args := r.Called(ctx, shortCode)
	return args.Bool(0), args.Error(1)
}

func (r *MockURLRepository) Save(ctx context.Context, url *entity.URL) error {
	args := r.Called(ctx, url)
	return args.Error(0)
}

func TestCachedURLRepository(t *testing.T) {
	if testing.Short() {
		t.SkipNow()
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("find falls back to repository and primes cache", func(t *testing.T) {
		ctx := context.Background()
		cache := setupURLCache(t, time.Hour)

		url := testURL(nil)
		repoMock := new(MockURLRepository)
		repoMock.
			On("FindByShortCode", ctx, url.ShortCode).
			Once().
			Return(url, nil)

		repo := redis.NewCachedURLRepository(repoMock, cache, logger)

		got, err := repo.FindByShortCode(ctx, url.ShortCode)

		assert.NoError(t, err)
		assert.Equal(t, url.ShortCode, got.ShortCode)

		// Second lookup is served from cache, not the repository.
		got, err = repo.FindByShortCode(ctx, url.ShortCode)

		assert.NoError(t, err)
		assert.Equal(t, url.ShortCode, got.ShortCode)
		repoMock.AssertExpectations(t)
	})

	t.Run("create primes cache", func(t *testing.T) {
		ctx := context.Background()
		cache := setupURLCache(t, time.Hour)

		url := testURL(nil)
		repoMock := new(MockURLRepository)
		repoMock.
			On("Create", ctx, url).
			Once().
			Return(nil)

		repo := redis.NewCachedURLRepository(repoMock, cache, logger)

		err := repo.Create(ctx, url)

		assert.NoError(t, err)

		got, err := repo.FindByShortCode(ctx, url.ShortCode)

		assert.NoError(t, err)
		assert.Equal(t, url.ShortCode, got.ShortCode)
		repoMock.AssertExpectations(t)
	})

	t.Run("save refreshes cached entry", func(t *testing.T) {
		ctx := context.Background()
		cache := setupURLCache(t, time.Hour)

		url := testURL(nil)
		if err := cache.Set(ctx, url, time.Now()); err != nil {
			t.Fatalf("Failed to cache url: %v", err)
		}

		updated := *url
		updated.Visits = 10

		repoMock := new(MockURLRepository)
		repoMock.
			On("Save", ctx, &updated).
			Once().
			Return(nil)

		repo := redis.NewCachedURLRepository(repoMock, cache, logger)

		err := repo.Save(ctx, &updated)

		assert.NoError(t, err)

		got, err := repo.FindByShortCode(ctx, url.ShortCode)

		assert.NoError(t, err)
		assert.Equal(t, int64(10), got.Visits)
		repoMock.AssertExpectations(t)
	})

	t.Run("exists always consults repository", func(t *testing.T) {
		ctx := context.Background()
		cache := setupURLCache(t, time.Hour)

		repoMock := new(MockURLRepository)
		repoMock.
			On("Exists", ctx, "abc234").
			Once().
			Return(true, nil)

		repo := redis.NewCachedURLRepository(repoMock, cache, logger)

		exists, err := repo.Exists(ctx, "abc234")

		assert.NoError(t, err)
		assert.True(t, exists)
		repoMock.AssertExpectations(t)
	})
}
