// Package http wires the application's HTTP surface: the public redirect
// endpoint, the JSON API under /api/v1 and the operational endpoints
// (metrics, swagger, ping).
package http

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/mbocharov/url-shortener/internal/entity"
	"github.com/mbocharov/url-shortener/internal/metrics"
	"github.com/mbocharov/url-shortener/internal/usecase"
	"github.com/mbocharov/url-shortener/pkg/middleware/recoverer"
	"github.com/mbocharov/url-shortener/pkg/response"
)

const (
	// rateLimitRequests is the per-client request budget within rateLimitWindow.
	rateLimitRequests = 100
	rateLimitWindow   = time.Minute
)

// URLService defines the interface for the core URL shortening business logic.
type URLService interface {
	// ShortenURL creates a shortened version of the provided original URL.
	// An empty expiresAt applies the default expiration.
	ShortenURL(ctx context.Context, originalURL, expiresAt string) (*entity.URL, error)

	// RedirectURL resolves a short code, records the visit and returns the
	// destination together with its cache policy.
	RedirectURL(ctx context.Context, shortCode string) (*usecase.RedirectResult, error)

	// GetURLStats retrieves the statistics of the URL associated with the short code.
	GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error)

	// DeactivateURL disables the URL, making it no longer functional.
	DeactivateURL(ctx context.Context, shortCode string) error
}

// RouterOptions carries the request-independent values handlers need.
type RouterOptions struct {
	BaseURL         string
	StatsAPIKey     string
	SwaggerFilePath string
}

// getValidate initializes a new validator instance for validating incoming request payloads.
// It customizes tag name extraction from struct fields to match JSON tags.
func getValidate() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}

// NewRouter initializes and returns a new HTTP router with all routes and middleware configured.
func NewRouter(logger *httplog.Logger, urlSvc URLService, m *metrics.Metrics, opts RouterOptions) http.Handler {
	if opts.SwaggerFilePath == "" {
		opts.SwaggerFilePath = "./docs/swagger.yml"
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*"},
		AllowedMethods:   []string{"POST", "GET", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           84600,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httprate.Limit(
		rateLimitRequests,
		rateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.TooManyRequestsResponse)
		}),
	))
	r.Use(httplog.RequestLogger(logger))
	r.Use(recoverer.New(logger.Logger))
	r.Use(metricsMiddleware(m))

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/swagger.yml"),
	))
	r.Get("/docs/swagger.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, opts.SwaggerFilePath)
	})

	r.Get("/{shortCode}", handleRedirect(urlSvc, m))

	r.Route("/api/v1", func(r chi.Router) {
		validate := getValidate()

		r.Get("/ping", handlePing)

		r.Route("/shorten", func(r chi.Router) {
			r.Post("/", handleShortenURL(urlSvc, validate, m, opts.BaseURL))

			r.Route("/{shortCode}", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(apiKeyAuth(opts.StatsAPIKey))

					r.Get("/stats", handleGetURLStats(urlSvc))
					r.Delete("/", handleDeactivateURL(urlSvc))
				})
			})
		})
	})

	return r
}
