package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/mbocharov/url-shortener/internal/database"
	"github.com/mbocharov/url-shortener/internal/entity"
	"github.com/mbocharov/url-shortener/internal/metrics"
	"github.com/mbocharov/url-shortener/internal/usecase"
	"github.com/mbocharov/url-shortener/pkg/response"
)

// handlePing handles health check requests to ensure the server is running.
func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "pong")
}

// shortenRequest represents the request payload for creating a shortened URL.
type shortenRequest struct {
	URL       string `json:"url" validate:"required,http_url"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// shortenResponse represents the response payload for a created shortened URL.
type shortenResponse struct {
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	OriginalURL string     `json:"original_url"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// urlStatsResponse is the read-only statistics projection of a shortened URL.
type urlStatsResponse struct {
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	Visits      int64      `json:"visits"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastAccess  time.Time  `json:"last_access"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func toURLStatsResponse(url *entity.URL) urlStatsResponse {
	return urlStatsResponse{
		ShortCode:   url.ShortCode,
		OriginalURL: url.OriginalURL,
		Visits:      url.Visits,
		IsActive:    url.Active,
		CreatedAt:   url.CreatedAt,
		LastAccess:  url.UpdatedAt,
		ExpiresAt:   url.ExpiresAt,
	}
}

// handleShortenURL handles POST requests to shorten a URL.
//
// The request must contain a valid http(s) URL and may carry an optional
// RFC 3339 expiration. The handler validates the input, calls the URL
// shortening service, and returns the generated short code with relevant
// metadata.
func handleShortenURL(svc URLService, validate *validator.Validate, m *metrics.Metrics, baseURL string) http.HandlerFunc {
	const op = "api.http.handleShortenURL"
	const successMsg = "The URL has been shortened successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		var req shortenRequest

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			if errors.Is(err, io.EOF) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.EmptyRequestBodyResponse)
				return
			}

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.BadRequestResponse)
			return
		}

		if err := validate.Struct(req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationErrorResponse(err))
			return
		}

		url, err := svc.ShortenURL(r.Context(), req.URL, req.ExpiresAt)
		if err != nil {
			switch {
			case errors.Is(err, entity.ErrInvalidExpiration):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.FieldErrorResponse(
					"expires_at", req.ExpiresAt,
					"Expiration must be a valid RFC 3339 timestamp.",
				))
			case errors.Is(err, entity.ErrExpirationNotFuture):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.FieldErrorResponse(
					"expires_at", req.ExpiresAt,
					"Expiration must be in the future.",
				))
			case errors.Is(err, usecase.ErrCodeExhausted):
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.CodeExhaustedResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		m.URLsCreatedTotal.Inc()

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, response.SuccessResponse(successMsg, shortenResponse{
			ShortCode:   url.ShortCode,
			ShortURL:    fmt.Sprintf("%s/%s", baseURL, url.ShortCode),
			OriginalURL: url.OriginalURL,
			ExpiresAt:   url.ExpiresAt,
		}))
	}
}

// handleRedirect handles GET requests on short codes.
//
// Unknown codes yield 404; codes that exist but are expired or deactivated
// yield 410 so callers can tell the two apart. Successful redirects carry
// cache headers derived from the computed cache policy and a fixed set of
// security headers.
func handleRedirect(svc URLService, m *metrics.Metrics) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		result, err := svc.RedirectURL(r.Context(), shortCode)
		if err != nil {
			switch {
			case errors.Is(err, database.ErrURLNotFound):
				m.NotFoundHitsTotal.Inc()

				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
			case errors.Is(err, usecase.ErrURLGone):
				m.ExpiredHitsTotal.Inc()

				render.Status(r, http.StatusGone)
				render.JSON(w, r, response.ResourceGoneResponse)
			default:
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.ServerErrorResponse)
			}
			return
		}

		setSecurityHeaders(w)
		setCacheHeaders(w, result)

		m.RedirectsTotal.Inc()

		http.Redirect(w, r, result.OriginalURL, http.StatusFound)
	}
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

func setCacheHeaders(w http.ResponseWriter, result *usecase.RedirectResult) {
	if result.Cacheable {
		w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", result.MaxAge))
		w.Header().Set("Expires", time.Now().Add(time.Duration(result.MaxAge)*time.Second).UTC().Format(http.TimeFormat))
		return
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// handleGetURLStats handles GET requests to retrieve usage statistics for a shortened URL.
//
// The handler fetches visit counts and lifecycle data for the given short
// code, returning the projection or a 404 error if the URL doesn't exist.
func handleGetURLStats(svc URLService) http.HandlerFunc {
	const op = "api.http.handleGetURLStats"
	const successMsg = "The URL statistics retrieved successfully."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		url, err := svc.GetURLStats(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg, toURLStatsResponse(url)))
	}
}

// handleDeactivateURL handles DELETE requests to deactivate the URL.
//
// Once deactivated, the URL stops serving redirects permanently. The handler
// returns a success message if deactivation is successful or a 404 error if
// the short code doesn't exist.
func handleDeactivateURL(svc URLService) http.HandlerFunc {
	const op = "api.http.handleDeactivateURL"
	const successMsg = "The URL was successfully deactivated."

	return func(w http.ResponseWriter, r *http.Request) {
		shortCode := chi.URLParam(r, "shortCode")

		err := svc.DeactivateURL(r.Context(), shortCode)
		if err != nil {
			if errors.Is(err, database.ErrURLNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, response.ResourceNotFoundResponse)
				return
			}

			httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.ServerErrorResponse)
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, response.SuccessResponse(successMsg))
	}
}
