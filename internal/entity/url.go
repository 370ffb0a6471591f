// Package entity defines the domain entities and errors used in the application.
// It includes the URL struct, which represents a shortened URL together with its
// visit statistics and lifecycle state, and the ExpirationDate value object.
package entity

import (
	"time"
)

// URL represents a shortened URL.
type URL struct {
	ID          int64      // ID is the unique identifier of the URL, assigned by the repository on create.
	ShortCode   string     // ShortCode is the generated code used to shorten the original URL.
	OriginalURL string     // OriginalURL is the full URL that the short code resolves to.
	Visits      int64      // Visits is the number of times the shortened URL has been accessed.
	Active      bool       // Active indicates whether the URL can still serve redirects.
	CreatedAt   time.Time  // CreatedAt is the timestamp when the URL was created.
	UpdatedAt   time.Time  // UpdatedAt is the timestamp when the URL was last updated.
	ExpiresAt   *time.Time // ExpiresAt is the optional expiration instant; nil means the URL never expires.
}

// NewURL constructs a new active URL with zero visits.
// The expiration is optional; pass nil for a URL that never expires.
func NewURL(shortCode, originalURL string, expiresAt *ExpirationDate, now time.Time) *URL {
	url := &URL{
		ShortCode:   shortCode,
		OriginalURL: originalURL,
		Visits:      0,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if expiresAt != nil {
		t := expiresAt.Time()
		url.ExpiresAt = &t
	}

	return url
}

// RegisterVisit increments the visit counter and advances UpdatedAt.
// Callers must check ValidForRedirect first; the entity does not re-check.
func (u *URL) RegisterVisit(now time.Time) {
	u.Visits++
	u.UpdatedAt = now
}

// Deactivate marks the URL as inactive. The transition is one-way:
// a deactivated URL is never reactivated.
func (u *URL) Deactivate(now time.Time) {
	u.Active = false
	u.UpdatedAt = now
}

// Expired reports whether the URL's expiration instant has passed.
// A URL without an expiration never expires.
func (u *URL) Expired(now time.Time) bool {
	return u.ExpiresAt != nil && !u.ExpiresAt.After(now)
}

// ValidForRedirect reports whether the URL is eligible to serve a redirect:
// it must be active and not expired.
func (u *URL) ValidForRedirect(now time.Time) bool {
	return u.Active && !u.Expired(now)
}
