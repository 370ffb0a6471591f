package entity

import (
	"errors"
	"time"
)

var (
	// ErrInvalidExpiration is returned when an expiration instant cannot be parsed.
	ErrInvalidExpiration = errors.New("invalid expiration date")
	// ErrExpirationNotFuture is returned when an expiration instant is not strictly in the future.
	ErrExpirationNotFuture = errors.New("expiration date must be in the future")
)

const (
	// DefaultExpirationTTL is applied when no expiration is supplied.
	DefaultExpirationTTL = 24 * time.Hour
	// NearExpirationThreshold is the window before expiry during which
	// redirect responses must not be cached.
	NearExpirationThreshold = time.Hour
)

// ExpirationDate wraps a validated expiration instant. All comparisons are
// done numerically on time.Time values; instants are never formatted and
// reparsed for comparison.
type ExpirationDate struct {
	value time.Time
}

// NewExpirationDate validates that value is strictly after now and wraps it.
// An instant equal to now is rejected.
func NewExpirationDate(value, now time.Time) (ExpirationDate, error) {
	if !value.After(now) {
		return ExpirationDate{}, ErrExpirationNotFuture
	}

	return ExpirationDate{value: value.UTC()}, nil
}

// ParseExpirationDate parses an RFC 3339 timestamp and validates it like
// NewExpirationDate.
func ParseExpirationDate(raw string, now time.Time) (ExpirationDate, error) {
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return ExpirationDate{}, ErrInvalidExpiration
	}

	return NewExpirationDate(value, now)
}

// DefaultExpirationDate returns an expiration of now plus DefaultExpirationTTL.
func DefaultExpirationDate(now time.Time) ExpirationDate {
	return ExpirationDate{value: now.Add(DefaultExpirationTTL).UTC()}
}

// Time returns the wrapped instant.
func (e ExpirationDate) Time() time.Time {
	return e.value
}

// IsPast reports whether the expiration instant has been reached.
func (e ExpirationDate) IsPast(now time.Time) bool {
	return !e.value.After(now)
}

// IsNearExpiration reports whether less than NearExpirationThreshold remains
// until the expiration instant.
func (e ExpirationDate) IsNearExpiration(now time.Time) bool {
	return e.value.Sub(now) < NearExpirationThreshold
}
