package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mbocharov/url-shortener/internal/database"
	"github.com/mbocharov/url-shortener/internal/entity"
)

type urlRecord struct {
	ID          int64        `db:"id"`
	ShortCode   string       `db:"short_code"`
	OriginalURL string       `db:"original_url"`
	Visits      int64        `db:"visits"`
	Active      bool         `db:"is_active"`
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
	ExpiresAt   sql.NullTime `db:"expires_at"`
}

func (r *urlRecord) ToURL() *entity.URL {
	url := &entity.URL{
		ID:          r.ID,
		ShortCode:   r.ShortCode,
		OriginalURL: r.OriginalURL,
		Visits:      r.Visits,
		Active:      r.Active,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}

	if r.ExpiresAt.Valid {
		t := r.ExpiresAt.Time
		url.ExpiresAt = &t
	}

	return url
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// URLRepository stores URL records in PostgreSQL. The short_code column
// carries a unique constraint as a backstop to the application-level
// collision check.
type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{
		db: db,
	}
}

// Create inserts the URL and assigns its repository identity back onto the entity.
func (r *URLRepository) Create(ctx context.Context, url *entity.URL) error {
	const op = "database.postgres.URLRepository.Create"

	query := `INSERT INTO urls(short_code, original_url, visits, is_active, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	var id int64
	err := r.db.GetContext(ctx, &id, query,
		url.ShortCode, url.OriginalURL, url.Visits, url.Active,
		url.CreatedAt, url.UpdatedAt, nullTime(url.ExpiresAt),
	)
	if err != nil {
		if isUniqueViolationError(err) {
			return fmt.Errorf("%s: %w", op, database.ErrShortCodeExists)
		}

		return fmt.Errorf("%s: failed to create url record: %w", op, err)
	}

	url.ID = id

	return nil
}

// FindByShortCode retrieves a URL by its short code.
func (r *URLRepository) FindByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "database.postgres.URLRepository.FindByShortCode"

	rec := new(urlRecord)
	query := `SELECT id, short_code, original_url, visits, is_active, created_at, updated_at, expires_at
		FROM urls
		WHERE short_code = $1`

	err := r.db.GetContext(ctx, rec, query, shortCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get url record: %w", op, err)
	}

	return rec.ToURL(), nil
}

// Exists reports whether a URL with the given short code is already stored.
func (r *URLRepository) Exists(ctx context.Context, shortCode string) (bool, error) {
	const op = "database.postgres.URLRepository.Exists"

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM urls WHERE short_code = $1)`

	err := r.db.GetContext(ctx, &exists, query, shortCode)
	if err != nil {
		return false, fmt.Errorf("%s: failed to check url record existence: %w", op, err)
	}

	return exists, nil
}

// Save replaces the mutable fields of an existing URL record.
func (r *URLRepository) Save(ctx context.Context, url *entity.URL) error {
	const op = "database.postgres.URLRepository.Save"

	query := `UPDATE urls
		SET original_url = $1, visits = $2, is_active = $3, updated_at = $4, expires_at = $5
		WHERE short_code = $6`

	res, err := r.db.ExecContext(ctx, query,
		url.OriginalURL, url.Visits, url.Active, url.UpdatedAt,
		nullTime(url.ExpiresAt), url.ShortCode,
	)
	if err != nil {
		return fmt.Errorf("%s: failed to save url record: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, database.ErrURLNotFound)
	}

	return nil
}
