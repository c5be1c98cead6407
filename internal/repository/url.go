package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/urlshortcut/urlshortcut/internal/model"
)

const urlColumns = `id, server_id, host, url, status, description, created_at, expires_at`

// CreateURL inserts a new short URL.
func (r *Repository) CreateURL(ctx context.Context, u *model.ShortURL) error {
	query := `
		INSERT INTO urls (id, server_id, host, url, status, description, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		u.ID,
		u.OwnerID,
		u.Host,
		u.Target,
		u.Status,
		u.Description,
		u.CreatedAt,
		u.ExpiresAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrOwnerMissing
		}
		return fmt.Errorf("failed to create url: %w", err)
	}

	return nil
}

// GetURLByID retrieves a short URL by its ID.
func (r *Repository) GetURLByID(ctx context.Context, id string) (*model.ShortURL, error) {
	query := `SELECT ` + urlColumns + ` FROM urls WHERE id = $1`

	u, err := scanURL(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, ErrURLNotFound
		}
		return nil, fmt.Errorf("failed to get url: %w", err)
	}
	return u, nil
}

// ListURLsByOwner returns every URL of a server, newest first.
func (r *Repository) ListURLsByOwner(ctx context.Context, ownerID string) ([]*model.ShortURL, error) {
	query := `SELECT ` + urlColumns + ` FROM urls WHERE server_id = $1 ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list urls: %w", err)
	}
	defer rows.Close()

	urls := make([]*model.ShortURL, 0)
	for rows.Next() {
		u, err := scanURL(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate urls: %w", err)
	}

	return urls, nil
}

// DeleteURL removes a short URL and returns the number of rows deleted.
func (r *Repository) DeleteURL(ctx context.Context, id string) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM urls WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to delete url: %w", err)
	}

	return result.RowsAffected(), nil
}

// CountVisits returns how many redirects were recorded for a URL.
func (r *Repository) CountVisits(ctx context.Context, urlID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM url_access_records WHERE url_id = $1`, urlID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count visits: %w", err)
	}
	return count, nil
}

func scanURL(row pgx.Row) (*model.ShortURL, error) {
	var u model.ShortURL
	err := row.Scan(
		&u.ID,
		&u.OwnerID,
		&u.Host,
		&u.Target,
		&u.Status,
		&u.Description,
		&u.CreatedAt,
		&u.ExpiresAt,
	)
	return &u, err
}
