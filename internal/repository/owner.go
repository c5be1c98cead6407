package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/urlshortcut/urlshortcut/internal/model"
)

const ownerColumns = `id, host, password_hash, status, description, created_at, updated_at`

// CreateOwner inserts a new server.
func (r *Repository) CreateOwner(ctx context.Context, owner *model.Owner) error {
	query := `
		INSERT INTO servers (id, host, password_hash, status, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		owner.ID,
		owner.Host,
		owner.PasswordHash,
		owner.Status,
		owner.Description,
		owner.CreatedAt,
		owner.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrHostExists
		}
		return fmt.Errorf("failed to create server: %w", err)
	}

	return nil
}

// GetOwnerByID retrieves a server by its ID.
func (r *Repository) GetOwnerByID(ctx context.Context, id string) (*model.Owner, error) {
	query := `SELECT ` + ownerColumns + ` FROM servers WHERE id = $1`
	return r.getOwner(ctx, query, id)
}

// GetOwnerByHost retrieves a server by its host.
func (r *Repository) GetOwnerByHost(ctx context.Context, host string) (*model.Owner, error) {
	query := `SELECT ` + ownerColumns + ` FROM servers WHERE host = $1`
	return r.getOwner(ctx, query, host)
}

func (r *Repository) getOwner(ctx context.Context, query string, arg string) (*model.Owner, error) {
	var owner model.Owner
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&owner.ID,
		&owner.Host,
		&owner.PasswordHash,
		&owner.Status,
		&owner.Description,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidID(err) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to get server: %w", err)
	}
	return &owner, nil
}

// UpdateOwnerPassword replaces the password hash and returns the number
// of rows changed. Zero means the server vanished.
func (r *Repository) UpdateOwnerPassword(ctx context.Context, id, passwordHash string) (int64, error) {
	query := `
		UPDATE servers
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		if isInvalidID(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to update server password: %w", err)
	}

	return result.RowsAffected(), nil
}

// DeleteOwner removes a server and, through the foreign key, its URLs.
func (r *Repository) DeleteOwner(ctx context.Context, id string) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM servers WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to delete server: %w", err)
	}

	return result.RowsAffected(), nil
}
