package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/urlshortcut/urlshortcut/internal/model"
)

// AccessRecordRepository stores redirect access records.
type AccessRecordRepository struct {
	repo *Repository
}

// NewAccessRecordRepository creates a new AccessRecordRepository.
func NewAccessRecordRepository(repo *Repository) *AccessRecordRepository {
	return &AccessRecordRepository{repo: repo}
}

// BulkInsert inserts records with idempotency via ON CONFLICT DO NOTHING.
// Records whose URL was deleted in the meantime are skipped.
func (r *AccessRecordRepository) BulkInsert(ctx context.Context, records []*model.AccessRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO url_access_records (id, event_id, url_id, visited_at)
		SELECT $1::varchar, $2::varchar, id, $4::timestamptz FROM urls WHERE id = $3
		ON CONFLICT (event_id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query, rec.ID, rec.EventID, rec.URLID, rec.VisitedAt)
	}

	results := r.repo.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(records); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert record %d: %w", i, err)
		}
	}

	return nil
}
