package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-izin-api/internal/models"
)

// BoardRepository manages the public display sink. Rows here are the
// anonymized projection of queue entries and carry no tenant linkage
// beyond the private row's public_id pointer.
type BoardRepository struct {
	db *sqlx.DB
}

// NewBoardRepository constructs a BoardRepository.
func NewBoardRepository(db *sqlx.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

// ListAll returns every board row, oldest first.
func (r *BoardRepository) ListAll(ctx context.Context) ([]models.PublicQueueEntry, error) {
	const query = `SELECT id, student_name, student_class, reason, created_at
        FROM public_queue ORDER BY created_at ASC`
	var entries []models.PublicQueueEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list board entries: %w", err)
	}
	return entries, nil
}

// Create inserts a board row.
func (r *BoardRepository) Create(ctx context.Context, entry *models.PublicQueueEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO public_queue (id, student_name, student_class, reason, created_at)
        VALUES (:id, :student_name, :student_class, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create board entry: %w", err)
	}
	return nil
}

// Delete removes a board row by its exact ID.
func (r *BoardRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM public_queue WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete board entry: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteByContent removes board rows matching a private entry by
// content. Fallback for legacy rows created before the public_id link
// existed; created_at disambiguates same-named students.
func (r *BoardRepository) DeleteByContent(ctx context.Context, name, class string, createdAt time.Time) (int64, error) {
	const query = `DELETE FROM public_queue
        WHERE LOWER(student_name) = LOWER($1) AND LOWER(student_class) = LOWER($2) AND created_at = $3`
	res, err := r.db.ExecContext(ctx, query, name, class, createdAt)
	if err != nil {
		return 0, fmt.Errorf("delete board entry by content: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// DeleteByIDs removes the board rows with the given IDs. Callers pass
// the public_id links of the private rows they are clearing, so rows
// belonging to other tenants or other days are never touched. There is
// deliberately no blanket delete on this table.
func (r *BoardRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM public_queue WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete board entries: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
