package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-izin-api/internal/models"
)

// QueueRepository manages the staff-facing permission queue. Rows are
// returned raw and in insertion order; bucketing into "today" happens
// in the service against the current local day.
type QueueRepository struct {
	db *sqlx.DB
}

// NewQueueRepository constructs a QueueRepository.
func NewQueueRepository(db *sqlx.DB) *QueueRepository {
	return &QueueRepository{db: db}
}

// ListByTenant returns every live queue entry of a tenant, oldest first.
func (r *QueueRepository) ListByTenant(ctx context.Context, tenantID string) ([]models.QueueEntry, error) {
	const query = `SELECT id, tenant_id, student_name, student_class, guardian_name, reason, added_by_user_id, added_by_name, public_id, created_at
        FROM daily_queue WHERE tenant_id = $1 ORDER BY created_at ASC`
	var entries []models.QueueEntry
	if err := r.db.SelectContext(ctx, &entries, query, tenantID); err != nil {
		return nil, fmt.Errorf("list queue entries: %w", err)
	}
	return entries, nil
}

// FindByID fetches a queue entry by ID within a tenant.
func (r *QueueRepository) FindByID(ctx context.Context, tenantID, id string) (*models.QueueEntry, error) {
	const query = `SELECT id, tenant_id, student_name, student_class, guardian_name, reason, added_by_user_id, added_by_name, public_id, created_at
        FROM daily_queue WHERE tenant_id = $1 AND id = $2`
	var entry models.QueueEntry
	if err := r.db.GetContext(ctx, &entry, query, tenantID, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create inserts a queue entry.
func (r *QueueRepository) Create(ctx context.Context, entry *models.QueueEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO daily_queue (id, tenant_id, student_name, student_class, guardian_name, reason, added_by_user_id, added_by_name, public_id, created_at)
        VALUES (:id, :tenant_id, :student_name, :student_class, :guardian_name, :reason, :added_by_user_id, :added_by_name, :public_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create queue entry: %w", err)
	}
	return nil
}

// Delete removes a queue entry.
func (r *QueueRepository) Delete(ctx context.Context, tenantID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM daily_queue WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return fmt.Errorf("delete queue entry: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll clears the tenant's queue in one statement; used by the
// daily reset after the remaining entries have been archived.
func (r *QueueRepository) DeleteAll(ctx context.Context, tenantID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM daily_queue WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}
