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

// HistoryRepository persists the daily archive ledger: one record per
// tenant and local day holding a JSONB snapshot of archived entries.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository constructs a HistoryRepository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// FindByDay returns the tenant's record for a day, or sql.ErrNoRows.
func (r *HistoryRepository) FindByDay(ctx context.Context, tenantID string, day models.DayKey) (*models.ArchiveRecord, error) {
	const query = `SELECT id, tenant_id, date_key, entries, created_at, updated_at
        FROM daily_queue_history WHERE tenant_id = $1 AND date_key = $2`
	var record models.ArchiveRecord
	if err := r.db.GetContext(ctx, &record, query, tenantID, day); err != nil {
		return nil, err
	}
	return &record, nil
}

// ArchiveDay merges a snapshot into the day's record inside one
// transaction. When no record exists the full snapshot is written;
// otherwise only entries whose dedup key (lowercased name plus class)
// is absent from the stored snapshot are appended. The returned counts
// report how many entries were written and how many were suppressed.
func (r *HistoryRepository) ArchiveDay(ctx context.Context, tenantID string, day models.DayKey, snapshot models.ArchiveEntries) (*models.ArchiveRecord, int, int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("begin archive: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const selectQuery = `SELECT id, tenant_id, date_key, entries, created_at, updated_at
        FROM daily_queue_history WHERE tenant_id = $1 AND date_key = $2 FOR UPDATE`

	now := time.Now().UTC()
	var record models.ArchiveRecord
	err = tx.GetContext(ctx, &record, selectQuery, tenantID, day)
	switch {
	case err == sql.ErrNoRows:
		record = models.ArchiveRecord{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			DateKey:   day,
			Entries:   dedupeSnapshot(snapshot),
			CreatedAt: now,
			UpdatedAt: now,
		}
		const insertQuery = `INSERT INTO daily_queue_history (id, tenant_id, date_key, entries, created_at, updated_at)
            VALUES (:id, :tenant_id, :date_key, :entries, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insertQuery, record); err != nil {
			return nil, 0, 0, fmt.Errorf("insert archive record: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, 0, 0, fmt.Errorf("commit archive: %w", err)
		}
		return &record, len(record.Entries), len(snapshot) - len(record.Entries), nil
	case err != nil:
		return nil, 0, 0, fmt.Errorf("load archive record: %w", err)
	}

	seen := make(map[string]struct{}, len(record.Entries))
	for _, e := range record.Entries {
		seen[e.DedupKey()] = struct{}{}
	}

	archived := 0
	for _, e := range snapshot {
		key := e.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		record.Entries = append(record.Entries, e)
		archived++
	}
	skipped := len(snapshot) - archived

	if archived == 0 {
		// Nothing new: the existing record stays untouched.
		return &record, 0, skipped, nil
	}

	record.UpdatedAt = now
	const updateQuery = `UPDATE daily_queue_history SET entries = :entries, updated_at = :updated_at
        WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateQuery, record); err != nil {
		return nil, 0, 0, fmt.Errorf("append archive entries: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, 0, fmt.Errorf("commit archive: %w", err)
	}
	return &record, archived, skipped, nil
}

// ListRange returns records in a day range, newest first. A zero To
// with a set From selects that exact day; a zero From with a set To
// selects everything up to and including To.
func (r *HistoryRepository) ListRange(ctx context.Context, tenantID string, filter models.HistoryFilter) ([]models.ArchiveRecord, error) {
	query := `SELECT id, tenant_id, date_key, entries, created_at, updated_at
        FROM daily_queue_history WHERE tenant_id = $1`
	args := []interface{}{tenantID}

	switch {
	case filter.From != "" && filter.To != "":
		query += fmt.Sprintf(" AND date_key >= $%d AND date_key <= $%d", len(args)+1, len(args)+2)
		args = append(args, filter.From, filter.To)
	case filter.From != "":
		query += fmt.Sprintf(" AND date_key = $%d", len(args)+1)
		args = append(args, filter.From)
	case filter.To != "":
		query += fmt.Sprintf(" AND date_key <= $%d", len(args)+1)
		args = append(args, filter.To)
	}

	query += " ORDER BY date_key DESC"

	var records []models.ArchiveRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list archive records: %w", err)
	}
	return records, nil
}

// DeleteAll wipes the tenant's ledger.
func (r *HistoryRepository) DeleteAll(ctx context.Context, tenantID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM daily_queue_history WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return 0, fmt.Errorf("wipe archive records: %w", err)
	}
	affected, _ := res.RowsAffected()
	return affected, nil
}

// dedupeSnapshot drops same-day duplicates within a single snapshot,
// keeping first occurrences.
func dedupeSnapshot(snapshot models.ArchiveEntries) models.ArchiveEntries {
	seen := make(map[string]struct{}, len(snapshot))
	out := make(models.ArchiveEntries, 0, len(snapshot))
	for _, e := range snapshot {
		key := e.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, e)
	}
	return out
}
