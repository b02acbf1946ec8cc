package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ArchivedEntry is a frozen snapshot of a queue entry at archive time.
type ArchivedEntry struct {
	StudentName  string    `json:"student_name"`
	StudentClass string    `json:"student_class"`
	GuardianName string    `json:"guardian_name,omitempty"`
	Reason       string    `json:"reason"`
	AddedByName  string    `json:"added_by_name,omitempty"`
	QueuedAt     time.Time `json:"queued_at"`
}

// DedupKey identifies an archived entry for duplicate suppression:
// lowercased student name plus lowercased class.
func (e ArchivedEntry) DedupKey() string {
	return strings.ToLower(strings.TrimSpace(e.StudentName)) + "|" + strings.ToLower(strings.TrimSpace(e.StudentClass))
}

// ArchiveEntries is the JSONB snapshot column of an archive record.
type ArchiveEntries []ArchivedEntry

// Value marshals the snapshot to JSON for persistence.
func (a ArchiveEntries) Value() (driver.Value, error) {
	if a == nil {
		a = ArchiveEntries{}
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal archive entries: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the snapshot slice.
func (a *ArchiveEntries) Scan(value interface{}) error {
	if value == nil {
		*a = ArchiveEntries{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ArchiveEntries", value)
	}
	if len(data) == 0 {
		*a = ArchiveEntries{}
		return nil
	}
	if err := json.Unmarshal(data, a); err != nil {
		return fmt.Errorf("unmarshal archive entries: %w", err)
	}
	return nil
}

// ArchiveRecord is the immutable daily ledger: at most one record per
// tenant and local day. Its existence marks the day as confirmed;
// re-archiving the same day appends only entries not already present.
type ArchiveRecord struct {
	ID        string         `db:"id" json:"id"`
	TenantID  string         `db:"tenant_id" json:"-"`
	DateKey   DayKey         `db:"date_key" json:"date"`
	Entries   ArchiveEntries `db:"entries" json:"entries"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// HistoryFilter selects archive records by day range. A zero To with a
// non-zero From means that exact day; a zero From with a non-zero To
// means everything up to and including To.
type HistoryFilter struct {
	From DayKey
	To   DayKey
}

// ArchiveResult reports how an archive request resolved.
type ArchiveResult struct {
	Record   *ArchiveRecord `json:"record,omitempty"`
	Archived int            `json:"archived"`
	Skipped  int            `json:"skipped"`
}

// NothingToArchive reports whether the request added no new entries.
func (r ArchiveResult) NothingToArchive() bool { return r.Archived == 0 }
