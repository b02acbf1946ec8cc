package models

import "time"

// QueueEntry is a row in the staff-facing permission queue. Membership
// in "today" is never stored; it is recomputed on every read from
// CreatedAt against the current local day. PublicID links the entry to
// its projection on the public display board so removal can target the
// exact public row.
type QueueEntry struct {
	ID            string    `db:"id" json:"id"`
	TenantID      string    `db:"tenant_id" json:"-"`
	StudentName   string    `db:"student_name" json:"student_name"`
	StudentClass  string    `db:"student_class" json:"student_class"`
	GuardianName  string    `db:"guardian_name" json:"guardian_name"`
	Reason        string    `db:"reason" json:"reason"`
	AddedByUserID string    `db:"added_by_user_id" json:"added_by_user_id"`
	AddedByName   string    `db:"added_by_name" json:"added_by_name"`
	PublicID      *string   `db:"public_id" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// PublicQueueEntry is the denormalized projection shown on the public
// display board. It intentionally omits who added the entry.
type PublicQueueEntry struct {
	ID           string    `db:"id" json:"id"`
	StudentName  string    `db:"student_name" json:"student_name"`
	StudentClass string    `db:"student_class" json:"student_class"`
	Reason       string    `db:"reason" json:"reason"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// AddQueueEntryRequest is the payload for placing a student on today's queue.
type AddQueueEntryRequest struct {
	StudentName  string `json:"student_name" validate:"required,min=2"`
	StudentClass string `json:"student_class" validate:"required"`
	GuardianName string `json:"guardian_name"`
	Reason       string `json:"reason" validate:"required"`
}

// TodayQueue bundles the live projection with its confirmation state.
type TodayQueue struct {
	Date      DayKey       `json:"date"`
	Confirmed bool         `json:"confirmed"`
	Entries   []QueueEntry `json:"entries"`
}
