package models

import "time"

// Student represents a learner registered in the school roster. A
// student is identified within a tenant by the lowercased name; the
// roster rejects case-variant duplicates.
type Student struct {
	ID            string    `db:"id" json:"id"`
	TenantID      string    `db:"tenant_id" json:"-"`
	Name          string    `db:"name" json:"name"`
	Class         string    `db:"class" json:"class"`
	GuardianName  string    `db:"guardian_name" json:"guardian_name"`
	GuardianPhone string    `db:"guardian_phone" json:"guardian_phone"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing the roster.
type StudentFilter struct {
	Search    string
	Class     string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateStudentRequest is the payload for registering a single student.
type CreateStudentRequest struct {
	Name          string `json:"name" validate:"required,min=2"`
	Class         string `json:"class" validate:"required"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
}

// RosterImportSummary reports the outcome of a bulk roster import.
// Skipped counts rows whose name already exists (case-insensitive),
// either in the roster or earlier in the same file.
type RosterImportSummary struct {
	Imported     int      `json:"imported"`
	Skipped      int      `json:"skipped"`
	SkippedNames []string `json:"skipped_names,omitempty"`
}
