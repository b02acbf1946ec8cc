package models

import "time"

// DataExport is the portable JSON backup of a tenant's data. Users are
// exported without credentials; import restores roster, queue and
// history only.
type DataExport struct {
	ExportedAt time.Time       `json:"exported_at"`
	Students   []Student       `json:"students"`
	Queue      []QueueEntry    `json:"queue"`
	History    []ArchiveRecord `json:"history"`
	Users      []UserInfo      `json:"users,omitempty"`
}
