package dto

import "github.com/noah-isme/sma-izin-api/internal/models"

// ReportRequest captures POST /reports payload. Daily reports confirm
// the day before rendering; slips render only the selected entries;
// history reports cover a day range.
type ReportRequest struct {
	Type     models.ReportType   `json:"type"`
	Format   models.ReportFormat `json:"format"`
	From     models.DayKey       `json:"from,omitempty"`
	To       models.DayKey       `json:"to,omitempty"`
	EntryIDs []string            `json:"entry_ids,omitempty"`
}

// ReportJobResponse is returned after enqueueing a report. For daily
// reports Archived counts newly confirmed entries and NothingNew is
// set when every entry was already archived for the day.
type ReportJobResponse struct {
	ID         string              `json:"id"`
	Status     models.ReportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	Archived   int                 `json:"archived,omitempty"`
	NothingNew bool                `json:"nothing_new,omitempty"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"resultUrl,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
