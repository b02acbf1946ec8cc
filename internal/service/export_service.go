package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-izin-api/internal/models"
	"github.com/noah-isme/sma-izin-api/pkg/export"
	"github.com/noah-isme/sma-izin-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type slipRenderer interface {
	Render(slips []export.Slip, opts export.SlipOptions) ([]byte, error)
}

type historySource interface {
	ListRange(ctx context.Context, tenantID string, filter models.HistoryFilter) ([]models.ArchiveRecord, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
	SlipPlace string
	SlipsBy   string
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders report files for the queue: the daily report
// table, cut-ready permission slips, and the history range report. It
// persists the rendered bytes and signs download URLs.
type ExportService struct {
	queue   queueRepository
	history historySource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	slips   slipRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(queue queueRepository, history historySource, fs fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, slips slipRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if slips == nil {
		slips = export.NewSlipExporter()
	}
	return &ExportService{
		queue:   queue,
		history: history,
		storage: fs,
		csv:     csv,
		pdf:     pdf,
		slips:   slips,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate renders the job's report and stores the result.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	var payload []byte
	var err error
	switch job.Type {
	case models.ReportTypeSlips:
		payload, err = s.renderSlips(ctx, job)
	default:
		var dataset export.Dataset
		var title string
		dataset, title, err = s.buildDataset(ctx, job)
		if err != nil {
			break
		}
		switch job.Params.Format {
		case models.ReportFormatCSV:
			payload, err = s.csv.Render(dataset)
		case models.ReportFormatPDF:
			payload, err = s.pdf.Render(dataset, title)
		default:
			err = fmt.Errorf("unsupported format %s", job.Params.Format)
		}
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/reports/download/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	datePart := sanitizeFilename(string(job.Params.Date))
	format := job.Params.Format
	if job.Type == models.ReportTypeSlips {
		format = models.ReportFormatPDF
	}
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), datePart, timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeDaily:
		return s.buildDailyDataset(ctx, job)
	case models.ReportTypeHistory:
		return s.buildHistoryDataset(ctx, job)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildDailyDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	entries, err := s.entriesForDay(ctx, job.TenantID, job.Params.Date)
	if err != nil {
		return export.Dataset{}, "", err
	}
	headers := []string{"No", "Nama Siswa", "Kelas", "Orang Tua/Wali", "Keterangan", "Ditambahkan Oleh"}
	rows := make([]map[string]string, 0, len(entries))
	for i, entry := range entries {
		addedBy := entry.AddedByName
		if addedBy == "" {
			addedBy = "-"
		}
		rows = append(rows, map[string]string{
			"No":               fmt.Sprintf("%d", i+1),
			"Nama Siswa":       entry.StudentName,
			"Kelas":            entry.StudentClass,
			"Orang Tua/Wali":   entry.GuardianName,
			"Keterangan":       entry.Reason,
			"Ditambahkan Oleh": addedBy,
		})
	}
	title := fmt.Sprintf("Laporan Izin Siswa %s", job.Params.Date)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ExportService) buildHistoryDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	records, err := s.history.ListRange(ctx, job.TenantID, models.HistoryFilter{From: job.Params.From, To: job.Params.To})
	if err != nil {
		return export.Dataset{}, "", err
	}
	headers := []string{"No", "Tanggal", "Nama Siswa", "Kelas", "Keterangan"}
	rows := make([]map[string]string, 0)
	n := 1
	for _, record := range records {
		for _, entry := range record.Entries {
			rows = append(rows, map[string]string{
				"No":         fmt.Sprintf("%d", n),
				"Tanggal":    record.DateKey.String(),
				"Nama Siswa": entry.StudentName,
				"Kelas":      entry.StudentClass,
				"Keterangan": entry.Reason,
			})
			n++
		}
	}
	title := "Laporan Riwayat Izin Siswa"
	switch {
	case job.Params.From != "" && job.Params.To != "":
		title = fmt.Sprintf("%s (%s s.d. %s)", title, job.Params.From, job.Params.To)
	case job.Params.From != "":
		title = fmt.Sprintf("%s (%s)", title, job.Params.From)
	}
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ExportService) renderSlips(ctx context.Context, job *models.ReportJob) ([]byte, error) {
	entries, err := s.entriesForDay(ctx, job.TenantID, job.Params.Date)
	if err != nil {
		return nil, err
	}
	selected := entries
	if len(job.Params.EntryIDs) > 0 {
		wanted := make(map[string]struct{}, len(job.Params.EntryIDs))
		for _, id := range job.Params.EntryIDs {
			wanted[id] = struct{}{}
		}
		selected = selected[:0]
		for _, entry := range entries {
			if _, ok := wanted[entry.ID]; ok {
				selected = append(selected, entry)
			}
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no entries selected for slips")
	}

	slips := make([]export.Slip, 0, len(selected))
	for _, entry := range selected {
		slips = append(slips, export.Slip{
			StudentName:  entry.StudentName,
			StudentClass: entry.StudentClass,
			Reason:       entry.Reason,
		})
	}
	date := time.Now()
	if job.Params.Date != "" {
		if parsed, err := job.Params.Date.Time(); err == nil {
			date = parsed
		}
	}
	return s.slips.Render(slips, export.SlipOptions{Place: s.cfg.SlipPlace, Officer: s.cfg.SlipsBy, Date: date})
}

func (s *ExportService) entriesForDay(ctx context.Context, tenantID string, day models.DayKey) ([]models.QueueEntry, error) {
	all, err := s.queue.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if day == "" {
		return all, nil
	}
	entries := make([]models.QueueEntry, 0, len(all))
	for _, entry := range all {
		if models.DayKeyOf(entry.CreatedAt) == day {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
