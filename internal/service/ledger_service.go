package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-izin-api/internal/models"
	"github.com/noah-isme/sma-izin-api/internal/notify"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
)

type historyRepository interface {
	FindByDay(ctx context.Context, tenantID string, day models.DayKey) (*models.ArchiveRecord, error)
	ArchiveDay(ctx context.Context, tenantID string, day models.DayKey, snapshot models.ArchiveEntries) (*models.ArchiveRecord, int, int, error)
	ListRange(ctx context.Context, tenantID string, filter models.HistoryFilter) ([]models.ArchiveRecord, error)
}

// LedgerService owns the daily archive ledger. Archiving is idempotent
// at the logical level: for one tenant and day there is exactly one
// record, and re-archiving appends only entries whose name and class
// are not already present. Every path that confirms a day (printing
// the report, the admin reset) funnels through Archive.
type LedgerService struct {
	repo     historyRepository
	notifier changeNotifier
	audit    auditWriter
	logger   *zap.Logger
	now      func() time.Time
}

// NewLedgerService constructs the ledger service.
func NewLedgerService(repo historyRepository, notifier changeNotifier, audit auditWriter, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{repo: repo, notifier: notifier, audit: audit, logger: logger, now: time.Now}
}

// WithClock overrides the service clock for tests.
func (s *LedgerService) WithClock(now func() time.Time) *LedgerService {
	if now != nil {
		s.now = now
	}
	return s
}

// IsConfirmed reports whether the tenant's day has an archive record.
func (s *LedgerService) IsConfirmed(ctx context.Context, tenantID string, day models.DayKey) (bool, error) {
	if _, err := s.repo.FindByDay(ctx, tenantID, day); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Archive merges the snapshot into the day's record. An all-duplicate
// snapshot yields Archived == 0 and writes nothing.
func (s *LedgerService) Archive(ctx context.Context, tenantID string, day models.DayKey, snapshot models.ArchiveEntries) (*models.ArchiveResult, error) {
	record, archived, skipped, err := s.repo.ArchiveDay(ctx, tenantID, day, snapshot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive queue")
	}
	result := &models.ArchiveResult{Record: record, Archived: archived, Skipped: skipped}
	if archived > 0 {
		s.publishChange(ctx, tenantID)
		s.emitAudit(ctx, tenantID, record.ID)
	}
	return result, nil
}

// History returns archive records matching the filter, newest first.
func (s *LedgerService) History(ctx context.Context, claims *models.JWTClaims, filter models.HistoryFilter) ([]models.ArchiveRecord, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := validateHistoryFilter(filter); err != nil {
		return nil, err
	}
	records, err := s.repo.ListRange(ctx, claims.TenantID, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list history")
	}
	return records, nil
}

func validateHistoryFilter(filter models.HistoryFilter) error {
	from, to := filter.From, filter.To
	if from != "" {
		if _, err := from.Time(); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "invalid start date")
		}
	}
	if to != "" {
		if _, err := to.Time(); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "invalid end date")
		}
	}
	if from != "" && to != "" && string(from) > string(to) {
		return appErrors.Clone(appErrors.ErrValidation, "start date must not be after end date")
	}
	return nil
}

func (s *LedgerService) publishChange(ctx context.Context, tenantID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, notify.Event{Kind: notify.KindHistory, TenantID: tenantID, At: s.now()}); err != nil {
		s.logger.Warn("publish history event failed", zap.Error(err))
	}
}

func (s *LedgerService) emitAudit(ctx context.Context, tenantID, recordID string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     models.AuditActionDayArchive,
		Resource:   "daily_queue_history",
		ResourceID: &recordID,
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("audit log write failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}
