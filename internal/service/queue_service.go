package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-izin-api/internal/models"
	"github.com/noah-isme/sma-izin-api/internal/notify"
	"github.com/noah-isme/sma-izin-api/internal/policy"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
)

type queueRepository interface {
	ListByTenant(ctx context.Context, tenantID string) ([]models.QueueEntry, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.QueueEntry, error)
	Create(ctx context.Context, entry *models.QueueEntry) error
	Delete(ctx context.Context, tenantID, id string) error
	DeleteAll(ctx context.Context, tenantID string) (int64, error)
}

type boardWriter interface {
	Create(ctx context.Context, entry *models.PublicQueueEntry) error
	Delete(ctx context.Context, id string) error
	DeleteByContent(ctx context.Context, name, class string, createdAt time.Time) (int64, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type queueLedger interface {
	IsConfirmed(ctx context.Context, tenantID string, day models.DayKey) (bool, error)
	Archive(ctx context.Context, tenantID string, day models.DayKey, snapshot models.ArchiveEntries) (*models.ArchiveResult, error)
}

type changeNotifier interface {
	Publish(ctx context.Context, ev notify.Event) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AddEntryResult reports an add alongside its dual-sink outcome. When
// OutOfSync is set the private row exists but the display board write
// failed; the response flags it so operators can reconcile.
type AddEntryResult struct {
	Entry     *models.QueueEntry `json:"entry"`
	OutOfSync bool               `json:"out_of_sync,omitempty"`
}

// RemoveEntryResult mirrors AddEntryResult for removals.
type RemoveEntryResult struct {
	OutOfSync bool `json:"out_of_sync,omitempty"`
}

// ResetSummary reports the outcome of the admin daily reset.
type ResetSummary struct {
	Archived int `json:"archived"`
	Cleared  int `json:"cleared"`
}

// QueueService implements the daily permission queue: the today
// projection, dual-sink writes to the staff queue and the public
// board, and the admin reset. "Today" is always recomputed from entry
// timestamps against the injected clock; nothing caches day membership.
type QueueService struct {
	repo      queueRepository
	board     boardWriter
	ledger    queueLedger
	notifier  changeNotifier
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewQueueService constructs the queue service.
func NewQueueService(repo queueRepository, board boardWriter, ledger queueLedger, notifier changeNotifier, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *QueueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueService{
		repo:      repo,
		board:     board,
		ledger:    ledger,
		notifier:  notifier,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the service clock; used by tests to cross day
// boundaries deterministically.
func (s *QueueService) WithClock(now func() time.Time) *QueueService {
	if now != nil {
		s.now = now
	}
	return s
}

// Today returns the tenant's live queue for the current local day,
// oldest first, together with the day's confirmation state.
func (s *QueueService) Today(ctx context.Context, claims *models.JWTClaims) (*models.TodayQueue, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	entries, err := s.todayEntries(ctx, claims.TenantID)
	if err != nil {
		return nil, err
	}
	day := models.DayKeyOf(s.now())
	confirmed, err := s.ledger.IsConfirmed(ctx, claims.TenantID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load confirmation state")
	}
	return &models.TodayQueue{Date: day, Confirmed: confirmed, Entries: entries}, nil
}

func (s *QueueService) todayEntries(ctx context.Context, tenantID string) ([]models.QueueEntry, error) {
	all, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list queue")
	}
	now := s.now()
	entries := make([]models.QueueEntry, 0, len(all))
	for _, entry := range all {
		if models.SameLocalDay(entry.CreatedAt, now) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Add places a student on today's queue. The duplicate guard compares
// the student name case-insensitively against today's live entries; a
// confirmed day does not block adds, late students are archived by the
// next report. The board row is written first so its ID can be linked
// on the private row.
func (s *QueueService) Add(ctx context.Context, claims *models.JWTClaims, req models.AddQueueEntryRequest) (*AddEntryResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid queue entry payload")
	}

	live, err := s.todayEntries(ctx, claims.TenantID)
	if err != nil {
		return nil, err
	}
	wanted := strings.ToLower(strings.TrimSpace(req.StudentName))
	for _, entry := range live {
		if strings.ToLower(strings.TrimSpace(entry.StudentName)) == wanted {
			return nil, appErrors.Clone(appErrors.ErrDuplicateEntry, "")
		}
	}

	createdAt := s.now().UTC()
	public := &models.PublicQueueEntry{
		StudentName:  req.StudentName,
		StudentClass: req.StudentClass,
		Reason:       req.Reason,
		CreatedAt:    createdAt,
	}
	outOfSync := false
	var publicID *string
	if err := s.board.Create(ctx, public); err != nil {
		outOfSync = true
		s.logger.Warn("board write failed, queue entry will be private only",
			zap.String("tenant_id", claims.TenantID),
			zap.String("student_name", req.StudentName),
			zap.Error(err))
	} else {
		publicID = &public.ID
	}

	entry := &models.QueueEntry{
		TenantID:      claims.TenantID,
		StudentName:   req.StudentName,
		StudentClass:  req.StudentClass,
		GuardianName:  req.GuardianName,
		Reason:        req.Reason,
		AddedByUserID: claims.UserID,
		AddedByName:   claims.FullName,
		PublicID:      publicID,
		CreatedAt:     createdAt,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if publicID != nil {
			s.logger.Error("queue write failed after board write, board row is orphaned",
				zap.String("tenant_id", claims.TenantID),
				zap.String("public_id", *publicID),
				zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrOutOfSync.Code, appErrors.ErrOutOfSync.Status, appErrors.ErrOutOfSync.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add queue entry")
	}

	s.publishChange(ctx, notify.KindQueue, claims.TenantID)
	s.emitAudit(ctx, claims, models.AuditActionQueueAdd, "daily_queue", entry.ID)
	return &AddEntryResult{Entry: entry, OutOfSync: outOfSync}, nil
}

// Remove deletes a queue entry from both sinks. Staff may only remove
// their own entries; once the day is confirmed nobody, including
// admins, may remove anything.
func (s *QueueService) Remove(ctx context.Context, claims *models.JWTClaims, id string) (*RemoveEntryResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	entry, err := s.repo.FindByID(ctx, claims.TenantID, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "queue entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load queue entry")
	}

	if !policy.CanDeleteEntry(claims, entry) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you can only remove entries you added yourself")
	}

	confirmed, err := s.ledger.IsConfirmed(ctx, claims.TenantID, models.DayKeyOf(s.now()))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load confirmation state")
	}
	if !policy.CanMutateQueue(confirmed) {
		return nil, appErrors.Clone(appErrors.ErrDayConfirmed, "")
	}

	if err := s.repo.Delete(ctx, claims.TenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "queue entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove queue entry")
	}

	result := &RemoveEntryResult{}
	switch {
	case entry.PublicID != nil:
		if err := s.board.Delete(ctx, *entry.PublicID); err != nil && err != sql.ErrNoRows {
			result.OutOfSync = true
			s.logger.Warn("board delete failed, display row left behind",
				zap.String("tenant_id", claims.TenantID),
				zap.String("public_id", *entry.PublicID),
				zap.Error(err))
		}
	default:
		// Legacy rows without a board link fall back to content matching.
		if _, err := s.board.DeleteByContent(ctx, entry.StudentName, entry.StudentClass, entry.CreatedAt); err != nil {
			result.OutOfSync = true
			s.logger.Warn("board content delete failed, display row left behind",
				zap.String("tenant_id", claims.TenantID),
				zap.String("student_name", entry.StudentName),
				zap.Error(err))
		}
	}

	s.publishChange(ctx, notify.KindQueue, claims.TenantID)
	s.emitAudit(ctx, claims, models.AuditActionQueueRemove, "daily_queue", id)
	return result, nil
}

// ResetToday archives whatever remains on today's queue through the
// ledger, then clears both sinks. Admin only. Entries already archived
// for the day are suppressed by the ledger's dedup rule, so resetting
// after printing archives nothing twice.
func (s *QueueService) ResetToday(ctx context.Context, claims *models.JWTClaims) (*ResetSummary, error) {
	if !policy.CanResetDay(claims) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can reset the day")
	}

	all, err := s.repo.ListByTenant(ctx, claims.TenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list queue")
	}
	now := s.now()
	live := make([]models.QueueEntry, 0, len(all))
	for _, entry := range all {
		if models.SameLocalDay(entry.CreatedAt, now) {
			live = append(live, entry)
		}
	}

	summary := &ResetSummary{}
	if len(live) > 0 {
		result, err := s.ledger.Archive(ctx, claims.TenantID, models.DayKeyOf(now), snapshotOf(live))
		if err != nil {
			return nil, err
		}
		summary.Archived = result.Archived
	}

	cleared, err := s.repo.DeleteAll(ctx, claims.TenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear queue")
	}
	summary.Cleared = int(cleared)

	// Clear only the board rows this tenant's entries put up. Rows other
	// tenants or earlier days own stay on the display.
	s.clearBoardRows(ctx, claims.TenantID, all)

	s.publishChange(ctx, notify.KindQueue, claims.TenantID)
	s.emitAudit(ctx, claims, models.AuditActionQueueReset, "daily_queue", "")
	return summary, nil
}

// clearBoardRows removes the display rows linked to the given private
// entries. Entries without a board link fall back to content matching.
func (s *QueueService) clearBoardRows(ctx context.Context, tenantID string, entries []models.QueueEntry) {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.PublicID != nil && *entry.PublicID != "" {
			ids = append(ids, *entry.PublicID)
			continue
		}
		if _, err := s.board.DeleteByContent(ctx, entry.StudentName, entry.StudentClass, entry.CreatedAt); err != nil {
			s.logger.Warn("board content delete failed during reset",
				zap.String("tenant_id", tenantID),
				zap.String("student_name", entry.StudentName),
				zap.Error(err))
		}
	}
	if len(ids) == 0 {
		return
	}
	if _, err := s.board.DeleteByIDs(ctx, ids); err != nil {
		s.logger.Warn("board clear failed during reset", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}

// snapshotOf freezes live entries into the archive wire format.
func snapshotOf(entries []models.QueueEntry) models.ArchiveEntries {
	snapshot := make(models.ArchiveEntries, 0, len(entries))
	for _, e := range entries {
		snapshot = append(snapshot, models.ArchivedEntry{
			StudentName:  e.StudentName,
			StudentClass: e.StudentClass,
			GuardianName: e.GuardianName,
			Reason:       e.Reason,
			AddedByName:  e.AddedByName,
			QueuedAt:     e.CreatedAt,
		})
	}
	return snapshot
}

func (s *QueueService) publishChange(ctx context.Context, kind notify.EventKind, tenantID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, notify.Event{Kind: kind, TenantID: tenantID, At: s.now()}); err != nil {
		s.logger.Warn("publish change event failed", zap.String("kind", string(kind)), zap.Error(err))
	}
}

func (s *QueueService) emitAudit(ctx context.Context, claims *models.JWTClaims, action, resource, resourceID string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:   &claims.UserID,
		Action:   action,
		Resource: resource,
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
