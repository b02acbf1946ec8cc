package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-izin-api/internal/models"
	"github.com/noah-isme/sma-izin-api/internal/notify"
	"github.com/noah-isme/sma-izin-api/internal/policy"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
)

type studentStore interface {
	ListAll(ctx context.Context, tenantID string) ([]models.Student, error)
	DeleteAll(ctx context.Context, tenantID string) (int64, error)
}

type queueStore interface {
	ListByTenant(ctx context.Context, tenantID string) ([]models.QueueEntry, error)
	DeleteAll(ctx context.Context, tenantID string) (int64, error)
}

type boardStore interface {
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type historyStore interface {
	ListRange(ctx context.Context, tenantID string, filter models.HistoryFilter) ([]models.ArchiveRecord, error)
	DeleteAll(ctx context.Context, tenantID string) (int64, error)
}

type userLister interface {
	List(ctx context.Context, tenantID string, filter models.UserFilter) ([]models.User, int, error)
}

// WipeSummary reports how many rows each store lost.
type WipeSummary struct {
	Students int64 `json:"students"`
	Queue    int64 `json:"queue"`
	Board    int64 `json:"board"`
	History  int64 `json:"history"`
}

// DataService backs the tenant-wide JSON export and the admin data
// wipe. The wipe clears roster, both queue sinks and the archive
// ledger but never touches user accounts or audit logs.
type DataService struct {
	students studentStore
	queue    queueStore
	board    boardStore
	history  historyStore
	users    userLister
	notifier changeNotifier
	audit    auditWriter
	logger   *zap.Logger
	now      func() time.Time
}

// NewDataService constructs the data service.
func NewDataService(students studentStore, queue queueStore, board boardStore, history historyStore, users userLister, notifier changeNotifier, audit auditWriter, logger *zap.Logger) *DataService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DataService{
		students: students,
		queue:    queue,
		board:    board,
		history:  history,
		users:    users,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock for tests.
func (s *DataService) WithClock(now func() time.Time) *DataService {
	if now != nil {
		s.now = now
	}
	return s
}

// Export assembles a portable JSON snapshot of the tenant's data.
// Passwords and refresh tokens are never included.
func (s *DataService) Export(ctx context.Context, claims *models.JWTClaims) (*models.DataExport, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	students, err := s.students.ListAll(ctx, claims.TenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export students")
	}
	queue, err := s.queue.ListByTenant(ctx, claims.TenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export queue")
	}
	history, err := s.history.ListRange(ctx, claims.TenantID, models.HistoryFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export history")
	}

	export := &models.DataExport{
		ExportedAt: s.now().UTC(),
		Students:   students,
		Queue:      queue,
		History:    history,
	}

	if policy.CanManageEmployees(claims) {
		accounts, _, err := s.users.List(ctx, claims.TenantID, models.UserFilter{PageSize: 500})
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export users")
		}
		for _, u := range accounts {
			export.Users = append(export.Users, models.UserInfo{
				ID:       u.ID,
				Email:    u.Email,
				FullName: u.FullName,
				Role:     u.Role,
			})
		}
	}

	return export, nil
}

// Wipe erases the tenant's roster, queue sinks and archive ledger.
// Admin only; irreversible.
func (s *DataService) Wipe(ctx context.Context, claims *models.JWTClaims) (*WipeSummary, error) {
	if !policy.CanWipeData(claims) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only an administrator can erase data")
	}

	// The board carries no tenant column, so collect the board rows this
	// tenant's queue entries point at before the queue goes away.
	entries, err := s.queue.ListByTenant(ctx, claims.TenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to wipe queue")
	}
	boardIDs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.PublicID != nil && *entry.PublicID != "" {
			boardIDs = append(boardIDs, *entry.PublicID)
		}
	}

	summary := &WipeSummary{}

	if summary.Students, err = s.students.DeleteAll(ctx, claims.TenantID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to wipe students")
	}
	if summary.Queue, err = s.queue.DeleteAll(ctx, claims.TenantID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to wipe queue")
	}
	if summary.Board, err = s.board.DeleteByIDs(ctx, boardIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to wipe public board")
	}
	if summary.History, err = s.history.DeleteAll(ctx, claims.TenantID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to wipe history")
	}

	if s.notifier != nil {
		if err := s.notifier.Publish(ctx, notify.Event{Kind: notify.KindQueue, TenantID: claims.TenantID, At: s.now()}); err != nil {
			s.logger.Warn("failed to publish wipe notification", zap.Error(err))
		}
	}

	payload, _ := json.Marshal(summary)
	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:    &claims.UserID,
			Action:    models.AuditActionDataWipe,
			Resource:  "data",
			NewValues: payload,
		}); err != nil {
			s.logger.Warn("failed to record data wipe audit log", zap.Error(err))
		}
	}

	s.logger.Info("tenant data wiped",
		zap.String("tenant_id", claims.TenantID),
		zap.Int64("students", summary.Students),
		zap.Int64("queue", summary.Queue),
		zap.Int64("history", summary.History),
	)

	return summary, nil
}
