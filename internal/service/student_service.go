package service

import (
	"context"
	"database/sql"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-izin-api/internal/models"
	"github.com/noah-isme/sma-izin-api/internal/notify"
	"github.com/noah-isme/sma-izin-api/internal/policy"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
	"github.com/noah-isme/sma-izin-api/pkg/export"
)

type studentRepository interface {
	List(ctx context.Context, tenantID string, filter models.StudentFilter) ([]models.Student, int, error)
	ListAll(ctx context.Context, tenantID string) ([]models.Student, error)
	FindByID(ctx context.Context, tenantID, id string) (*models.Student, error)
	ExistsByName(ctx context.Context, tenantID, name string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	CreateBatch(ctx context.Context, students []models.Student) error
	Delete(ctx context.Context, tenantID, id string) error
}

type rosterCodec interface {
	Template() ([]byte, error)
	Parse(r io.Reader) ([]export.RosterRow, error)
}

// StudentService handles roster use-cases: search for the add-to-queue
// autocomplete, registration with the duplicate-name guard, and bulk
// XLSX import.
type StudentService struct {
	repo      studentRepository
	codec     rosterCodec
	notifier  changeNotifier
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the roster service.
func NewStudentService(repo studentRepository, codec rosterCodec, notifier changeNotifier, audit auditWriter, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if codec == nil {
		codec = export.NewXLSXRosterCodec()
	}
	return &StudentService{repo: repo, codec: codec, notifier: notifier, audit: audit, validator: validate, logger: logger}
}

// List returns roster students and pagination metadata.
func (s *StudentService) List(ctx context.Context, claims *models.JWTClaims, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	students, total, err := s.repo.List(ctx, claims.TenantID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Create registers a single student, rejecting case-variant duplicates.
func (s *StudentService) Create(ctx context.Context, claims *models.JWTClaims, req models.CreateStudentRequest) (*models.Student, error) {
	if !policy.CanManageRoster(claims) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to manage the roster")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByName(ctx, claims.TenantID, req.Name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a student with this name is already registered")
	}
	student := &models.Student{
		TenantID:      claims.TenantID,
		Name:          strings.TrimSpace(req.Name),
		Class:         strings.TrimSpace(req.Class),
		GuardianName:  strings.TrimSpace(req.GuardianName),
		GuardianPhone: strings.TrimSpace(req.GuardianPhone),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.publishChange(ctx, claims.TenantID)
	return student, nil
}

// Delete removes a roster student.
func (s *StudentService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if !policy.CanManageRoster(claims) {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to manage the roster")
	}
	if err := s.repo.Delete(ctx, claims.TenantID, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	s.publishChange(ctx, claims.TenantID)
	return nil
}

// Template returns the XLSX upload template.
func (s *StudentService) Template() ([]byte, error) {
	data, err := s.codec.Template()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build roster template")
	}
	return data, nil
}

// Import bulk-registers students from an XLSX upload. Rows whose name
// already exists (case-insensitive, in the roster or earlier in the
// same file) are skipped and counted; accepted rows land atomically.
func (s *StudentService) Import(ctx context.Context, claims *models.JWTClaims, r io.Reader) (*models.RosterImportSummary, error) {
	if !policy.CanManageRoster(claims) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to manage the roster")
	}
	rows, err := s.codec.Parse(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid roster file")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roster file contains no rows")
	}

	existing, err := s.repo.ListAll(ctx, claims.TenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	seen := make(map[string]struct{}, len(existing))
	for _, student := range existing {
		seen[strings.ToLower(strings.TrimSpace(student.Name))] = struct{}{}
	}

	summary := &models.RosterImportSummary{}
	batch := make([]models.Student, 0, len(rows))
	for _, row := range rows {
		key := strings.ToLower(strings.TrimSpace(row.Name))
		if _, dup := seen[key]; dup {
			summary.Skipped++
			summary.SkippedNames = append(summary.SkippedNames, row.Name)
			continue
		}
		seen[key] = struct{}{}
		batch = append(batch, models.Student{
			TenantID:      claims.TenantID,
			Name:          row.Name,
			Class:         row.Class,
			GuardianName:  row.GuardianName,
			GuardianPhone: row.GuardianPhone,
		})
	}

	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import students")
	}
	summary.Imported = len(batch)

	s.publishChange(ctx, claims.TenantID)
	s.emitAudit(ctx, claims, models.AuditActionRosterImport)
	return summary, nil
}

func (s *StudentService) publishChange(ctx context.Context, tenantID string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, notify.Event{Kind: notify.KindRoster, TenantID: tenantID}); err != nil {
		s.logger.Warn("publish roster event failed", zap.Error(err))
	}
}

func (s *StudentService) emitAudit(ctx context.Context, claims *models.JWTClaims, action string) {
	if s.audit == nil {
		return
	}
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{UserID: &claims.UserID, Action: action, Resource: "students"}); err != nil {
		s.logger.Warn("audit log write failed", zap.String("action", action), zap.Error(err))
	}
}
