package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-izin-api/internal/models"
	"github.com/noah-isme/sma-izin-api/internal/notify"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
)

type mockQueueRepo struct {
	entries   []models.QueueEntry
	createErr error
	deleteErr error
}

func (m *mockQueueRepo) ListByTenant(ctx context.Context, tenantID string) ([]models.QueueEntry, error) {
	out := make([]models.QueueEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockQueueRepo) FindByID(ctx context.Context, tenantID, id string) (*models.QueueEntry, error) {
	for _, e := range m.entries {
		if e.TenantID == tenantID && e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockQueueRepo) Create(ctx context.Context, entry *models.QueueEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	if entry.ID == "" {
		entry.ID = "generated"
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockQueueRepo) Delete(ctx context.Context, tenantID, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, e := range m.entries {
		if e.TenantID == tenantID && e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockQueueRepo) DeleteAll(ctx context.Context, tenantID string) (int64, error) {
	kept := m.entries[:0]
	var n int64
	for _, e := range m.entries {
		if e.TenantID == tenantID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return n, nil
}

type mockBoard struct {
	rows       []models.PublicQueueEntry
	createErr  error
	deleteErr  error
	contentDel int
}

func (m *mockBoard) Create(ctx context.Context, entry *models.PublicQueueEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	if entry.ID == "" {
		entry.ID = "board-generated"
	}
	m.rows = append(m.rows, *entry)
	return nil
}

func (m *mockBoard) ListAll(ctx context.Context) ([]models.PublicQueueEntry, error) {
	return m.rows, nil
}

func (m *mockBoard) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for i, r := range m.rows {
		if r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockBoard) DeleteByContent(ctx context.Context, name, class string, createdAt time.Time) (int64, error) {
	m.contentDel++
	for i, r := range m.rows {
		if r.StudentName == name && r.StudentClass == class {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockBoard) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		for i, r := range m.rows {
			if r.ID == id {
				m.rows = append(m.rows[:i], m.rows[i+1:]...)
				n++
				break
			}
		}
	}
	return n, nil
}

type mockLedger struct {
	confirmed  bool
	archiveRes *models.ArchiveResult
	archiveErr error
	snapshots  []models.ArchiveEntries
}

func (m *mockLedger) IsConfirmed(ctx context.Context, tenantID string, day models.DayKey) (bool, error) {
	return m.confirmed, nil
}

func (m *mockLedger) Archive(ctx context.Context, tenantID string, day models.DayKey, snapshot models.ArchiveEntries) (*models.ArchiveResult, error) {
	m.snapshots = append(m.snapshots, snapshot)
	if m.archiveErr != nil {
		return nil, m.archiveErr
	}
	if m.archiveRes != nil {
		return m.archiveRes, nil
	}
	return &models.ArchiveResult{Record: &models.ArchiveRecord{ID: "rec"}, Archived: len(snapshot)}, nil
}

type mockNotifier struct {
	events []notify.Event
}

func (m *mockNotifier) Publish(ctx context.Context, ev notify.Event) error {
	m.events = append(m.events, ev)
	return nil
}

type mockAudit struct {
	logs []models.AuditLog
}

func (m *mockAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", TenantID: "t1", Role: models.RoleAdmin, FullName: "Admin"}
}

func staffClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, TenantID: "t1", Role: models.RoleStaff, FullName: "Staff " + id}
}

func newQueueService(repo *mockQueueRepo, board *mockBoard, ledger *mockLedger) (*QueueService, *mockNotifier, *mockAudit) {
	notifier := &mockNotifier{}
	audit := &mockAudit{}
	svc := NewQueueService(repo, board, ledger, notifier, audit, validator.New(), zap.NewNop())
	return svc, notifier, audit
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestQueueTodayFiltersByLocalDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)
	repo := &mockQueueRepo{entries: []models.QueueEntry{
		{ID: "old", TenantID: "t1", StudentName: "Budi", CreatedAt: yesterday},
		{ID: "fresh", TenantID: "t1", StudentName: "Siti", CreatedAt: now.Add(-time.Hour)},
		{ID: "other-tenant", TenantID: "t2", StudentName: "Andi", CreatedAt: now},
	}}
	svc, _, _ := newQueueService(repo, &mockBoard{}, &mockLedger{})
	svc.WithClock(fixedClock(now))

	today, err := svc.Today(context.Background(), adminClaims())
	require.NoError(t, err)
	require.Len(t, today.Entries, 1)
	assert.Equal(t, "fresh", today.Entries[0].ID)
	assert.Equal(t, models.DayKeyOf(now), today.Date)
	assert.False(t, today.Confirmed)
}

func TestQueueTodayRollsOverAtMidnight(t *testing.T) {
	evening := time.Date(2026, 3, 10, 23, 50, 0, 0, time.Local)
	repo := &mockQueueRepo{entries: []models.QueueEntry{
		{ID: "e1", TenantID: "t1", StudentName: "Budi", CreatedAt: evening},
	}}
	svc, _, _ := newQueueService(repo, &mockBoard{}, &mockLedger{})

	svc.WithClock(fixedClock(evening))
	before, err := svc.Today(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Len(t, before.Entries, 1)

	svc.WithClock(fixedClock(evening.Add(20 * time.Minute)))
	after, err := svc.Today(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Empty(t, after.Entries)
}

func TestQueueAddLinksBoardRow(t *testing.T) {
	repo := &mockQueueRepo{}
	board := &mockBoard{}
	svc, notifier, audit := newQueueService(repo, board, &mockLedger{})

	result, err := svc.Add(context.Background(), staffClaims("s1"), models.AddQueueEntryRequest{
		StudentName:  "Budi Santoso",
		StudentClass: "XII IPA 1",
		Reason:       "Sakit",
	})
	require.NoError(t, err)
	assert.False(t, result.OutOfSync)
	require.NotNil(t, result.Entry.PublicID)
	require.Len(t, board.rows, 1)
	assert.Equal(t, board.rows[0].ID, *result.Entry.PublicID)
	assert.Equal(t, "s1", result.Entry.AddedByUserID)
	assert.Len(t, notifier.events, 1)
	assert.Equal(t, notify.KindQueue, notifier.events[0].Kind)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionQueueAdd, audit.logs[0].Action)
}

func TestQueueAddRejectsDuplicateNameCaseInsensitive(t *testing.T) {
	now := time.Now()
	repo := &mockQueueRepo{entries: []models.QueueEntry{
		{ID: "e1", TenantID: "t1", StudentName: "Budi Santoso", CreatedAt: now},
	}}
	svc, _, _ := newQueueService(repo, &mockBoard{}, &mockLedger{})

	_, err := svc.Add(context.Background(), staffClaims("s1"), models.AddQueueEntryRequest{
		StudentName:  "  budi santoso ",
		StudentClass: "XII IPA 1",
		Reason:       "Izin",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDuplicateEntry.Code, appErr.Code)
}

func TestQueueAddAllowsDuplicateNameAcrossDays(t *testing.T) {
	now := time.Date(2026, 3, 11, 8, 0, 0, 0, time.Local)
	repo := &mockQueueRepo{entries: []models.QueueEntry{
		{ID: "e1", TenantID: "t1", StudentName: "Budi Santoso", CreatedAt: now.AddDate(0, 0, -1)},
	}}
	svc, _, _ := newQueueService(repo, &mockBoard{}, &mockLedger{})
	svc.WithClock(fixedClock(now))

	_, err := svc.Add(context.Background(), staffClaims("s1"), models.AddQueueEntryRequest{
		StudentName:  "Budi Santoso",
		StudentClass: "XII IPA 1",
		Reason:       "Izin",
	})
	require.NoError(t, err)
}

func TestQueueAddAllowedOnConfirmedDay(t *testing.T) {
	svc, _, _ := newQueueService(&mockQueueRepo{}, &mockBoard{}, &mockLedger{confirmed: true})

	_, err := svc.Add(context.Background(), staffClaims("s1"), models.AddQueueEntryRequest{
		StudentName:  "Siti Aminah",
		StudentClass: "XI IPS 2",
		Reason:       "Sakit",
	})
	require.NoError(t, err)
}

func TestQueueAddBoardFailureFlagsOutOfSync(t *testing.T) {
	repo := &mockQueueRepo{}
	board := &mockBoard{createErr: errors.New("connection refused")}
	svc, _, _ := newQueueService(repo, board, &mockLedger{})

	result, err := svc.Add(context.Background(), staffClaims("s1"), models.AddQueueEntryRequest{
		StudentName:  "Budi Santoso",
		StudentClass: "XII IPA 1",
		Reason:       "Sakit",
	})
	require.NoError(t, err)
	assert.True(t, result.OutOfSync)
	assert.Nil(t, result.Entry.PublicID)
	assert.Len(t, repo.entries, 1)
}

func TestQueueRemovePermissionMatrix(t *testing.T) {
	publicID := "b1"
	cases := []struct {
		name    string
		claims  *models.JWTClaims
		allowed bool
	}{
		{"admin removes anyone", adminClaims(), true},
		{"author removes own", staffClaims("s1"), true},
		{"staff cannot remove others", staffClaims("s2"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockQueueRepo{entries: []models.QueueEntry{
				{ID: "e1", TenantID: "t1", StudentName: "Budi", AddedByUserID: "s1", PublicID: &publicID, CreatedAt: time.Now()},
			}}
			board := &mockBoard{rows: []models.PublicQueueEntry{{ID: "b1", StudentName: "Budi"}}}
			svc, _, _ := newQueueService(repo, board, &mockLedger{})

			result, err := svc.Remove(context.Background(), tc.claims, "e1")
			if tc.allowed {
				require.NoError(t, err)
				assert.False(t, result.OutOfSync)
				assert.Empty(t, repo.entries)
				assert.Empty(t, board.rows)
			} else {
				require.Error(t, err)
				var appErr *appErrors.Error
				require.True(t, errors.As(err, &appErr))
				assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
				assert.Len(t, repo.entries, 1)
			}
		})
	}
}

func TestQueueRemoveBlockedOnConfirmedDayEvenForAdmin(t *testing.T) {
	repo := &mockQueueRepo{entries: []models.QueueEntry{
		{ID: "e1", TenantID: "t1", StudentName: "Budi", AddedByUserID: "s1", CreatedAt: time.Now()},
	}}
	svc, _, _ := newQueueService(repo, &mockBoard{}, &mockLedger{confirmed: true})

	_, err := svc.Remove(context.Background(), adminClaims(), "e1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDayConfirmed.Code, appErr.Code)
	assert.Len(t, repo.entries, 1)
}

func TestQueueRemoveMissingEntry(t *testing.T) {
	svc, _, _ := newQueueService(&mockQueueRepo{}, &mockBoard{}, &mockLedger{})

	_, err := svc.Remove(context.Background(), adminClaims(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestQueueRemoveBoardFailureFlagsOutOfSync(t *testing.T) {
	publicID := "b1"
	repo := &mockQueueRepo{entries: []models.QueueEntry{
		{ID: "e1", TenantID: "t1", StudentName: "Budi", AddedByUserID: "s1", PublicID: &publicID, CreatedAt: time.Now()},
	}}
	board := &mockBoard{deleteErr: errors.New("connection refused")}
	svc, _, _ := newQueueService(repo, board, &mockLedger{})

	result, err := svc.Remove(context.Background(), adminClaims(), "e1")
	require.NoError(t, err)
	assert.True(t, result.OutOfSync)
	assert.Empty(t, repo.entries)
}

func TestQueueRemoveLegacyRowFallsBackToContentMatch(t *testing.T) {
	repo := &mockQueueRepo{entries: []models.QueueEntry{
		{ID: "e1", TenantID: "t1", StudentName: "Budi", StudentClass: "XII IPA 1", AddedByUserID: "s1", CreatedAt: time.Now()},
	}}
	board := &mockBoard{rows: []models.PublicQueueEntry{{ID: "b1", StudentName: "Budi", StudentClass: "XII IPA 1"}}}
	svc, _, _ := newQueueService(repo, board, &mockLedger{})

	result, err := svc.Remove(context.Background(), adminClaims(), "e1")
	require.NoError(t, err)
	assert.False(t, result.OutOfSync)
	assert.Equal(t, 1, board.contentDel)
	assert.Empty(t, board.rows)
}

func TestQueueResetArchivesAndClears(t *testing.T) {
	now := time.Now()
	b1, b2 := "b1", "b2"
	repo := &mockQueueRepo{entries: []models.QueueEntry{
		{ID: "e1", TenantID: "t1", StudentName: "Budi", PublicID: &b1, CreatedAt: now},
		{ID: "e2", TenantID: "t1", StudentName: "Siti", PublicID: &b2, CreatedAt: now},
	}}
	board := &mockBoard{rows: []models.PublicQueueEntry{{ID: "b1"}, {ID: "b2"}}}
	ledger := &mockLedger{}
	svc, notifier, audit := newQueueService(repo, board, ledger)

	summary, err := svc.ResetToday(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Archived)
	assert.Equal(t, 2, summary.Cleared)
	assert.Empty(t, repo.entries)
	assert.Empty(t, board.rows)
	require.Len(t, ledger.snapshots, 1)
	assert.Len(t, ledger.snapshots[0], 2)
	assert.NotEmpty(t, notifier.events)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionQueueReset, audit.logs[0].Action)
}

func TestQueueResetLeavesForeignBoardRows(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	mine := "b-mine"
	theirs := "b-theirs"
	repo := &mockQueueRepo{entries: []models.QueueEntry{
		{ID: "e1", TenantID: "t1", StudentName: "Budi", PublicID: &mine, CreatedAt: now},
		{ID: "e2", TenantID: "t2", StudentName: "Andi", PublicID: &theirs, CreatedAt: now},
	}}
	board := &mockBoard{rows: []models.PublicQueueEntry{
		{ID: "b-mine", StudentName: "Budi"},
		{ID: "b-theirs", StudentName: "Andi"},
	}}
	svc, _, _ := newQueueService(repo, board, &mockLedger{})
	svc.WithClock(fixedClock(now))

	_, err := svc.ResetToday(context.Background(), adminClaims())
	require.NoError(t, err)
	require.Len(t, board.rows, 1)
	assert.Equal(t, "b-theirs", board.rows[0].ID)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "e2", repo.entries[0].ID)
}

func TestQueueResetClearsStaleBoardLinks(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	stale := "b-old"
	repo := &mockQueueRepo{entries: []models.QueueEntry{
		{ID: "e-old", TenantID: "t1", StudentName: "Budi", PublicID: &stale, CreatedAt: now.AddDate(0, 0, -1)},
	}}
	board := &mockBoard{rows: []models.PublicQueueEntry{{ID: "b-old", StudentName: "Budi"}}}
	ledger := &mockLedger{}
	svc, _, _ := newQueueService(repo, board, ledger)
	svc.WithClock(fixedClock(now))

	summary, err := svc.ResetToday(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Archived)
	assert.Equal(t, 1, summary.Cleared)
	assert.Empty(t, ledger.snapshots)
	assert.Empty(t, board.rows)
}

func TestQueueResetForbiddenForStaff(t *testing.T) {
	svc, _, _ := newQueueService(&mockQueueRepo{}, &mockBoard{}, &mockLedger{})

	_, err := svc.ResetToday(context.Background(), staffClaims("s1"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestQueueResetEmptyQueueSkipsArchive(t *testing.T) {
	ledger := &mockLedger{}
	svc, _, _ := newQueueService(&mockQueueRepo{}, &mockBoard{}, ledger)

	summary, err := svc.ResetToday(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Archived)
	assert.Equal(t, 0, summary.Cleared)
	assert.Empty(t, ledger.snapshots)
}
