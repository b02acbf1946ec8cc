package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-izin-api/internal/models"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
)

func newDataService(students *mockStudentRepo, queue *mockQueueRepo, board *mockBoard, history *mockHistoryRepo, users *mockUserRepo) *DataService {
	return NewDataService(students, queue, board, history, users, &mockNotifier{}, &mockAudit{}, zap.NewNop())
}

func TestDataExportIncludesAllStores(t *testing.T) {
	now := time.Now()
	students := &mockStudentRepo{students: []models.Student{{ID: "s1", TenantID: "t1", Name: "Budi"}}}
	queue := &mockQueueRepo{entries: []models.QueueEntry{{ID: "e1", TenantID: "t1", StudentName: "Budi", CreatedAt: now}}}
	history := &mockHistoryRepo{records: map[models.DayKey]*models.ArchiveRecord{
		"2026-03-09": {ID: "rec", TenantID: "t1", DateKey: "2026-03-09"},
	}}
	users := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", TenantID: "t1", Email: "admin@sekolah.sch.id", Role: models.RoleAdmin},
	}}
	svc := newDataService(students, queue, &mockBoard{}, history, users)

	export, err := svc.Export(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Len(t, export.Students, 1)
	assert.Len(t, export.Queue, 1)
	assert.Len(t, export.History, 1)
	require.Len(t, export.Users, 1)
	assert.Equal(t, "admin@sekolah.sch.id", export.Users[0].Email)
	assert.False(t, export.ExportedAt.IsZero())
}

func TestDataExportStaffOmitsUsers(t *testing.T) {
	users := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", TenantID: "t1", Email: "admin@sekolah.sch.id"},
	}}
	svc := newDataService(&mockStudentRepo{}, &mockQueueRepo{}, &mockBoard{}, &mockHistoryRepo{}, users)

	export, err := svc.Export(context.Background(), staffClaims("s1"))
	require.NoError(t, err)
	assert.Empty(t, export.Users)
}

func TestDataWipeClearsEverything(t *testing.T) {
	now := time.Now()
	b1 := "b1"
	students := &mockStudentRepo{students: []models.Student{{ID: "s1", TenantID: "t1"}}}
	queue := &mockQueueRepo{entries: []models.QueueEntry{{ID: "e1", TenantID: "t1", PublicID: &b1, CreatedAt: now}}}
	board := &mockBoard{rows: []models.PublicQueueEntry{{ID: "b1"}}}
	history := &mockHistoryRepo{records: map[models.DayKey]*models.ArchiveRecord{
		"2026-03-09": {ID: "rec", TenantID: "t1"},
	}}
	svc := newDataService(students, queue, board, history, &mockUserRepo{})

	summary, err := svc.Wipe(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Students)
	assert.Equal(t, int64(1), summary.Queue)
	assert.Equal(t, int64(1), summary.Board)
	assert.Empty(t, queue.entries)
	assert.Empty(t, board.rows)
}

func TestDataWipeLeavesOtherTenantsBoardRows(t *testing.T) {
	now := time.Now()
	mine, theirA, theirB := "b-mine", "b-a", "b-b"
	queue := &mockQueueRepo{entries: []models.QueueEntry{
		{ID: "e1", TenantID: "t1", PublicID: &mine, CreatedAt: now},
		{ID: "e2", TenantID: "t2", PublicID: &theirA, CreatedAt: now},
		{ID: "e3", TenantID: "t3", PublicID: &theirB, CreatedAt: now},
	}}
	board := &mockBoard{rows: []models.PublicQueueEntry{
		{ID: "b-mine"}, {ID: "b-a"}, {ID: "b-b"},
	}}
	svc := newDataService(&mockStudentRepo{}, queue, board, &mockHistoryRepo{}, &mockUserRepo{})

	summary, err := svc.Wipe(context.Background(), adminClaims())
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Board)
	require.Len(t, board.rows, 2)
	assert.ElementsMatch(t, []string{"b-a", "b-b"}, []string{board.rows[0].ID, board.rows[1].ID})
	require.Len(t, queue.entries, 2)
}

func TestDataWipeForbiddenForStaff(t *testing.T) {
	svc := newDataService(&mockStudentRepo{}, &mockQueueRepo{}, &mockBoard{}, &mockHistoryRepo{}, &mockUserRepo{})

	_, err := svc.Wipe(context.Background(), staffClaims("s1"))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
