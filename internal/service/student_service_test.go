package service

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-izin-api/internal/models"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
	"github.com/noah-isme/sma-izin-api/pkg/export"
)

type mockStudentRepo struct {
	students   []models.Student
	batchErr   error
	lastFilter models.StudentFilter
}

func (m *mockStudentRepo) List(ctx context.Context, tenantID string, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	return m.students, len(m.students), nil
}

func (m *mockStudentRepo) ListAll(ctx context.Context, tenantID string) ([]models.Student, error) {
	return m.students, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, tenantID, id string) (*models.Student, error) {
	for _, s := range m.students {
		if s.ID == id {
			student := s
			return &student, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByName(ctx context.Context, tenantID, name string) (bool, error) {
	for _, s := range m.students {
		if strings.EqualFold(s.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students = append(m.students, *student)
	return nil
}

func (m *mockStudentRepo) CreateBatch(ctx context.Context, students []models.Student) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	m.students = append(m.students, students...)
	return nil
}

func (m *mockStudentRepo) DeleteAll(ctx context.Context, tenantID string) (int64, error) {
	n := int64(len(m.students))
	m.students = nil
	return n, nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, tenantID, id string) error {
	for i, s := range m.students {
		if s.ID == id {
			m.students = append(m.students[:i], m.students[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func newStudentService(repo *mockStudentRepo) (*StudentService, *mockNotifier) {
	notifier := &mockNotifier{}
	return NewStudentService(repo, nil, notifier, &mockAudit{}, validator.New(), zap.NewNop()), notifier
}

func rosterFile(t *testing.T, rows []export.RosterRow) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetRow(sheet, "A1", &[]string{"Nama Siswa", "Kelas", "Orang Tua/Wali", "No. HP Wali"})
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		_ = f.SetSheetRow(sheet, cell, &[]string{row.Name, row.Class, row.GuardianName, row.GuardianPhone})
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return bytes.NewReader(buf.Bytes())
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc, notifier := newStudentService(repo)

	student, err := svc.Create(context.Background(), adminClaims(), models.CreateStudentRequest{
		Name:  "Budi Santoso",
		Class: "XII IPA 1",
	})
	require.NoError(t, err)
	assert.Equal(t, "t1", student.TenantID)
	assert.Len(t, repo.students, 1)
	assert.Len(t, notifier.events, 1)
}

func TestStudentServiceMutationsForbiddenForStaff(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{{ID: "s1", TenantID: "t1", Name: "Budi Santoso"}}}
	svc, _ := newStudentService(repo)
	staff := staffClaims("s1")

	_, err := svc.Create(context.Background(), staff, models.CreateStudentRequest{Name: "Citra Dewi", Class: "XI IPS 2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), staff, "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Import(context.Background(), staff, rosterFile(t, nil))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	assert.Len(t, repo.students, 1)
}

func TestStudentServiceCreateDuplicateName(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{{ID: "s1", TenantID: "t1", Name: "Budi Santoso"}}}
	svc, _ := newStudentService(repo)

	_, err := svc.Create(context.Background(), adminClaims(), models.CreateStudentRequest{
		Name:  "BUDI santoso",
		Class: "XII IPA 1",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestStudentServiceDeleteMissing(t *testing.T) {
	svc, _ := newStudentService(&mockStudentRepo{})

	err := svc.Delete(context.Background(), adminClaims(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudentServiceImportSkipsDuplicates(t *testing.T) {
	repo := &mockStudentRepo{students: []models.Student{
		{ID: "s1", TenantID: "t1", Name: "Budi Santoso", Class: "XII IPA 1"},
	}}
	svc, _ := newStudentService(repo)

	file := rosterFile(t, []export.RosterRow{
		{Name: "budi santoso", Class: "XII IPA 1"},
		{Name: "Siti Aminah", Class: "XI IPS 2"},
		{Name: "Siti Aminah", Class: "XI IPS 2"},
		{Name: "Andi Wijaya", Class: "X MIPA 3"},
	})

	summary, err := svc.Import(context.Background(), adminClaims(), file)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 2, summary.Skipped)
	assert.ElementsMatch(t, []string{"budi santoso", "Siti Aminah"}, summary.SkippedNames)
	assert.Len(t, repo.students, 3)
}

func TestStudentServiceImportEmptyFile(t *testing.T) {
	svc, _ := newStudentService(&mockStudentRepo{})

	file := rosterFile(t, nil)
	_, err := svc.Import(context.Background(), adminClaims(), file)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentServiceImportForbiddenWithoutClaims(t *testing.T) {
	svc, _ := newStudentService(&mockStudentRepo{})

	_, err := svc.Import(context.Background(), nil, bytes.NewReader(nil))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestStudentServiceTemplate(t *testing.T) {
	svc, _ := newStudentService(&mockStudentRepo{})

	data, err := svc.Template()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
