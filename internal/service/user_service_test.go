package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-izin-api/internal/models"
	appErrors "github.com/noah-isme/sma-izin-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	auditLogs []*models.AuditLog
}

func (m *mockUserRepo) List(ctx context.Context, tenantID string, filter models.UserFilter) ([]models.User, int, error) {
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]*models.User)
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func TestUserServiceCreateStaffInAdminTenant(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	user, err := svc.Create(context.Background(), adminClaims(), models.CreateUserRequest{
		Email:    "Guru@Sekolah.sch.id",
		Password: "rahasia1",
		FullName: "Pak Guru",
		Role:     models.RoleStaff,
	}, models.LoginRequest{})
	require.NoError(t, err)
	assert.Equal(t, "t1", user.TenantID)
	assert.Equal(t, "guru@sekolah.sch.id", user.Email)
	assert.True(t, user.Active)
	assert.NotEqual(t, "rahasia1", user.PasswordHash)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserCreate, repo.auditLogs[0].Action)
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", TenantID: "t1", Email: "guru@sekolah.sch.id"},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), adminClaims(), models.CreateUserRequest{
		Email:    "GURU@sekolah.sch.id",
		Password: "rahasia1",
		FullName: "Pak Guru",
		Role:     models.RoleStaff,
	}, models.LoginRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrEmailInUse.Code, appErr.Code)
}

func TestUserServiceCreateForbiddenForStaff(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), staffClaims("s1"), models.CreateUserRequest{
		Email:    "guru@sekolah.sch.id",
		Password: "rahasia1",
		FullName: "Pak Guru",
		Role:     models.RoleStaff,
	}, models.LoginRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestUserServiceDeactivate(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u2": {ID: "u2", TenantID: "t1", Email: "staf@sekolah.sch.id", Active: true},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.Deactivate(context.Background(), adminClaims(), "u2", models.LoginRequest{})
	require.NoError(t, err)
	assert.False(t, repo.users["u2"].Active)
}

func TestUserServiceDeactivateSelfRejected(t *testing.T) {
	claims := adminClaims()
	repo := &mockUserRepo{users: map[string]*models.User{
		claims.UserID: {ID: claims.UserID, TenantID: "t1", Active: true},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.Deactivate(context.Background(), claims, claims.UserID, models.LoginRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.True(t, repo.users[claims.UserID].Active)
}

func TestUserServiceDeactivateOtherTenantHidden(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u9": {ID: "u9", TenantID: "t2", Active: true},
	}}
	svc := NewUserService(repo, validator.New(), zap.NewNop())

	err := svc.Deactivate(context.Background(), adminClaims(), "u9", models.LoginRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
