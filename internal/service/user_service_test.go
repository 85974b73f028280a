package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"rosterhub/internal/models"
)

type mockUserAdminRepo struct {
	users    map[string]models.User
	profiles map[string]models.Profile
	audits   []models.AuditLog
}

func (m *mockUserAdminRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserAdminRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	m.users[user.ID] = *user
	return nil
}

func (m *mockUserAdminRepo) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	if m.profiles == nil {
		m.profiles = make(map[string]models.Profile)
	}
	m.profiles[profile.UserID] = *profile
	return nil
}

func (m *mockUserAdminRepo) ListAccounts(ctx context.Context) ([]models.UserAccount, error) {
	accounts := make([]models.UserAccount, 0, len(m.users))
	for _, u := range m.users {
		account := models.UserAccount{ID: u.ID, Email: u.Email, Active: u.Active}
		if p, ok := m.profiles[u.ID]; ok {
			role := p.Role
			account.Role = &role
			account.Office = p.Office
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (m *mockUserAdminRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	delete(m.profiles, id)
	return nil
}

func (m *mockUserAdminRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.audits = append(m.audits, *log)
	return nil
}

func newUserService(repo *mockUserAdminRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestUserServiceCreateReaderWithOffice(t *testing.T) {
	repo := &mockUserAdminRepo{}
	svc := newUserService(repo)
	admin := Actor{UserID: "admin1", Role: models.RoleAdmin}

	account, err := svc.Create(context.Background(), admin, CreateUserRequest{
		Email:    "Reader@Example.com",
		Password: "s3cret-pass",
		Role:     "Reader",
		Office:   "Girona",
	})
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", account.Email)
	require.NotNil(t, account.Role)
	assert.Equal(t, models.RoleReader, *account.Role)
	require.NotNil(t, account.Office)
	assert.Equal(t, models.Office("Girona"), *account.Office)

	stored := repo.users[account.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))
	assert.Len(t, repo.audits, 1)
}

func TestUserServiceCreateEditorIgnoresOffice(t *testing.T) {
	repo := &mockUserAdminRepo{}
	svc := newUserService(repo)
	admin := Actor{UserID: "admin1", Role: models.RoleAdmin}

	account, err := svc.Create(context.Background(), admin, CreateUserRequest{
		Email:    "editor@example.com",
		Password: "s3cret-pass",
		Role:     "Editor",
		Office:   "Girona",
	})
	require.NoError(t, err)
	assert.Nil(t, account.Office)
}

func TestUserServiceCreateForbiddenForEditor(t *testing.T) {
	svc := newUserService(&mockUserAdminRepo{})
	editor := Actor{UserID: "u1", Role: models.RoleEditor}

	_, err := svc.Create(context.Background(), editor, CreateUserRequest{
		Email:    "x@example.com",
		Password: "s3cret-pass",
		Role:     "Reader",
	})
	require.Error(t, err)
}

func TestUserServiceCreateShortPassword(t *testing.T) {
	repo := &mockUserAdminRepo{}
	svc := newUserService(repo)
	admin := Actor{UserID: "admin1", Role: models.RoleAdmin}

	_, err := svc.Create(context.Background(), admin, CreateUserRequest{
		Email:    "x@example.com",
		Password: "short",
		Role:     "Reader",
	})
	require.Error(t, err)
	assert.Empty(t, repo.users)
}

func TestUserServiceDeleteOwnAccount(t *testing.T) {
	repo := &mockUserAdminRepo{users: map[string]models.User{
		"admin1": {ID: "admin1", Email: "admin@example.com", Active: true},
	}}
	svc := newUserService(repo)
	admin := Actor{UserID: "admin1", Role: models.RoleAdmin}

	err := svc.Delete(context.Background(), admin, "admin1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "your own account")
	assert.Contains(t, repo.users, "admin1")
}

func TestUserServiceDelete(t *testing.T) {
	repo := &mockUserAdminRepo{users: map[string]models.User{
		"admin1": {ID: "admin1", Email: "admin@example.com", Active: true},
		"u2":     {ID: "u2", Email: "other@example.com", Active: true},
	}}
	svc := newUserService(repo)
	admin := Actor{UserID: "admin1", Role: models.RoleAdmin}

	require.NoError(t, svc.Delete(context.Background(), admin, "u2"))
	assert.NotContains(t, repo.users, "u2")
	assert.Len(t, repo.audits, 1)
}

func TestUserServiceUpdateRole(t *testing.T) {
	repo := &mockUserAdminRepo{users: map[string]models.User{
		"u2": {ID: "u2", Email: "other@example.com", Active: true},
	}}
	svc := newUserService(repo)
	admin := Actor{UserID: "admin1", Role: models.RoleAdmin}

	err := svc.UpdateRole(context.Background(), admin, "u2", UpdateRoleRequest{Role: "Reader", Office: "Manresa"})
	require.NoError(t, err)
	profile := repo.profiles["u2"]
	assert.Equal(t, models.RoleReader, profile.Role)
	require.NotNil(t, profile.Office)
	assert.Equal(t, models.Office("Manresa"), *profile.Office)
}
