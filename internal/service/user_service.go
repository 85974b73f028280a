package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"rosterhub/internal/models"
	appErrors "rosterhub/pkg/errors"
)

type userAdminRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpsertProfile(ctx context.Context, profile *models.Profile) error
	ListAccounts(ctx context.Context) ([]models.UserAccount, error)
	Delete(ctx context.Context, id string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateUserRequest is the admin payload for registering an account.
// Office applies only when the role is Reader.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=Admin Editor Reader"`
	Office   string `json:"office"`
}

// UpdateRoleRequest changes the role (and Reader office) of an account.
type UpdateRoleRequest struct {
	Role   string `json:"role" validate:"required,oneof=Admin Editor Reader"`
	Office string `json:"office"`
}

// UserService implements admin account management. Every entry point
// requires the manage-users permission, which only admins hold.
type UserService struct {
	users     userAdminRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(users userAdminRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, validator: validate, logger: logger}
}

// List returns all accounts joined with their profiles.
func (s *UserService) List(ctx context.Context, actor Actor) ([]models.UserAccount, error) {
	if !models.Can(actor.Role, models.ActionManageUsers) {
		return nil, appErrors.ErrForbidden
	}
	accounts, err := s.users.ListAccounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list user accounts")
	}
	return accounts, nil
}

// Create registers a new account with its role profile.
func (s *UserService) Create(ctx context.Context, actor Actor, req CreateUserRequest) (*models.UserAccount, error) {
	if !models.Can(actor.Role, models.ActionManageUsers) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	role := models.UserRole(req.Role)
	office, err := profileOffice(role, req.Office)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to create user")
	}
	if err := s.users.UpsertProfile(ctx, &models.Profile{UserID: user.ID, Role: role, Office: office}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to assign role")
	}

	s.audit(ctx, actor.UserID, user.ID, []byte(`{"action":"created","role":"`+string(role)+`"}`))
	return &models.UserAccount{
		ID:        user.ID,
		Email:     user.Email,
		Active:    user.Active,
		Role:      &role,
		Office:    office,
		CreatedAt: user.CreatedAt,
	}, nil
}

// UpdateRole changes the role and Reader office of an existing account.
func (s *UserService) UpdateRole(ctx context.Context, actor Actor, userID string, req UpdateRoleRequest) error {
	if !models.Can(actor.Role, models.ActionManageUsers) {
		return appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid role payload")
	}
	role := models.UserRole(req.Role)
	office, err := profileOffice(role, req.Office)
	if err != nil {
		return err
	}
	if err := s.users.UpsertProfile(ctx, &models.Profile{UserID: userID, Role: role, Office: office}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update role")
	}
	s.audit(ctx, actor.UserID, userID, []byte(`{"action":"role_changed","role":"`+string(role)+`"}`))
	return nil
}

// Delete removes an account. Admins cannot delete their own account;
// that guarantees at least one admin always remains reachable.
func (s *UserService) Delete(ctx context.Context, actor Actor, userID string) error {
	if !models.Can(actor.Role, models.ActionManageUsers) {
		return appErrors.ErrForbidden
	}
	if userID == actor.UserID {
		return appErrors.Clone(appErrors.ErrValidation, "you cannot delete your own account")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to delete user")
	}
	s.audit(ctx, actor.UserID, userID, []byte(`{"action":"deleted"}`))
	return nil
}

func (s *UserService) audit(ctx context.Context, actorID, targetID string, newValues []byte) {
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserAdmin,
		Resource:   "users",
		ResourceID: &targetID,
		NewValues:  newValues,
	}); err != nil {
		s.logger.Warn("failed to write audit log", zap.String("resource_id", targetID), zap.Error(err))
	}
}

func profileOffice(role models.UserRole, raw string) (*models.Office, error) {
	if role != models.RoleReader {
		// Only Readers carry an office assignment.
		return nil, nil
	}
	if raw == "" {
		return nil, nil
	}
	office := models.Office(raw)
	if !models.ValidOffice(office) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown office")
	}
	return &office, nil
}
