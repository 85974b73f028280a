package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"rosterhub/internal/models"
	"rosterhub/internal/repository"
	appErrors "rosterhub/pkg/errors"
)

type courierRepository interface {
	ListActive(ctx context.Context, filter models.RosterFilter) ([]models.Courier, error)
	FindByID(ctx context.Context, id string) (*models.Courier, error)
	Create(ctx context.Context, courier *models.Courier) error
	Update(ctx context.Context, id string, fields repository.CourierUpdate) error
	Deactivate(ctx context.Context, id string, on time.Time) error
}

type officeStaffRepository interface {
	ListActive(ctx context.Context, filter models.RosterFilter) ([]models.OfficeStaff, error)
	FindByID(ctx context.Context, id string) (*models.OfficeStaff, error)
	Create(ctx context.Context, staff *models.OfficeStaff) error
	Update(ctx context.Context, id string, fields repository.OfficeStaffUpdate) error
	Deactivate(ctx context.Context, id string, on time.Time) error
}

// Actor is the authenticated identity performing an operation.
type Actor struct {
	UserID string
	Role   models.UserRole
	Office *models.Office
}

// ActorFromClaims builds an Actor from JWT claims.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	return Actor{UserID: claims.UserID, Role: claims.Role, Office: claims.Office}
}

// CreateCourierRequest is the payload for adding a courier.
type CreateCourierRequest struct {
	FullName         string `json:"full_name" validate:"required"`
	Office           string `json:"office" validate:"required"`
	Route            string `json:"route"`
	ProfileType      string `json:"profile_type" validate:"omitempty,oneof=Self-employed Employee Insured-Fixed External-contractor Other"`
	CompanyVehicle   string `json:"company_vehicle" validate:"omitempty,oneof=Yes No"`
	VehicleLettering string `json:"vehicle_lettering" validate:"omitempty,oneof=Yes No Pending"`
	Notes            string `json:"notes"`
	MobilePhone      string `json:"mobile_phone"`
}

// UpdateCourierRequest is the partial-update payload for a courier.
// Absent fields are left untouched; status and office cannot be changed.
type UpdateCourierRequest struct {
	FullName         *string `json:"full_name" validate:"omitempty,min=1"`
	Route            *string `json:"route"`
	ProfileType      *string `json:"profile_type" validate:"omitempty,oneof=Self-employed Employee Insured-Fixed External-contractor Other"`
	CompanyVehicle   *string `json:"company_vehicle" validate:"omitempty,oneof=Yes No"`
	VehicleLettering *string `json:"vehicle_lettering" validate:"omitempty,oneof=Yes No Pending"`
	Notes            *string `json:"notes"`
	MobilePhone      *string `json:"mobile_phone"`
}

// CreateOfficeStaffRequest is the payload for adding office staff.
type CreateOfficeStaffRequest struct {
	FullName          string `json:"full_name" validate:"required"`
	Office            string `json:"office" validate:"required"`
	Position          string `json:"position"`
	OfficePhone       string `json:"office_phone"`
	MobilePhone       string `json:"mobile_phone"`
	Email             string `json:"email" validate:"omitempty,email"`
	InternalExtension string `json:"internal_extension"`
}

// UpdateOfficeStaffRequest is the partial-update payload for office staff.
type UpdateOfficeStaffRequest struct {
	FullName          *string `json:"full_name" validate:"omitempty,min=1"`
	Position          *string `json:"position"`
	OfficePhone       *string `json:"office_phone"`
	MobilePhone       *string `json:"mobile_phone"`
	Email             *string `json:"email" validate:"omitempty,email"`
	InternalExtension *string `json:"internal_extension"`
}

// RosterService is the gateway to the personnel record store. Every
// mutating entry point re-checks the permission policy even though the
// router already gates routes by role.
type RosterService struct {
	couriers  courierRepository
	staff     officeStaffRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRosterService constructs a RosterService.
func NewRosterService(couriers courierRepository, staff officeStaffRepository, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{couriers: couriers, staff: staff, validator: validate, logger: logger, now: time.Now}
}

// resolveOffice applies the Reader pinning rule: Readers always see
// their assigned office and nothing else; a Reader without an office has
// no visible records anywhere.
func (s *RosterService) resolveOffice(actor Actor, requested string) (models.Office, error) {
	if !models.Can(actor.Role, models.ActionView) {
		return "", appErrors.ErrForbidden
	}
	if actor.Role == models.RoleReader {
		if actor.Office == nil {
			return "", appErrors.Clone(appErrors.ErrForbidden, "no office assigned")
		}
		return *actor.Office, nil
	}
	office := models.Office(requested)
	if !models.ValidOffice(office) {
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown office")
	}
	return office, nil
}

// ListCouriers returns active couriers in the resolved office, sorted by name.
func (s *RosterService) ListCouriers(ctx context.Context, actor Actor, office, search string) ([]models.Courier, error) {
	resolved, err := s.resolveOffice(actor, office)
	if err != nil {
		return nil, err
	}
	couriers, err := s.couriers.ListActive(ctx, models.RosterFilter{Office: resolved, Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list couriers")
	}
	return couriers, nil
}

// ListOfficeStaff returns active office staff in the resolved office.
func (s *RosterService) ListOfficeStaff(ctx context.Context, actor Actor, office, search string) ([]models.OfficeStaff, error) {
	resolved, err := s.resolveOffice(actor, office)
	if err != nil {
		return nil, err
	}
	staff, err := s.staff.ListActive(ctx, models.RosterFilter{Office: resolved, Search: strings.TrimSpace(search)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list office staff")
	}
	return staff, nil
}

// GetCourier returns one courier by id.
func (s *RosterService) GetCourier(ctx context.Context, actor Actor, id string) (*models.Courier, error) {
	if !models.Can(actor.Role, models.ActionView) {
		return nil, appErrors.ErrForbidden
	}
	courier, err := s.couriers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "courier not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load courier")
	}
	if actor.Role == models.RoleReader && (actor.Office == nil || *actor.Office != courier.Office) {
		return nil, appErrors.ErrForbidden
	}
	return courier, nil
}

// GetOfficeStaff returns one office staff record by id.
func (s *RosterService) GetOfficeStaff(ctx context.Context, actor Actor, id string) (*models.OfficeStaff, error) {
	if !models.Can(actor.Role, models.ActionView) {
		return nil, appErrors.ErrForbidden
	}
	staff, err := s.staff.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "office staff not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load office staff")
	}
	if actor.Role == models.RoleReader && (actor.Office == nil || *actor.Office != staff.Office) {
		return nil, appErrors.ErrForbidden
	}
	return staff, nil
}

// CreateCourier registers a new active courier. Validation failures never
// reach the store.
func (s *RosterService) CreateCourier(ctx context.Context, actor Actor, req CreateCourierRequest) (*models.Courier, error) {
	if !models.Can(actor.Role, models.ActionCreate) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid courier payload")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "full name is required")
	}
	office := models.Office(req.Office)
	if !models.ValidOffice(office) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown office")
	}

	courier := &models.Courier{
		FullName:         strings.TrimSpace(req.FullName),
		Office:           office,
		Route:            req.Route,
		ProfileType:      models.CourierProfile(defaultString(req.ProfileType, string(models.ProfileOther))),
		CompanyVehicle:   defaultString(req.CompanyVehicle, "No"),
		VehicleLettering: models.LetteringStatus(defaultString(req.VehicleLettering, string(models.LetteringNone))),
		Notes:            req.Notes,
		MobilePhone:      req.MobilePhone,
		Status:           models.StatusActive,
	}
	if err := s.couriers.Create(ctx, courier); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to create courier")
	}
	return courier, nil
}

// CreateOfficeStaff registers a new active office staff record.
func (s *RosterService) CreateOfficeStaff(ctx context.Context, actor Actor, req CreateOfficeStaffRequest) (*models.OfficeStaff, error) {
	if !models.Can(actor.Role, models.ActionCreate) {
		return nil, appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid office staff payload")
	}
	if strings.TrimSpace(req.FullName) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "full name is required")
	}
	office := models.Office(req.Office)
	if !models.ValidOffice(office) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown office")
	}

	staff := &models.OfficeStaff{
		FullName:          strings.TrimSpace(req.FullName),
		Office:            office,
		Position:          req.Position,
		OfficePhone:       req.OfficePhone,
		MobilePhone:       req.MobilePhone,
		Email:             req.Email,
		InternalExtension: req.InternalExtension,
		Status:            models.StatusActive,
	}
	if err := s.staff.Create(ctx, staff); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to create office staff")
	}
	return staff, nil
}

// UpdateCourier applies a partial update to the listed fields only.
func (s *RosterService) UpdateCourier(ctx context.Context, actor Actor, id string, req UpdateCourierRequest) error {
	if !models.Can(actor.Role, models.ActionEdit) {
		return appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid courier payload")
	}

	fields := repository.CourierUpdate{
		FullName:    req.FullName,
		Route:       req.Route,
		Notes:       req.Notes,
		MobilePhone: req.MobilePhone,
	}
	if req.ProfileType != nil {
		p := models.CourierProfile(*req.ProfileType)
		fields.ProfileType = &p
	}
	if req.CompanyVehicle != nil {
		fields.CompanyVehicle = req.CompanyVehicle
	}
	if req.VehicleLettering != nil {
		l := models.LetteringStatus(*req.VehicleLettering)
		fields.VehicleLettering = &l
	}

	if err := s.couriers.Update(ctx, id, fields); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "courier not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update courier")
	}
	return nil
}

// UpdateOfficeStaff applies a partial update to the listed fields only.
func (s *RosterService) UpdateOfficeStaff(ctx context.Context, actor Actor, id string, req UpdateOfficeStaffRequest) error {
	if !models.Can(actor.Role, models.ActionEdit) {
		return appErrors.ErrForbidden
	}
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid office staff payload")
	}

	fields := repository.OfficeStaffUpdate{
		FullName:          req.FullName,
		Position:          req.Position,
		OfficePhone:       req.OfficePhone,
		MobilePhone:       req.MobilePhone,
		Email:             req.Email,
		InternalExtension: req.InternalExtension,
	}

	if err := s.staff.Update(ctx, id, fields); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "office staff not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to update office staff")
	}
	return nil
}

// Deactivate marks the record inactive and stamps today's date. Running
// it twice refreshes the stamp; that is accepted, not an error.
func (s *RosterService) Deactivate(ctx context.Context, actor Actor, category models.Category, id string) error {
	if !models.Can(actor.Role, models.ActionDeactivate) {
		return appErrors.ErrForbidden
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	var err error
	if category == models.CategoryCourier {
		err = s.couriers.Deactivate(ctx, id, today)
	} else {
		err = s.staff.Deactivate(ctx, id, today)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "record not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to deactivate record")
	}
	return nil
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
