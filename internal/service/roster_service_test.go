package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rosterhub/internal/models"
	"rosterhub/internal/repository"
)

type mockCourierRepo struct {
	couriers    map[string]models.Courier
	lastFilter  models.RosterFilter
	lastUpdate  repository.CourierUpdate
	deactivated map[string]time.Time
	attached    map[string]string
	created     int
	err         error
}

func (m *mockCourierRepo) ListActive(ctx context.Context, filter models.RosterFilter) ([]models.Courier, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.Courier, 0)
	for _, c := range m.couriers {
		if c.Office == filter.Office && c.Status == models.StatusActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCourierRepo) FindByID(ctx context.Context, id string) (*models.Courier, error) {
	if c, ok := m.couriers[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourierRepo) Create(ctx context.Context, courier *models.Courier) error {
	if m.err != nil {
		return m.err
	}
	if m.couriers == nil {
		m.couriers = make(map[string]models.Courier)
	}
	if courier.ID == "" {
		courier.ID = "generated"
	}
	m.created++
	m.couriers[courier.ID] = *courier
	return nil
}

func (m *mockCourierRepo) Update(ctx context.Context, id string, fields repository.CourierUpdate) error {
	if _, ok := m.couriers[id]; !ok {
		return sql.ErrNoRows
	}
	m.lastUpdate = fields
	return nil
}

func (m *mockCourierRepo) Deactivate(ctx context.Context, id string, on time.Time) error {
	if _, ok := m.couriers[id]; !ok {
		return sql.ErrNoRows
	}
	if m.deactivated == nil {
		m.deactivated = make(map[string]time.Time)
	}
	m.deactivated[id] = on
	c := m.couriers[id]
	c.Status = models.StatusInactive
	c.DeactivatedOn = &on
	m.couriers[id] = c
	return nil
}

func (m *mockCourierRepo) SetAttachment(ctx context.Context, id string, slot models.AttachmentSlot, path string) error {
	if _, ok := m.couriers[id]; !ok {
		return sql.ErrNoRows
	}
	if m.attached == nil {
		m.attached = make(map[string]string)
	}
	m.attached[string(slot)] = path
	return nil
}

type mockStaffRepo struct {
	staff      map[string]models.OfficeStaff
	lastFilter models.RosterFilter
	err        error
}

func (m *mockStaffRepo) ListActive(ctx context.Context, filter models.RosterFilter) ([]models.OfficeStaff, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	out := make([]models.OfficeStaff, 0)
	for _, s := range m.staff {
		if s.Office == filter.Office && s.Status == models.StatusActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStaffRepo) FindByID(ctx context.Context, id string) (*models.OfficeStaff, error) {
	if s, ok := m.staff[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStaffRepo) Create(ctx context.Context, staff *models.OfficeStaff) error {
	if m.staff == nil {
		m.staff = make(map[string]models.OfficeStaff)
	}
	if staff.ID == "" {
		staff.ID = "generated"
	}
	m.staff[staff.ID] = *staff
	return nil
}

func (m *mockStaffRepo) Update(ctx context.Context, id string, fields repository.OfficeStaffUpdate) error {
	if _, ok := m.staff[id]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (m *mockStaffRepo) SetAttachment(ctx context.Context, id string, path string) error {
	if _, ok := m.staff[id]; !ok {
		return sql.ErrNoRows
	}
	return nil
}

func (m *mockStaffRepo) Deactivate(ctx context.Context, id string, on time.Time) error {
	if _, ok := m.staff[id]; !ok {
		return sql.ErrNoRows
	}
	s := m.staff[id]
	s.Status = models.StatusInactive
	s.DeactivatedOn = &on
	m.staff[id] = s
	return nil
}

func officePtr(name string) *models.Office {
	o := models.Office(name)
	return &o
}

func newRosterService(couriers *mockCourierRepo, staff *mockStaffRepo) *RosterService {
	return NewRosterService(couriers, staff, validator.New(), zap.NewNop())
}

func TestRosterServiceListReaderPinnedToOwnOffice(t *testing.T) {
	repo := &mockCourierRepo{couriers: map[string]models.Courier{
		"c1": {ID: "c1", FullName: "Ana", Office: "Girona", Status: models.StatusActive},
		"c2": {ID: "c2", FullName: "Pau", Office: "Sabadell", Status: models.StatusActive},
	}}
	svc := newRosterService(repo, &mockStaffRepo{})
	reader := Actor{UserID: "u1", Role: models.RoleReader, Office: officePtr("Girona")}

	// The requested office is ignored for Readers.
	couriers, err := svc.ListCouriers(context.Background(), reader, "Sabadell", "")
	require.NoError(t, err)
	require.Len(t, couriers, 1)
	assert.Equal(t, "Ana", couriers[0].FullName)
	assert.Equal(t, models.Office("Girona"), repo.lastFilter.Office)
}

func TestRosterServiceListReaderWithoutOffice(t *testing.T) {
	svc := newRosterService(&mockCourierRepo{}, &mockStaffRepo{})
	reader := Actor{UserID: "u1", Role: models.RoleReader}

	_, err := svc.ListCouriers(context.Background(), reader, "Girona", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no office assigned")
}

func TestRosterServiceListUnknownOffice(t *testing.T) {
	svc := newRosterService(&mockCourierRepo{}, &mockStaffRepo{})
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}

	_, err := svc.ListCouriers(context.Background(), admin, "Madrid", "")
	require.Error(t, err)
}

func TestRosterServiceCreateCourier(t *testing.T) {
	repo := &mockCourierRepo{}
	svc := newRosterService(repo, &mockStaffRepo{})
	editor := Actor{UserID: "u1", Role: models.RoleEditor}

	courier, err := svc.CreateCourier(context.Background(), editor, CreateCourierRequest{
		FullName: "Ana Pérez",
		Office:   "Granollers",
		Route:    "R-12",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, courier.Status)
	assert.Equal(t, models.ProfileOther, courier.ProfileType)
	assert.Equal(t, models.LetteringNone, courier.VehicleLettering)
	assert.Equal(t, 1, repo.created)
}

func TestRosterServiceCreateCourierEmptyName(t *testing.T) {
	repo := &mockCourierRepo{}
	svc := newRosterService(repo, &mockStaffRepo{})
	editor := Actor{UserID: "u1", Role: models.RoleEditor}

	// Whitespace-only names fail validation before the store is touched.
	_, err := svc.CreateCourier(context.Background(), editor, CreateCourierRequest{FullName: "   ", Office: "Granollers"})
	require.Error(t, err)
	assert.Equal(t, 0, repo.created)
}

func TestRosterServiceCreateForbiddenForReader(t *testing.T) {
	repo := &mockCourierRepo{}
	svc := newRosterService(repo, &mockStaffRepo{})
	reader := Actor{UserID: "u1", Role: models.RoleReader, Office: officePtr("Girona")}

	_, err := svc.CreateCourier(context.Background(), reader, CreateCourierRequest{FullName: "Ana", Office: "Girona"})
	require.Error(t, err)
	assert.Equal(t, 0, repo.created)
}

func TestRosterServiceUpdateCourierPartial(t *testing.T) {
	repo := &mockCourierRepo{couriers: map[string]models.Courier{
		"c1": {ID: "c1", FullName: "Ana", Office: "Girona", Status: models.StatusActive},
	}}
	svc := newRosterService(repo, &mockStaffRepo{})
	editor := Actor{UserID: "u1", Role: models.RoleEditor}

	route := "R-99"
	err := svc.UpdateCourier(context.Background(), editor, "c1", UpdateCourierRequest{Route: &route})
	require.NoError(t, err)
	require.NotNil(t, repo.lastUpdate.Route)
	assert.Equal(t, "R-99", *repo.lastUpdate.Route)
	assert.Nil(t, repo.lastUpdate.FullName)
}

func TestRosterServiceUpdateCourierNotFound(t *testing.T) {
	svc := newRosterService(&mockCourierRepo{}, &mockStaffRepo{})
	editor := Actor{UserID: "u1", Role: models.RoleEditor}

	name := "New Name"
	err := svc.UpdateCourier(context.Background(), editor, "missing", UpdateCourierRequest{FullName: &name})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRosterServiceDeactivate(t *testing.T) {
	repo := &mockCourierRepo{couriers: map[string]models.Courier{
		"c1": {ID: "c1", FullName: "Ana", Office: "Girona", Status: models.StatusActive},
	}}
	svc := newRosterService(repo, &mockStaffRepo{})
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC) }
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}

	err := svc.Deactivate(context.Background(), admin, models.CategoryCourier, "c1")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), repo.deactivated["c1"])

	// The record is excluded from the active listing afterwards.
	active, err := svc.ListCouriers(context.Background(), admin, "Girona", "")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRosterServiceDeactivateForbiddenForEditor(t *testing.T) {
	repo := &mockCourierRepo{couriers: map[string]models.Courier{
		"c1": {ID: "c1", FullName: "Ana", Office: "Girona", Status: models.StatusActive},
	}}
	svc := newRosterService(repo, &mockStaffRepo{})
	editor := Actor{UserID: "u1", Role: models.RoleEditor}

	err := svc.Deactivate(context.Background(), editor, models.CategoryCourier, "c1")
	require.Error(t, err)
	assert.Empty(t, repo.deactivated)
}

func TestRosterServiceGetCourierReaderCrossOffice(t *testing.T) {
	repo := &mockCourierRepo{couriers: map[string]models.Courier{
		"c1": {ID: "c1", FullName: "Ana", Office: "Sabadell", Status: models.StatusActive},
	}}
	svc := newRosterService(repo, &mockStaffRepo{})
	reader := Actor{UserID: "u1", Role: models.RoleReader, Office: officePtr("Girona")}

	_, err := svc.GetCourier(context.Background(), reader, "c1")
	require.Error(t, err)
}
