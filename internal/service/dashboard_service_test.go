package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rosterhub/internal/models"
	appErrors "rosterhub/pkg/errors"
)

type mockDashboardCouriers struct {
	byOffice    map[string]int
	byProfile   map[string]int
	byLettering map[string]int
	lettered    map[string]int
	calls       int
}

func (m *mockDashboardCouriers) CountActiveByOffice(ctx context.Context) (map[string]int, error) {
	m.calls++
	return m.byOffice, nil
}

func (m *mockDashboardCouriers) CountActiveByProfile(ctx context.Context) (map[string]int, error) {
	return m.byProfile, nil
}

func (m *mockDashboardCouriers) CountActiveByLettering(ctx context.Context) (map[string]int, error) {
	return m.byLettering, nil
}

func (m *mockDashboardCouriers) CountLetteredByOffice(ctx context.Context) (map[string]int, error) {
	return m.lettered, nil
}

type mockDashboardStaff struct {
	byOffice map[string]int
}

func (m *mockDashboardStaff) CountActiveByOffice(ctx context.Context) (map[string]int, error) {
	return m.byOffice, nil
}

type memoryCacheRepo struct {
	values map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	delete(m.values, pattern)
	return nil
}

func newDashboardFixture() (*mockDashboardCouriers, *mockDashboardStaff, *DashboardService) {
	couriers := &mockDashboardCouriers{
		byOffice:    map[string]int{"Girona": 3, "Sabadell": 2},
		byProfile:   map[string]int{"Self-employed": 4, "Employee": 1},
		byLettering: map[string]int{"Yes": 2, "No": 2, "Pending": 1},
		lettered:    map[string]int{"Girona": 2},
	}
	staff := &mockDashboardStaff{byOffice: map[string]int{"Girona": 1, "Manresa": 1}}
	cache := NewCacheService(&memoryCacheRepo{}, NewMetricsService(), time.Minute, zap.NewNop())
	svc := NewDashboardService(couriers, staff, cache, time.Minute, zap.NewNop())
	return couriers, staff, svc
}

func TestDashboardServiceSummary(t *testing.T) {
	_, _, svc := newDashboardFixture()
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}

	summary, err := svc.Summary(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalCouriers)
	assert.Equal(t, 2, summary.TotalOfficeStaff)
	assert.Equal(t, 7, summary.TotalPersonnel)
	assert.Equal(t, 4, summary.HeadcountByOffice["Girona"])
	assert.Equal(t, 1, summary.HeadcountByOffice["Manresa"])
	// Offices with no personnel are still present.
	assert.Contains(t, summary.HeadcountByOffice, "Vilafranca")
	assert.Equal(t, 2, summary.VehicleLettering.Lettered)
	assert.Equal(t, 1, summary.VehicleLettering.Pending)
}

func TestDashboardServiceSummaryNonAdminForbidden(t *testing.T) {
	_, _, svc := newDashboardFixture()

	for _, role := range []models.UserRole{models.RoleEditor, models.RoleReader} {
		_, err := svc.Summary(context.Background(), Actor{UserID: "u2", Role: role})
		assert.ErrorIs(t, err, appErrors.ErrForbidden)
	}
}

func TestDashboardServiceSummaryCached(t *testing.T) {
	couriers, _, svc := newDashboardFixture()
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}
	ctx := context.Background()

	_, err := svc.Summary(ctx, admin)
	require.NoError(t, err)
	_, err = svc.Summary(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, couriers.calls)

	svc.Refresh(ctx)
	_, err = svc.Summary(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, couriers.calls)
}
