package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rosterhub/internal/models"
	appErrors "rosterhub/pkg/errors"
)

type mockInactiveLister struct {
	records []models.DeactivationRecord
	calls   int
}

func (m *mockInactiveLister) ListInactive(ctx context.Context) ([]models.DeactivationRecord, error) {
	m.calls++
	return m.records, nil
}

func datePtr(year int, month time.Month, day int) *time.Time {
	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestHistoryServiceListSortedNewestFirst(t *testing.T) {
	couriers := &mockInactiveLister{records: []models.DeactivationRecord{
		{ID: "c1", FullName: "Ana Pérez", Office: "Girona", DeactivatedOn: datePtr(2026, 1, 10)},
		{ID: "c2", FullName: "Pau Vila", Office: "Sabadell", DeactivatedOn: datePtr(2026, 3, 2)},
	}}
	staff := &mockInactiveLister{records: []models.DeactivationRecord{
		{ID: "s1", FullName: "Marta Soler", Office: "Manresa", DeactivatedOn: datePtr(2026, 2, 1)},
		{ID: "s2", FullName: "Jordi Font", Office: "Girona"},
	}}
	svc := NewHistoryService(couriers, staff, NewCacheService(nil, nil, 0, zap.NewNop()), time.Minute, zap.NewNop())
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}

	records, err := svc.List(context.Background(), admin)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "c2", records[0].ID)
	assert.Equal(t, "s1", records[1].ID)
	assert.Equal(t, "c1", records[2].ID)
	// Records without a stamp sort last.
	assert.Equal(t, "s2", records[3].ID)
	assert.Equal(t, "Courier", records[0].Category)
	assert.Equal(t, "Office", records[1].Category)
}

func TestHistoryServiceListNonAdminForbidden(t *testing.T) {
	svc := NewHistoryService(&mockInactiveLister{}, &mockInactiveLister{}, NewCacheService(nil, nil, 0, zap.NewNop()), time.Minute, zap.NewNop())

	_, err := svc.List(context.Background(), Actor{UserID: "u2", Role: models.RoleEditor})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestHistoryServiceListCached(t *testing.T) {
	couriers := &mockInactiveLister{records: []models.DeactivationRecord{
		{ID: "c1", FullName: "Ana", Office: "Girona", DeactivatedOn: datePtr(2026, 1, 10)},
	}}
	staff := &mockInactiveLister{}
	cache := NewCacheService(&memoryCacheRepo{}, NewMetricsService(), time.Minute, zap.NewNop())
	svc := NewHistoryService(couriers, staff, cache, time.Minute, zap.NewNop())
	admin := Actor{UserID: "u1", Role: models.RoleAdmin}
	ctx := context.Background()

	_, err := svc.List(ctx, admin)
	require.NoError(t, err)
	_, err = svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, couriers.calls)

	svc.Refresh(ctx)
	_, err = svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 2, couriers.calls)
}
