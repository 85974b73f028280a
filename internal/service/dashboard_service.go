package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rosterhub/internal/dto"
	"rosterhub/internal/models"
	appErrors "rosterhub/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardCourierCounter interface {
	CountActiveByOffice(ctx context.Context) (map[string]int, error)
	CountActiveByProfile(ctx context.Context) (map[string]int, error)
	CountActiveByLettering(ctx context.Context) (map[string]int, error)
	CountLetteredByOffice(ctx context.Context) (map[string]int, error)
}

type dashboardStaffCounter interface {
	CountActiveByOffice(ctx context.Context) (map[string]int, error)
}

// DashboardService aggregates roster counts into the overview summary.
// Results are cached; any roster mutation invalidates the cache so the
// next read recomputes.
type DashboardService struct {
	couriers dashboardCourierCounter
	staff    dashboardStaffCounter
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(couriers dashboardCourierCounter, staff dashboardStaffCounter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{couriers: couriers, staff: staff, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Summary returns the dashboard aggregates, serving from cache when warm.
func (s *DashboardService) Summary(ctx context.Context, actor Actor) (*dto.DashboardSummary, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}

	if s.cache.Enabled() {
		var cached dto.DashboardSummary
		hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	summary, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// Refresh drops the cached summary so the next read recomputes it.
func (s *DashboardService) Refresh(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}

func (s *DashboardService) compute(ctx context.Context) (*dto.DashboardSummary, error) {
	courierByOffice, err := s.couriers.CountActiveByOffice(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to count couriers")
	}
	staffByOffice, err := s.staff.CountActiveByOffice(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to count office staff")
	}
	profiles, err := s.couriers.CountActiveByProfile(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to count courier profiles")
	}
	lettering, err := s.couriers.CountActiveByLettering(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to count vehicle lettering")
	}
	letteredByOffice, err := s.couriers.CountLetteredByOffice(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to count lettered vehicles by office")
	}

	summary := &dto.DashboardSummary{
		HeadcountByOffice: make(map[string]int, len(models.Offices)),
		CourierProfiles:   profiles,
		VehicleLettering: dto.VehicleLettering{
			Lettered:         lettering[string(models.LetteringDone)],
			Unlettered:       lettering[string(models.LetteringNone)],
			Pending:          lettering[string(models.LetteringPending)],
			LetteredByOffice: letteredByOffice,
		},
	}
	// Every fixed office appears in the headcount, including empty ones.
	for _, office := range models.Offices {
		name := string(office)
		count := courierByOffice[name] + staffByOffice[name]
		summary.HeadcountByOffice[name] = count
	}
	for _, n := range courierByOffice {
		summary.TotalCouriers += n
	}
	for _, n := range staffByOffice {
		summary.TotalOfficeStaff += n
	}
	summary.TotalPersonnel = summary.TotalCouriers + summary.TotalOfficeStaff
	return summary, nil
}
