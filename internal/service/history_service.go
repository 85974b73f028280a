package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"rosterhub/internal/models"
	appErrors "rosterhub/pkg/errors"
)

const historyCacheKey = "history:deactivations"

type inactiveLister interface {
	ListInactive(ctx context.Context) ([]models.DeactivationRecord, error)
}

// HistoryService serves the read-only record of deactivated personnel
// across both categories, newest first.
type HistoryService struct {
	couriers inactiveLister
	staff    inactiveLister
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(couriers, staff inactiveLister, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *HistoryService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryService{couriers: couriers, staff: staff, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// List returns all inactive records tagged with their category, sorted
// by deactivation date descending. Records without a stamp sort last.
func (s *HistoryService) List(ctx context.Context, actor Actor) ([]models.DeactivationRecord, error) {
	if actor.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}

	if s.cache.Enabled() {
		var cached []models.DeactivationRecord
		hit, err := s.cache.Get(ctx, historyCacheKey, &cached)
		if err != nil {
			s.logger.Warn("history cache read failed", zap.Error(err))
		}
		if hit {
			return cached, nil
		}
	}

	couriers, err := s.couriers.ListInactive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list deactivated couriers")
	}
	staff, err := s.staff.ListInactive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list deactivated office staff")
	}

	records := make([]models.DeactivationRecord, 0, len(couriers)+len(staff))
	for _, rec := range couriers {
		rec.Category = models.CategoryCourier.Label()
		records = append(records, rec)
	}
	for _, rec := range staff {
		rec.Category = models.CategoryOfficeStaff.Label()
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].DeactivatedOn, records[j].DeactivatedOn
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, historyCacheKey, records, s.cacheTTL); err != nil {
			s.logger.Warn("history cache write failed", zap.Error(err))
		}
	}
	return records, nil
}

// Refresh drops the cached history after a deactivation.
func (s *HistoryService) Refresh(ctx context.Context) {
	if !s.cache.Enabled() {
		return
	}
	if err := s.cache.Invalidate(ctx, historyCacheKey); err != nil {
		s.logger.Warn("history cache invalidation failed", zap.Error(err))
	}
}
