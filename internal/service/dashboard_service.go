package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/models"
	appErrors "github.com/noah-isme/school-attendance-api/pkg/errors"
)

type populationCounter interface {
	UserType() models.UserType
	Count(ctx context.Context) (int, error)
}

// DashboardStats is the admin landing-page snapshot.
type DashboardStats struct {
	Students      int       `json:"students"`
	Teachers      int       `json:"teachers"`
	Employees     int       `json:"employees"`
	SignInsToday  int       `json:"sign_ins_today"`
	SignOutsToday int       `json:"sign_outs_today"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// DashboardService aggregates population counts and today's scan volume.
type DashboardService struct {
	counters []populationCounter
	events   attendanceLog
	cache    *CacheService
	logger   *zap.Logger
	now      func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(students, teachers, employees populationCounter, events attendanceLog, cache *CacheService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		counters: []populationCounter{students, teachers, employees},
		events:   events,
		cache:    cache,
		logger:   logger,
		now:      time.Now,
	}
}

// Stats returns the current dashboard snapshot, served from cache when warm.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	const cacheKey = "dashboard:stats"
	var cached DashboardStats
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	stats := &DashboardStats{GeneratedAt: s.now().UTC()}
	for _, counter := range s.counters {
		count, err := counter.Count(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count population")
		}
		switch counter.UserType() {
		case models.UserTypeStudent:
			stats.Students = count
		case models.UserTypeTeacher:
			stats.Teachers = count
		case models.UserTypeEmployee:
			stats.Employees = count
		}
	}

	start, end := localDayBounds(s.now())
	records, err := s.events.ListByRange(ctx, start, end, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load today's events")
	}
	for _, record := range records {
		switch record.EventType {
		case models.EventSignIn:
			stats.SignInsToday++
		case models.EventSignOut:
			stats.SignOutsToday++
		}
	}

	if err := s.cache.Set(ctx, cacheKey, stats, time.Minute); err != nil {
		s.logger.Warn("failed to cache dashboard stats", zap.Error(err))
	}
	return stats, nil
}
