package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/placement-go-api/internal/apperrors"
	"github.com/noah-isme/placement-go-api/internal/dto"
	"github.com/noah-isme/placement-go-api/internal/repository"
)

// DashboardService aggregates account-wide placement statistics. The response
// is a projection of drives, offers, and students; it is cached briefly in
// Redis because every widget on the admin landing page hits it.
type DashboardService interface {
	GetSummary(ctx context.Context, scope AccountScope) (dto.PlacementDashboardResponse, error)
}

type dashboardService struct {
	drives   repository.DriveRepository
	students repository.StudentRepository
	results  repository.ResultRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(
	drives repository.DriveRepository,
	students repository.StudentRepository,
	results repository.ResultRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) DashboardService {
	return &dashboardService{
		drives:   drives,
		students: students,
		results:  results,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "dashboard_service").Logger(),
		now:      time.Now,
	}
}

func (s *dashboardService) GetSummary(ctx context.Context, scope AccountScope) (dto.PlacementDashboardResponse, error) {
	cacheKey := fmt.Sprintf("dashboard:placement:%d", scope.AccountID)
	tracer := otel.Tracer("github.com/noah-isme/placement-go-api/internal/service/dashboard")
	ctx, span := tracer.Start(ctx, "dashboard.aggregate")
	span.SetAttributes(attribute.String("dashboard.cache_key", cacheKey))
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var response dto.PlacementDashboardResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				response.CacheHit = true
				span.SetAttributes(attribute.Bool("dashboard.cache_hit", true))
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
			span.RecordError(err)
		}
	}

	total, placed, err := s.students.CountPlacement(ctx, scope.AccountID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_placement_failed")
		return dto.PlacementDashboardResponse{}, apperrors.Internal(err)
	}

	driveCounts, err := s.drives.CountByStatus(ctx, scope.AccountID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count_drives_failed")
		return dto.PlacementDashboardResponse{}, apperrors.Internal(err)
	}

	offerStats, err := s.results.OfferStats(ctx, scope.AccountID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "offer_stats_failed")
		return dto.PlacementDashboardResponse{}, apperrors.Internal(err)
	}

	branches, err := s.students.BranchStats(ctx, scope.AccountID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "branch_stats_failed")
		return dto.PlacementDashboardResponse{}, apperrors.Internal(err)
	}

	summary := buildDashboard(total, placed, driveCounts, offerStats, branches)
	span.SetAttributes(
		attribute.Int64("dashboard.total_students", total),
		attribute.Int64("dashboard.placed_students", placed),
	)

	if s.cache != nil {
		payload, err := json.Marshal(summary)
		if err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
				span.RecordError(err)
			}
		}
	}

	return summary, nil
}

func buildDashboard(total, placed int64, driveCounts map[string]int64, offers repository.OfferStats, branches []repository.BranchCount) dto.PlacementDashboardResponse {
	response := dto.PlacementDashboardResponse{
		TotalStudents:  total,
		PlacedStudents: placed,
		DrivesByStatus: driveCounts,
		OffersExtended: offers.Count,
		AverageCTC:     offers.AverageCTC,
		HighestCTC:     offers.HighestCTC,
		Branches:       make([]dto.BranchPlacement, 0, len(branches)),
	}
	if total > 0 {
		response.PlacementRate = float64(placed) / float64(total) * 100
	}
	for _, count := range driveCounts {
		response.TotalDrives += count
	}
	for _, branch := range branches {
		point := dto.BranchPlacement{Branch: branch.Branch, Total: branch.Total, Placed: branch.Placed}
		if branch.Total > 0 {
			point.PlacementRate = float64(branch.Placed) / float64(branch.Total) * 100
		}
		response.Branches = append(response.Branches, point)
	}
	return response
}
