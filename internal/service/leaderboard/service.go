// Package leaderboard provides streak and check-in ranking services.
package leaderboard

import (
	"context"
	"fmt"

	"github.com/stylay/checkin-service/internal/models"
	"github.com/stylay/checkin-service/internal/repository"
	"github.com/stylay/checkin-service/internal/service/streak"
	"github.com/stylay/checkin-service/pkg/logger"
)

// CheckinRepository interface for ranked record queries.
type CheckinRepository interface {
	TopByCurrentStreak(limit int) ([]models.CheckinRecord, error)
	TopByTotalCheckins(limit int) ([]models.CheckinRecord, error)
	TopByCurrencyEarned(limit int) ([]models.CheckinRecord, error)
}

// Ranking metrics.
const (
	MetricCurrentStreak  = "current_streak"
	MetricTotalCheckins  = "total_checkins"
	MetricCurrencyEarned = "currency_earned"
)

// Entry represents a single entry in a leaderboard.
type Entry struct {
	Rank                int    `json:"rank"`
	UserID              uint   `json:"user_id"`
	CurrentStreak       int    `json:"current_streak"`
	TotalCheckins       int    `json:"total_checkins"`
	TotalCurrencyEarned int64  `json:"total_currency_earned"`
	FormattedEarned     string `json:"formatted_earned"`
	HasLoyaltyBadge     bool   `json:"has_loyalty_badge"`
}

// Service handles leaderboard generation.
type Service struct {
	repo CheckinRepository
	log  *logger.Logger
}

// NewService creates a new leaderboard service with the concrete repository type.
func NewService(repo *repository.CheckinRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// NewServiceWithInterfaces creates a new leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(repo CheckinRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetLeaderboard returns the top users ranked by the given metric. An empty
// or unknown metric falls back to the current streak ranking.
//
//nolint:revive,unparam // ctx reserved for future context-aware operations (tracing, cancellation)
func (s *Service) GetLeaderboard(ctx context.Context, metric string, limit int) ([]Entry, error) {
	var (
		records []models.CheckinRecord
		err     error
	)

	switch metric {
	case MetricTotalCheckins:
		records, err = s.repo.TopByTotalCheckins(limit)
	case MetricCurrencyEarned:
		records, err = s.repo.TopByCurrencyEarned(limit)
	case MetricCurrentStreak, "":
		records, err = s.repo.TopByCurrentStreak(limit)
	default:
		s.log.Debug().Str("metric", metric).Msg("Unknown leaderboard metric, using current streak")
		records, err = s.repo.TopByCurrentStreak(limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(records))
	for i, r := range records {
		entries = append(entries, Entry{
			Rank:                i + 1,
			UserID:              r.UserID,
			CurrentStreak:       r.CurrentStreak,
			TotalCheckins:       r.TotalCheckins,
			TotalCurrencyEarned: r.TotalCurrencyEarned,
			FormattedEarned:     streak.FormatCurrency(r.TotalCurrencyEarned),
			HasLoyaltyBadge:     r.HasLoyaltyBadge,
		})
	}

	return entries, nil
}

// GetUserRank returns the rank of a user for a specific metric.
func (s *Service) GetUserRank(ctx context.Context, userID uint, metric string) (int, error) {
	entries, err := s.GetLeaderboard(ctx, metric, 0)
	if err != nil {
		return 0, err
	}

	for _, entry := range entries {
		if entry.UserID == userID {
			return entry.Rank, nil
		}
	}

	return 0, fmt.Errorf("user not found in leaderboard")
}
