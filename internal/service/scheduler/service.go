// Package scheduler provides the daily engagement reporting job.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stylay/checkin-service/internal/config"
	prommetrics "github.com/stylay/checkin-service/internal/metrics"
	"github.com/stylay/checkin-service/internal/notifier"
	"github.com/stylay/checkin-service/internal/repository"
	"github.com/stylay/checkin-service/internal/service/streak"
	"github.com/stylay/checkin-service/pkg/logger"
)

// StatsRepository interface for the daily engagement counts.
type StatsRepository interface {
	CountCheckinsOn(date time.Time) (int64, error)
	CountLoyaltyBadgeHolders() (int64, error)
	CountActiveStreaks(today time.Time) (int64, error)
}

// SummaryNotifier interface for posting the daily engagement summary.
type SummaryNotifier interface {
	SendDailySummary(ctx context.Context, summary *notifier.DailySummary) error
}

// Service runs the daily engagement job: refresh gauges and post the summary.
type Service struct {
	config   *config.Config
	repo     StatsRepository
	notifier SummaryNotifier
	log      *logger.Logger
	cron     *cron.Cron
	now      func() time.Time
}

// NewService creates a new scheduler service.
func NewService(
	cfg *config.Config,
	repo *repository.CheckinRepository,
	client *notifier.Client,
	log *logger.Logger,
) *Service {
	return &Service{
		config:   cfg,
		repo:     repo,
		notifier: client,
		log:      log,
		now:      time.Now,
	}
}

// NewServiceWithInterfaces creates a new scheduler service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	cfg *config.Config,
	repo StatsRepository,
	n SummaryNotifier,
	log *logger.Logger,
) *Service {
	return &Service{
		config:   cfg,
		repo:     repo,
		notifier: n,
		log:      log,
		now:      time.Now,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Scheduler.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := time.LoadLocation(s.config.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Scheduler.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	cronExpr, err := s.buildCronExpression()
	if err != nil {
		return fmt.Errorf("failed to build cron expression: %w", err)
	}

	_, err = s.cron.AddFunc(cronExpr, func() {
		s.runDailyEngagementJob(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to register daily engagement job: %w", err)
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("schedule", cronExpr).
		Str("timezone", s.config.Scheduler.Timezone).
		Str("time", s.config.Scheduler.Time).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// buildCronExpression generates a cron expression from config.
func (s *Service) buildCronExpression() (string, error) {
	// Parse time string (format: "HH:MM")
	parts := strings.Split(s.config.Scheduler.Time, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format %q, expected HH:MM", s.config.Scheduler.Time)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %q", parts[0])
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %q", parts[1])
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// runDailyEngagementJob refreshes the engagement gauges and posts the summary.
func (s *Service) runDailyEngagementJob(ctx context.Context) {
	start := time.Now()

	defer func() {
		prommetrics.ObserveSchedulerJobDuration(time.Since(start).Seconds())
		prommetrics.SetSchedulerLastRun()
	}()

	s.log.Info().Msg("Running daily engagement job")

	today := streak.DateOnly(s.now())

	checkins, err := s.repo.CountCheckinsOn(today)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to count today's check-ins")
		prommetrics.RecordSchedulerJobRun("error")
		return
	}

	active, err := s.repo.CountActiveStreaks(today)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to count active streaks")
		prommetrics.RecordSchedulerJobRun("error")
		return
	}

	holders, err := s.repo.CountLoyaltyBadgeHolders()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to count loyalty badge holders")
		prommetrics.RecordSchedulerJobRun("error")
		return
	}

	prommetrics.SetCheckinsToday(checkins)
	prommetrics.SetActiveStreaks(active)
	prommetrics.SetLoyaltyBadgeHolders(holders)

	summary := &notifier.DailySummary{
		Date:          today,
		CheckinsToday: checkins,
		ActiveStreaks: active,
		BadgeHolders:  holders,
	}

	if err := s.notifier.SendDailySummary(ctx, summary); err != nil {
		s.log.Error().Err(err).Msg("Failed to send daily summary")
		prommetrics.RecordSchedulerJobRun("error")
		return
	}

	prommetrics.RecordSchedulerJobRun("success")

	s.log.Info().
		Int64("checkins_today", checkins).
		Int64("active_streaks", active).
		Int64("badge_holders", holders).
		Dur("duration", time.Since(start)).
		Msg("Daily engagement job completed")
}
