package streak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stylay/checkin-service/internal/cache"
	"github.com/stylay/checkin-service/internal/config"
	prommetrics "github.com/stylay/checkin-service/internal/metrics"
	"github.com/stylay/checkin-service/internal/models"
	"github.com/stylay/checkin-service/internal/repository"
	"github.com/stylay/checkin-service/pkg/logger"
)

// Repository interface for check-in record operations.
type Repository interface {
	GetByUserID(userID uint) (*models.CheckinRecord, error)
	GetOrCreate(userID uint, initialCurrency int64) (*models.CheckinRecord, error)
	SaveCheckin(record *models.CheckinRecord, event *models.CheckinEvent) error
	ListEvents(userID uint, limit int) ([]models.CheckinEvent, error)
	CountLoyaltyBadgeHolders() (int64, error)
}

// Notifier interface for outbound webhook notifications.
type Notifier interface {
	SendLoyaltyBadgeUnlocked(ctx context.Context, userID uint, streak int) error
}

// CheckinResponse is the outcome of a check-in attempt as reported to callers.
type CheckinResponse struct {
	UserID           uint                 `json:"user_id"`
	AlreadyCheckedIn bool                 `json:"already_checked_in"`
	Streak           int                  `json:"streak"`
	Reward           *Reward              `json:"reward,omitempty"`
	Record           models.CheckinRecord `json:"record"`
}

// Summary is the full per-user check-in state for profile pages.
type Summary struct {
	Record           models.CheckinRecord  `json:"record"`
	Status           Status                `json:"status"`
	FormattedBalance string                `json:"formatted_balance"`
	NextMilestone    *NextMilestone        `json:"next_milestone"`
	RecentEvents     []models.CheckinEvent `json:"recent_events"`
}

// Service orchestrates check-ins: persistence, caching, metrics and
// notifications around the pure engine.
type Service struct {
	repo     Repository
	cache    cache.Cache
	notifier Notifier
	engine   *Engine
	cfg      *config.CheckinConfig
	loc      *time.Location
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates a new check-in service.
func NewService(
	repo *repository.CheckinRepository,
	c cache.Cache,
	notifier Notifier,
	engine *Engine,
	cfg *config.CheckinConfig,
	log *logger.Logger,
) (*Service, error) {
	return newService(repo, c, notifier, engine, cfg, log)
}

// NewServiceWithInterfaces creates a new check-in service with interface
// dependencies (useful for testing).
func NewServiceWithInterfaces(
	repo Repository,
	c cache.Cache,
	notifier Notifier,
	engine *Engine,
	cfg *config.CheckinConfig,
	log *logger.Logger,
) (*Service, error) {
	return newService(repo, c, notifier, engine, cfg, log)
}

func newService(
	repo Repository,
	c cache.Cache,
	notifier Notifier,
	engine *Engine,
	cfg *config.CheckinConfig,
	log *logger.Logger,
) (*Service, error) {
	loc, err := cfg.GetLocation()
	if err != nil {
		return nil, fmt.Errorf("failed to load check-in timezone: %w", err)
	}
	return &Service{
		repo:     repo,
		cache:    c,
		notifier: notifier,
		engine:   engine,
		cfg:      cfg,
		loc:      loc,
		log:      log,
		now:      time.Now,
	}, nil
}

// WithClock overrides the service clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// today returns the current calendar date in the configured timezone.
func (s *Service) today() time.Time {
	return DateOnly(s.now().In(s.loc))
}

// CheckIn performs the daily check-in for a user. Repeated calls on the same
// calendar date are answered idempotently; a concurrent duplicate that loses
// the persistence race is reported the same way.
func (s *Service) CheckIn(ctx context.Context, userID uint) (*CheckinResponse, error) {
	today := s.today()

	record, err := s.repo.GetOrCreate(userID, s.cfg.InitialCurrency)
	if err != nil {
		prommetrics.RecordCheckin("error")
		return nil, err
	}

	result, err := s.engine.EvaluateCheckin(*record, today)
	if err != nil {
		if errors.Is(err, ErrClockRegression) {
			prommetrics.RecordCheckin("clock_regression")
		} else {
			prommetrics.RecordCheckin("invalid_record")
		}
		return nil, err
	}

	if result.AlreadyCheckedIn {
		prommetrics.RecordCheckin("already_checked_in")
		return &CheckinResponse{
			UserID:           userID,
			AlreadyCheckedIn: true,
			Streak:           record.CurrentStreak,
			Record:           *record,
		}, nil
	}

	event := &models.CheckinEvent{
		UserID:          userID,
		CheckinDate:     today,
		StreakAfter:     result.Reward.StreakAfter,
		CurrencyAwarded: result.Reward.CurrencyAwarded,
		MilestoneKind:   result.Reward.MilestoneKind,
		MilestoneLabel:  result.Reward.MilestoneLabel,
	}

	if err := s.repo.SaveCheckin(&result.Updated, event); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// A concurrent request claimed today first. Reload its outcome and
			// answer idempotently, exactly as for a same-day retry.
			s.log.Debug().
				Uint("user_id", userID).
				Msg("Check-in lost concurrency race, reloading record")
			prommetrics.RecordCheckin("already_checked_in")

			current, err := s.repo.GetByUserID(userID)
			if err != nil {
				return nil, err
			}
			return &CheckinResponse{
				UserID:           userID,
				AlreadyCheckedIn: true,
				Streak:           current.CurrentStreak,
				Record:           *current,
			}, nil
		}
		prommetrics.RecordCheckin("error")
		return nil, err
	}

	prommetrics.RecordCheckin("success")
	prommetrics.ObserveStreakLength(result.Reward.StreakAfter)
	if result.Reward.IsMilestone {
		prommetrics.RecordMilestoneAwarded(string(result.Reward.MilestoneKind), result.Reward.MilestoneLabel)
		prommetrics.AddCurrencyAwarded(result.Reward.CurrencyAwarded)
	}

	s.invalidateStatus(ctx, userID, today)

	s.log.Info().
		Uint("user_id", userID).
		Int("streak", result.Reward.StreakAfter).
		Int64("currency_awarded", result.Reward.CurrencyAwarded).
		Bool("milestone", result.Reward.IsMilestone).
		Msg("Check-in recorded")

	if result.Updated.HasLoyaltyBadge && !record.HasLoyaltyBadge {
		s.notifyBadge(ctx, userID, result.Reward.StreakAfter)
	}

	return &CheckinResponse{
		UserID: userID,
		Streak: result.Reward.StreakAfter,
		Reward: result.Reward,
		Record: result.Updated,
	}, nil
}

// GetStatus reports whether the user can check in today. Answers are cached
// until the next day boundary since they only change on check-in.
func (s *Service) GetStatus(ctx context.Context, userID uint) (*Status, error) {
	today := s.today()
	key := s.statusKey(userID, today)

	if cached, err := s.cache.Get(ctx, key); err == nil && cached != "" {
		var status Status
		if err := json.Unmarshal([]byte(cached), &status); err == nil {
			return &status, nil
		}
		// Corrupted entry: fall through to the database.
		s.cache.Del(ctx, key)
	}

	record, err := s.repo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// No record yet means the first check-in is available.
			return &Status{CanCheckInToday: true}, nil
		}
		return nil, err
	}

	status := s.engine.GetStatus(*record, today)

	if payload, err := json.Marshal(status); err == nil {
		if err := s.cache.Set(ctx, key, payload, s.untilNextDay()); err != nil {
			s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to cache check-in status")
		}
	}

	return &status, nil
}

// GetSummary returns the user's full check-in state: record, today's status,
// formatted balance, next milestone progress and recent history.
func (s *Service) GetSummary(ctx context.Context, userID uint) (*Summary, error) {
	record, err := s.repo.GetOrCreate(userID, s.cfg.InitialCurrency)
	if err != nil {
		return nil, err
	}

	events, err := s.repo.ListEvents(userID, 30)
	if err != nil {
		return nil, err
	}

	var next *NextMilestone
	if m, ok := s.engine.Table().Next(record.CurrentStreak); ok {
		next = &NextMilestone{
			DaysRequired:  m.Days,
			DaysRemaining: m.Days - record.CurrentStreak,
			Reward:        m,
		}
	}

	return &Summary{
		Record:           *record,
		Status:           s.engine.GetStatus(*record, s.today()),
		FormattedBalance: FormatCurrency(record.CurrencyBalance),
		NextMilestone:    next,
		RecentEvents:     events,
	}, nil
}

// Milestones returns the reward table in ascending streak order.
func (s *Service) Milestones() []Milestone {
	return s.engine.Table().All()
}

func (s *Service) statusKey(userID uint, today time.Time) string {
	return fmt.Sprintf("checkin:status:%d:%s", userID, today.Format(time.DateOnly))
}

// untilNextDay returns the time left until the next day boundary in the
// configured timezone, so cached statuses never outlive their date.
func (s *Service) untilNextDay() time.Duration {
	now := s.now().In(s.loc)
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, s.loc)
	return next.Sub(now)
}

func (s *Service) invalidateStatus(ctx context.Context, userID uint, today time.Time) {
	if err := s.cache.Del(ctx, s.statusKey(userID, today)); err != nil {
		s.log.Warn().Err(err).Uint("user_id", userID).Msg("Failed to invalidate status cache")
	}
}

func (s *Service) notifyBadge(ctx context.Context, userID uint, streak int) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendLoyaltyBadgeUnlocked(ctx, userID, streak); err != nil {
		s.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to send loyalty badge notification")
		return
	}

	count, err := s.repo.CountLoyaltyBadgeHolders()
	if err == nil {
		prommetrics.SetLoyaltyBadgeHolders(count)
	}
}
