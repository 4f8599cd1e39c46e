// Package streak implements the daily check-in engine: streak continuity,
// milestone rewards and the permanent loyalty badge. The engine is pure; it
// performs no I/O and never reads the system clock. Callers supply the
// record and the current date and own persistence of the result.
package streak

import (
	"errors"
	"fmt"
	"time"

	"github.com/stylay/checkin-service/internal/models"
)

// Engine errors.
var (
	// ErrClockRegression signals that the supplied date precedes the record's
	// last check-in. The record must not be mutated; this is a caller or
	// clock fault, not a business state.
	ErrClockRegression = errors.New("check-in date precedes last recorded check-in")

	// ErrInvalidRecord signals a structural invariant violation on the input
	// record. Fail fast rather than propagate corrupted state.
	ErrInvalidRecord = errors.New("check-in record violates invariants")
)

// Reward describes what a single successful check-in earned.
type Reward struct {
	CurrencyAwarded int64                `json:"currency_awarded"`
	IsMilestone     bool                 `json:"is_milestone"`
	MilestoneKind   models.MilestoneKind `json:"milestone_kind,omitempty"`
	MilestoneLabel  string               `json:"milestone_label,omitempty"`
	StreakAfter     int                  `json:"streak_after"`
	NextMilestone   *NextMilestone       `json:"next_milestone"`
}

// NextMilestone reports progress toward the closest upcoming milestone.
type NextMilestone struct {
	DaysRequired  int       `json:"days_required"`
	DaysRemaining int       `json:"days_remaining"`
	Reward        Milestone `json:"reward"`
}

// Result is the outcome of evaluating a check-in attempt.
type Result struct {
	Updated          models.CheckinRecord
	Reward           *Reward
	AlreadyCheckedIn bool
}

// Status answers whether a check-in is possible today without mutating state.
type Status struct {
	CanCheckInToday  bool       `json:"can_check_in_today"`
	NextEligibleDate *time.Time `json:"next_eligible_date"`
}

// Engine evaluates check-ins against an immutable milestone table.
type Engine struct {
	table *MilestoneTable
}

// NewEngine creates an engine for the given milestone table.
func NewEngine(table *MilestoneTable) *Engine {
	return &Engine{table: table}
}

// Table returns the engine's milestone table.
func (e *Engine) Table() *MilestoneTable {
	return e.table
}

// DateOnly strips the time of day, keeping the calendar date as observed in
// t's location, anchored at UTC midnight. Anchoring at UTC keeps day
// arithmetic exact across DST transitions.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns whole calendar days from a to b; both must be DateOnly.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

// EvaluateCheckin decides whether a check-in is permitted on the given date,
// computes the resulting streak and reward, and returns the updated record.
// The input record is not mutated. Callers persist Result.Updated atomically
// with their read of the input record.
func (e *Engine) EvaluateCheckin(record models.CheckinRecord, today time.Time) (Result, error) {
	if err := validateRecord(record); err != nil {
		return Result{}, err
	}

	today = DateOnly(today)

	newStreak := 1
	if record.LastCheckinDate != nil {
		last := DateOnly(*record.LastCheckinDate)

		if last.Equal(today) {
			// At most one successful check-in per calendar date, no matter
			// how often the operation is invoked.
			return Result{Updated: record, AlreadyCheckedIn: true}, nil
		}

		days := daysBetween(last, today)
		if days < 0 {
			return Result{}, fmt.Errorf("%w: today %s, last check-in %s",
				ErrClockRegression, today.Format(time.DateOnly), last.Format(time.DateOnly))
		}
		if days == 1 {
			newStreak = record.CurrentStreak + 1
		}
		// days > 1: one or more days missed, streak resets to 1.
	}

	reward := e.rewardFor(newStreak)

	updated := record
	updated.LastCheckinDate = &today
	updated.CurrentStreak = newStreak
	updated.TotalCheckins = record.TotalCheckins + 1
	updated.CurrencyBalance = record.CurrencyBalance + reward.CurrencyAwarded
	updated.TotalCurrencyEarned = record.TotalCurrencyEarned + reward.CurrencyAwarded

	// One-way transition: the badge never reverts, regardless of later resets.
	if threshold, ok := e.table.LoyaltyThreshold(); ok && !updated.HasLoyaltyBadge && newStreak >= threshold {
		updated.HasLoyaltyBadge = true
		earnedAt := today
		updated.LoyaltyBadgeEarnedAt = &earnedAt
	}

	return Result{Updated: updated, Reward: reward}, nil
}

// rewardFor computes the reward descriptor for a freshly reached streak
// length. Milestones trigger on the exact day count only.
func (e *Engine) rewardFor(newStreak int) *Reward {
	reward := &Reward{StreakAfter: newStreak}

	if m, ok := e.table.Lookup(newStreak); ok {
		reward.IsMilestone = true
		reward.MilestoneKind = m.Kind
		reward.MilestoneLabel = m.Label
		if m.Kind == models.MilestoneCurrency {
			reward.CurrencyAwarded = m.Currency
		}
	}

	if next, ok := e.table.Next(newStreak); ok {
		reward.NextMilestone = &NextMilestone{
			DaysRequired:  next.Days,
			DaysRemaining: next.Days - newStreak,
			Reward:        next,
		}
	}

	return reward
}

// GetStatus reports whether the record can check in on the given date and,
// when it cannot, the next eligible date. Pure query, no mutation.
func (e *Engine) GetStatus(record models.CheckinRecord, today time.Time) Status {
	today = DateOnly(today)

	if record.LastCheckinDate != nil && DateOnly(*record.LastCheckinDate).Equal(today) {
		next := today.AddDate(0, 0, 1)
		return Status{CanCheckInToday: false, NextEligibleDate: &next}
	}
	return Status{CanCheckInToday: true}
}

// validateRecord enforces the structural invariants of a stored record.
func validateRecord(record models.CheckinRecord) error {
	switch {
	case record.CurrentStreak < 0:
		return fmt.Errorf("%w: negative current streak %d", ErrInvalidRecord, record.CurrentStreak)
	case record.TotalCheckins < 0:
		return fmt.Errorf("%w: negative total check-ins %d", ErrInvalidRecord, record.TotalCheckins)
	case record.CurrencyBalance < 0:
		return fmt.Errorf("%w: negative currency balance %d", ErrInvalidRecord, record.CurrencyBalance)
	case record.TotalCurrencyEarned < 0:
		return fmt.Errorf("%w: negative total currency earned %d", ErrInvalidRecord, record.TotalCurrencyEarned)
	case record.LastCheckinDate == nil && record.CurrentStreak != 0:
		return fmt.Errorf("%w: streak %d without a last check-in date", ErrInvalidRecord, record.CurrentStreak)
	case record.LastCheckinDate != nil && record.CurrentStreak < 1:
		return fmt.Errorf("%w: last check-in recorded but streak is %d", ErrInvalidRecord, record.CurrentStreak)
	}
	return nil
}
