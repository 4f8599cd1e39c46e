// Package models defines domain models for the daily check-in system.
package models

import (
	"time"
)

// MilestoneKind distinguishes spendable currency rewards from the permanent
// loyalty badge.
type MilestoneKind string

// Milestone kinds.
const (
	MilestoneCurrency     MilestoneKind = "currency"
	MilestoneLoyaltyBadge MilestoneKind = "loyalty_badge"
)

// CheckinRecord is a user's check-in state: one row per user, mutated only by
// the streak engine's output.
//
// LastCheckinDate is date-only precision; the service normalizes it to
// midnight in the canonical timezone before it is stored. Version is the
// optimistic concurrency token guarding the read-modify-write cycle.
type CheckinRecord struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	UserID               uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	LastCheckinDate      *time.Time `gorm:"type:date" json:"last_checkin_date"`
	CurrentStreak        int        `gorm:"not null;default:0" json:"current_streak"`
	TotalCheckins        int        `gorm:"not null;default:0" json:"total_checkins"`
	CurrencyBalance      int64      `gorm:"not null;default:0" json:"currency_balance"`
	TotalCurrencyEarned  int64      `gorm:"not null;default:0" json:"total_currency_earned"`
	HasLoyaltyBadge      bool       `gorm:"not null;default:false" json:"has_loyalty_badge"`
	LoyaltyBadgeEarnedAt *time.Time `json:"loyalty_badge_earned_at,omitempty"`
	Version              uint       `gorm:"not null;default:0" json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// TableName specifies the table name for CheckinRecord model.
func (CheckinRecord) TableName() string {
	return "checkin_records"
}

// CheckinEvent is the append-only ledger of successful check-ins. The unique
// (user_id, checkin_date) index is the database-level backstop for the
// at-most-one-claim-per-day invariant.
type CheckinEvent struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"not null;uniqueIndex:idx_checkin_events_user_date" json:"user_id"`
	CheckinDate     time.Time     `gorm:"type:date;not null;uniqueIndex:idx_checkin_events_user_date" json:"checkin_date"`
	StreakAfter     int           `gorm:"not null" json:"streak_after"`
	CurrencyAwarded int64         `gorm:"not null;default:0" json:"currency_awarded"`
	MilestoneKind   MilestoneKind `gorm:"size:32" json:"milestone_kind,omitempty"`
	MilestoneLabel  string        `gorm:"size:100" json:"milestone_label,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// TableName specifies the table name for CheckinEvent model.
func (CheckinEvent) TableName() string {
	return "checkin_events"
}
