// Package repository provides the data access layer for check-in records.
package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/stylay/checkin-service/internal/models"
)

// Repository errors.
var (
	// ErrNotFound is returned when no check-in record exists for a user.
	ErrNotFound = errors.New("check-in record not found")

	// ErrConflict is returned when a concurrent check-in won the
	// read-modify-write race: either the record's version moved or the
	// per-day event already exists.
	ErrConflict = errors.New("check-in record was modified concurrently")
)

// CheckinRepository handles check-in record and event database operations.
type CheckinRepository struct {
	db *DB
}

// NewCheckinRepository creates a new check-in repository.
func NewCheckinRepository(db *DB) *CheckinRepository {
	return &CheckinRepository{db: db}
}

// GetByUserID retrieves a user's check-in record.
func (r *CheckinRepository) GetByUserID(userID uint) (*models.CheckinRecord, error) {
	var record models.CheckinRecord
	err := r.db.Where("user_id = ?", userID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get check-in record for user %d: %w", userID, err)
	}
	return &record, nil
}

// GetOrCreate retrieves a user's check-in record, creating a fresh one seeded
// with the configured initial currency if none exists yet.
func (r *CheckinRepository) GetOrCreate(userID uint, initialCurrency int64) (*models.CheckinRecord, error) {
	record, err := r.GetByUserID(userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	record = &models.CheckinRecord{
		UserID:              userID,
		CurrencyBalance:     initialCurrency,
		TotalCurrencyEarned: initialCurrency,
	}
	if err := r.db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a creation race; the other writer's row is authoritative.
			return r.GetByUserID(userID)
		}
		return nil, fmt.Errorf("failed to create check-in record for user %d: %w", userID, err)
	}
	return record, nil
}

// SaveCheckin persists the outcome of a successful check-in: the ledger event
// and the updated record, in one transaction. The record update is guarded by
// an optimistic version check and the event insert by the unique
// (user_id, checkin_date) index, so concurrent claimers surface ErrConflict
// instead of double-awarding. On success the record's Version is advanced.
func (r *CheckinRepository) SaveCheckin(record *models.CheckinRecord, event *models.CheckinEvent) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("check-in for user %d on %s already recorded: %w",
					event.UserID, event.CheckinDate.Format(time.DateOnly), ErrConflict)
			}
			return fmt.Errorf("failed to record check-in event: %w", err)
		}

		res := tx.Model(&models.CheckinRecord{}).
			Where("id = ? AND version = ?", record.ID, record.Version).
			Updates(map[string]interface{}{
				"last_checkin_date":       record.LastCheckinDate,
				"current_streak":          record.CurrentStreak,
				"total_checkins":          record.TotalCheckins,
				"currency_balance":        record.CurrencyBalance,
				"total_currency_earned":   record.TotalCurrencyEarned,
				"has_loyalty_badge":       record.HasLoyaltyBadge,
				"loyalty_badge_earned_at": record.LoyaltyBadgeEarnedAt,
				"version":                 record.Version + 1,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to update check-in record: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("check-in record for user %d: %w", record.UserID, ErrConflict)
		}
		return nil
	})
	if err != nil {
		return err
	}

	record.Version++
	return nil
}

// ListEvents returns a user's most recent check-in events, newest first.
func (r *CheckinRepository) ListEvents(userID uint, limit int) ([]models.CheckinEvent, error) {
	var events []models.CheckinEvent
	query := r.db.Where("user_id = ?", userID).Order("checkin_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list check-in events for user %d: %w", userID, err)
	}
	return events, nil
}

// TopByCurrentStreak returns records ordered by current streak, longest first.
func (r *CheckinRepository) TopByCurrentStreak(limit int) ([]models.CheckinRecord, error) {
	return r.top("current_streak DESC, total_checkins DESC", limit)
}

// TopByTotalCheckins returns records ordered by lifetime check-ins.
func (r *CheckinRepository) TopByTotalCheckins(limit int) ([]models.CheckinRecord, error) {
	return r.top("total_checkins DESC, current_streak DESC", limit)
}

// TopByCurrencyEarned returns records ordered by lifetime earned currency.
func (r *CheckinRepository) TopByCurrencyEarned(limit int) ([]models.CheckinRecord, error) {
	return r.top("total_currency_earned DESC, total_checkins DESC", limit)
}

func (r *CheckinRepository) top(order string, limit int) ([]models.CheckinRecord, error) {
	var records []models.CheckinRecord
	query := r.db.Order(order)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query leaderboard records: %w", err)
	}
	return records, nil
}

// CountCheckinsOn returns the number of check-ins recorded on a calendar date.
func (r *CheckinRepository) CountCheckinsOn(date time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.CheckinEvent{}).
		Where("checkin_date = ?", date).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count check-ins on %s: %w", date.Format(time.DateOnly), err)
	}
	return count, nil
}

// CountLoyaltyBadgeHolders returns the number of users holding the loyalty badge.
func (r *CheckinRepository) CountLoyaltyBadgeHolders() (int64, error) {
	var count int64
	err := r.db.Model(&models.CheckinRecord{}).
		Where("has_loyalty_badge = ?", true).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count loyalty badge holders: %w", err)
	}
	return count, nil
}

// CountActiveStreaks returns the number of users whose streak is still alive
// as of the given date, i.e. whose last check-in was on it or the day before.
func (r *CheckinRepository) CountActiveStreaks(today time.Time) (int64, error) {
	var count int64
	yesterday := today.AddDate(0, 0, -1)
	err := r.db.Model(&models.CheckinRecord{}).
		Where("last_checkin_date IN ?", []time.Time{yesterday, today}).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active streaks: %w", err)
	}
	return count, nil
}
