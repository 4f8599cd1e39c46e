package mocks

import "github.com/stylay/checkin-service/internal/models"

// MockCheckinRepository is a function-field mock for the check-in repository.
type MockCheckinRepository struct {
	GetByUserIDFunc              func(userID uint) (*models.CheckinRecord, error)
	GetOrCreateFunc              func(userID uint, initialCurrency int64) (*models.CheckinRecord, error)
	SaveCheckinFunc              func(record *models.CheckinRecord, event *models.CheckinEvent) error
	ListEventsFunc               func(userID uint, limit int) ([]models.CheckinEvent, error)
	CountLoyaltyBadgeHoldersFunc func() (int64, error)
}

func (m *MockCheckinRepository) GetByUserID(userID uint) (*models.CheckinRecord, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(userID)
	}
	return nil, nil
}

func (m *MockCheckinRepository) GetOrCreate(userID uint, initialCurrency int64) (*models.CheckinRecord, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(userID, initialCurrency)
	}
	return &models.CheckinRecord{UserID: userID}, nil
}

func (m *MockCheckinRepository) SaveCheckin(record *models.CheckinRecord, event *models.CheckinEvent) error {
	if m.SaveCheckinFunc != nil {
		return m.SaveCheckinFunc(record, event)
	}
	return nil
}

func (m *MockCheckinRepository) ListEvents(userID uint, limit int) ([]models.CheckinEvent, error) {
	if m.ListEventsFunc != nil {
		return m.ListEventsFunc(userID, limit)
	}
	return []models.CheckinEvent{}, nil
}

func (m *MockCheckinRepository) CountLoyaltyBadgeHolders() (int64, error) {
	if m.CountLoyaltyBadgeHoldersFunc != nil {
		return m.CountLoyaltyBadgeHoldersFunc()
	}
	return 0, nil
}
