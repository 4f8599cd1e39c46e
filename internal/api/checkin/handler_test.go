//nolint:noctx // Test file uses http.NewRequest for simplicity
package checkin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/stylay/checkin-service/internal/models"
	"github.com/stylay/checkin-service/internal/service/leaderboard"
	"github.com/stylay/checkin-service/internal/service/streak"
	"github.com/stylay/checkin-service/pkg/logger"
)

// Mock Check-in Service
type mockCheckinService struct {
	responses  map[uint]*streak.CheckinResponse
	statuses   map[uint]*streak.Status
	summaries  map[uint]*streak.Summary
	milestones []streak.Milestone
	checkinErr error
}

func newMockCheckinService() *mockCheckinService {
	return &mockCheckinService{
		responses: make(map[uint]*streak.CheckinResponse),
		statuses:  make(map[uint]*streak.Status),
		summaries: make(map[uint]*streak.Summary),
	}
}

func (m *mockCheckinService) CheckIn(ctx context.Context, userID uint) (*streak.CheckinResponse, error) {
	if m.checkinErr != nil {
		return nil, m.checkinErr
	}
	resp, exists := m.responses[userID]
	if !exists {
		return nil, fmt.Errorf("no response configured")
	}
	return resp, nil
}

func (m *mockCheckinService) GetStatus(ctx context.Context, userID uint) (*streak.Status, error) {
	status, exists := m.statuses[userID]
	if !exists {
		return nil, fmt.Errorf("no status configured")
	}
	return status, nil
}

func (m *mockCheckinService) GetSummary(ctx context.Context, userID uint) (*streak.Summary, error) {
	summary, exists := m.summaries[userID]
	if !exists {
		return nil, fmt.Errorf("no summary configured")
	}
	return summary, nil
}

func (m *mockCheckinService) Milestones() []streak.Milestone {
	return m.milestones
}

// Mock Leaderboard Service
type mockLeaderboardService struct {
	entries map[string][]leaderboard.Entry
}

func newMockLeaderboardService() *mockLeaderboardService {
	return &mockLeaderboardService{entries: make(map[string][]leaderboard.Entry)}
}

func (m *mockLeaderboardService) GetLeaderboard(ctx context.Context, metric string, limit int) ([]leaderboard.Entry, error) {
	entries, exists := m.entries[metric]
	if !exists {
		return []leaderboard.Entry{}, nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

type healthyDB struct{ err error }

func (d *healthyDB) Health() error { return d.err }

type healthyCache struct{ err error }

func (c *healthyCache) Health(ctx context.Context) error { return c.err }

// Test Setup
func setupTestHandler() (*Handler, *mockCheckinService, *mockLeaderboardService) {
	checkinService := newMockCheckinService()
	leaderboardService := newMockLeaderboardService()
	log := logger.New("debug", "text", "stdout")

	handler := NewHandler(checkinService, leaderboardService, &healthyDB{}, &healthyCache{}, log)

	return handler, checkinService, leaderboardService
}

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router)
	return router
}

// Tests

func TestCheckIn_Success(t *testing.T) {
	handler, checkinService, _ := setupTestHandler()
	router := setupRouter(handler)

	checkinService.responses[1] = &streak.CheckinResponse{
		UserID: 1,
		Streak: 7,
		Reward: &streak.Reward{
			CurrencyAwarded: 200,
			IsMilestone:     true,
			MilestoneKind:   models.MilestoneCurrency,
			MilestoneLabel:  "7-day streak",
			StreakAfter:     7,
		},
	}

	req, _ := http.NewRequest("POST", "/api/v1/users/1/checkin", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)

	result := response["result"].(map[string]interface{})
	assert.Equal(t, float64(7), result["streak"])
	assert.Equal(t, false, result["already_checked_in"])

	reward := result["reward"].(map[string]interface{})
	assert.Equal(t, float64(200), reward["currency_awarded"])
	assert.Equal(t, true, reward["is_milestone"])
}

func TestCheckIn_AlreadyCheckedIn(t *testing.T) {
	handler, checkinService, _ := setupTestHandler()
	router := setupRouter(handler)

	checkinService.responses[1] = &streak.CheckinResponse{
		UserID:           1,
		AlreadyCheckedIn: true,
		Streak:           7,
	}

	req, _ := http.NewRequest("POST", "/api/v1/users/1/checkin", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// A same-day repeat is a normal 200, not an error.
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)

	result := response["result"].(map[string]interface{})
	assert.Equal(t, true, result["already_checked_in"])
}

func TestCheckIn_ClockRegression(t *testing.T) {
	handler, checkinService, _ := setupTestHandler()
	router := setupRouter(handler)

	checkinService.checkinErr = fmt.Errorf("today precedes last: %w", streak.ErrClockRegression)

	req, _ := http.NewRequest("POST", "/api/v1/users/1/checkin", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckIn_InvalidRecord(t *testing.T) {
	handler, checkinService, _ := setupTestHandler()
	router := setupRouter(handler)

	checkinService.checkinErr = fmt.Errorf("bad state: %w", streak.ErrInvalidRecord)

	req, _ := http.NewRequest("POST", "/api/v1/users/1/checkin", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCheckIn_InvalidUserID(t *testing.T) {
	handler, _, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("POST", "/api/v1/users/abc/checkin", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Contains(t, response["error"], "invalid user ID")
}

func TestGetStatus_Success(t *testing.T) {
	handler, checkinService, _ := setupTestHandler()
	router := setupRouter(handler)

	checkinService.statuses[1] = &streak.Status{CanCheckInToday: true}

	req, _ := http.NewRequest("GET", "/api/v1/users/1/checkin/status", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)

	status := response["status"].(map[string]interface{})
	assert.Equal(t, true, status["can_check_in_today"])
}

func TestGetSummary_Success(t *testing.T) {
	handler, checkinService, _ := setupTestHandler()
	router := setupRouter(handler)

	checkinService.summaries[1] = &streak.Summary{
		Record:           models.CheckinRecord{UserID: 1, CurrentStreak: 10, CurrencyBalance: 2500},
		Status:           streak.Status{CanCheckInToday: true},
		FormattedBalance: "2.5K",
	}

	req, _ := http.NewRequest("GET", "/api/v1/users/1/checkin/summary", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)

	summary := response["summary"].(map[string]interface{})
	assert.Equal(t, "2.5K", summary["formatted_balance"])
}

func TestGetMilestones(t *testing.T) {
	handler, checkinService, _ := setupTestHandler()
	router := setupRouter(handler)

	checkinService.milestones = []streak.Milestone{
		{Days: 7, Kind: models.MilestoneCurrency, Currency: 200, Label: "7-day streak"},
		{Days: 40, Kind: models.MilestoneLoyaltyBadge, Label: "40-day loyalty badge"},
	}

	req, _ := http.NewRequest("GET", "/api/v1/milestones", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, float64(2), response["total"])
}

func TestGetLeaderboard_Success(t *testing.T) {
	handler, _, leaderboardService := setupTestHandler()
	router := setupRouter(handler)

	leaderboardService.entries[leaderboard.MetricCurrentStreak] = []leaderboard.Entry{
		{Rank: 1, UserID: 2, CurrentStreak: 41, HasLoyaltyBadge: true},
		{Rank: 2, UserID: 1, CurrentStreak: 9},
	}

	req, _ := http.NewRequest("GET", "/api/v1/leaderboard?metric=current_streak&limit=10", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "current_streak", response["metric"])
	assert.Equal(t, float64(2), response["total_entries"])
}

func TestGetLeaderboard_InvalidMetric(t *testing.T) {
	handler, _, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("GET", "/api/v1/leaderboard?metric=invalid", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Contains(t, response["error"], "invalid metric")
}

func TestGetLeaderboard_InvalidLimit(t *testing.T) {
	handler, _, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("GET", "/api/v1/leaderboard?limit=abc", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	handler, _, _ := setupTestHandler()
	router := setupRouter(handler)

	req, _ := http.NewRequest("GET", "/healthz", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealth_DatabaseDown(t *testing.T) {
	checkinService := newMockCheckinService()
	leaderboardService := newMockLeaderboardService()
	log := logger.New("debug", "text", "stdout")
	handler := NewHandler(checkinService, leaderboardService, &healthyDB{err: fmt.Errorf("connection refused")}, &healthyCache{}, log)
	router := setupRouter(handler)

	req, _ := http.NewRequest("GET", "/healthz", http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
