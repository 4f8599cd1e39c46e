// Package checkin provides REST API handlers for the daily check-in service.
// It exposes endpoints for check-ins, status, summaries, the milestone catalog
// and the streak leaderboard.
package checkin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stylay/checkin-service/internal/service/leaderboard"
	"github.com/stylay/checkin-service/internal/service/streak"
	"github.com/stylay/checkin-service/pkg/logger"
)

// CheckinService interface for check-in operations.
type CheckinService interface {
	CheckIn(ctx context.Context, userID uint) (*streak.CheckinResponse, error)
	GetStatus(ctx context.Context, userID uint) (*streak.Status, error)
	GetSummary(ctx context.Context, userID uint) (*streak.Summary, error)
	Milestones() []streak.Milestone
}

// LeaderboardService interface for leaderboard operations.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, metric string, limit int) ([]leaderboard.Entry, error)
}

// HealthChecker reports the health of a backing store.
type HealthChecker interface {
	Health() error
}

// CacheHealthChecker reports the health of the cache.
type CacheHealthChecker interface {
	Health(ctx context.Context) error
}

// Handler handles check-in API requests.
type Handler struct {
	checkinService     CheckinService
	leaderboardService LeaderboardService
	db                 HealthChecker
	cache              CacheHealthChecker
	log                *logger.Logger
}

// NewHandler creates a new check-in handler.
func NewHandler(checkinService CheckinService, leaderboardService LeaderboardService, db HealthChecker, cache CacheHealthChecker, log *logger.Logger) *Handler {
	return &Handler{
		checkinService:     checkinService,
		leaderboardService: leaderboardService,
		db:                 db,
		cache:              cache,
		log:                log,
	}
}

// RegisterRoutes attaches the API routes to a gin router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.POST("/users/:id/checkin", h.CheckIn)
	api.GET("/users/:id/checkin/status", h.GetStatus)
	api.GET("/users/:id/checkin/summary", h.GetSummary)
	api.GET("/milestones", h.GetMilestones)
	api.GET("/leaderboard", h.GetLeaderboard)

	router.GET("/healthz", h.Health)
}

// CheckIn performs the daily check-in for a user.
// POST /api/v1/users/:id/checkin.
func (h *Handler) CheckIn(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.checkinService.CheckIn(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, streak.ErrClockRegression):
			h.log.Warn().Err(err).Uint("user_id", userID).Msg("Check-in rejected: clock regression")
			h.errorResponse(c, http.StatusConflict, "Check-in date precedes the last recorded check-in")
		case errors.Is(err, streak.ErrInvalidRecord):
			h.log.Error().Err(err).Uint("user_id", userID).Msg("Check-in rejected: corrupted record")
			h.errorResponse(c, http.StatusInternalServerError, "Check-in record is in an invalid state")
		default:
			h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to process check-in")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to process check-in")
		}
		return
	}

	// A repeated same-day check-in is a normal outcome, not an error.
	c.JSON(http.StatusOK, gin.H{
		"result":       resp,
		"generated_at": time.Now().UTC(),
	})
}

// GetStatus reports whether the user can check in today.
// GET /api/v1/users/:id/checkin/status.
func (h *Handler) GetStatus(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.checkinService.GetStatus(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get check-in status")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve check-in status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"status":       status,
		"generated_at": time.Now().UTC(),
	})
}

// GetSummary returns the user's full check-in state.
// GET /api/v1/users/:id/checkin/summary.
func (h *Handler) GetSummary(c *gin.Context) {
	userID, err := h.parseUserID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.checkinService.GetSummary(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get check-in summary")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve check-in summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"summary":      summary,
		"generated_at": time.Now().UTC(),
	})
}

// GetMilestones returns the milestone reward table.
// GET /api/v1/milestones.
func (h *Handler) GetMilestones(c *gin.Context) {
	milestones := h.checkinService.Milestones()

	c.JSON(http.StatusOK, gin.H{
		"milestones":   milestones,
		"total":        len(milestones),
		"generated_at": time.Now().UTC(),
	})
}

// GetLeaderboard returns the top users by the requested metric.
// GET /api/v1/leaderboard?metric=current_streak&limit=10.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	metric := c.DefaultQuery("metric", leaderboard.MetricCurrentStreak)
	limit, err := h.parseLimit(c, 10)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validateMetric(metric); err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), metric, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard":   entries,
		"metric":        metric,
		"total_entries": len(entries),
		"generated_at":  time.Now().UTC(),
	})
}

// Health reports service liveness and database health.
// GET /healthz.
func (h *Handler) Health(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
	}

	if h.cache != nil {
		if err := h.cache.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "cache unreachable",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Helper functions

// parseUserID extracts and validates the user ID from the URL parameter.
func (h *Handler) parseUserID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user ID: %s", idStr)
	}
	return uint(id), nil
}

// parseLimit extracts and validates the limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}

	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}

	if limit > 1000 {
		return 0, fmt.Errorf("limit cannot exceed 1000")
	}

	return limit, nil
}

// validateMetric validates the leaderboard metric parameter.
func (h *Handler) validateMetric(metric string) error {
	validMetrics := map[string]bool{
		leaderboard.MetricCurrentStreak:  true,
		leaderboard.MetricTotalCheckins:  true,
		leaderboard.MetricCurrencyEarned: true,
	}

	if !validMetrics[metric] {
		return fmt.Errorf("invalid metric: %s (valid: current_streak, total_checkins, currency_earned)", metric)
	}
	return nil
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
