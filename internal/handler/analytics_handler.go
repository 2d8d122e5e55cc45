package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"timetrack/backend/internal/analytics"
	apperrors "timetrack/backend/internal/errors"
	"timetrack/backend/internal/middleware"
	"timetrack/backend/internal/service"
)

type AnalyticsHandler struct {
	tracker *service.TrackerService
}

func NewAnalyticsHandler(tracker *service.TrackerService) *AnalyticsHandler {
	return &AnalyticsHandler{tracker: tracker}
}

// Get aggregates the user's activities over the week or month containing now.
func (h *AnalyticsHandler) Get(c *gin.Context) {
	rng := analytics.Range(c.DefaultQuery("range", string(analytics.RangeWeek)))
	if !analytics.IsValidRange(rng) {
		writeError(c, apperrors.Validation("range must be week or month"))
		return
	}

	userID := middleware.UserID(c)
	activities, apiErr := h.tracker.History(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	now := time.Now()
	filtered := analytics.Filter(activities, rng, now)
	windowStart, windowEnd := analytics.WindowBounds(rng, now)

	c.JSON(http.StatusOK, gin.H{
		"range":          rng,
		"windowStart":    windowStart,
		"windowEnd":      windowEnd,
		"categoryTotals": analytics.CategoryTotals(filtered),
		"dailyTotals":    analytics.DailyTotals(filtered),
	})
}
