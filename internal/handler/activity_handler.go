package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timetrack/backend/internal/middleware"
	"timetrack/backend/internal/model"
	"timetrack/backend/internal/repository"
	"timetrack/backend/internal/service"
)

type ActivityHandler struct {
	tracker *service.TrackerService
}

type startRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Context  string `json:"context"`
}

type stopRequest struct {
	Context string `json:"context"`
}

type updateRequest struct {
	Title         *string `json:"title"`
	Category      *string `json:"category"`
	PomodoroCount *int    `json:"pomodoroCount"`
}

func NewActivityHandler(tracker *service.TrackerService) *ActivityHandler {
	return &ActivityHandler{tracker: tracker}
}

func (h *ActivityHandler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c)
		return
	}
	if req.Context == "" {
		req.Context = model.ContextTracker
	}

	userID := middleware.UserID(c)
	activity, apiErr := h.tracker.Start(c.Request.Context(), userID, req.Context, req.Title, model.Category(req.Category))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"activity": activity})
}

func (h *ActivityHandler) Stop(c *gin.Context) {
	req := stopRequest{Context: model.ContextTracker}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidJSON(c)
			return
		}
		if req.Context == "" {
			req.Context = model.ContextTracker
		}
	}

	userID := middleware.UserID(c)
	activity, apiErr := h.tracker.Stop(c.Request.Context(), userID, req.Context)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	// Nothing running: stop is a no-op, not an error.
	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

func (h *ActivityHandler) Current(c *gin.Context) {
	trackingContext := c.DefaultQuery("context", model.ContextTracker)

	userID := middleware.UserID(c)
	current, apiErr := h.tracker.Current(c.Request.Context(), userID, trackingContext)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"current": current})
}

func (h *ActivityHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	activities, apiErr := h.tracker.History(c.Request.Context(), userID)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (h *ActivityHandler) Update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidJSON(c)
		return
	}

	patch := repository.ActivityPatch{
		Title:         req.Title,
		PomodoroCount: req.PomodoroCount,
	}
	if req.Category != nil {
		category := model.Category(*req.Category)
		patch.Category = &category
	}

	userID := middleware.UserID(c)
	activity, apiErr := h.tracker.Update(c.Request.Context(), userID, c.Param("id"), patch)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	userID := middleware.UserID(c)
	if apiErr := h.tracker.Delete(c.Request.Context(), userID, c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
