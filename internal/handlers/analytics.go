package handlers

import (
	"net/http"

	"task-planner/backend/internal/models"
	"task-planner/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analytics services.AnalyticsService
}

func NewAnalyticsHandler(analytics services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

func (h *AnalyticsHandler) TaskSummary(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	summary, err := h.analytics.TaskSummary(c.Request.Context(), owner)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AnalyticsHandler) ProjectSummary(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	summary, err := h.analytics.ProjectSummary(c.Request.Context(), owner)
	if err != nil {
		writeError(c, err)
		return
	}
	if summary == nil {
		summary = []models.ProjectSummary{}
	}
	c.JSON(http.StatusOK, summary)
}
