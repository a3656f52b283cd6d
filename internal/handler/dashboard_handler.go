package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepstack/satprep-backend/internal/middleware"
	"github.com/prepstack/satprep-backend/internal/response"
	"github.com/prepstack/satprep-backend/internal/service"
)

// DashboardHandler serves the student progress dashboard.
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetOverview godoc
// GET /api/v1/dashboard
// Returns aggregate stats, subject accuracy and recent attempts.
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	overview, err := h.dashboardService.GetOverview(c.Request.Context(), claims.StudentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, overview)
}
