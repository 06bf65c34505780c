package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-tracker/internal/api/middleware"
	"github.com/Marga-Ghale/ora-tracker/internal/models"
	"github.com/Marga-Ghale/ora-tracker/internal/service"
)

// ============================================
// Dashboard Handler
// ============================================

type DashboardHandler struct {
	dashboardService service.DashboardService
}

// Get serves GET /dashboard?status=.
func (h *DashboardHandler) Get(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	d, err := h.dashboardService.Get(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		respondError(c, err, "Failed to load dashboard")
		return
	}

	c.JSON(http.StatusOK, models.DashboardResponse{
		Projects: toProgressResponses(d.Projects),
		Assigned: toTaskResponses(d.Assigned),
		Upcoming: toTaskResponses(d.Upcoming),
	})
}
