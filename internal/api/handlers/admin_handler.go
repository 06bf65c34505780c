package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-tracker/internal/api/middleware"
	"github.com/Marga-Ghale/ora-tracker/internal/models"
	"github.com/Marga-Ghale/ora-tracker/internal/service"
)

// ============================================
// Admin Handler
// ============================================

type AdminHandler struct {
	adminService service.AdminService
}

func (h *AdminHandler) Stats(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	stats, err := h.adminService.Stats(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to load statistics")
		return
	}

	c.JSON(http.StatusOK, models.AdminStatsResponse{
		Users:          stats.Users,
		Projects:       stats.Projects,
		Tasks:          stats.Tasks,
		RecentProjects: toProjectResponses(stats.RecentProjects),
	})
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	users, err := h.adminService.ListUsers(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to fetch users")
		return
	}

	resp := make([]models.UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) ListProjects(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	projects, err := h.adminService.ListProjects(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to fetch projects")
		return
	}
	c.JSON(http.StatusOK, toProgressResponses(projects))
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete user")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) DeleteProject(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	if err := h.adminService.DeleteProject(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete project")
		return
	}
	c.Status(http.StatusNoContent)
}
