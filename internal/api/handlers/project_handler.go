package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-tracker/internal/api/middleware"
	"github.com/Marga-Ghale/ora-tracker/internal/models"
	"github.com/Marga-Ghale/ora-tracker/internal/service"
)

// ============================================
// Project Handler
// ============================================

type ProjectHandler struct {
	projectService service.ProjectService
}

func (h *ProjectHandler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	projects, err := h.projectService.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to fetch projects")
		return
	}
	c.JSON(http.StatusOK, toProjectResponses(projects))
}

func (h *ProjectHandler) Create(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), actor, service.ProjectInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err, "Failed to create project")
		return
	}
	c.JSON(http.StatusCreated, toProjectResponse(project))
}

func (h *ProjectHandler) Get(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	view, err := h.projectService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch project")
		return
	}

	members := make([]models.ProjectMemberResponse, len(view.Project.Members))
	for i, m := range view.Project.Members {
		members[i] = toMemberResponse(m)
	}

	c.JSON(http.StatusOK, models.ProjectDetailResponse{
		ProjectResponse: toProjectResponse(view.Project),
		Tasks:           toTaskResponses(view.Project.Tasks),
		Members:         members,
		Rights:          toRightsResponse(view.Rights),
	})
}

func (h *ProjectHandler) Update(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), actor, c.Param("id"), service.ProjectInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err, "Failed to update project")
		return
	}
	c.JSON(http.StatusOK, toProjectResponse(project))
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete project")
		return
	}
	c.Status(http.StatusNoContent)
}

// Summary always answers 200 once access is granted; summary failures come back as text.
func (h *ProjectHandler) Summary(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	id := c.Param("id")
	text, err := h.projectService.Summarize(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err, "Failed to summarize project")
		return
	}
	c.JSON(http.StatusOK, models.SummaryResponse{ProjectID: id, Text: text})
}

func (h *ProjectHandler) ListSummaries(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	summaries, err := h.projectService.ListSummaries(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch summaries")
		return
	}

	resp := make([]models.ProjectSummaryResponse, len(summaries))
	for i, s := range summaries {
		resp[i] = models.ProjectSummaryResponse{ID: s.ID, Content: s.Content, CreatedAt: s.CreatedAt}
	}
	c.JSON(http.StatusOK, resp)
}
