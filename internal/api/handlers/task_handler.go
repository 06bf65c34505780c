package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-tracker/internal/api/middleware"
	"github.com/Marga-Ghale/ora-tracker/internal/models"
	"github.com/Marga-Ghale/ora-tracker/internal/service"
)

// ============================================
// Task Handler
// ============================================

type TaskHandler struct {
	taskService service.TaskService
}

func toTaskInput(req models.TaskRequest) service.TaskInput {
	return service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		AssigneeID:  req.AssigneeID,
	}
}

func (h *TaskHandler) ListByProject(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListByProject(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch tasks")
		return
	}
	c.JSON(http.StatusOK, toTaskResponses(tasks))
}

func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), actor, c.Param("id"), toTaskInput(req))
	if err != nil {
		respondError(c, err, "Failed to create task")
		return
	}
	c.JSON(http.StatusCreated, toTaskResponse(task))
}

func (h *TaskHandler) Get(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	view, err := h.taskService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch task")
		return
	}

	resp := models.TaskDetailResponse{
		TaskResponse: toTaskResponse(view.Task),
		Comments:     toCommentResponses(view.Task.Comments),
		Rights:       toRightsResponse(view.Rights),
		EditScope:    view.EditScope.String(),
	}
	if view.Task.Project != nil {
		project := toProjectResponse(view.Task.Project)
		resp.Project = &project
	}
	c.JSON(http.StatusOK, resp)
}

func (h *TaskHandler) Update(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	task, err := h.taskService.Update(c.Request.Context(), actor, c.Param("id"), toTaskInput(req))
	if err != nil {
		respondError(c, err, "Failed to update task")
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) Delete(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete task")
		return
	}
	c.Status(http.StatusNoContent)
}
