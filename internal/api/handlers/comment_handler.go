package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-tracker/internal/api/middleware"
	"github.com/Marga-Ghale/ora-tracker/internal/models"
	"github.com/Marga-Ghale/ora-tracker/internal/service"
)

// ============================================
// Comment Handler
// ============================================

type CommentHandler struct {
	commentService service.CommentService
}

func (h *CommentHandler) ListByTask(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	comments, err := h.commentService.ListByTask(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch comments")
		return
	}
	c.JSON(http.StatusOK, toCommentResponses(comments))
}

func (h *CommentHandler) Create(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), actor, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err, "Failed to create comment")
		return
	}
	c.JSON(http.StatusCreated, toCommentResponse(comment))
}

func (h *CommentHandler) Get(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	comment, err := h.commentService.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch comment")
		return
	}
	c.JSON(http.StatusOK, toCommentResponse(comment))
}

func (h *CommentHandler) Update(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	comment, err := h.commentService.Update(c.Request.Context(), actor, c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err, "Failed to update comment")
		return
	}
	c.JSON(http.StatusOK, toCommentResponse(comment))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete comment")
		return
	}
	c.Status(http.StatusNoContent)
}
