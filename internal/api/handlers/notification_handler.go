package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-tracker/internal/api/middleware"
	"github.com/Marga-Ghale/ora-tracker/internal/models"
	"github.com/Marga-Ghale/ora-tracker/internal/service"
)

// ============================================
// Notification Handler
// ============================================

type NotificationHandler struct {
	notificationService service.NotificationService
}

func (h *NotificationHandler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.notificationService.List(c.Request.Context(), actor, unreadOnly)
	if err != nil {
		respondError(c, err, "Failed to fetch notifications")
		return
	}

	resp := make([]models.NotificationResponse, len(notifications))
	for i, n := range notifications {
		resp[i] = toNotificationResponse(n)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *NotificationHandler) Count(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	total, unread, err := h.notificationService.Count(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err, "Failed to count notifications")
		return
	}
	c.JSON(http.StatusOK, models.NotificationCountResponse{Total: total, Unread: unread})
}

// MarkRead answers 200 either way; success is false for a notification the caller does not own.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkRead(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to mark notification as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": updated})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), actor); err != nil {
		respondError(c, err, "Failed to mark notifications as read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AcceptInvite accepts the invitation behind a notification. A missing
// invitation is not an error; the outcome is reported as not_found.
func (h *NotificationHandler) AcceptInvite(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.AcceptInviteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
	}

	outcome, joined, err := h.notificationService.AcceptInvite(c.Request.Context(), actor, c.Param("id"), req.ProjectID)
	if err != nil {
		respondError(c, err, "Failed to accept invitation")
		return
	}

	resp := models.AcceptInviteResponse{Outcome: string(outcome)}
	if outcome == service.AcceptAccepted {
		resp.Redirect = "/projects/" + joined
	}
	c.JSON(http.StatusOK, resp)
}
