package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-tracker/internal/api/middleware"
	"github.com/Marga-Ghale/ora-tracker/internal/models"
	"github.com/Marga-Ghale/ora-tracker/internal/service"
)

// ============================================
// Member Handler
// ============================================

type MemberHandler struct {
	membershipService service.MembershipService
}

// List returns accepted and pending members; pending rows have isAccepted=false.
func (h *MemberHandler) List(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	members, err := h.membershipService.ListMembers(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch members")
		return
	}

	resp := make([]models.ProjectMemberResponse, len(members))
	for i, m := range members {
		resp[i] = toMemberResponse(m)
	}
	c.JSON(http.StatusOK, resp)
}

// Invite answers 201 for a new invitation and 200 when the user already has a row.
func (h *MemberHandler) Invite(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	var req models.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	outcome, err := h.membershipService.Invite(c.Request.Context(), actor, c.Param("id"), req.UserID)
	if err != nil {
		respondError(c, err, "Failed to invite member")
		return
	}

	status := http.StatusOK
	if outcome == service.InviteCreated {
		status = http.StatusCreated
	}
	c.JSON(status, models.InviteMemberResponse{Outcome: string(outcome)})
}

func (h *MemberHandler) Remove(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	if err := h.membershipService.Remove(c.Request.Context(), actor, c.Param("id"), c.Param("userId")); err != nil {
		respondError(c, err, "Failed to remove member")
		return
	}
	c.Status(http.StatusNoContent)
}

// Candidates lists users who can still be invited.
func (h *MemberHandler) Candidates(c *gin.Context) {
	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}

	users, err := h.membershipService.ListCandidates(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch candidates")
		return
	}

	resp := make([]models.UserResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	c.JSON(http.StatusOK, resp)
}
