package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-tracker/internal/api/middleware"
	"github.com/Marga-Ghale/ora-tracker/internal/service"
)

// ============================================
// User Handler
// ============================================

type UserHandler struct {
	userService service.UserService
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	// AuthMiddleware already loaded the user.
	if user := middleware.GetUser(c); user != nil {
		c.JSON(http.StatusOK, toUserResponse(user))
		return
	}

	actor, ok := middleware.RequireActor(c)
	if !ok {
		return
	}
	user, err := h.userService.GetByID(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, toUserResponse(user))
}
