package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Marga-Ghale/ora-tracker/internal/api/middleware"
	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
	"github.com/Marga-Ghale/ora-tracker/internal/models"
	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/service"
)

var log = logutils.Component("http")

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Dashboard    *DashboardHandler
	Project      *ProjectHandler
	Member       *MemberHandler
	Task         *TaskHandler
	Comment      *CommentHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth},
		User:         &UserHandler{userService: services.User},
		Dashboard:    &DashboardHandler{dashboardService: services.Dashboard},
		Project:      &ProjectHandler{projectService: services.Project},
		Member:       &MemberHandler{membershipService: services.Membership},
		Task:         &TaskHandler{taskService: services.Task},
		Comment:      &CommentHandler{commentService: services.Comment},
		Notification: &NotificationHandler{notificationService: services.Notification},
		Admin:        &AdminHandler{adminService: services.Admin},
	}
}

// Register mounts every route under api. authRequired guards everything but /auth.
func (h *Handlers) Register(api *gin.RouterGroup, authRequired gin.HandlerFunc) {
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
	}

	protected := api.Group("")
	protected.Use(authRequired)
	{
		protected.GET("/users/me", h.User.GetCurrentUser)
		protected.GET("/dashboard", h.Dashboard.Get)

		projects := protected.Group("/projects")
		{
			projects.GET("", h.Project.List)
			projects.POST("", h.Project.Create)
			projects.GET("/:id", h.Project.Get)
			projects.PUT("/:id", h.Project.Update)
			projects.DELETE("/:id", h.Project.Delete)

			projects.GET("/:id/members", h.Member.List)
			projects.POST("/:id/members", h.Member.Invite)
			projects.DELETE("/:id/members/:userId", h.Member.Remove)
			projects.GET("/:id/candidates", h.Member.Candidates)

			projects.GET("/:id/tasks", h.Task.ListByProject)
			projects.POST("/:id/tasks", h.Task.Create)

			projects.GET("/:id/summary", h.Project.Summary)
			projects.GET("/:id/summaries", h.Project.ListSummaries)
		}

		tasks := protected.Group("/tasks")
		{
			tasks.GET("/:id", h.Task.Get)
			tasks.PUT("/:id", h.Task.Update)
			tasks.DELETE("/:id", h.Task.Delete)

			tasks.GET("/:id/comments", h.Comment.ListByTask)
			tasks.POST("/:id/comments", h.Comment.Create)
		}

		comments := protected.Group("/comments")
		{
			comments.GET("/:id", h.Comment.Get)
			comments.PUT("/:id", h.Comment.Update)
			comments.DELETE("/:id", h.Comment.Delete)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.GET("/count", h.Notification.Count)
			notifications.PUT("/read-all", h.Notification.MarkAllRead)
			notifications.PUT("/:id/read", h.Notification.MarkRead)
			notifications.POST("/:id/accept", h.Notification.AcceptInvite)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/stats", h.Admin.Stats)
			admin.GET("/users", h.Admin.ListUsers)
			admin.GET("/projects", h.Admin.ListProjects)
			admin.DELETE("/users/:id", h.Admin.DeleteUser)
			admin.DELETE("/projects/:id", h.Admin.DeleteProject)
		}
	}
}

// ============================================
// Error responses
// ============================================

// respondError maps service errors onto status codes. fallback is the
// message used for unexpected failures.
func respondError(c *gin.Context, err error, fallback string) {
	var forbidden *service.ForbiddenError
	var invalid *service.ValidationError

	switch {
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, models.ForbiddenResponse{
			Error:    "forbidden",
			Message:  forbidden.Reason,
			Redirect: forbidden.Redirect,
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ForbiddenResponse{Error: "forbidden", Message: "Access denied.", Redirect: "/projects"})
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, models.ValidationErrorResponse{Error: "validation failed", Fields: invalid.Fields})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		log.WithError(err).WithField("path", c.Request.URL.Path).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// bindError answers a malformed request body.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponsePtr(u *repository.User) *models.UserResponse {
	if u == nil {
		return nil
	}
	resp := toUserResponse(u)
	return &resp
}

func toRightsResponse(r policy.AccessRights) models.AccessRightsResponse {
	return models.AccessRightsResponse{IsAdmin: r.IsAdmin, IsOrganizer: r.IsOrganizer, IsMember: r.IsMember}
}

func toProjectResponse(p *repository.Project) models.ProjectResponse {
	return models.ProjectResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		OrganizerID: p.OrganizerID,
		Organizer:   toUserResponsePtr(p.Organizer),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProjectResponses(projects []*repository.Project) []models.ProjectResponse {
	resp := make([]models.ProjectResponse, len(projects))
	for i, p := range projects {
		resp[i] = toProjectResponse(p)
	}
	return resp
}

func toProgressResponses(items []*service.ProjectProgress) []models.ProjectProgressResponse {
	resp := make([]models.ProjectProgressResponse, len(items))
	for i, p := range items {
		resp[i] = models.ProjectProgressResponse{
			Project:        toProjectResponse(p.Project),
			TotalTasks:     p.TotalTasks,
			CompletedTasks: p.CompletedTasks,
			Completion:     p.Completion.StringFixed(2),
		}
	}
	return resp
}

func toMemberResponse(m *repository.ProjectMember) models.ProjectMemberResponse {
	return models.ProjectMemberResponse{
		ProjectID:  m.ProjectID,
		UserID:     m.UserID,
		IsAccepted: m.IsAccepted,
		InvitedAt:  m.InvitedAt,
		AcceptedAt: m.AcceptedAt,
		User:       toUserResponsePtr(m.User),
	}
}

func toTaskResponse(t *repository.Task) models.TaskResponse {
	return models.TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Content:     t.Content,
		Status:      t.Status,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		AssigneeID:  t.AssigneeID,
		Assignee:    toUserResponsePtr(t.Assignee),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskResponses(tasks []*repository.Task) []models.TaskResponse {
	resp := make([]models.TaskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = toTaskResponse(t)
	}
	return resp
}

func toCommentResponse(cm *repository.Comment) models.CommentResponse {
	return models.CommentResponse{
		ID:        cm.ID,
		TaskID:    cm.TaskID,
		UserID:    cm.UserID,
		Content:   cm.Content,
		User:      toUserResponsePtr(cm.User),
		CreatedAt: cm.CreatedAt,
		UpdatedAt: cm.UpdatedAt,
	}
}

func toCommentResponses(comments []*repository.Comment) []models.CommentResponse {
	resp := make([]models.CommentResponse, len(comments))
	for i, cm := range comments {
		resp[i] = toCommentResponse(cm)
	}
	return resp
}

func toNotificationResponse(n *repository.Notification) models.NotificationResponse {
	return models.NotificationResponse{
		ID:              n.ID,
		Type:            n.Type,
		Text:            n.Text,
		Link:            n.Link,
		RelatedEntityID: n.RelatedEntityID,
		IsRead:          n.IsRead,
		CreatedAt:       n.CreatedAt,
		Sender:          toUserResponsePtr(n.Sender),
	}
}
