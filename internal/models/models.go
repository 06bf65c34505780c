package models

import "time"

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// ============================================
// Notification DTOs
// ============================================

type NotificationResponse struct {
	ID              string        `json:"id"`
	Type            string        `json:"type"`
	Text            string        `json:"text"`
	Link            *string       `json:"link,omitempty"`
	RelatedEntityID *string       `json:"relatedEntityId,omitempty"`
	IsRead          bool          `json:"isRead"`
	CreatedAt       time.Time     `json:"createdAt"`
	Sender          *UserResponse `json:"sender,omitempty"`
}

type NotificationCountResponse struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

// AcceptInviteRequest carries the project of the invite. ProjectID may be
// empty, the server then reads it from the notification.
type AcceptInviteRequest struct {
	ProjectID string `json:"projectId"`
}

type AcceptInviteResponse struct {
	Outcome  string `json:"outcome"`
	Redirect string `json:"redirect,omitempty"`
}

// ============================================
// Dashboard and admin DTOs
// ============================================

type ProjectProgressResponse struct {
	Project        ProjectResponse `json:"project"`
	TotalTasks     int             `json:"totalTasks"`
	CompletedTasks int             `json:"completedTasks"`
	// Completion is a percentage with two decimal places, e.g. "66.67".
	Completion string `json:"completion"`
}

type DashboardResponse struct {
	Projects []ProjectProgressResponse `json:"projects"`
	Assigned []TaskResponse            `json:"assigned"`
	Upcoming []TaskResponse            `json:"upcoming"`
}

type AdminStatsResponse struct {
	Users          int               `json:"users"`
	Projects       int               `json:"projects"`
	Tasks          int               `json:"tasks"`
	RecentProjects []ProjectResponse `json:"recentProjects"`
}

// ============================================
// Error DTOs
// ============================================

type ForbiddenResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
}

type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}
