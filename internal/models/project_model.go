package models

import "time"

// ============================================
// Project DTOs
// ============================================

type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description"`
}

type ProjectResponse struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	OrganizerID string        `json:"organizerId"`
	Organizer   *UserResponse `json:"organizer,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// AccessRightsResponse tells the client which controls to show.
type AccessRightsResponse struct {
	IsAdmin     bool `json:"isAdmin"`
	IsOrganizer bool `json:"isOrganizer"`
	IsMember    bool `json:"isMember"`
}

type ProjectDetailResponse struct {
	ProjectResponse
	Tasks   []TaskResponse          `json:"tasks"`
	Members []ProjectMemberResponse `json:"members"`
	Rights  AccessRightsResponse    `json:"rights"`
}

type SummaryResponse struct {
	ProjectID string `json:"projectId"`
	Text      string `json:"text"`
}

type ProjectSummaryResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
