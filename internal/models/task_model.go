package models

import "time"

// ============================================
// Task DTOs
// ============================================

// TaskRequest is used for create and update. On update an assignee who is
// neither organizer nor administrator may only change Status; other fields are ignored.
type TaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     *string   `json:"content"`
	Status      string    `json:"status"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	AssigneeID  *string   `json:"assigneeId"`
}

type TaskResponse struct {
	ID          string        `json:"id"`
	ProjectID   string        `json:"projectId"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Content     *string       `json:"content,omitempty"`
	Status      string        `json:"status"`
	StartDate   time.Time     `json:"startDate"`
	EndDate     time.Time     `json:"endDate"`
	AssigneeID  *string       `json:"assigneeId,omitempty"`
	Assignee    *UserResponse `json:"assignee,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

type TaskDetailResponse struct {
	TaskResponse
	Project   *ProjectResponse     `json:"project,omitempty"`
	Comments  []CommentResponse    `json:"comments"`
	Rights    AccessRightsResponse `json:"rights"`
	EditScope string               `json:"editScope"`
}

// ============================================
// Comment DTOs
// ============================================

type CommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type CommentResponse struct {
	ID        string        `json:"id"`
	TaskID    string        `json:"taskId"`
	UserID    string        `json:"userId"`
	Content   string        `json:"content"`
	User      *UserResponse `json:"user,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
