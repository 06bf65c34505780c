package models

import "time"

// ============================================
// Member Management Models
// ============================================

type InviteMemberRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type InviteMemberResponse struct {
	Outcome string `json:"outcome"`
}

type ProjectMemberResponse struct {
	ProjectID  string        `json:"projectId"`
	UserID     string        `json:"userId"`
	IsAccepted bool          `json:"isAccepted"`
	InvitedAt  time.Time     `json:"invitedAt"`
	AcceptedAt *time.Time    `json:"acceptedAt,omitempty"`
	User       *UserResponse `json:"user,omitempty"`
}
