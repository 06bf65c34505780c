package types

// User roles
const (
	RoleMember        = "Member"
	RoleAdministrator = "Administrator"
)

// Notification types
const (
	NotificationInvite  = "Invite"
	NotificationComment = "Comment"
)

// Common task status labels. Status is free text; these are the values the UI offers.
const (
	StatusNotStarted = "Not Started"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
)

var ValidRoles = []string{RoleMember, RoleAdministrator}

var SuggestedTaskStatuses = []string{
	StatusNotStarted, StatusInProgress, StatusCompleted,
}

func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsCompletedStatus reports whether a free-text status counts as done for progress figures.
func IsCompletedStatus(status string) bool {
	return status == StatusCompleted
}
