package policy

import "github.com/Marga-Ghale/ora-tracker/internal/types"

// ============================================
// Inputs
// ============================================

// Actor is the authenticated caller. Roles are resolved once per request
// and passed in; nothing in this package looks them up.
type Actor struct {
	UserID string
	Roles  []string
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (a Actor) IsAdmin() bool {
	return a.HasRole(types.RoleAdministrator)
}

// Member is one membership row of a project.
type Member struct {
	UserID     string
	IsAccepted bool
}

// Project carries what the rules need about a project. Members may hold
// only the actor's own row; other rows are never consulted.
type Project struct {
	OrganizerID string
	Members     []Member
}

type Task struct {
	Project    Project
	AssigneeID string
}

type Comment struct {
	Task     Task
	AuthorID string
}

func (p Project) isOrganizer(userID string) bool {
	return userID != "" && p.OrganizerID == userID
}

func (p Project) isAcceptedMember(userID string) bool {
	for _, m := range p.Members {
		if m.UserID == userID && m.IsAccepted {
			return true
		}
	}
	return false
}

// ============================================
// Access Rights
// ============================================

// AccessRights is computed once per entity load and handed to the response layer.
type AccessRights struct {
	IsAdmin     bool `json:"isAdmin"`
	IsOrganizer bool `json:"isOrganizer"`
	IsMember    bool `json:"isMember"`
}

func RightsFor(actor Actor, project Project) AccessRights {
	return AccessRights{
		IsAdmin:     actor.IsAdmin(),
		IsOrganizer: project.isOrganizer(actor.UserID),
		IsMember:    project.isAcceptedMember(actor.UserID),
	}
}

// EditScope is the field-level capability an actor holds on a task.
type EditScope int

const (
	EditNone EditScope = iota
	EditStatusOnly
	EditAll
)

func (s EditScope) String() string {
	switch s {
	case EditAll:
		return "all"
	case EditStatusOnly:
		return "status"
	default:
		return "none"
	}
}

// ============================================
// Project
// ============================================

func CanViewProject(actor Actor, project Project) bool {
	return actor.IsAdmin() ||
		project.isOrganizer(actor.UserID) ||
		project.isAcceptedMember(actor.UserID)
}

func CanModifyProject(actor Actor, project Project) bool {
	return actor.IsAdmin() || project.isOrganizer(actor.UserID)
}

// CanManageMembership governs invite and remove.
func CanManageMembership(actor Actor, project Project) bool {
	return CanModifyProject(actor, project)
}

// CanCreateTask allows anyone who can see the project to add tasks to it.
func CanCreateTask(actor Actor, project Project) bool {
	return CanViewProject(actor, project)
}

// ============================================
// Task
// ============================================

func CanViewTask(actor Actor, task Task) bool {
	return CanViewProject(actor, task.Project)
}

// CanModifyTask returns EditAll for organizer and administrators and
// EditStatusOnly for the assignee. Callers must restrict fields accordingly.
func CanModifyTask(actor Actor, task Task) EditScope {
	if CanModifyProject(actor, task.Project) {
		return EditAll
	}
	if task.AssigneeID != "" && task.AssigneeID == actor.UserID {
		return EditStatusOnly
	}
	return EditNone
}

func CanDeleteTask(actor Actor, task Task) bool {
	return CanModifyTask(actor, task) == EditAll
}

// ============================================
// Comment
// ============================================

func CanViewComment(actor Actor, comment Comment) bool {
	return CanViewTask(actor, comment.Task)
}

func CanModifyComment(actor Actor, comment Comment) bool {
	return actor.IsAdmin() || (comment.AuthorID != "" && comment.AuthorID == actor.UserID)
}

// CanDeleteComment also lets the project organizer remove comments.
func CanDeleteComment(actor Actor, comment Comment) bool {
	return CanModifyComment(actor, comment) || comment.Task.Project.isOrganizer(actor.UserID)
}
