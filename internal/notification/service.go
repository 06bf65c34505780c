package notification

import (
	"context"
	"fmt"
	"sort"

	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/types"
)

var log = logutils.Component("notification")

// Pusher delivers a persisted notification to the recipient's live connections.
// *socket.Broadcaster satisfies it.
type Pusher interface {
	SendNotification(userID string, notification map[string]interface{})
}

// AdminDirectory lists administrator user IDs.
type AdminDirectory interface {
	FindIDsByRole(ctx context.Context, role string) ([]string, error)
}

// Service builds inbox records for membership and comment events and pushes
// them live once they are persisted. It never writes to the database itself;
// callers persist the records together with the mutation that produced them.
type Service struct {
	admins AdminDirectory
	pusher Pusher
}

func NewService(admins AdminDirectory) *Service {
	return &Service{admins: admins}
}

func (s *Service) SetPusher(p Pusher) {
	s.pusher = p
}

// ============================================
// Recipients
// ============================================

// CommentRecipients returns {organizer, assignee, admins} minus the author,
// deduplicated and sorted. Empty IDs are skipped.
func CommentRecipients(organizerID, assigneeID string, adminIDs []string, authorID string) []string {
	set := make(map[string]struct{}, len(adminIDs)+2)
	add := func(id string) {
		if id != "" && id != authorID {
			set[id] = struct{}{}
		}
	}
	add(organizerID)
	add(assigneeID)
	for _, id := range adminIDs {
		add(id)
	}

	recipients := make([]string, 0, len(set))
	for id := range set {
		recipients = append(recipients, id)
	}
	sort.Strings(recipients)
	return recipients
}

// ============================================
// Builders
// ============================================

func ProjectLink(projectID string) string {
	return "/projects/" + projectID
}

func TaskLink(taskID string) string {
	return "/tasks/" + taskID
}

// BuildInvite creates the single Invite record addressed to the invited user.
func BuildInvite(project *repository.Project, inviter *repository.User, inviteeID string) *repository.Notification {
	link := ProjectLink(project.ID)
	related := project.ID
	n := &repository.Notification{
		UserID:          inviteeID,
		Type:            types.NotificationInvite,
		Text:            fmt.Sprintf("%s invited you to join the project %q", displayName(inviter), project.Title),
		Link:            &link,
		RelatedEntityID: &related,
	}
	if inviter != nil {
		sender := inviter.ID
		n.SenderID = &sender
	}
	return n
}

// BuildCommentNotifications creates one Comment record per recipient of a new comment on task.
// The task's Project must be loaded.
func (s *Service) BuildCommentNotifications(ctx context.Context, task *repository.Task, author *repository.User) ([]*repository.Notification, error) {
	adminIDs, err := s.admins.FindIDsByRole(ctx, types.RoleAdministrator)
	if err != nil {
		return nil, fmt.Errorf("load administrators: %w", err)
	}

	var organizerID, assigneeID string
	if task.Project != nil {
		organizerID = task.Project.OrganizerID
	}
	if task.AssigneeID != nil {
		assigneeID = *task.AssigneeID
	}

	recipients := CommentRecipients(organizerID, assigneeID, adminIDs, author.ID)
	text := fmt.Sprintf("%s commented on the task %q", displayName(author), task.Title)

	notifications := make([]*repository.Notification, 0, len(recipients))
	for _, userID := range recipients {
		link := TaskLink(task.ID)
		related := task.ID
		sender := author.ID
		notifications = append(notifications, &repository.Notification{
			UserID:          userID,
			SenderID:        &sender,
			Type:            types.NotificationComment,
			Text:            text,
			Link:            &link,
			RelatedEntityID: &related,
		})
	}
	return notifications, nil
}

func displayName(u *repository.User) string {
	if u == nil {
		return "Someone"
	}
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}

// ============================================
// Live push
// ============================================

// Publish pushes persisted notifications to their recipients. Best effort.
func (s *Service) Publish(notifications ...*repository.Notification) {
	if s.pusher == nil {
		return
	}
	for _, n := range notifications {
		if n == nil || n.ID == "" {
			log.Warn("skipping live push of unsaved notification")
			continue
		}
		s.pusher.SendNotification(n.UserID, Payload(n))
	}
}

// Payload is the JSON shape pushed over websockets and returned by the inbox API.
func Payload(n *repository.Notification) map[string]interface{} {
	p := map[string]interface{}{
		"id":        n.ID,
		"type":      n.Type,
		"text":      n.Text,
		"isRead":    n.IsRead,
		"createdAt": n.CreatedAt,
	}
	if n.SenderID != nil {
		p["senderId"] = *n.SenderID
	}
	if n.Link != nil {
		p["link"] = *n.Link
	}
	if n.RelatedEntityID != nil {
		p["relatedEntityId"] = *n.RelatedEntityID
	}
	return p
}
