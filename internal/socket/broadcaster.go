package socket

import "fmt"

// Broadcaster provides high-level methods for broadcasting events
type Broadcaster struct {
	hub *Hub
}

func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// ProjectRoom is the room name clients join to follow a project.
func ProjectRoom(projectID string) string {
	return fmt.Sprintf("project:%s", projectID)
}

// IsUserOnline reports whether the user has at least one open connection.
func (b *Broadcaster) IsUserOnline(userID string) bool {
	return b.hub.IsUserOnline(userID)
}

// ============================================
// Inbox
// ============================================

func (b *Broadcaster) SendNotification(userID string, notification map[string]interface{}) {
	b.hub.SendToUser(userID, MessageNotification, notification)
}

func (b *Broadcaster) SendNotificationCount(userID string, total, unread int) {
	b.hub.SendToUser(userID, MessageNotificationCount, map[string]interface{}{
		"total":  total,
		"unread": unread,
	})
}

// ============================================
// Project room
// ============================================

func (b *Broadcaster) BroadcastTaskCreated(projectID string, task map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(ProjectRoom(projectID), MessageTaskCreated, task, excludeUserID)
}

func (b *Broadcaster) BroadcastTaskUpdated(projectID string, task map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(ProjectRoom(projectID), MessageTaskUpdated, task, excludeUserID)
}

func (b *Broadcaster) BroadcastTaskDeleted(projectID, taskID, excludeUserID string) {
	b.hub.SendToRoom(ProjectRoom(projectID), MessageTaskDeleted, map[string]interface{}{
		"taskId":    taskID,
		"projectId": projectID,
	}, excludeUserID)
}

func (b *Broadcaster) BroadcastCommentAdded(projectID string, comment map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(ProjectRoom(projectID), MessageCommentAdded, comment, excludeUserID)
}

func (b *Broadcaster) BroadcastMemberAdded(projectID, userID string) {
	b.hub.SendToRoom(ProjectRoom(projectID), MessageMemberAdded, map[string]interface{}{
		"projectId": projectID,
		"userId":    userID,
	}, "")
}

func (b *Broadcaster) BroadcastMemberRemoved(projectID, userID, excludeUserID string) {
	b.hub.SendToRoom(ProjectRoom(projectID), MessageMemberRemoved, map[string]interface{}{
		"projectId": projectID,
		"userId":    userID,
	}, excludeUserID)
}

func (b *Broadcaster) BroadcastProjectUpdated(projectID string, project map[string]interface{}, excludeUserID string) {
	b.hub.SendToRoom(ProjectRoom(projectID), MessageProjectUpdated, project, excludeUserID)
}

func (b *Broadcaster) BroadcastProjectDeleted(projectID, excludeUserID string) {
	b.hub.SendToRoom(ProjectRoom(projectID), MessageProjectDeleted, map[string]interface{}{
		"projectId": projectID,
	}, excludeUserID)
}
