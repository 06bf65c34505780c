package service

import (
	"context"

	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/socket"
)

// ============================================
// Notification Service
// ============================================

type NotificationService interface {
	List(ctx context.Context, actor policy.Actor, unreadOnly bool) ([]*repository.Notification, error)
	Count(ctx context.Context, actor policy.Actor) (total int, unread int, err error)
	// MarkRead returns false without error when the notification is missing or owned by someone else.
	MarkRead(ctx context.Context, actor policy.Actor, id string) (bool, error)
	MarkAllRead(ctx context.Context, actor policy.Actor) error
	// AcceptInvite returns the outcome and, when accepted, the project joined.
	AcceptInvite(ctx context.Context, actor policy.Actor, notificationID, projectID string) (AcceptOutcome, string, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	membership       MembershipService
	broadcaster      *socket.Broadcaster
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	membership MembershipService,
	broadcaster *socket.Broadcaster,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		membership:       membership,
		broadcaster:      broadcaster,
	}
}

func (s *notificationService) List(ctx context.Context, actor policy.Actor, unreadOnly bool) ([]*repository.Notification, error) {
	return s.notificationRepo.FindByUserID(ctx, actor.UserID, unreadOnly)
}

func (s *notificationService) Count(ctx context.Context, actor policy.Actor) (int, int, error) {
	return s.notificationRepo.CountByUserID(ctx, actor.UserID)
}

func (s *notificationService) MarkRead(ctx context.Context, actor policy.Actor, id string) (bool, error) {
	if !validID(id) {
		log.WithField("notification", id).WithField("user", actor.UserID).Debug("mark read ignored, malformed id")
		return false, nil
	}
	updated, err := s.notificationRepo.MarkAsRead(ctx, id, actor.UserID)
	if err != nil {
		return false, err
	}
	if !updated {
		log.WithField("notification", id).WithField("user", actor.UserID).Debug("mark read ignored")
		return false, nil
	}
	s.pushCount(ctx, actor.UserID)
	return true, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor policy.Actor) error {
	if err := s.notificationRepo.MarkAllAsRead(ctx, actor.UserID); err != nil {
		return err
	}
	s.pushCount(ctx, actor.UserID)
	return nil
}

func (s *notificationService) AcceptInvite(ctx context.Context, actor policy.Actor, notificationID, projectID string) (AcceptOutcome, string, error) {
	outcome, joined, err := s.membership.Accept(ctx, actor, notificationID, projectID)
	if err == nil && outcome == AcceptAccepted {
		s.pushCount(ctx, actor.UserID)
	}
	return outcome, joined, err
}

func (s *notificationService) pushCount(ctx context.Context, userID string) {
	if s.broadcaster == nil {
		return
	}
	total, unread, err := s.notificationRepo.CountByUserID(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("count notifications for live push")
		return
	}
	s.broadcaster.SendNotificationCount(userID, total, unread)
}
