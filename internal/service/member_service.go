package service

import (
	"context"
	"fmt"

	"github.com/Marga-Ghale/ora-tracker/internal/email"
	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
	"github.com/Marga-Ghale/ora-tracker/internal/notification"
	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/socket"
	"github.com/Marga-Ghale/ora-tracker/internal/types"
)

// ============================================
// Membership Service
// ============================================

// InviteOutcome tells the caller what an invite did.
type InviteOutcome string

const (
	InviteCreated         InviteOutcome = "created"
	InviteAlreadyPending  InviteOutcome = "already_pending"
	InviteAlreadyAccepted InviteOutcome = "already_accepted"
)

type AcceptOutcome string

const (
	AcceptAccepted AcceptOutcome = "accepted"
	AcceptNotFound AcceptOutcome = "not_found"
)

// InviteMailer queues invitation emails. *email.EmailQueue satisfies it.
type InviteMailer interface {
	EnqueueProjectInvitation(to string, data email.ProjectInvitationData)
}

// Presence reports whether a user has a live connection. *socket.Broadcaster satisfies it.
type Presence interface {
	IsUserOnline(userID string) bool
}

type MembershipService interface {
	Invite(ctx context.Context, actor policy.Actor, projectID, userID string) (InviteOutcome, error)
	// Accept turns the actor's pending invitation into a membership and returns
	// the project it joined. A missing pending row is logged and reported as
	// AcceptNotFound, never as an error.
	Accept(ctx context.Context, actor policy.Actor, notificationID, projectID string) (AcceptOutcome, string, error)
	Remove(ctx context.Context, actor policy.Actor, projectID, userID string) error
	ListMembers(ctx context.Context, actor policy.Actor, projectID string) ([]*repository.ProjectMember, error)
	ListCandidates(ctx context.Context, actor policy.Actor, projectID string) ([]*repository.User, error)
}

type membershipService struct {
	access           *accessLoader
	membershipRepo   repository.MembershipRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	notifSvc         *notification.Service
	mailer           InviteMailer
	presence         Presence
	broadcaster      *socket.Broadcaster
	frontendURL      string
}

func NewMembershipService(
	repos *repository.Repositories,
	notifSvc *notification.Service,
	mailer InviteMailer,
	presence Presence,
	broadcaster *socket.Broadcaster,
	frontendURL string,
) MembershipService {
	return &membershipService{
		access:           newAccessLoader(repos),
		membershipRepo:   repos.MembershipRepo,
		userRepo:         repos.UserRepo,
		notificationRepo: repos.NotificationRepo,
		notifSvc:         notifSvc,
		mailer:           mailer,
		presence:         presence,
		broadcaster:      broadcaster,
		frontendURL:      frontendURL,
	}
}

var membershipLog = logutils.Component("membership")

func (s *membershipService) Invite(ctx context.Context, actor policy.Actor, projectID, userID string) (InviteOutcome, error) {
	project, pp, err := s.access.projectWithPolicy(ctx, actor, projectID)
	if err != nil {
		return "", err
	}
	if !policy.CanManageMembership(actor, pp) {
		return "", forbidden("Only the organizer or an administrator can invite members.", projectPath(projectID))
	}

	if !validID(userID) {
		return "", notFound("user")
	}
	invitee, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load invitee: %w", err)
	}
	if invitee == nil {
		return "", notFound("user")
	}

	// Organizer access is implicit, there is nothing to invite them to.
	if invitee.ID == project.OrganizerID {
		return InviteAlreadyAccepted, nil
	}

	if outcome, done, err := s.existingOutcome(ctx, projectID, userID); err != nil || done {
		return outcome, err
	}

	inviter, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return "", fmt.Errorf("load inviter: %w", err)
	}

	member := &repository.ProjectMember{ProjectID: projectID, UserID: userID}
	invite := notification.BuildInvite(project, inviter, userID)

	created, err := s.membershipRepo.CreatePending(ctx, member, invite)
	if err != nil {
		return "", fmt.Errorf("create invitation: %w", err)
	}
	if !created {
		// Lost a race with a concurrent invite for the same pair.
		outcome, _, err := s.existingOutcome(ctx, projectID, userID)
		return outcome, err
	}

	membershipLog.WithFields(logutils.Fields{
		"project": projectID, "user": userID, "by": actor.UserID,
	}).Info("invitation created")

	s.notifSvc.Publish(invite)
	// An online invitee already got the live notification.
	if s.presence != nil && s.presence.IsUserOnline(userID) {
		return InviteCreated, nil
	}
	if s.mailer != nil {
		s.mailer.EnqueueProjectInvitation(invitee.Email, email.ProjectInvitationData{
			InviteeName: invitee.FullName(),
			InviterName: displayName(inviter),
			ProjectName: project.Title,
			ProjectURL:  s.frontendURL + projectPath(projectID),
		})
	}
	return InviteCreated, nil
}

// existingOutcome reports the outcome for a pair that already has a row.
func (s *membershipService) existingOutcome(ctx context.Context, projectID, userID string) (InviteOutcome, bool, error) {
	row, err := s.membershipRepo.Find(ctx, projectID, userID)
	if err != nil {
		return "", false, fmt.Errorf("load membership: %w", err)
	}
	if row == nil {
		return "", false, nil
	}
	if row.IsAccepted {
		return InviteAlreadyAccepted, true, nil
	}
	return InviteAlreadyPending, true, nil
}

func (s *membershipService) Accept(ctx context.Context, actor policy.Actor, notificationID, projectID string) (AcceptOutcome, string, error) {
	entry := membershipLog.WithFields(logutils.Fields{
		"user": actor.UserID, "project": projectID, "notification": notificationID,
	})

	// The project can be recovered from the invite itself.
	if projectID == "" && validID(notificationID) {
		n, err := s.notificationRepo.FindByID(ctx, notificationID)
		if err != nil {
			return "", "", fmt.Errorf("load notification: %w", err)
		}
		if n != nil && n.UserID == actor.UserID && n.Type == types.NotificationInvite && n.RelatedEntityID != nil {
			projectID = *n.RelatedEntityID
		}
	}
	if !validID(projectID) {
		entry.Warn("accept without a resolvable project")
		return AcceptNotFound, "", nil
	}

	accepted, err := s.membershipRepo.Accept(ctx, projectID, actor.UserID)
	if err != nil {
		return "", "", fmt.Errorf("accept invitation: %w", err)
	}
	if !accepted {
		entry.Warn("no pending invitation to accept")
		return AcceptNotFound, "", nil
	}

	entry.WithField("project", projectID).Info("invitation accepted")
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberAdded(projectID, actor.UserID)
	}
	return AcceptAccepted, projectID, nil
}

// Remove deletes the row whatever its state. Invite notifications are left alone.
func (s *membershipService) Remove(ctx context.Context, actor policy.Actor, projectID, userID string) error {
	_, pp, err := s.access.projectWithPolicy(ctx, actor, projectID)
	if err != nil {
		return err
	}
	if !policy.CanManageMembership(actor, pp) {
		return forbidden("Only the organizer or an administrator can remove members.", projectPath(projectID))
	}
	if !validID(userID) {
		return notFound("user")
	}

	if err := s.membershipRepo.Remove(ctx, projectID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	membershipLog.WithFields(logutils.Fields{
		"project": projectID, "user": userID, "by": actor.UserID,
	}).Info("member removed")

	if s.broadcaster != nil {
		s.broadcaster.BroadcastMemberRemoved(projectID, userID, actor.UserID)
	}
	return nil
}

// ListMembers includes pending rows; callers tell them apart by IsAccepted.
func (s *membershipService) ListMembers(ctx context.Context, actor policy.Actor, projectID string) ([]*repository.ProjectMember, error) {
	_, pp, err := s.access.projectWithPolicy(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewProject(actor, pp) {
		return nil, forbidden("You are not a member of this project.", projectsPath)
	}
	return s.membershipRepo.FindByProject(ctx, projectID)
}

func (s *membershipService) ListCandidates(ctx context.Context, actor policy.Actor, projectID string) ([]*repository.User, error) {
	_, pp, err := s.access.projectWithPolicy(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageMembership(actor, pp) {
		return nil, forbidden("Only the organizer or an administrator can invite members.", projectPath(projectID))
	}
	return s.userRepo.FindProjectCandidates(ctx, projectID)
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
