package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/types"
)

func TestInviteThenAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	invitee := f.outsider

	if _, err := f.svc.Project.Get(ctx, invitee, f.project.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider could view before invite: %v", err)
	}

	outcome, err := f.svc.Membership.Invite(ctx, f.organizer, f.project.ID, invitee.UserID)
	if err != nil {
		t.Fatalf("Invite: %v", err)
	}
	if outcome != InviteCreated {
		t.Fatalf("outcome = %q, want %q", outcome, InviteCreated)
	}

	inbox := f.store.inbox(invitee.UserID)
	if len(inbox) != 1 {
		t.Fatalf("inbox has %d notifications, want 1", len(inbox))
	}
	invite := inbox[0]
	if invite.Type != types.NotificationInvite {
		t.Errorf("type = %q", invite.Type)
	}
	if invite.RelatedEntityID == nil || *invite.RelatedEntityID != f.project.ID {
		t.Errorf("related entity = %v", invite.RelatedEntityID)
	}
	if invite.SenderID == nil || *invite.SenderID != f.organizer.UserID {
		t.Errorf("sender = %v", invite.SenderID)
	}

	// Pending is not enough to view.
	if _, err := f.svc.Project.Get(ctx, invitee, f.project.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("pending invitee could view: %v", err)
	}

	if len(f.mailer.sent) != 1 || f.mailer.sent[0].to != "outsider@example.com" {
		t.Errorf("mail sent = %+v", f.mailer.sent)
	} else if got := f.mailer.sent[0].data.ProjectURL; got != "http://app.test/projects/"+f.project.ID {
		t.Errorf("project url = %q", got)
	}
	if got := f.pusher.recipients(); len(got) != 1 || got[0] != invitee.UserID {
		t.Errorf("pushed to %v", got)
	}

	accepted, joined, err := f.svc.Membership.Accept(ctx, invitee, invite.ID, f.project.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted != AcceptAccepted || joined != f.project.ID {
		t.Fatalf("accept = %q, %q", accepted, joined)
	}

	if inbox := f.store.inbox(invitee.UserID); len(inbox) != 0 {
		t.Errorf("invite still in inbox: %+v", inbox)
	}
	row := f.store.membership(f.project.ID, invitee.UserID)
	if row == nil || !row.IsAccepted || row.AcceptedAt == nil {
		t.Fatalf("membership after accept = %+v", row)
	}
	if _, err := f.svc.Project.Get(ctx, invitee, f.project.ID); err != nil {
		t.Fatalf("accepted member cannot view: %v", err)
	}
}

func TestInvite_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	outcome, err := f.svc.Membership.Invite(ctx, f.admin, f.project.ID, f.pending.UserID)
	if err != nil || outcome != InviteAlreadyPending {
		t.Fatalf("re-invite pending = %q, %v", outcome, err)
	}
	if n := len(f.store.inbox(f.pending.UserID)); n != 1 {
		t.Errorf("pending inbox has %d notifications, want 1", n)
	}

	outcome, err = f.svc.Membership.Invite(ctx, f.organizer, f.project.ID, f.member.UserID)
	if err != nil || outcome != InviteAlreadyAccepted {
		t.Fatalf("re-invite member = %q, %v", outcome, err)
	}
	if n := len(f.store.inbox(f.member.UserID)); n != 0 {
		t.Errorf("member got %d notifications", n)
	}
	if len(f.mailer.sent) != 0 {
		t.Errorf("mail sent for existing rows: %+v", f.mailer.sent)
	}
}

func TestInvite_Organizer(t *testing.T) {
	f := newFixture(t)
	outcome, err := f.svc.Membership.Invite(context.Background(), f.admin, f.project.ID, f.organizer.UserID)
	if err != nil || outcome != InviteAlreadyAccepted {
		t.Fatalf("invite organizer = %q, %v", outcome, err)
	}
	if row := f.store.membership(f.project.ID, f.organizer.UserID); row != nil {
		t.Errorf("organizer row materialized: %+v", row)
	}
}

func TestInvite_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Membership.Invite(ctx, f.organizer, f.project.ID, "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: %v", err)
	}

	_, err = f.svc.Membership.Invite(ctx, f.organizer, "missing", f.outsider.UserID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown project: %v", err)
	}

	_, err = f.svc.Membership.Invite(ctx, f.member, f.project.ID, f.outsider.UserID)
	assertForbidden(t, err, "/projects/"+f.project.ID)
	if row := f.store.membership(f.project.ID, f.outsider.UserID); row != nil {
		t.Errorf("denied invite wrote a row: %+v", row)
	}
}

func TestAccept_WithoutPendingRowIsNoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	outcome, _, err := f.svc.Membership.Accept(ctx, f.outsider, "", f.project.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if outcome != AcceptNotFound {
		t.Errorf("outcome = %q", outcome)
	}
	if row := f.store.membership(f.project.ID, f.outsider.UserID); row != nil {
		t.Errorf("accept created a row: %+v", row)
	}

	// Accepting twice leaves the membership as it was.
	outcome, _, err = f.svc.Membership.Accept(ctx, f.member, "", f.project.ID)
	if err != nil || outcome != AcceptNotFound {
		t.Errorf("second accept = %q, %v", outcome, err)
	}
}

func TestAccept_ProjectFromNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Someone else's notification id cannot be used to resolve the project.
	outcome, _, err := f.svc.Membership.Accept(ctx, f.outsider, f.pendingInviteID, "")
	if err != nil || outcome != AcceptNotFound {
		t.Fatalf("foreign notification accept = %q, %v", outcome, err)
	}
	if n := len(f.store.inbox(f.pending.UserID)); n != 1 {
		t.Fatalf("foreign accept touched the inbox: %d", n)
	}

	outcome, joined, err := f.svc.Membership.Accept(ctx, f.pending, f.pendingInviteID, "")
	if err != nil || outcome != AcceptAccepted {
		t.Fatalf("accept = %q, %v", outcome, err)
	}
	if joined != f.project.ID {
		t.Errorf("joined project = %q, want %q", joined, f.project.ID)
	}
	if n := len(f.store.inbox(f.pending.UserID)); n != 0 {
		t.Errorf("inbox still has %d notifications", n)
	}
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.svc.Membership.Remove(ctx, f.member2, f.project.ID, f.member.UserID)
	assertForbidden(t, err, "/projects/"+f.project.ID)

	if err := f.svc.Membership.Remove(ctx, f.organizer, f.project.ID, f.member.UserID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := f.svc.Project.Get(ctx, f.member, f.project.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("removed member still views the project: %v", err)
	}

	// Pending rows are removed too; the invite notification stays.
	if err := f.svc.Membership.Remove(ctx, f.admin, f.project.ID, f.pending.UserID); err != nil {
		t.Fatalf("Remove pending: %v", err)
	}
	if row := f.store.membership(f.project.ID, f.pending.UserID); row != nil {
		t.Errorf("pending row survived: %+v", row)
	}
	if outcome, _, _ := f.svc.Membership.Accept(ctx, f.pending, f.pendingInviteID, f.project.ID); outcome != AcceptNotFound {
		t.Errorf("accept after removal = %q", outcome)
	}
}

func TestListMembersAndCandidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	members, err := f.svc.Membership.ListMembers(ctx, f.member, f.project.ID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	pending := 0
	for _, m := range members {
		if !m.IsAccepted {
			pending++
		}
		if m.User == nil {
			t.Errorf("member %s has no user loaded", m.UserID)
		}
	}
	if len(members) != 3 || pending != 1 {
		t.Errorf("members = %d (pending %d), want 3 (1)", len(members), pending)
	}

	_, err = f.svc.Membership.ListCandidates(ctx, f.member, f.project.ID)
	assertForbidden(t, err, "")

	candidates, err := f.svc.Membership.ListCandidates(ctx, f.organizer, f.project.ID)
	if err != nil {
		t.Fatalf("ListCandidates: %v", err)
	}
	got := map[string]bool{}
	for _, u := range candidates {
		got[u.ID] = true
	}
	if len(got) != 2 || !got[f.admin.UserID] || !got[f.outsider.UserID] {
		t.Errorf("candidates = %v, want admin and outsider", got)
	}
}

func TestAccept_DeletesOnlyTheInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	comment := &repository.Notification{
		UserID:          f.pending.UserID,
		Type:            types.NotificationComment,
		Text:            "Olga commented on a task",
		RelatedEntityID: strPtr(f.project.ID),
	}
	if err := f.repos.NotificationRepo.Create(ctx, comment); err != nil {
		t.Fatalf("seed comment notification: %v", err)
	}

	// Passing the comment notification's id must not make Accept delete it.
	outcome, _, err := f.svc.Membership.Accept(ctx, f.pending, comment.ID, f.project.ID)
	if err != nil || outcome != AcceptAccepted {
		t.Fatalf("accept = %q, %v", outcome, err)
	}

	inbox := f.store.inbox(f.pending.UserID)
	if len(inbox) != 1 || inbox[0].ID != comment.ID {
		t.Fatalf("inbox after accept = %+v, want only the comment notification", inbox)
	}
}

func TestMembership_MalformedIDsAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Membership.Invite(ctx, f.organizer, "abc", f.outsider.UserID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Invite(bad project) = %v", err)
	}
	if _, err := f.svc.Membership.Invite(ctx, f.organizer, f.project.ID, "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Invite(bad user) = %v", err)
	}
	if err := f.svc.Membership.Remove(ctx, f.organizer, f.project.ID, "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Remove(bad user) = %v", err)
	}
	if _, err := f.svc.Membership.ListMembers(ctx, f.organizer, "abc"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ListMembers(bad project) = %v", err)
	}

	outcome, joined, err := f.svc.Membership.Accept(ctx, f.pending, "abc", "abc")
	if err != nil || outcome != AcceptNotFound || joined != "" {
		t.Errorf("Accept(bad ids) = %q, %q, %v", outcome, joined, err)
	}
}

func TestInvite_OnlineInviteeGetsNoEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.presence.set(f.outsider.UserID, true)
	outcome, err := f.svc.Membership.Invite(ctx, f.organizer, f.project.ID, f.outsider.UserID)
	if err != nil || outcome != InviteCreated {
		t.Fatalf("Invite = %q, %v", outcome, err)
	}
	if len(f.mailer.sent) != 0 {
		t.Errorf("mail sent to online invitee: %+v", f.mailer.sent)
	}
	if got := f.pusher.recipients(); len(got) != 1 || got[0] != f.outsider.UserID {
		t.Errorf("pushed to %v", got)
	}
}
