package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Marga-Ghale/ora-tracker/internal/config"
	"github.com/Marga-Ghale/ora-tracker/internal/notification"
	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/summary"
	"github.com/Marga-Ghale/ora-tracker/internal/types"
)

// fixture seeds one project with an organizer, two accepted members, one
// pending invitee, an outsider and an administrator.
type fixture struct {
	store    *memStore
	repos    *repository.Repositories
	cache    *fakeCache
	gen      *fakeGenerator
	mailer   *fakeMailer
	presence *fakePresence
	pusher   *fakePusher
	svc      *Services

	admin, organizer, member, member2, pending, outsider policy.Actor

	project *repository.Project
	// pendingInviteID is the Invite notification addressed to the pending user.
	pendingInviteID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		store:    newMemStore(),
		cache:    newFakeCache(),
		gen:      &fakeGenerator{result: summary.Result{Text: "Work is on track.", Generated: true}},
		mailer:   &fakeMailer{},
		presence: &fakePresence{online: map[string]bool{}},
		pusher:   &fakePusher{},
	}
	f.repos = f.store.repos()

	f.admin = f.addUser(t, "admin", "Ada", "Admin", types.RoleAdministrator)
	f.organizer = f.addUser(t, "organizer", "Olga", "Organizer", types.RoleMember)
	f.member = f.addUser(t, "member", "Max", "Member", types.RoleMember)
	f.member2 = f.addUser(t, "member2", "Mia", "Member", types.RoleMember)
	f.pending = f.addUser(t, "pending", "Pat", "Pending", types.RoleMember)
	f.outsider = f.addUser(t, "outsider", "Oscar", "Outsider", types.RoleMember)

	f.project = &repository.Project{Title: "Apollo", Description: "Moon", OrganizerID: f.organizer.UserID}
	if err := f.repos.ProjectRepo.Create(ctx, f.project); err != nil {
		t.Fatalf("create project: %v", err)
	}

	for _, a := range []policy.Actor{f.member, f.member2} {
		f.store.members[[2]string{f.project.ID, a.UserID}] = &repository.ProjectMember{
			ProjectID: f.project.ID, UserID: a.UserID, IsAccepted: true,
		}
	}

	invite := notification.BuildInvite(f.project, nil, f.pending.UserID)
	created, err := f.repos.MembershipRepo.CreatePending(ctx,
		&repository.ProjectMember{ProjectID: f.project.ID, UserID: f.pending.UserID}, invite)
	if err != nil || !created {
		t.Fatalf("seed pending invite: created=%v err=%v", created, err)
	}
	f.pendingInviteID = invite.ID

	notifSvc := notification.NewService(f.repos.UserRepo)
	notifSvc.SetPusher(f.pusher)

	f.svc = NewServices(&ServiceDeps{
		Config: &config.Config{
			JWTSecret:     "test-secret",
			JWTExpiry:     1,
			RefreshExpiry: 7,
			FrontendURL:   "http://app.test",
		},
		Repos:      f.repos,
		NotifSvc:   notifSvc,
		Mailer:     f.mailer,
		Presence:   f.presence,
		Summarizer: f.gen,
		Cache:      f.cache,
	})
	return f
}

func (f *fixture) addUser(t *testing.T, id, first, last, role string) policy.Actor {
	t.Helper()
	u := &repository.User{
		ID:        stableID("user:" + id),
		Email:     id + "@example.com",
		FirstName: first,
		LastName:  last,
		Roles:     []string{role},
	}
	if err := f.repos.UserRepo.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
	return ActorFor(u)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func strPtr(s string) *string { return &s }

func validTaskInput() TaskInput {
	return TaskInput{
		Title:       "Write launch checklist",
		Description: "Everything needed before launch",
		StartDate:   day("2025-01-05"),
		EndDate:     day("2025-01-10"),
	}
}

// mustCreateTask creates a task as the organizer.
func (f *fixture) mustCreateTask(t *testing.T, input TaskInput) *repository.Task {
	t.Helper()
	task, err := f.svc.Task.Create(context.Background(), f.organizer, f.project.ID, input)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

func assertForbidden(t *testing.T, err error, redirect string) {
	t.Helper()
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	var fe *ForbiddenError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *ForbiddenError, got %T", err)
	}
	if fe.Reason == "" {
		t.Error("forbidden error has no reason")
	}
	if redirect != "" && fe.Redirect != redirect {
		t.Errorf("redirect = %q, want %q", fe.Redirect, redirect)
	}
}

func assertValidationField(t *testing.T, err error, field string) *ValidationError {
	t.Helper()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if _, ok := ve.Fields[field]; !ok {
		t.Fatalf("expected field %q in %v", field, ve.Fields)
	}
	return ve
}
