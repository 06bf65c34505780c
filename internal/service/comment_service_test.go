package service

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/Marga-Ghale/ora-tracker/internal/types"
)

func TestCommentCreate_NotificationFanOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := validTaskInput()
	input.AssigneeID = strPtr(f.member.UserID)
	task := f.mustCreateTask(t, input)

	comment, err := f.svc.Comment.Create(ctx, f.member2, task.ID, "  Looks good  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if comment.Content != "Looks good" || comment.UserID != f.member2.UserID {
		t.Errorf("comment = %+v", comment)
	}

	want := []string{f.admin.UserID, f.member.UserID, f.organizer.UserID}
	sort.Strings(want)

	var got []string
	for _, uid := range []string{f.admin.UserID, f.member.UserID, f.organizer.UserID, f.member2.UserID, f.outsider.UserID} {
		for _, n := range f.store.inbox(uid) {
			if n.Type != types.NotificationComment {
				continue
			}
			got = append(got, n.UserID)
			if n.RelatedEntityID == nil || *n.RelatedEntityID != task.ID {
				t.Errorf("related entity = %v", n.RelatedEntityID)
			}
			if n.SenderID == nil || *n.SenderID != f.member2.UserID {
				t.Errorf("sender = %v", n.SenderID)
			}
		}
	}
	sort.Strings(got)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("recipients = %v, want %v", got, want)
	}
	if pushed := f.pusher.recipients(); !reflect.DeepEqual(pushed, want) {
		t.Errorf("pushed = %v, want %v", pushed, want)
	}
}

func TestCommentCreate_RecipientsDeduplicated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The organizer is also the assignee, the admin writes the comment.
	input := validTaskInput()
	input.AssigneeID = strPtr(f.organizer.UserID)
	task := f.mustCreateTask(t, input)

	if _, err := f.svc.Comment.Create(ctx, f.admin, task.ID, "Ping"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n := len(f.store.inbox(f.organizer.UserID)); n != 1 {
		t.Errorf("organizer got %d notifications, want 1", n)
	}
	if n := len(f.store.inbox(f.admin.UserID)); n != 0 {
		t.Errorf("author notified %d times", n)
	}
}

func TestCommentCreate_FailureWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.mustCreateTask(t, validTaskInput())

	f.store.failCommentInsert = errors.New("connection reset")
	if _, err := f.svc.Comment.Create(ctx, f.member, task.ID, "Hello"); err == nil {
		t.Fatal("expected error")
	}

	comments, _ := f.repos.CommentRepo.FindByTaskID(ctx, task.ID)
	if len(comments) != 0 {
		t.Errorf("comment persisted: %+v", comments)
	}
	if n := len(f.store.inbox(f.organizer.UserID)); n != 0 {
		t.Errorf("organizer has %d notifications", n)
	}
	if pushed := f.pusher.recipients(); len(pushed) != 0 {
		t.Errorf("pushed %v", pushed)
	}
}

func TestCommentCreate_Denied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.mustCreateTask(t, validTaskInput())

	_, err := f.svc.Comment.Create(ctx, f.outsider, task.ID, "Hi")
	assertForbidden(t, err, "/projects")

	_, err = f.svc.Comment.Create(ctx, f.member, task.ID, "   ")
	assertValidationField(t, err, "content")

	if _, err := f.svc.Comment.Create(ctx, f.member, "missing", "Hi"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing task: %v", err)
	}
}

func TestCommentModifyAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.mustCreateTask(t, validTaskInput())

	comment, err := f.svc.Comment.Create(ctx, f.member, task.ID, "First")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The organizer may delete but not edit someone else's comment.
	_, err = f.svc.Comment.Update(ctx, f.organizer, comment.ID, "Edited")
	assertForbidden(t, err, "/tasks/"+task.ID)

	if _, err := f.svc.Comment.Update(ctx, f.member, comment.ID, "Edited by author"); err != nil {
		t.Fatalf("author Update: %v", err)
	}
	if _, err := f.svc.Comment.Update(ctx, f.admin, comment.ID, "Edited by admin"); err != nil {
		t.Fatalf("admin Update: %v", err)
	}

	got, err := f.svc.Comment.Get(ctx, f.member2, comment.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Content != "Edited by admin" {
		t.Errorf("content = %q", got.Content)
	}

	err = f.svc.Comment.Delete(ctx, f.member2, comment.ID)
	assertForbidden(t, err, "/tasks/"+task.ID)

	if err := f.svc.Comment.Delete(ctx, f.organizer, comment.ID); err != nil {
		t.Fatalf("organizer Delete: %v", err)
	}
	if _, err := f.svc.Comment.Get(ctx, f.member, comment.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted comment: %v", err)
	}
}

func TestCommentListByTask_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := f.mustCreateTask(t, validTaskInput())

	for _, text := range []string{"one", "two", "three"} {
		if _, err := f.svc.Comment.Create(ctx, f.member, task.ID, text); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	comments, err := f.svc.Comment.ListByTask(ctx, f.organizer, task.ID)
	if err != nil {
		t.Fatalf("ListByTask: %v", err)
	}
	if len(comments) != 3 || comments[0].Content != "three" || comments[2].Content != "one" {
		t.Errorf("order = %v", comments)
	}

	_, err = f.svc.Comment.ListByTask(ctx, f.pending, task.ID)
	assertForbidden(t, err, "/projects")
}
