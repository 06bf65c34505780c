package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Marga-Ghale/ora-tracker/internal/email"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/summary"
	"github.com/Marga-Ghale/ora-tracker/internal/types"
)

// memStore is an in-memory stand-in for the Postgres schema. It mirrors the
// foreign key actions of the migrations closely enough for service tests.
type memStore struct {
	mu    sync.Mutex
	seq   int
	clock time.Time

	users         map[string]*repository.User
	refresh       map[string]*repository.RefreshToken
	projects      map[string]*repository.Project
	members       map[[2]string]*repository.ProjectMember
	tasks         map[string]*repository.Task
	comments      map[string]*repository.Comment
	notifications map[string]*repository.Notification
	summaries     []*repository.ProjectSummary

	// failCommentInsert makes the next CreateWithNotifications fail before writing anything.
	failCommentInsert error
}

func newMemStore() *memStore {
	return &memStore{
		clock:         time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		users:         map[string]*repository.User{},
		refresh:       map[string]*repository.RefreshToken{},
		projects:      map[string]*repository.Project{},
		members:       map[[2]string]*repository.ProjectMember{},
		tasks:         map[string]*repository.Task{},
		comments:      map[string]*repository.Comment{},
		notifications: map[string]*repository.Notification{},
	}
}

func (s *memStore) repos() *repository.Repositories {
	return &repository.Repositories{
		UserRepo:         &fakeUserRepo{s},
		ProjectRepo:      &fakeProjectRepo{s},
		MembershipRepo:   &fakeMembershipRepo{s},
		CommentRepo:      &fakeCommentRepo{s},
		NotificationRepo: &fakeNotificationRepo{s},
		SummaryRepo:      &fakeSummaryRepo{s},
		TaskRepo:         &fakeTaskRepo{s},
	}
}

// next returns a fresh UUID and a strictly increasing timestamp. Callers hold mu.
func (s *memStore) next(prefix string) (string, time.Time) {
	s.seq++
	return stableID(fmt.Sprintf("%s-%d", prefix, s.seq)), s.clock.Add(time.Duration(s.seq) * time.Second)
}

// stableID derives a deterministic UUID from name.
func stableID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// castUUID fails like Postgres does when a malformed id meets a UUID column.
func castUUID(ids ...string) error {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("invalid input syntax for type uuid: %q", id)
		}
	}
	return nil
}

func (s *memStore) inbox(userID string) []*repository.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*repository.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memStore) membership(projectID, userID string) *repository.ProjectMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[[2]string{projectID, userID}]
	if !ok {
		return nil
	}
	cp := *m
	return &cp
}

// ============================================
// Users
// ============================================

type fakeUserRepo struct{ s *memStore }

func copyUser(u *repository.User) *repository.User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Roles = append([]string(nil), u.Roles...)
	return &cp
}

func (r *fakeUserRepo) Create(_ context.Context, user *repository.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return errors.New("duplicate email")
		}
	}
	if user.ID == "" {
		user.ID, user.CreatedAt = r.s.next("user")
	}
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = copyUser(user)
	return nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*repository.User, error) {
	if err := castUUID(id); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return copyUser(r.s.users[id]), nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindAll(_ context.Context) ([]*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*repository.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *fakeUserRepo) FindIDsByRole(_ context.Context, role string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for _, u := range r.s.users {
		if u.HasRole(role) {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeUserRepo) FindProjectCandidates(_ context.Context, projectID string) ([]*repository.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p := r.s.projects[projectID]
	var out []*repository.User
	for _, u := range r.s.users {
		if p != nil && u.ID == p.OrganizerID {
			continue
		}
		if _, ok := r.s.members[[2]string{projectID, u.ID}]; ok {
			continue
		}
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *fakeUserRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.users), nil
}

// restricted reports whether a RESTRICT foreign key still points at the user. Callers hold mu.
func (r *fakeUserRepo) restricted(id string, withPurge bool) bool {
	for _, p := range r.s.projects {
		if p.OrganizerID == id {
			return true
		}
	}
	if withPurge {
		return false
	}
	for key := range r.s.members {
		if key[1] == id {
			return true
		}
	}
	for _, c := range r.s.comments {
		if c.UserID == id {
			return true
		}
	}
	return false
}

func (r *fakeUserRepo) deleteLocked(id string) {
	delete(r.s.users, id)
	for token, rt := range r.s.refresh {
		if rt.UserID == id {
			delete(r.s.refresh, token)
		}
	}
	for nid, n := range r.s.notifications {
		if n.UserID == id {
			delete(r.s.notifications, nid)
		} else if n.SenderID != nil && *n.SenderID == id {
			n.SenderID = nil
		}
	}
	for _, t := range r.s.tasks {
		if t.AssigneeID != nil && *t.AssigneeID == id {
			t.AssigneeID = nil
		}
	}
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.restricted(id, false) {
		return repository.ErrRestricted
	}
	r.deleteLocked(id)
	return nil
}

func (r *fakeUserRepo) PurgeAndDelete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.restricted(id, true) {
		return repository.ErrRestricted
	}
	for key := range r.s.members {
		if key[1] == id {
			delete(r.s.members, key)
		}
	}
	for cid, c := range r.s.comments {
		if c.UserID == id {
			delete(r.s.comments, cid)
		}
	}
	r.deleteLocked(id)
	return nil
}

func (r *fakeUserRepo) SaveRefreshToken(_ context.Context, token *repository.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.ID, token.CreatedAt = r.s.next("rt")
	cp := *token
	r.s.refresh[token.Token] = &cp
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(_ context.Context, token string) (*repository.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rt, ok := r.s.refresh[token]
	if !ok {
		return nil, nil
	}
	cp := *rt
	return &cp, nil
}

func (r *fakeUserRepo) DeleteRefreshToken(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.refresh, token)
	return nil
}

// ============================================
// Projects
// ============================================

type fakeProjectRepo struct{ s *memStore }

func (r *fakeProjectRepo) copyProject(p *repository.Project) *repository.Project {
	cp := *p
	cp.Organizer = copyUser(r.s.users[p.OrganizerID])
	cp.Members, cp.Tasks = nil, nil
	return &cp
}

func (r *fakeProjectRepo) sorted(keep func(*repository.Project) bool) []*repository.Project {
	var out []*repository.Project
	for _, p := range r.s.projects {
		if keep(p) {
			out = append(out, r.copyProject(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeProjectRepo) Create(_ context.Context, project *repository.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[project.OrganizerID]; !ok {
		return errors.New("organizer does not exist")
	}
	project.ID, project.CreatedAt = r.s.next("project")
	project.UpdatedAt = project.CreatedAt
	cp := *project
	r.s.projects[project.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) FindByID(_ context.Context, id string) (*repository.Project, error) {
	if err := castUUID(id); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, nil
	}
	return r.copyProject(p), nil
}

func (r *fakeProjectRepo) FindAll(_ context.Context) ([]*repository.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(*repository.Project) bool { return true }), nil
}

func (r *fakeProjectRepo) FindVisibleTo(_ context.Context, userID string) ([]*repository.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.sorted(func(p *repository.Project) bool {
		if p.OrganizerID == userID {
			return true
		}
		m, ok := r.s.members[[2]string{p.ID, userID}]
		return ok && m.IsAccepted
	}), nil
}

func (r *fakeProjectRepo) FindRecent(ctx context.Context, limit int) ([]*repository.Project, error) {
	all, _ := r.FindAll(ctx)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *fakeProjectRepo) Update(_ context.Context, project *repository.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[project.ID]
	if !ok {
		return errors.New("project not found")
	}
	p.Title = project.Title
	p.Description = project.Description
	return nil
}

func (r *fakeProjectRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.projects, id)
	for key := range r.s.members {
		if key[0] == id {
			delete(r.s.members, key)
		}
	}
	for tid, t := range r.s.tasks {
		if t.ProjectID == id {
			deleteTaskLocked(r.s, tid)
		}
	}
	kept := r.s.summaries[:0]
	for _, sm := range r.s.summaries {
		if sm.ProjectID != id {
			kept = append(kept, sm)
		}
	}
	r.s.summaries = kept
	return nil
}

func (r *fakeProjectRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.projects), nil
}

// ============================================
// Memberships
// ============================================

type fakeMembershipRepo struct{ s *memStore }

func (r *fakeMembershipRepo) Find(_ context.Context, projectID, userID string) (*repository.ProjectMember, error) {
	if err := castUUID(projectID, userID); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[[2]string{projectID, userID}]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMembershipRepo) FindByProject(_ context.Context, projectID string) ([]*repository.ProjectMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repository.ProjectMember
	for key, m := range r.s.members {
		if key[0] == projectID {
			cp := *m
			cp.User = copyUser(r.s.users[m.UserID])
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvitedAt.Before(out[j].InvitedAt) })
	return out, nil
}

func (r *fakeMembershipRepo) CreatePending(_ context.Context, member *repository.ProjectMember, invite *repository.Notification) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := [2]string{member.ProjectID, member.UserID}
	if _, ok := r.s.members[key]; ok {
		return false, nil
	}
	_, member.InvitedAt = r.s.next("member")
	member.IsAccepted = false
	cp := *member
	r.s.members[key] = &cp

	invite.ID, invite.CreatedAt = r.s.next("notification")
	n := *invite
	r.s.notifications[invite.ID] = &n
	return true, nil
}

func (r *fakeMembershipRepo) Accept(_ context.Context, projectID, userID string) (bool, error) {
	if err := castUUID(projectID, userID); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.members[[2]string{projectID, userID}]
	if !ok || m.IsAccepted {
		return false, nil
	}
	_, at := r.s.next("accept")
	m.IsAccepted = true
	m.AcceptedAt = &at

	for id, n := range r.s.notifications {
		if n.UserID == userID && n.Type == types.NotificationInvite &&
			n.RelatedEntityID != nil && *n.RelatedEntityID == projectID {
			delete(r.s.notifications, id)
		}
	}
	return true, nil
}

func (r *fakeMembershipRepo) Remove(_ context.Context, projectID, userID string) error {
	if err := castUUID(projectID, userID); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.members, [2]string{projectID, userID})
	return nil
}

// ============================================
// Notifications
// ============================================

type fakeNotificationRepo struct{ s *memStore }

func (r *fakeNotificationRepo) createLocked(n *repository.Notification) {
	n.ID, n.CreatedAt = r.s.next("notification")
	cp := *n
	r.s.notifications[n.ID] = &cp
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *repository.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.createLocked(n)
	return nil
}

func (r *fakeNotificationRepo) FindByID(_ context.Context, id string) (*repository.Notification, error) {
	if err := castUUID(id); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok {
		return nil, nil
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNotificationRepo) FindByUserID(_ context.Context, userID string, unreadOnly bool) ([]*repository.Notification, error) {
	all := r.s.inbox(userID)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*repository.Notification, 0, len(all))
	for _, n := range all {
		if unreadOnly && n.IsRead {
			continue
		}
		if n.SenderID != nil {
			n.Sender = copyUser(r.s.users[*n.SenderID])
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountByUserID(_ context.Context, userID string) (int, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	total, unread := 0, 0
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			total++
			if !n.IsRead {
				unread++
			}
		}
	}
	return total, unread, nil
}

func (r *fakeNotificationRepo) MarkAsRead(_ context.Context, id, userID string) (bool, error) {
	if err := castUUID(id, userID); err != nil {
		return false, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	n.IsRead = true
	return true, nil
}

func (r *fakeNotificationRepo) MarkAllAsRead(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) DeleteReadOlderThan(_ context.Context, notificationType string, before time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	deleted := 0
	for id, n := range r.s.notifications {
		if n.Type == notificationType && n.IsRead && n.CreatedAt.Before(before) {
			delete(r.s.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}

// ============================================
// Comments
// ============================================

type fakeCommentRepo struct{ s *memStore }

func (r *fakeCommentRepo) CreateWithNotifications(_ context.Context, comment *repository.Comment, notifications []*repository.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failCommentInsert; err != nil {
		r.s.failCommentInsert = nil
		return err
	}
	if _, ok := r.s.tasks[comment.TaskID]; !ok {
		return errors.New("task does not exist")
	}

	comment.ID, comment.CreatedAt = r.s.next("comment")
	comment.UpdatedAt = comment.CreatedAt
	cp := *comment
	cp.User = nil
	r.s.comments[comment.ID] = &cp

	nr := &fakeNotificationRepo{r.s}
	for _, n := range notifications {
		nr.createLocked(n)
	}
	return nil
}

func (r *fakeCommentRepo) FindByID(_ context.Context, id string) (*repository.Comment, error) {
	if err := castUUID(id); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	cp.User = copyUser(r.s.users[c.UserID])
	return &cp, nil
}

func (r *fakeCommentRepo) FindByTaskID(_ context.Context, taskID string) ([]*repository.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repository.Comment
	for _, c := range r.s.comments {
		if c.TaskID == taskID {
			cp := *c
			cp.User = copyUser(r.s.users[c.UserID])
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeCommentRepo) Update(_ context.Context, comment *repository.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[comment.ID]
	if !ok {
		return errors.New("comment not found")
	}
	c.Content = comment.Content
	return nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.comments, id)
	return nil
}

// ============================================
// Tasks
// ============================================

type fakeTaskRepo struct{ s *memStore }

func deleteTaskLocked(s *memStore, id string) {
	delete(s.tasks, id)
	for cid, c := range s.comments {
		if c.TaskID == id {
			delete(s.comments, cid)
		}
	}
}

func copyTask(t *repository.Task) *repository.Task {
	cp := *t
	cp.Project, cp.Assignee, cp.Comments = nil, nil, nil
	return &cp
}

func (r *fakeTaskRepo) Create(_ context.Context, task *repository.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if task.StartDate.After(task.EndDate) {
		return errors.New("violates check constraint tasks_dates_check")
	}
	if _, ok := r.s.projects[task.ProjectID]; !ok {
		return errors.New("project does not exist")
	}
	task.ID, task.CreatedAt = r.s.next("task")
	task.UpdatedAt = task.CreatedAt
	r.s.tasks[task.ID] = copyTask(task)
	return nil
}

func (r *fakeTaskRepo) FindByID(_ context.Context, id string) (*repository.Task, error) {
	if err := castUUID(id); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, nil
	}
	return copyTask(t), nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *repository.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[task.ID]; !ok {
		return errors.New("task not found")
	}
	if task.StartDate.After(task.EndDate) {
		return errors.New("violates check constraint tasks_dates_check")
	}
	r.s.tasks[task.ID] = copyTask(task)
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	deleteTaskLocked(r.s, id)
	return nil
}

func (r *fakeTaskRepo) filter(keep func(*repository.Task) bool) []*repository.Task {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repository.Task
	for _, t := range r.s.tasks {
		if keep(t) {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *fakeTaskRepo) FindByProjectID(_ context.Context, projectID string) ([]*repository.Task, error) {
	return r.filter(func(t *repository.Task) bool { return t.ProjectID == projectID }), nil
}

func (r *fakeTaskRepo) FindByAssignee(_ context.Context, userID, status string) ([]*repository.Task, error) {
	return r.filter(func(t *repository.Task) bool {
		return t.AssigneeID != nil && *t.AssigneeID == userID && (status == "" || t.Status == status)
	}), nil
}

func (r *fakeTaskRepo) FindDueBetween(_ context.Context, userID string, from, to time.Time) ([]*repository.Task, error) {
	out := r.filter(func(t *repository.Task) bool {
		return t.AssigneeID != nil && *t.AssigneeID == userID &&
			!t.EndDate.Before(from) && !t.EndDate.After(to)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

func (r *fakeTaskRepo) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.tasks), nil
}

func (r *fakeTaskRepo) Stats(_ context.Context, projectIDs []string, completedStatus string) (map[string]*repository.ProjectStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[string]bool, len(projectIDs))
	for _, id := range projectIDs {
		wanted[id] = true
	}
	stats := map[string]*repository.ProjectStats{}
	for _, t := range r.s.tasks {
		if !wanted[t.ProjectID] {
			continue
		}
		st, ok := stats[t.ProjectID]
		if !ok {
			st = &repository.ProjectStats{ProjectID: t.ProjectID}
			stats[t.ProjectID] = st
		}
		st.TotalTasks++
		if t.Status == completedStatus {
			st.CompletedTasks++
		}
	}
	return stats, nil
}

// ============================================
// Summaries
// ============================================

type fakeSummaryRepo struct{ s *memStore }

func (r *fakeSummaryRepo) Create(_ context.Context, sm *repository.ProjectSummary) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sm.ID, sm.CreatedAt = r.s.next("summary")
	cp := *sm
	r.s.summaries = append(r.s.summaries, &cp)
	return nil
}

func (r *fakeSummaryRepo) FindByProjectID(_ context.Context, projectID string) ([]*repository.ProjectSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*repository.ProjectSummary
	for i := len(r.s.summaries) - 1; i >= 0; i-- {
		if sm := r.s.summaries[i]; sm.ProjectID == projectID {
			cp := *sm
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ============================================
// Collaborators
// ============================================

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]string{}} }

func (c *fakeCache) Get(_ context.Context, projectID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.entries[projectID]
	return text, ok
}

func (c *fakeCache) Set(_ context.Context, projectID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[projectID] = text
}

func (c *fakeCache) Invalidate(_ context.Context, projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, projectID)
}

type fakeGenerator struct {
	result summary.Result
	calls  int
}

func (g *fakeGenerator) GenerateSummary(_ context.Context, project *repository.Project) summary.Result {
	g.calls++
	if len(project.Tasks) == 0 {
		return summary.Result{Text: summary.NoActivityText}
	}
	return g.result
}

type sentInvite struct {
	to   string
	data email.ProjectInvitationData
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentInvite
}

func (m *fakeMailer) EnqueueProjectInvitation(to string, data email.ProjectInvitationData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentInvite{to: to, data: data})
}

type fakePresence struct {
	mu     sync.Mutex
	online map[string]bool
}

func (p *fakePresence) IsUserOnline(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *fakePresence) set(userID string, online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = online
}

type pushed struct {
	userID  string
	payload map[string]interface{}
}

type fakePusher struct {
	mu   sync.Mutex
	sent []pushed
}

func (p *fakePusher) SendNotification(userID string, payload map[string]interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, pushed{userID: userID, payload: payload})
}

func (p *fakePusher) recipients() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, s := range p.sent {
		out = append(out, s.userID)
	}
	sort.Strings(out)
	return out
}
