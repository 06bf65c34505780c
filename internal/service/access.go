package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
)

// ============================================
// Entity graph loading for policy checks
// ============================================

// validID reports whether id can name a row. Every primary key is a UUID, and
// anything else would fail the cast in Postgres instead of matching nothing.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// accessLoader resolves entities together with the facts the policy needs.
type accessLoader struct {
	projectRepo    repository.ProjectRepository
	membershipRepo repository.MembershipRepository
	taskRepo       repository.TaskRepository
	commentRepo    repository.CommentRepository
}

func newAccessLoader(repos *repository.Repositories) *accessLoader {
	return &accessLoader{
		projectRepo:    repos.ProjectRepo,
		membershipRepo: repos.MembershipRepo,
		taskRepo:       repos.TaskRepo,
		commentRepo:    repos.CommentRepo,
	}
}

func (l *accessLoader) project(ctx context.Context, id string) (*repository.Project, error) {
	if !validID(id) {
		return nil, notFound("project")
	}
	project, err := l.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return nil, notFound("project")
	}
	return project, nil
}

// policyProject builds the policy view of a project for one actor. The
// membership table is only read when organizer or admin status does not
// already decide the outcome.
func (l *accessLoader) policyProject(ctx context.Context, actor policy.Actor, project *repository.Project) (policy.Project, error) {
	pp := policy.Project{OrganizerID: project.OrganizerID}
	if actor.UserID == "" || actor.UserID == project.OrganizerID {
		return pp, nil
	}

	row, err := l.membershipRepo.Find(ctx, project.ID, actor.UserID)
	if err != nil {
		return pp, fmt.Errorf("load membership: %w", err)
	}
	if row != nil {
		pp.Members = []policy.Member{{UserID: row.UserID, IsAccepted: row.IsAccepted}}
	}
	return pp, nil
}

func (l *accessLoader) projectWithPolicy(ctx context.Context, actor policy.Actor, id string) (*repository.Project, policy.Project, error) {
	project, err := l.project(ctx, id)
	if err != nil {
		return nil, policy.Project{}, err
	}
	pp, err := l.policyProject(ctx, actor, project)
	if err != nil {
		return nil, policy.Project{}, err
	}
	return project, pp, nil
}

// task loads the task with its Project populated.
func (l *accessLoader) task(ctx context.Context, actor policy.Actor, id string) (*repository.Task, policy.Task, error) {
	if !validID(id) {
		return nil, policy.Task{}, notFound("task")
	}
	task, err := l.taskRepo.FindByID(ctx, id)
	if err != nil {
		return nil, policy.Task{}, fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return nil, policy.Task{}, notFound("task")
	}

	project, pp, err := l.projectWithPolicy(ctx, actor, task.ProjectID)
	if err != nil {
		return nil, policy.Task{}, err
	}
	task.Project = project

	return task, policyTask(pp, task), nil
}

func policyTask(pp policy.Project, task *repository.Task) policy.Task {
	pt := policy.Task{Project: pp}
	if task.AssigneeID != nil {
		pt.AssigneeID = *task.AssigneeID
	}
	return pt
}

// comment loads the comment together with its task and project.
func (l *accessLoader) comment(ctx context.Context, actor policy.Actor, id string) (*repository.Comment, *repository.Task, policy.Comment, error) {
	if !validID(id) {
		return nil, nil, policy.Comment{}, notFound("comment")
	}
	comment, err := l.commentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, policy.Comment{}, fmt.Errorf("load comment: %w", err)
	}
	if comment == nil {
		return nil, nil, policy.Comment{}, notFound("comment")
	}

	task, pt, err := l.task(ctx, actor, comment.TaskID)
	if err != nil {
		return nil, nil, policy.Comment{}, err
	}

	return comment, task, policy.Comment{Task: pt, AuthorID: comment.UserID}, nil
}

// ============================================
// Redirect targets for denials
// ============================================

const projectsPath = "/projects"

func projectPath(id string) string { return projectsPath + "/" + id }
func taskPath(id string) string    { return "/tasks/" + id }
