package service

import (
	"context"
	"fmt"

	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/socket"
	"github.com/Marga-Ghale/ora-tracker/internal/summary"
	"github.com/Marga-Ghale/ora-tracker/internal/types"
)

// ============================================
// Task Service
// ============================================

// TaskView is a task loaded for display. EditScope tells the client which fields it may submit.
type TaskView struct {
	Task      *repository.Task
	Rights    policy.AccessRights
	EditScope policy.EditScope
}

type TaskService interface {
	Create(ctx context.Context, actor policy.Actor, projectID string, input TaskInput) (*repository.Task, error)
	Get(ctx context.Context, actor policy.Actor, id string) (*TaskView, error)
	ListByProject(ctx context.Context, actor policy.Actor, projectID string) ([]*repository.Task, error)
	// Update applies every field for organizers and administrators and only
	// Status for an assignee; the other submitted fields are ignored.
	Update(ctx context.Context, actor policy.Actor, id string, input TaskInput) (*repository.Task, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
}

type taskService struct {
	access      *accessLoader
	taskRepo    repository.TaskRepository
	userRepo    repository.UserRepository
	commentRepo repository.CommentRepository
	cache       summary.Cache
	broadcaster *socket.Broadcaster
}

func NewTaskService(repos *repository.Repositories, cache summary.Cache, broadcaster *socket.Broadcaster) TaskService {
	return &taskService{
		access:      newAccessLoader(repos),
		taskRepo:    repos.TaskRepo,
		userRepo:    repos.UserRepo,
		commentRepo: repos.CommentRepo,
		cache:       cache,
		broadcaster: broadcaster,
	}
}

func (s *taskService) Create(ctx context.Context, actor policy.Actor, projectID string, input TaskInput) (*repository.Task, error) {
	_, pp, err := s.access.projectWithPolicy(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanCreateTask(actor, pp) {
		return nil, forbidden("Only project members can add tasks.", projectsPath)
	}

	input.normalize()
	if input.Status == "" {
		input.Status = types.StatusNotStarted
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := s.checkAssignee(ctx, projectID, pp, input.AssigneeID); err != nil {
		return nil, err
	}

	task := &repository.Task{ProjectID: projectID}
	applyAll(task, input)
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.cache.Invalidate(ctx, projectID)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastTaskCreated(projectID, taskPayload(task), actor.UserID)
	}
	return task, nil
}

// checkAssignee allows the organizer or an accepted member of the project.
func (s *taskService) checkAssignee(ctx context.Context, projectID string, pp policy.Project, assigneeID *string) error {
	if assigneeID == nil || *assigneeID == pp.OrganizerID {
		return nil
	}
	if !validID(*assigneeID) {
		return invalidField("assigneeId", "must be the organizer or an accepted member of the project")
	}
	row, err := s.access.membershipRepo.Find(ctx, projectID, *assigneeID)
	if err != nil {
		return fmt.Errorf("load assignee membership: %w", err)
	}
	if row == nil || !row.IsAccepted {
		return invalidField("assigneeId", "must be the organizer or an accepted member of the project")
	}
	return nil
}

func (s *taskService) Get(ctx context.Context, actor policy.Actor, id string) (*TaskView, error) {
	task, pt, err := s.access.task(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewTask(actor, pt) {
		return nil, forbidden("You are not a member of this project.", projectsPath)
	}

	if task.AssigneeID != nil {
		assignee, err := s.userRepo.FindByID(ctx, *task.AssigneeID)
		if err != nil {
			return nil, fmt.Errorf("load assignee: %w", err)
		}
		task.Assignee = assignee
	}
	comments, err := s.commentRepo.FindByTaskID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	task.Comments = comments

	return &TaskView{
		Task:      task,
		Rights:    policy.RightsFor(actor, pt.Project),
		EditScope: policy.CanModifyTask(actor, pt),
	}, nil
}

func (s *taskService) ListByProject(ctx context.Context, actor policy.Actor, projectID string) ([]*repository.Task, error) {
	_, pp, err := s.access.projectWithPolicy(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewProject(actor, pp) {
		return nil, forbidden("You are not a member of this project.", projectsPath)
	}
	return s.taskRepo.FindByProjectID(ctx, projectID)
}

func (s *taskService) Update(ctx context.Context, actor policy.Actor, id string, input TaskInput) (*repository.Task, error) {
	task, pt, err := s.access.task(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	input.normalize()

	switch policy.CanModifyTask(actor, pt) {
	case policy.EditAll:
		if input.Status == "" {
			input.Status = task.Status
		}
		if err := validateStruct(input); err != nil {
			return nil, err
		}
		if err := s.checkAssignee(ctx, task.ProjectID, pt.Project, input.AssigneeID); err != nil {
			return nil, err
		}
		applyAll(task, input)

	case policy.EditStatusOnly:
		if input.Status != "" {
			if err := validateVar("status", input.Status, "max=50"); err != nil {
				return nil, err
			}
			task.Status = input.Status
		}

	default:
		return nil, forbidden("Only the organizer, an administrator or the assignee can edit this task.", taskPath(id))
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.cache.Invalidate(ctx, task.ProjectID)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastTaskUpdated(task.ProjectID, taskPayload(task), actor.UserID)
	}
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	task, pt, err := s.access.task(ctx, actor, id)
	if err != nil {
		return err
	}
	if !policy.CanDeleteTask(actor, pt) {
		return forbidden("Only the organizer or an administrator can delete this task.", taskPath(id))
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	s.cache.Invalidate(ctx, task.ProjectID)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastTaskDeleted(task.ProjectID, id, actor.UserID)
	}
	return nil
}

func applyAll(task *repository.Task, input TaskInput) {
	task.Title = input.Title
	task.Description = input.Description
	task.Content = input.Content
	task.Status = input.Status
	task.StartDate = input.StartDate
	task.EndDate = input.EndDate
	task.AssigneeID = input.AssigneeID
}

func taskPayload(task *repository.Task) map[string]interface{} {
	p := map[string]interface{}{
		"id":        task.ID,
		"projectId": task.ProjectID,
		"title":     task.Title,
		"status":    task.Status,
		"startDate": task.StartDate,
		"endDate":   task.EndDate,
	}
	if task.AssigneeID != nil {
		p["assigneeId"] = *task.AssigneeID
	}
	return p
}
