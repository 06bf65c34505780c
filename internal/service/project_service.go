package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/socket"
	"github.com/Marga-Ghale/ora-tracker/internal/summary"
)

// ============================================
// Project Service
// ============================================

// ProjectView is a project loaded for display together with the caller's rights on it.
type ProjectView struct {
	Project *repository.Project
	Rights  policy.AccessRights
}

type ProjectService interface {
	Create(ctx context.Context, actor policy.Actor, input ProjectInput) (*repository.Project, error)
	List(ctx context.Context, actor policy.Actor) ([]*repository.Project, error)
	Get(ctx context.Context, actor policy.Actor, id string) (*ProjectView, error)
	Update(ctx context.Context, actor policy.Actor, id string, input ProjectInput) (*repository.Project, error)
	Delete(ctx context.Context, actor policy.Actor, id string) error
	Summarize(ctx context.Context, actor policy.Actor, id string) (string, error)
	ListSummaries(ctx context.Context, actor policy.Actor, id string) ([]*repository.ProjectSummary, error)
	// CanSubscribe decides whether a websocket client may join a project room.
	CanSubscribe(ctx context.Context, actor policy.Actor, room string) bool
}

type projectService struct {
	access      *accessLoader
	projectRepo repository.ProjectRepository
	summaryRepo repository.SummaryRepository
	generator   summary.Generator
	cache       summary.Cache
	broadcaster *socket.Broadcaster
}

func NewProjectService(
	repos *repository.Repositories,
	generator summary.Generator,
	cache summary.Cache,
	broadcaster *socket.Broadcaster,
) ProjectService {
	return &projectService{
		access:      newAccessLoader(repos),
		projectRepo: repos.ProjectRepo,
		summaryRepo: repos.SummaryRepo,
		generator:   generator,
		cache:       cache,
		broadcaster: broadcaster,
	}
}

// Create makes the actor the organizer. No membership row is written for the organizer.
func (s *projectService) Create(ctx context.Context, actor policy.Actor, input ProjectInput) (*repository.Project, error) {
	input.normalize()
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	project := &repository.Project{
		Title:       input.Title,
		Description: input.Description,
		OrganizerID: actor.UserID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

// List returns every project for administrators and organized or joined projects for everyone else.
func (s *projectService) List(ctx context.Context, actor policy.Actor) ([]*repository.Project, error) {
	if actor.IsAdmin() {
		return s.projectRepo.FindAll(ctx)
	}
	return s.projectRepo.FindVisibleTo(ctx, actor.UserID)
}

func (s *projectService) Get(ctx context.Context, actor policy.Actor, id string) (*ProjectView, error) {
	project, pp, err := s.access.projectWithPolicy(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewProject(actor, pp) {
		return nil, forbidden("You are not a member of this project.", projectsPath)
	}

	tasks, err := s.access.taskRepo.FindByProjectID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	members, err := s.access.membershipRepo.FindByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	project.Tasks = tasks
	project.Members = members

	return &ProjectView{Project: project, Rights: policy.RightsFor(actor, pp)}, nil
}

func (s *projectService) Update(ctx context.Context, actor policy.Actor, id string, input ProjectInput) (*repository.Project, error) {
	project, pp, err := s.access.projectWithPolicy(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanModifyProject(actor, pp) {
		return nil, forbidden("Only the organizer or an administrator can edit this project.", projectPath(id))
	}

	input.normalize()
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	project.Title = input.Title
	project.Description = input.Description
	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastProjectUpdated(id, map[string]interface{}{
			"id":          project.ID,
			"title":       project.Title,
			"description": project.Description,
		}, actor.UserID)
	}
	return project, nil
}

// Delete cascades to tasks, comments, memberships and summaries.
func (s *projectService) Delete(ctx context.Context, actor policy.Actor, id string) error {
	_, pp, err := s.access.projectWithPolicy(ctx, actor, id)
	if err != nil {
		return err
	}
	if !policy.CanModifyProject(actor, pp) {
		return forbidden("Only the organizer or an administrator can delete this project.", projectPath(id))
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.cache.Invalidate(ctx, id)

	if s.broadcaster != nil {
		s.broadcaster.BroadcastProjectDeleted(id, actor.UserID)
	}
	return nil
}

// Summarize never fails because of the summary service; its problems come
// back as fallback text. Only generated text is stored and cached.
func (s *projectService) Summarize(ctx context.Context, actor policy.Actor, id string) (string, error) {
	project, pp, err := s.access.projectWithPolicy(ctx, actor, id)
	if err != nil {
		return "", err
	}
	if !policy.CanViewProject(actor, pp) {
		return "", forbidden("You are not a member of this project.", projectsPath)
	}

	if text, ok := s.cache.Get(ctx, id); ok {
		return text, nil
	}

	tasks, err := s.access.taskRepo.FindByProjectID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("load tasks: %w", err)
	}
	project.Tasks = tasks

	result := s.generator.GenerateSummary(ctx, project)
	if !result.Generated {
		return result.Text, nil
	}

	if err := s.summaryRepo.Create(ctx, &repository.ProjectSummary{ProjectID: id, Content: result.Text}); err != nil {
		log.WithError(err).WithField("project", id).Warn("failed to store project summary")
	}
	s.cache.Set(ctx, id, result.Text)
	return result.Text, nil
}

func (s *projectService) ListSummaries(ctx context.Context, actor policy.Actor, id string) ([]*repository.ProjectSummary, error) {
	_, pp, err := s.access.projectWithPolicy(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewProject(actor, pp) {
		return nil, forbidden("You are not a member of this project.", projectsPath)
	}
	return s.summaryRepo.FindByProjectID(ctx, id)
}

func (s *projectService) CanSubscribe(ctx context.Context, actor policy.Actor, room string) bool {
	projectID, ok := strings.CutPrefix(room, "project:")
	if !ok || projectID == "" {
		return false
	}
	_, pp, err := s.access.projectWithPolicy(ctx, actor, projectID)
	if err != nil {
		return false
	}
	return policy.CanViewProject(actor, pp)
}
