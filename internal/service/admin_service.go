package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/socket"
	"github.com/Marga-Ghale/ora-tracker/internal/summary"
)

// ============================================
// Admin Service
// ============================================

const recentProjectsLimit = 5

type AdminStats struct {
	Users          int
	Projects       int
	Tasks          int
	RecentProjects []*repository.Project
}

// AdminService backs the administrator panel. Every method requires the Administrator role.
type AdminService interface {
	Stats(ctx context.Context, actor policy.Actor) (*AdminStats, error)
	ListUsers(ctx context.Context, actor policy.Actor) ([]*repository.User, error)
	ListProjects(ctx context.Context, actor policy.Actor) ([]*ProjectProgress, error)
	// DeleteUser purges the user's memberships and comments, then the user.
	// A user who still organizes projects is a conflict.
	DeleteUser(ctx context.Context, actor policy.Actor, id string) error
	DeleteProject(ctx context.Context, actor policy.Actor, id string) error
}

type adminService struct {
	userRepo    repository.UserRepository
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	cache       summary.Cache
	broadcaster *socket.Broadcaster
}

func NewAdminService(repos *repository.Repositories, cache summary.Cache, broadcaster *socket.Broadcaster) AdminService {
	return &adminService{
		userRepo:    repos.UserRepo,
		projectRepo: repos.ProjectRepo,
		taskRepo:    repos.TaskRepo,
		cache:       cache,
		broadcaster: broadcaster,
	}
}

var adminLog = logutils.Component("admin")

func requireAdmin(actor policy.Actor) error {
	if !actor.IsAdmin() {
		return forbidden("Administrator access is required.", projectsPath)
	}
	return nil
}

func (s *adminService) Stats(ctx context.Context, actor policy.Actor) (*AdminStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	projects, err := s.projectRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}
	tasks, err := s.taskRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	recent, err := s.projectRepo.FindRecent(ctx, recentProjectsLimit)
	if err != nil {
		return nil, fmt.Errorf("load recent projects: %w", err)
	}

	return &AdminStats{Users: users, Projects: projects, Tasks: tasks, RecentProjects: recent}, nil
}

func (s *adminService) ListUsers(ctx context.Context, actor policy.Actor) ([]*repository.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.userRepo.FindAll(ctx)
}

func (s *adminService) ListProjects(ctx context.Context, actor policy.Actor) ([]*ProjectProgress, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	projects, err := s.projectRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	return withProgress(ctx, s.taskRepo, projects)
}

func (s *adminService) DeleteUser(ctx context.Context, actor policy.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return forbidden("You cannot delete your own account.", "/admin/users")
	}

	if !validID(id) {
		return notFound("user")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return notFound("user")
	}

	if err := s.userRepo.PurgeAndDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRestricted) {
			return fmt.Errorf("user still organizes projects: %w", ErrConflict)
		}
		return fmt.Errorf("delete user: %w", err)
	}

	adminLog.WithFields(logutils.Fields{"user": id, "by": actor.UserID}).Info("user deleted")
	return nil
}

func (s *adminService) DeleteProject(ctx context.Context, actor policy.Actor, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	if !validID(id) {
		return notFound("project")
	}
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if project == nil {
		return notFound("project")
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	s.cache.Invalidate(ctx, id)

	adminLog.WithFields(logutils.Fields{"project": id, "by": actor.UserID}).Info("project deleted")
	if s.broadcaster != nil {
		s.broadcaster.BroadcastProjectDeleted(id, actor.UserID)
	}
	return nil
}
