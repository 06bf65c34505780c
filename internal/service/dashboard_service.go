package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Marga-Ghale/ora-tracker/internal/policy"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/types"
)

// ============================================
// Dashboard Service
// ============================================

const upcomingWindow = 7 * 24 * time.Hour

// ProjectProgress is a project with its completion figures.
type ProjectProgress struct {
	Project        *repository.Project
	TotalTasks     int
	CompletedTasks int
	Completion     decimal.Decimal
}

type Dashboard struct {
	Projects []*ProjectProgress
	Assigned []*repository.Task
	Upcoming []*repository.Task
}

type DashboardService interface {
	// Get lists the actor's projects, the tasks assigned to them (optionally
	// filtered by status) and the assigned tasks ending within the next week.
	Get(ctx context.Context, actor policy.Actor, status string) (*Dashboard, error)
}

type dashboardService struct {
	projectRepo repository.ProjectRepository
	taskRepo    repository.TaskRepository
	now         func() time.Time
}

func NewDashboardService(repos *repository.Repositories) DashboardService {
	return &dashboardService{
		projectRepo: repos.ProjectRepo,
		taskRepo:    repos.TaskRepo,
		now:         time.Now,
	}
}

func (s *dashboardService) Get(ctx context.Context, actor policy.Actor, status string) (*Dashboard, error) {
	projects, err := s.projectRepo.FindVisibleTo(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	progress, err := withProgress(ctx, s.taskRepo, projects)
	if err != nil {
		return nil, err
	}

	assigned, err := s.taskRepo.FindByAssignee(ctx, actor.UserID, status)
	if err != nil {
		return nil, fmt.Errorf("load assigned tasks: %w", err)
	}

	now := s.now()
	upcoming, err := s.taskRepo.FindDueBetween(ctx, actor.UserID, now, now.Add(upcomingWindow))
	if err != nil {
		return nil, fmt.Errorf("load upcoming tasks: %w", err)
	}

	return &Dashboard{Projects: progress, Assigned: assigned, Upcoming: upcoming}, nil
}

// withProgress attaches task counters to each project in one query.
func withProgress(ctx context.Context, taskRepo repository.TaskRepository, projects []*repository.Project) ([]*ProjectProgress, error) {
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}

	stats, err := taskRepo.Stats(ctx, ids, types.StatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("load task stats: %w", err)
	}

	out := make([]*ProjectProgress, 0, len(projects))
	for _, p := range projects {
		pp := &ProjectProgress{Project: p, Completion: decimal.Zero}
		if st, ok := stats[p.ID]; ok {
			pp.TotalTasks = st.TotalTasks
			pp.CompletedTasks = st.CompletedTasks
			pp.Completion = CompletionPercent(st.CompletedTasks, st.TotalTasks)
		}
		out = append(out, pp)
	}
	return out, nil
}

// CompletionPercent returns completed/total as a percentage rounded to two places.
func CompletionPercent(completed, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(completed)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
