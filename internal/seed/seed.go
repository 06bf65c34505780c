// internal/seed/seed.go
package seed

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
	"github.com/Marga-Ghale/ora-tracker/internal/notification"
	"github.com/Marga-Ghale/ora-tracker/internal/repository"
	"github.com/Marga-Ghale/ora-tracker/internal/types"
)

var log = logutils.Component("seed")

const defaultPassword = "password123"

// SeedData creates development users, one project, memberships and tasks.
// It does nothing when users already exist.
func SeedData(ctx context.Context, repos *repository.Repositories) error {
	count, err := repos.UserRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		log.Info("data already exists, skipping")
		return nil
	}

	log.Info("creating development data")

	// ============================================
	// USERS
	// ============================================
	password, err := bcrypt.GenerateFromPassword([]byte(defaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	newUser := func(email, first, last, role string) (*repository.User, error) {
		u := &repository.User{
			Email:     email,
			Password:  string(password),
			FirstName: first,
			LastName:  last,
			Roles:     []string{role},
		}
		if err := repos.UserRepo.Create(ctx, u); err != nil {
			return nil, fmt.Errorf("create user %s: %w", email, err)
		}
		return u, nil
	}

	// Marga - Administrator, sees and edits everything
	marga, err := newUser("marga.ghale@oratechnologies.io", "Marga", "Ghale", types.RoleAdministrator)
	if err != nil {
		return err
	}
	// Bipin - organizes the launch project
	bipin, err := newUser("bipin.dhimal@oratechnologies.io", "Bipin", "Dhimal", types.RoleMember)
	if err != nil {
		return err
	}
	// Kritim - accepted member of the launch project
	kritim, err := newUser("kritim.kafle@oratechnologies.io", "Kritim", "Kafle", types.RoleMember)
	if err != nil {
		return err
	}
	// Prerak - invited, has not accepted yet
	prerak, err := newUser("prerak.khadka@oratechnologies.io", "Prerak", "Khadka", types.RoleMember)
	if err != nil {
		return err
	}

	log.WithField("admin", marga.Email).Info("created 4 users")

	// ============================================
	// PROJECT
	// ============================================
	project := &repository.Project{
		Title:       "ORA Tracker Launch",
		Description: "Everything needed to ship the first public release.",
		OrganizerID: bipin.ID,
	}
	if err := repos.ProjectRepo.Create(ctx, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}

	// ============================================
	// MEMBERSHIPS
	// ============================================
	for _, u := range []*repository.User{kritim, prerak} {
		invite := notification.BuildInvite(project, bipin, u.ID)
		if _, err := repos.MembershipRepo.CreatePending(ctx,
			&repository.ProjectMember{ProjectID: project.ID, UserID: u.ID}, invite); err != nil {
			return fmt.Errorf("invite %s: %w", u.Email, err)
		}
		if u == kritim {
			if _, err := repos.MembershipRepo.Accept(ctx, project.ID, u.ID); err != nil {
				return fmt.Errorf("accept %s: %w", u.Email, err)
			}
		}
	}

	// ============================================
	// TASKS
	// ============================================
	today := time.Now().UTC().Truncate(24 * time.Hour)
	tasks := []*repository.Task{
		{
			Title:       "Finalize release checklist",
			Description: "Collect the remaining blockers from every team.",
			Status:      types.StatusInProgress,
			StartDate:   today.AddDate(0, 0, -3),
			EndDate:     today.AddDate(0, 0, 2),
			AssigneeID:  &kritim.ID,
		},
		{
			Title:       "Write announcement post",
			Description: "Draft the blog post for the launch.",
			Status:      types.StatusNotStarted,
			StartDate:   today,
			EndDate:     today.AddDate(0, 0, 10),
			AssigneeID:  &bipin.ID,
		},
		{
			Title:       "Set up production database",
			Description: "Provision Postgres and run migrations.",
			Status:      types.StatusCompleted,
			StartDate:   today.AddDate(0, 0, -14),
			EndDate:     today.AddDate(0, 0, -7),
		},
	}
	for _, task := range tasks {
		task.ProjectID = project.ID
		if err := repos.TaskRepo.Create(ctx, task); err != nil {
			return fmt.Errorf("create task %q: %w", task.Title, err)
		}
	}

	log.WithFields(logutils.Fields{
		"project": project.Title,
		"tasks":   len(tasks),
	}).Infof("seed complete, every account uses password %q", defaultPassword)
	return nil
}
