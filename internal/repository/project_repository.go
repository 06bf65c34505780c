package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Project struct {
	ID          string
	Title       string
	Description string
	OrganizerID string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Loaded on demand by services
	Organizer *User
	Members   []*ProjectMember
	Tasks     []*Task
}

type ProjectRepository interface {
	Create(ctx context.Context, project *Project) error
	FindByID(ctx context.Context, id string) (*Project, error)
	FindAll(ctx context.Context) ([]*Project, error)
	// FindVisibleTo lists projects the user organizes or holds an accepted membership in.
	FindVisibleTo(ctx context.Context, userID string) ([]*Project, error)
	FindRecent(ctx context.Context, limit int) ([]*Project, error)
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type pgProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &pgProjectRepository{pool: pool}
}

const projectColumns = `p.id, p.title, p.description, p.organizer_id, p.created_at, p.updated_at,
	u.id, u.email, u.first_name, u.last_name, u.roles`

func scanProject(row pgx.Row) (*Project, error) {
	p := &Project{Organizer: &User{}}
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.OrganizerID, &p.CreatedAt, &p.UpdatedAt,
		&p.Organizer.ID, &p.Organizer.Email, &p.Organizer.FirstName, &p.Organizer.LastName, &p.Organizer.Roles,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *pgProjectRepository) Create(ctx context.Context, project *Project) error {
	query := `
		INSERT INTO projects (title, description, organizer_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query, project.Title, project.Description, project.OrganizerID).
		Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
}

func (r *pgProjectRepository) FindByID(ctx context.Context, id string) (*Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects p
		JOIN users u ON u.id = p.organizer_id
		WHERE p.id = $1
	`
	p, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *pgProjectRepository) FindAll(ctx context.Context) ([]*Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects p
		JOIN users u ON u.id = p.organizer_id
		ORDER BY p.created_at DESC
	`
	return r.queryProjects(ctx, query)
}

func (r *pgProjectRepository) FindVisibleTo(ctx context.Context, userID string) ([]*Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects p
		JOIN users u ON u.id = p.organizer_id
		WHERE p.organizer_id = $1
		   OR EXISTS (
				SELECT 1 FROM project_members pm
				WHERE pm.project_id = p.id AND pm.user_id = $1 AND pm.is_accepted
		   )
		ORDER BY p.created_at DESC
	`
	return r.queryProjects(ctx, query, userID)
}

func (r *pgProjectRepository) FindRecent(ctx context.Context, limit int) ([]*Project, error) {
	query := `
		SELECT ` + projectColumns + `
		FROM projects p
		JOIN users u ON u.id = p.organizer_id
		ORDER BY p.created_at DESC
		LIMIT $1
	`
	return r.queryProjects(ctx, query, limit)
}

func (r *pgProjectRepository) queryProjects(ctx context.Context, query string, args ...interface{}) ([]*Project, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *pgProjectRepository) Update(ctx context.Context, project *Project) error {
	query := `
		UPDATE projects SET title = $2, description = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	return r.pool.QueryRow(ctx, query, project.ID, project.Title, project.Description).
		Scan(&project.UpdatedAt)
}

// Delete cascades to tasks, comments, memberships and summaries through foreign keys.
func (r *pgProjectRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

func (r *pgProjectRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n)
	return n, err
}
