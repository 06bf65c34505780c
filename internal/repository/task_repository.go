package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
)

// Task belongs to exactly one project. AssigneeID is nil when unassigned.
type Task struct {
	ID          string    `json:"id" db:"id"`
	ProjectID   string    `json:"projectId" db:"project_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Content     *string   `json:"content,omitempty" db:"content"`
	Status      string    `json:"status" db:"status"`
	StartDate   time.Time `json:"startDate" db:"start_date"`
	EndDate     time.Time `json:"endDate" db:"end_date"`
	AssigneeID  *string   `json:"assigneeId,omitempty" db:"user_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	Project  *Project   `json:"-" db:"-"`
	Assignee *User      `json:"-" db:"-"`
	Comments []*Comment `json:"-" db:"-"`
}

// ProjectStats carries task counters used for progress figures.
type ProjectStats struct {
	ProjectID      string
	TotalTasks     int
	CompletedTasks int
}

type TaskRepository interface {
	Create(ctx context.Context, task *Task) error
	FindByID(ctx context.Context, id string) (*Task, error)
	Update(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id string) error

	FindByProjectID(ctx context.Context, projectID string) ([]*Task, error)
	// FindByAssignee lists tasks assigned to the user; an empty status matches all.
	FindByAssignee(ctx context.Context, userID, status string) ([]*Task, error)
	// FindDueBetween lists tasks assigned to the user whose end date falls in [from, to].
	FindDueBetween(ctx context.Context, userID string, from, to time.Time) ([]*Task, error)

	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context, projectIDs []string, completedStatus string) (map[string]*ProjectStats, error)
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, project_id, title, description, content, status, start_date, end_date, user_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	t := &Task{}
	var content, assignee sql.NullString
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &content, &t.Status,
		&t.StartDate, &t.EndDate, &assignee, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if content.Valid {
		t.Content = &content.String
	}
	if assignee.Valid {
		t.AssigneeID = &assignee.String
	}
	return t, nil
}

func (r *taskRepository) Create(ctx context.Context, task *Task) error {
	query := `
		INSERT INTO tasks (
			project_id, title, description, content, status, start_date, end_date, user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		task.ProjectID, task.Title, task.Description, task.Content, task.Status,
		task.StartDate, task.EndDate, task.AssigneeID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// Update writes every mutable column; concurrent edits are last-write-wins.
func (r *taskRepository) Update(ctx context.Context, task *Task) error {
	query := `
		UPDATE tasks SET
			title = $2, description = $3, content = $4, status = $5,
			start_date = $6, end_date = $7, user_id = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, task.Content, task.Status,
		task.StartDate, task.EndDate, task.AssigneeID,
	).Scan(&task.UpdatedAt)
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (r *taskRepository) FindByProjectID(ctx context.Context, projectID string) ([]*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = $1 ORDER BY start_date, created_at`
	return r.queryTasks(ctx, query, projectID)
}

func (r *taskRepository) FindByAssignee(ctx context.Context, userID, status string) ([]*Task, error) {
	query := `
		SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY end_date`
	return r.queryTasks(ctx, query, userID, status)
}

func (r *taskRepository) FindDueBetween(ctx context.Context, userID string, from, to time.Time) ([]*Task, error) {
	query := `
		SELECT ` + taskColumns + ` FROM tasks
		WHERE user_id = $1 AND end_date >= $2 AND end_date <= $3
		ORDER BY end_date`
	return r.queryTasks(ctx, query, userID, from, to)
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}

func (r *taskRepository) Stats(ctx context.Context, projectIDs []string, completedStatus string) (map[string]*ProjectStats, error) {
	stats := make(map[string]*ProjectStats, len(projectIDs))
	if len(projectIDs) == 0 {
		return stats, nil
	}

	query := `
		SELECT project_id::text,
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $2)
		FROM tasks
		WHERE project_id = ANY($1::uuid[])
		GROUP BY project_id`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(projectIDs), completedStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		s := &ProjectStats{}
		if err := rows.Scan(&s.ProjectID, &s.TotalTasks, &s.CompletedTasks); err != nil {
			return nil, err
		}
		stats[s.ProjectID] = s
	}
	return stats, rows.Err()
}
