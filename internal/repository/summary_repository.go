package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectSummary struct {
	ID        string
	ProjectID string
	Content   string
	CreatedAt time.Time
}

type SummaryRepository interface {
	Create(ctx context.Context, summary *ProjectSummary) error
	FindByProjectID(ctx context.Context, projectID string) ([]*ProjectSummary, error)
}

type pgSummaryRepository struct {
	pool *pgxpool.Pool
}

func NewSummaryRepository(pool *pgxpool.Pool) SummaryRepository {
	return &pgSummaryRepository{pool: pool}
}

func (r *pgSummaryRepository) Create(ctx context.Context, summary *ProjectSummary) error {
	query := `
		INSERT INTO project_summaries (project_id, content)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query, summary.ProjectID, summary.Content).
		Scan(&summary.ID, &summary.CreatedAt)
}

func (r *pgSummaryRepository) FindByProjectID(ctx context.Context, projectID string) ([]*ProjectSummary, error) {
	query := `
		SELECT id, project_id, content, created_at
		FROM project_summaries
		WHERE project_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*ProjectSummary
	for rows.Next() {
		s := &ProjectSummary{}
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.Content, &s.CreatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
