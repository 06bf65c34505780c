package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Comment struct {
	ID        string
	Content   string
	TaskID    string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
	User      *User
}

type CommentRepository interface {
	// CreateWithNotifications inserts the comment and every notification in one transaction.
	// Notification IDs and timestamps are filled in on success.
	CreateWithNotifications(ctx context.Context, comment *Comment, notifications []*Notification) error
	FindByID(ctx context.Context, id string) (*Comment, error)
	FindByTaskID(ctx context.Context, taskID string) ([]*Comment, error)
	Update(ctx context.Context, comment *Comment) error
	Delete(ctx context.Context, id string) error
}

type pgCommentRepository struct {
	pool *pgxpool.Pool
}

func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &pgCommentRepository{pool: pool}
}

func (r *pgCommentRepository) CreateWithNotifications(ctx context.Context, comment *Comment, notifications []*Notification) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO comments (content, task_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query, comment.Content, comment.TaskID, comment.UserID).
		Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	for _, n := range notifications {
		if err := insertNotification(ctx, tx, n); err != nil {
			return fmt.Errorf("insert comment notification for %s: %w", n.UserID, err)
		}
	}

	return tx.Commit(ctx)
}

func (r *pgCommentRepository) FindByID(ctx context.Context, id string) (*Comment, error) {
	query := `
		SELECT c.id, c.content, c.task_id, c.user_id, c.created_at, c.updated_at,
		       u.id, u.email, u.first_name, u.last_name
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.id = $1
	`
	c := &Comment{User: &User{}}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Content, &c.TaskID, &c.UserID, &c.CreatedAt, &c.UpdatedAt,
		&c.User.ID, &c.User.Email, &c.User.FirstName, &c.User.LastName,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *pgCommentRepository) FindByTaskID(ctx context.Context, taskID string) ([]*Comment, error) {
	query := `
		SELECT c.id, c.content, c.task_id, c.user_id, c.created_at, c.updated_at,
		       u.id, u.email, u.first_name, u.last_name
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.task_id = $1
		ORDER BY c.created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*Comment
	for rows.Next() {
		c := &Comment{User: &User{}}
		if err := rows.Scan(
			&c.ID, &c.Content, &c.TaskID, &c.UserID, &c.CreatedAt, &c.UpdatedAt,
			&c.User.ID, &c.User.Email, &c.User.FirstName, &c.User.LastName,
		); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *pgCommentRepository) Update(ctx context.Context, comment *Comment) error {
	query := `UPDATE comments SET content = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, comment.ID, comment.Content).Scan(&comment.UpdatedAt)
}

func (r *pgCommentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return err
}
