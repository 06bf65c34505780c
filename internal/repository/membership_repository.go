package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Marga-Ghale/ora-tracker/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectMember is keyed by (ProjectID, UserID). IsAccepted=false is a pending invitation.
type ProjectMember struct {
	ProjectID  string
	UserID     string
	IsAccepted bool
	InvitedAt  time.Time
	AcceptedAt *time.Time
	User       *User
}

type MembershipRepository interface {
	Find(ctx context.Context, projectID, userID string) (*ProjectMember, error)
	FindByProject(ctx context.Context, projectID string) ([]*ProjectMember, error)
	// CreatePending inserts a pending row and its invite notification atomically.
	// Returns false when a row for the pair already exists; nothing is written then.
	CreatePending(ctx context.Context, member *ProjectMember, invite *Notification) (bool, error)
	// Accept flips a pending row to accepted and deletes the user's Invite notification for
	// the project in one transaction. Other notifications are never touched.
	// Returns false when no pending row exists.
	Accept(ctx context.Context, projectID, userID string) (bool, error)
	Remove(ctx context.Context, projectID, userID string) error
}

type pgMembershipRepository struct {
	pool *pgxpool.Pool
}

func NewMembershipRepository(pool *pgxpool.Pool) MembershipRepository {
	return &pgMembershipRepository{pool: pool}
}

func (r *pgMembershipRepository) Find(ctx context.Context, projectID, userID string) (*ProjectMember, error) {
	query := `
		SELECT project_id, user_id, is_accepted, invited_at, accepted_at
		FROM project_members WHERE project_id = $1 AND user_id = $2
	`
	m := &ProjectMember{}
	err := r.pool.QueryRow(ctx, query, projectID, userID).Scan(
		&m.ProjectID, &m.UserID, &m.IsAccepted, &m.InvitedAt, &m.AcceptedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *pgMembershipRepository) FindByProject(ctx context.Context, projectID string) ([]*ProjectMember, error) {
	query := `
		SELECT pm.project_id, pm.user_id, pm.is_accepted, pm.invited_at, pm.accepted_at,
		       u.id, u.email, u.first_name, u.last_name, u.roles
		FROM project_members pm
		JOIN users u ON pm.user_id = u.id
		WHERE pm.project_id = $1
		ORDER BY pm.invited_at
	`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*ProjectMember
	for rows.Next() {
		m := &ProjectMember{User: &User{}}
		if err := rows.Scan(
			&m.ProjectID, &m.UserID, &m.IsAccepted, &m.InvitedAt, &m.AcceptedAt,
			&m.User.ID, &m.User.Email, &m.User.FirstName, &m.User.LastName, &m.User.Roles,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *pgMembershipRepository) CreatePending(ctx context.Context, member *ProjectMember, invite *Notification) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO project_members (project_id, user_id, is_accepted)
		VALUES ($1, $2, FALSE)
		ON CONFLICT (project_id, user_id) DO NOTHING
		RETURNING invited_at
	`
	err = tx.QueryRow(ctx, query, member.ProjectID, member.UserID).Scan(&member.InvitedAt)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert membership: %w", err)
	}
	member.IsAccepted = false

	if invite != nil {
		if err := insertNotification(ctx, tx, invite); err != nil {
			return false, fmt.Errorf("insert invite notification: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *pgMembershipRepository) Accept(ctx context.Context, projectID, userID string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE project_members SET is_accepted = TRUE, accepted_at = NOW()
		WHERE project_id = $1 AND user_id = $2 AND NOT is_accepted
	`, projectID, userID)
	if err != nil {
		return false, fmt.Errorf("accept membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM notifications
		WHERE user_id = $1 AND type = $2 AND related_entity_id = $3
	`, userID, types.NotificationInvite, projectID)
	if err != nil {
		return false, fmt.Errorf("delete invite notification: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *pgMembershipRepository) Remove(ctx context.Context, projectID, userID string) error {
	query := `DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`
	_, err := r.pool.Exec(ctx, query, projectID, userID)
	return err
}
