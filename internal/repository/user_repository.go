package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID        string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Roles     []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]*User, error)
	FindIDsByRole(ctx context.Context, role string) ([]string, error)
	// FindProjectCandidates lists users with no membership row for the project who are not its organizer.
	FindProjectCandidates(ctx context.Context, projectID string) ([]*User, error)
	Count(ctx context.Context) (int, error)
	// Delete removes the user; returns ErrRestricted while memberships, comments or organized projects exist.
	Delete(ctx context.Context, id string) error
	// PurgeAndDelete removes memberships and authored comments, then the user, in one transaction.
	PurgeAndDelete(ctx context.Context, id string) error

	SaveRefreshToken(ctx context.Context, token *RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

type pgUserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &pgUserRepository{pool: pool}
}

const userColumns = `id, email, password, first_name, last_name, roles, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.Roles, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *pgUserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (email, password, first_name, last_name, roles)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	if user.Roles == nil {
		user.Roles = []string{}
	}
	return r.pool.QueryRow(ctx, query,
		user.Email, user.Password, user.FirstName, user.LastName, user.Roles,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *pgUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *pgUserRepository) FindAll(ctx context.Context) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY last_name, first_name`
	return r.queryUsers(ctx, query)
}

func (r *pgUserRepository) FindProjectCandidates(ctx context.Context, projectID string) ([]*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE NOT EXISTS (
			SELECT 1 FROM project_members pm WHERE pm.project_id = $1 AND pm.user_id = u.id
		)
		AND u.id <> (SELECT organizer_id FROM projects WHERE id = $1)
		ORDER BY u.email
	`
	return r.queryUsers(ctx, query, projectID)
}

func (r *pgUserRepository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]*User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *pgUserRepository) FindIDsByRole(ctx context.Context, role string) ([]string, error) {
	query := `SELECT id FROM users WHERE $1 = ANY(roles)`
	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *pgUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (r *pgUserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return ErrRestricted
	}
	return err
}

func (r *pgUserRepository) PurgeAndDelete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM project_members WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("purge memberships: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("purge comments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		if isForeignKeyViolation(err) {
			return ErrRestricted
		}
		return fmt.Errorf("delete user: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgUserRepository) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query, token.Token, token.UserID, token.ExpiresAt).
		Scan(&token.ID, &token.CreatedAt)
}

func (r *pgUserRepository) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	query := `
		SELECT id, token, user_id, expires_at, created_at
		FROM refresh_tokens WHERE token = $1
	`
	rt := &RefreshToken{}
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *pgUserRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	query := `DELETE FROM refresh_tokens WHERE token = $1`
	_, err := r.pool.Exec(ctx, query, token)
	return err
}
