package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrRestricted is returned when a delete is blocked by a RESTRICT foreign key.
var ErrRestricted = errors.New("row is still referenced")

const pgForeignKeyViolation = "23503"

type Repositories struct {
	// pgxpool repos
	UserRepo         UserRepository
	ProjectRepo      ProjectRepository
	MembershipRepo   MembershipRepository
	CommentRepo      CommentRepository
	NotificationRepo NotificationRepository
	SummaryRepo      SummaryRepository

	// sql.DB repos
	TaskRepo TaskRepository
}

func NewRepositories(pool *pgxpool.Pool, db *sql.DB) *Repositories {
	return &Repositories{
		UserRepo:         NewUserRepository(pool),
		ProjectRepo:      NewProjectRepository(pool),
		MembershipRepo:   NewMembershipRepository(pool),
		CommentRepo:      NewCommentRepository(pool),
		NotificationRepo: NewNotificationRepository(pool),
		SummaryRepo:      NewSummaryRepository(pool),

		TaskRepo: NewTaskRepository(db),
	}
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
