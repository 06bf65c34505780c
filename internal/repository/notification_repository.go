package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Notification struct {
	ID              string
	UserID          string
	SenderID        *string
	Type            string
	Text            string
	Link            *string
	RelatedEntityID *string
	IsRead          bool
	CreatedAt       time.Time

	Sender *User
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	FindByID(ctx context.Context, id string) (*Notification, error)
	FindByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error)
	CountByUserID(ctx context.Context, userID string) (total int, unread int, err error)
	// MarkAsRead only touches the row when it belongs to userID.
	MarkAsRead(ctx context.Context, id, userID string) (bool, error)
	MarkAllAsRead(ctx context.Context, userID string) error
	DeleteReadOlderThan(ctx context.Context, notificationType string, before time.Time) (int, error)
}

type pgNotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &pgNotificationRepository{pool: pool}
}

// queryRower is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func insertNotification(ctx context.Context, q queryRower, n *Notification) error {
	query := `
		INSERT INTO notifications (user_id, sender_id, type, text, link, related_entity_id, is_read)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	return q.QueryRow(ctx, query,
		n.UserID, n.SenderID, n.Type, n.Text, n.Link, n.RelatedEntityID, n.IsRead,
	).Scan(&n.ID, &n.CreatedAt)
}

func (r *pgNotificationRepository) Create(ctx context.Context, notification *Notification) error {
	return insertNotification(ctx, r.pool, notification)
}

const notificationColumns = `n.id, n.user_id, n.sender_id, n.type, n.text, n.link, n.related_entity_id, n.is_read, n.created_at,
	s.id, s.email, s.first_name, s.last_name`

func scanNotification(row pgx.Row) (*Notification, error) {
	n := &Notification{}
	var senderID, senderEmail, senderFirst, senderLast *string
	err := row.Scan(
		&n.ID, &n.UserID, &n.SenderID, &n.Type, &n.Text, &n.Link, &n.RelatedEntityID, &n.IsRead, &n.CreatedAt,
		&senderID, &senderEmail, &senderFirst, &senderLast,
	)
	if err != nil {
		return nil, err
	}
	if senderID != nil {
		n.Sender = &User{ID: *senderID}
		if senderEmail != nil {
			n.Sender.Email = *senderEmail
		}
		if senderFirst != nil {
			n.Sender.FirstName = *senderFirst
		}
		if senderLast != nil {
			n.Sender.LastName = *senderLast
		}
	}
	return n, nil
}

func (r *pgNotificationRepository) FindByID(ctx context.Context, id string) (*Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications n
		LEFT JOIN users s ON s.id = n.sender_id
		WHERE n.id = $1
	`
	n, err := scanNotification(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return n, err
}

func (r *pgNotificationRepository) FindByUserID(ctx context.Context, userID string, unreadOnly bool) ([]*Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications n
		LEFT JOIN users s ON s.id = n.sender_id
		WHERE n.user_id = $1
	`
	if unreadOnly {
		query += " AND NOT n.is_read"
	}
	query += " ORDER BY n.created_at DESC LIMIT 100"

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *pgNotificationRepository) CountByUserID(ctx context.Context, userID string) (int, int, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE NOT is_read)
		FROM notifications WHERE user_id = $1
	`
	var total, unread int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&total, &unread)
	return total, unread, err
}

func (r *pgNotificationRepository) MarkAsRead(ctx context.Context, id, userID string) (bool, error) {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *pgNotificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *pgNotificationRepository) DeleteReadOlderThan(ctx context.Context, notificationType string, before time.Time) (int, error) {
	query := `DELETE FROM notifications WHERE type = $1 AND is_read AND created_at < $2`
	tag, err := r.pool.Exec(ctx, query, notificationType, before)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
