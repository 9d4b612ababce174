package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/superALLEY/EduConnect-sub001/internal/model"
)

// NotificationRepository persists the notification sink rows the
// front-end polls.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create appends one notification.
func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, recipient_id, message, type, related_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		n.ID,
		n.RecipientID,
		n.Message,
		n.Type,
		n.RelatedID,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListForRecipient returns the recipient's notifications, newest first.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, recipient_id, message, type, related_id, is_read, created_at
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		n := &model.Notification{}
		err := rows.Scan(&n.ID, &n.RecipientID, &n.Message, &n.Type, &n.RelatedID, &n.IsRead, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return notifications, nil
}

// CountUnread returns the recipient's unread notification count.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = false`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAllRead flags every unread notification of the recipient as read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = true WHERE recipient_id = $1 AND is_read = false`,
		recipientID,
	)
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}
