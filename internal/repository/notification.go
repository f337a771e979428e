package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohamed-Salmony/NileStore-sub000/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int, error)
	// MarkRead is idempotent and owner-scoped; marking an already-read or
	// foreign notification is a no-op.
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type pgNotificationRepo struct{ pool *pgxpool.Pool }

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &pgNotificationRepo{pool: pool}
}

func (r *pgNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("marshal notification data: %w", err)
	}
	err = r.pool.QueryRow(ctx,
		`INSERT INTO notifications (id, user_id, type, title_ar, title_en, message_ar, message_en, is_read, data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, NOW()) RETURNING created_at`,
		n.ID, n.UserID, n.Type, n.Title.Ar, n.Title.En, n.Message.Ar, n.Message.En, data,
	).Scan(&n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *pgNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, type, title_ar, title_en, message_ar, message_en, is_read, read_at, data, created_at
		 FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		var data []byte
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title.Ar, &n.Title.En,
			&n.Message.Ar, &n.Message.En, &n.IsRead, &n.ReadAt, &data, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &n.Data)
		}
		notifications = append(notifications, n)
	}
	return notifications, total, nil
}

func (r *pgNotificationRepo) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND NOT is_read`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (r *pgNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, read_at = NOW() WHERE user_id = $1 AND NOT is_read`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (r *pgNotificationRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}

func (r *pgNotificationRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	ct, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
