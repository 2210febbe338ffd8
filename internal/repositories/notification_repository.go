package repositories

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"spa_backend/internal/models"
)

// NotificationRepository is the notification outbox.
type NotificationRepository interface {
	Enqueue(ctx context.Context, executor SQLExecutor, e *models.OutboxEvent) error
	ListDue(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, lastError string) (int, error)
	MarkDead(ctx context.Context, id, reason string) error
}

type notificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Enqueue(ctx context.Context, executor SQLExecutor, e *models.OutboxEvent) error {
	if executor == nil {
		executor = r.db
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if len(e.Payload) == 0 {
		e.Payload = []byte("{}")
	}
	e.Status = models.OutboxPending
	err := executor.QueryRowContext(ctx, `INSERT INTO notification_outbox (id, kind, channel, recipient, subject, payload, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		e.ID, e.Kind, e.Channel, e.Recipient, e.Subject, []byte(e.Payload), e.Status).Scan(&e.CreatedAt)
	if err != nil {
		return dbError(err, "enqueueing notification")
	}
	return nil
}

// ListDue returns pending and previously failed events that still have attempts left, oldest first.
func (r *notificationRepository) ListDue(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, kind, channel, recipient, COALESCE(subject, ''), payload, status, attempts, last_error, created_at, sent_at
		FROM notification_outbox
		WHERE status IN ('pending', 'failed') AND attempts < $1
		ORDER BY created_at ASC
		LIMIT $2`, maxAttempts, limit)
	if err != nil {
		return nil, dbError(err, "listing due notifications")
	}
	defer rows.Close()

	var events []models.OutboxEvent
	for rows.Next() {
		var e models.OutboxEvent
		var payload []byte
		if err := rows.Scan(&e.ID, &e.Kind, &e.Channel, &e.Recipient, &e.Subject, &payload, &e.Status, &e.Attempts, &e.LastError, &e.CreatedAt, &e.SentAt); err != nil {
			return nil, dbError(err, "scanning notification")
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err, "iterating notifications")
	}
	return events, nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notification_outbox
		SET status = 'sent', sent_at = now(), last_error = NULL, attempts = attempts + 1
		WHERE id = $1`, id)
	return expectAffected(res, err, "marking notification sent")
}

// MarkFailed records a failed attempt and returns the new attempt count.
func (r *notificationRepository) MarkFailed(ctx context.Context, id, lastError string) (int, error) {
	var attempts int
	err := r.db.QueryRowContext(ctx, `UPDATE notification_outbox
		SET status = 'failed', last_error = $2, attempts = attempts + 1
		WHERE id = $1 RETURNING attempts`, id, lastError).Scan(&attempts)
	if err != nil {
		return 0, dbError(err, "marking notification failed")
	}
	return attempts, nil
}

func (r *notificationRepository) MarkDead(ctx context.Context, id, reason string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notification_outbox SET status = 'dead', last_error = $2 WHERE id = $1`, id, reason)
	return expectAffected(res, err, "marking notification dead")
}
