package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "hopecycle/pkg/domain"
	txcontext "hopecycle/pkg/platform/tx"
)

// PostgresStore implements Store using the transactional outbox pattern.
// The notification row and its outbox entry are inserted through the same
// executor, so a caller running inside a transaction commits both or neither.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// wirePayload is the JSON structure published to Kafka and Redis.
type wireNotification struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Link      string `json:"link"`
	CreatedAt string `json:"created_at"`
}

func wirePayload(n *Notification) wireNotification {
	return wireNotification{
		ID:        n.ID.String(),
		UserID:    n.UserID.String(),
		Type:      string(n.Type),
		Title:     n.Title,
		Body:      n.Body,
		Link:      n.Link,
		CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (s *PostgresStore) Append(ctx context.Context, n *Notification) error {
	exec := txcontext.ExecutorFor(ctx, s.db)

	_, err := exec.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, link, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, false, $7)
	`, uuid.UUID(n.ID), uuid.UUID(n.UserID), string(n.Type), n.Title, n.Body, n.Link, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	payload, err := json.Marshal(wirePayload(n))
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	_, err = exec.ExecContext(ctx, `
		INSERT INTO notification_outbox (id, notification_id, user_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), uuid.UUID(n.ID), uuid.UUID(n.UserID), payload, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, limit int) ([]*Notification, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, user_id, type, title, body, link, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, uuid.UUID(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		var nid, uid uuid.UUID
		var typ string
		if err := rows.Scan(&nid, &uid, &typ, &n.Title, &n.Body, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.ID = id.NotificationID(nid)
		n.UserID = id.UserID(uid)
		n.Type = Type(typ)
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UnreadCount(ctx context.Context, userID id.UserID) (int, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	var count int
	err := exec.QueryRowContext(ctx, `
		SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT is_read
	`, uuid.UUID(userID)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, userID id.UserID, ids []id.NotificationID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]uuid.UUID, len(ids))
	for i, nid := range ids {
		raw[i] = uuid.UUID(nid)
	}
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		UPDATE notifications SET is_read = true
		WHERE user_id = $1 AND id = ANY($2)
	`, uuid.UUID(userID), pq.Array(raw))
	if err != nil {
		return fmt.Errorf("mark notifications read: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, userID id.UserID) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		UPDATE notifications SET is_read = true WHERE user_id = $1 AND NOT is_read
	`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (s *PostgresStore) NextOutbox(ctx context.Context, limit int) ([]*OutboxEntry, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, notification_id, user_id, payload, created_at
		FROM notification_outbox
		WHERE dispatched_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch outbox: %w", err)
	}
	defer rows.Close()

	var out []*OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		var nid, uid uuid.UUID
		if err := rows.Scan(&e.ID, &nid, &uid, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		e.NotificationID = id.NotificationID(nid)
		e.UserID = id.UserID(uid)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkDispatched(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		UPDATE notification_outbox SET dispatched_at = now() WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark outbox dispatched: %w", err)
	}
	return nil
}
