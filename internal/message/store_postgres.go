package message

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "hopecycle/pkg/domain"
	txcontext "hopecycle/pkg/platform/tx"
)

// PostgresStore persists messages in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, m *Message) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, receiver_id, content, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(m.ID), uuid.UUID(m.SenderID), uuid.UUID(m.ReceiverID),
		m.Content, m.IsRead, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListConversation(ctx context.Context, a, b id.UserID) ([]*Message, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, content, is_read, created_at
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2)
		   OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at
	`, uuid.UUID(a), uuid.UUID(b))
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var m Message
		var mid, senderID, receiverID uuid.UUID
		if err := rows.Scan(&mid, &senderID, &receiverID, &m.Content, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ID = id.MessageID(mid)
		m.SenderID = id.UserID(senderID)
		m.ReceiverID = id.UserID(receiverID)
		out = append(out, &m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRead(ctx context.Context, receiverID id.UserID, ids []id.MessageID) error {
	if len(ids) == 0 {
		return nil
	}
	raw := make([]uuid.UUID, len(ids))
	for i, mid := range ids {
		raw[i] = uuid.UUID(mid)
	}
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		UPDATE messages SET is_read = true
		WHERE receiver_id = $1 AND id = ANY($2)
	`, uuid.UUID(receiverID), pq.Array(raw))
	if err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPartners(ctx context.Context, userID id.UserID) ([]*Partner, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT DISTINCT ON (partner_id)
			partner_id, content, created_at,
			(SELECT count(*) FROM messages u
			 WHERE u.receiver_id = $1 AND u.sender_id = partner_id AND NOT u.is_read) AS unread
		FROM (
			SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS partner_id,
			       content, created_at
			FROM messages
			WHERE sender_id = $1 OR receiver_id = $1
		) conv
		ORDER BY partner_id, created_at DESC
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	defer rows.Close()

	var out []*Partner
	for rows.Next() {
		var p Partner
		var partnerID uuid.UUID
		if err := rows.Scan(&partnerID, &p.LastMessage, &p.LastAt, &p.UnreadCount); err != nil {
			return nil, fmt.Errorf("scan partner: %w", err)
		}
		p.UserID = id.UserID(partnerID)
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// DISTINCT ON orders by partner; re-sort by recency for the inbox view.
	sort.Slice(out, func(i, j int) bool { return out[i].LastAt.After(out[j].LastAt) })
	return out, nil
}
