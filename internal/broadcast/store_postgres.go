package broadcast

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/sentinel"
	txcontext "hopecycle/pkg/platform/tx"
)

// PostgresStore persists broadcasts in the ngo_requests table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const broadcastColumns = `id, ngo_id, title, description, category, priority, status,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, b *Broadcast) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO ngo_requests (`+broadcastColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		uuid.UUID(b.ID), uuid.UUID(b.NGOID), b.Title, b.Description,
		b.Category, string(b.Priority), string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert broadcast: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, broadcastID id.BroadcastID) (*Broadcast, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	row := exec.QueryRowContext(ctx,
		`SELECT `+broadcastColumns+` FROM ngo_requests WHERE id = $1`, uuid.UUID(broadcastID))
	b, err := scanBroadcast(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return b, err
}

func (s *PostgresStore) Update(ctx context.Context, b *Broadcast) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE ngo_requests SET
			title = $2, description = $3, category = $4, priority = $5,
			status = $6, updated_at = now()
		WHERE id = $1
	`,
		uuid.UUID(b.ID), b.Title, b.Description, b.Category,
		string(b.Priority), string(b.Status),
	)
	if err != nil {
		return fmt.Errorf("update broadcast: %w", err)
	}
	return requireOneRow(res, sentinel.ErrNotFound)
}

func (s *PostgresStore) Delete(ctx context.Context, broadcastID id.BroadcastID) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`DELETE FROM ngo_requests WHERE id = $1`, uuid.UUID(broadcastID))
	if err != nil {
		return fmt.Errorf("delete broadcast: %w", err)
	}
	return requireOneRow(res, sentinel.ErrNotFound)
}

func (s *PostgresStore) ListByNGO(ctx context.Context, ngoID id.UserID) ([]*Broadcast, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+broadcastColumns+` FROM ngo_requests
		WHERE ngo_id = $1 ORDER BY created_at DESC
	`, uuid.UUID(ngoID))
	if err != nil {
		return nil, fmt.Errorf("list broadcasts by ngo: %w", err)
	}
	return collectBroadcasts(rows)
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*Broadcast, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+broadcastColumns+` FROM ngo_requests
		WHERE status = 'ACTIVE' ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active broadcasts: %w", err)
	}
	return collectBroadcasts(rows)
}

func scanBroadcast(scan func(...interface{}) error) (*Broadcast, error) {
	var b Broadcast
	var bid, ngoID uuid.UUID
	var priority, status string
	err := scan(&bid, &ngoID, &b.Title, &b.Description, &b.Category,
		&priority, &status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.ID = id.BroadcastID(bid)
	b.NGOID = id.UserID(ngoID)
	b.Priority = Priority(priority)
	b.Status = Status(status)
	return &b, nil
}

func collectBroadcasts(rows *sql.Rows) ([]*Broadcast, error) {
	defer rows.Close()
	var out []*Broadcast
	for rows.Next() {
		b, err := scanBroadcast(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan broadcast: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func requireOneRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}
