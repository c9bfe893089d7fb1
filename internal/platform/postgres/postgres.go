// Package postgres owns the database handle, schema bootstrap, and the
// transaction runner every multi-row lifecycle transition goes through.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	txcontext "hopecycle/pkg/platform/tx"
)

// DB wraps *sql.DB with the transaction helper stores rely on.
type DB struct {
	*sql.DB
}

// Open connects and verifies the database is reachable.
func Open(ctx context.Context, url string) (*DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &DB{DB: db}, nil
}

// InTx runs fn inside a transaction. The transaction rides the context, so any
// store method called within fn joins it automatically.
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(txcontext.With(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Migrate applies the bootstrap DDL. Idempotent; real migration tooling is out
// of scope for this service.
func (d *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		role TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		organization_name TEXT NOT NULL DEFAULT '',
		representative_name TEXT NOT NULL DEFAULT '',
		phone_number TEXT NOT NULL DEFAULT '',
		certificate_number TEXT NOT NULL DEFAULT '',
		certificate_url TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		verification_status TEXT NOT NULL DEFAULT 'UNVERIFIED',
		payment_status TEXT NOT NULL DEFAULT 'UNPAID',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS donations (
		id UUID PRIMARY KEY,
		donor_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		ngo_id UUID REFERENCES profiles(id) ON DELETE SET NULL,
		broadcast_id UUID,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		condition TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		location TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		image_urls TEXT[] NOT NULL DEFAULT '{}',
		pickup_time TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS donation_interests (
		id UUID PRIMARY KEY,
		donation_id UUID NOT NULL REFERENCES donations(id) ON DELETE CASCADE,
		ngo_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		status TEXT NOT NULL DEFAULT 'PENDING',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// One live interest per (donation, NGO); a rejected interest does not
	// block re-expressing after a reopen.
	`CREATE UNIQUE INDEX IF NOT EXISTS donation_interests_live_uniq
		ON donation_interests (donation_id, ngo_id)
		WHERE status <> 'REJECTED'`,
	`CREATE TABLE IF NOT EXISTS ngo_requests (
		id UUID PRIMARY KEY,
		ngo_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT 'Low',
		status TEXT NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY,
		sender_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		receiver_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id UUID PRIMARY KEY,
		user_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		link TEXT NOT NULL DEFAULT '',
		is_read BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS notification_outbox (
		id UUID PRIMARY KEY,
		notification_id UUID NOT NULL,
		user_id UUID NOT NULL,
		payload JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		dispatched_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS notification_outbox_pending_idx
		ON notification_outbox (created_at)
		WHERE dispatched_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS donations_status_idx ON donations (status, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS donations_donor_idx ON donations (donor_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS donation_interests_donation_idx ON donation_interests (donation_id)`,
	`CREATE INDEX IF NOT EXISTS donation_interests_ngo_idx ON donation_interests (ngo_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS messages_pair_idx ON messages (sender_id, receiver_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at DESC)`,
}
