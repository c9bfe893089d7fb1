package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/sentinel"
	txcontext "hopecycle/pkg/platform/tx"
)

// PostgresStore persists profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `id, role, email, password_hash, full_name, organization_name,
	representative_name, phone_number, certificate_number, certificate_url,
	avatar_url, location, latitude, longitude, verification_status,
	payment_status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *Profile) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		uuid.UUID(p.ID), string(p.Role), strings.ToLower(p.Email), p.PasswordHash,
		p.FullName, p.OrganizationName, p.RepresentativeName, p.PhoneNumber,
		p.CertificateNumber, p.CertificateURL, p.AvatarURL, p.Location,
		p.Latitude, p.Longitude, string(p.VerificationStatus),
		string(p.PaymentStatus), p.CreatedAt, p.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*Profile, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	row := exec.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, uuid.UUID(userID))
	return scanProfile(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	row := exec.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE email = $1`, strings.ToLower(email))
	return scanProfile(row)
}

func (s *PostgresStore) Update(ctx context.Context, p *Profile) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE profiles SET
			email = $2, full_name = $3, organization_name = $4,
			representative_name = $5, phone_number = $6, certificate_number = $7,
			certificate_url = $8, avatar_url = $9, location = $10,
			latitude = $11, longitude = $12, verification_status = $13,
			payment_status = $14, updated_at = now()
		WHERE id = $1
	`,
		uuid.UUID(p.ID), strings.ToLower(p.Email), p.FullName, p.OrganizationName,
		p.RepresentativeName, p.PhoneNumber, p.CertificateNumber, p.CertificateURL,
		p.AvatarURL, p.Location, p.Latitude, p.Longitude,
		string(p.VerificationStatus), string(p.PaymentStatus),
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireOneRow(res, sentinel.ErrNotFound)
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `DELETE FROM profiles WHERE id = $1`, uuid.UUID(userID))
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return requireOneRow(res, sentinel.ErrNotFound)
}

func (s *PostgresStore) ListByRole(ctx context.Context, role Role) ([]*Profile, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE role = $1 ORDER BY created_at DESC`,
		string(role))
	if err != nil {
		return nil, fmt.Errorf("list profiles by role: %w", err)
	}
	return collectProfiles(rows)
}

func (s *PostgresStore) ListByVerificationStatus(ctx context.Context, status VerificationStatus) ([]*Profile, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+profileColumns+` FROM profiles
		WHERE role = $1 AND verification_status = $2
		ORDER BY updated_at
	`, string(RoleNGO), string(status))
	if err != nil {
		return nil, fmt.Errorf("list profiles by verification: %w", err)
	}
	return collectProfiles(rows)
}

func (s *PostgresStore) UpdateVerificationIf(ctx context.Context, userID id.UserID, expect, next VerificationStatus) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE profiles SET verification_status = $3, updated_at = now()
		WHERE id = $1 AND verification_status = $2
	`, uuid.UUID(userID), string(expect), string(next))
	if err != nil {
		return fmt.Errorf("conditional verification update: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Distinguish missing profile from lost race.
		if _, findErr := s.FindByID(ctx, userID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) CountByRoleAndPayment(ctx context.Context, role Role, payment PaymentStatus) (int, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	var count int
	err := exec.QueryRowContext(ctx, `
		SELECT count(*) FROM profiles WHERE role = $1 AND payment_status = $2
	`, string(role), string(payment)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return count, nil
}

func scanProfile(row *sql.Row) (*Profile, error) {
	var p Profile
	var uid uuid.UUID
	var role, verification, payment string
	err := row.Scan(&uid, &role, &p.Email, &p.PasswordHash, &p.FullName,
		&p.OrganizationName, &p.RepresentativeName, &p.PhoneNumber,
		&p.CertificateNumber, &p.CertificateURL, &p.AvatarURL, &p.Location,
		&p.Latitude, &p.Longitude, &verification, &payment,
		&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.ID = id.UserID(uid)
	p.Role = Role(role)
	p.VerificationStatus = VerificationStatus(verification)
	p.PaymentStatus = PaymentStatus(payment)
	return &p, nil
}

func collectProfiles(rows *sql.Rows) ([]*Profile, error) {
	defer rows.Close()
	var out []*Profile
	for rows.Next() {
		var p Profile
		var uid uuid.UUID
		var role, verification, payment string
		err := rows.Scan(&uid, &role, &p.Email, &p.PasswordHash, &p.FullName,
			&p.OrganizationName, &p.RepresentativeName, &p.PhoneNumber,
			&p.CertificateNumber, &p.CertificateURL, &p.AvatarURL, &p.Location,
			&p.Latitude, &p.Longitude, &verification, &payment,
			&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p.ID = id.UserID(uid)
		p.Role = Role(role)
		p.VerificationStatus = VerificationStatus(verification)
		p.PaymentStatus = PaymentStatus(payment)
		out = append(out, &p)
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

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
