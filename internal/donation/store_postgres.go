package donation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/sentinel"
	txcontext "hopecycle/pkg/platform/tx"
)

// PostgresStore persists donations and interests in PostgreSQL. All methods
// join an ambient transaction when the context carries one, so the service's
// multi-row transitions commit atomically.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const donationColumns = `id, donor_id, ngo_id, broadcast_id, title, description, category,
	condition, status, location, latitude, longitude, image_urls, pickup_time,
	created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, d *Donation) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	var ngoID, broadcastID interface{}
	if d.NGOID != nil {
		ngoID = uuid.UUID(*d.NGOID)
	}
	if d.BroadcastID != nil {
		broadcastID = uuid.UUID(*d.BroadcastID)
	}
	_, err := exec.ExecContext(ctx, `
		INSERT INTO donations (`+donationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`,
		uuid.UUID(d.ID), uuid.UUID(d.DonorID), ngoID, broadcastID,
		d.Title, d.Description, d.Category, d.Condition, string(d.Status),
		d.Location, d.Latitude, d.Longitude, pq.Array(d.ImageURLs),
		d.PickupTime, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, donationID id.DonationID) (*Donation, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	row := exec.QueryRowContext(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE id = $1`, uuid.UUID(donationID))
	d, err := scanDonation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return d, err
}

func (s *PostgresStore) Update(ctx context.Context, d *Donation) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE donations SET
			title = $2, description = $3, category = $4, condition = $5,
			location = $6, latitude = $7, longitude = $8, image_urls = $9,
			pickup_time = $10, updated_at = now()
		WHERE id = $1
	`,
		uuid.UUID(d.ID), d.Title, d.Description, d.Category, d.Condition,
		d.Location, d.Latitude, d.Longitude, pq.Array(d.ImageURLs), d.PickupTime,
	)
	if err != nil {
		return fmt.Errorf("update donation: %w", err)
	}
	return requireOneRow(res, sentinel.ErrNotFound)
}

func (s *PostgresStore) Delete(ctx context.Context, donationID id.DonationID) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx,
		`DELETE FROM donations WHERE id = $1`, uuid.UUID(donationID))
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	return requireOneRow(res, sentinel.ErrNotFound)
}

func (s *PostgresStore) ListByDonor(ctx context.Context, donorID id.UserID) ([]*Donation, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+donationColumns+` FROM donations
		WHERE donor_id = $1 ORDER BY created_at DESC
	`, uuid.UUID(donorID))
	if err != nil {
		return nil, fmt.Errorf("list donations by donor: %w", err)
	}
	return collectDonations(rows)
}

func (s *PostgresStore) ListMarketplace(ctx context.Context) ([]*Donation, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT `+donationColumns+` FROM donations
		WHERE status = 'ACTIVE' AND ngo_id IS NULL ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list marketplace: %w", err)
	}
	return collectDonations(rows)
}

func (s *PostgresStore) CountByStatus(ctx context.Context) (map[Status]int, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx,
		`SELECT status, count(*) FROM donations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count donations: %w", err)
	}
	defer rows.Close()

	out := make(map[Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan donation count: %w", err)
		}
		out[Status(status)] = count
	}
	return out, rows.Err()
}

func (s *PostgresStore) ClaimIf(ctx context.Context, donationID id.DonationID, ngoID id.UserID) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE donations SET status = 'PENDING', ngo_id = $2, updated_at = now()
		WHERE id = $1 AND status = 'ACTIVE' AND ngo_id IS NULL
	`, uuid.UUID(donationID), uuid.UUID(ngoID))
	if err != nil {
		return fmt.Errorf("claim donation: %w", err)
	}
	return s.transitionResult(ctx, res, donationID)
}

func (s *PostgresStore) CompleteIf(ctx context.Context, donationID id.DonationID, ngoID id.UserID) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE donations SET status = 'COMPLETED', updated_at = now()
		WHERE id = $1 AND status = 'PENDING' AND ngo_id = $2
	`, uuid.UUID(donationID), uuid.UUID(ngoID))
	if err != nil {
		return fmt.Errorf("complete donation: %w", err)
	}
	return s.transitionResult(ctx, res, donationID)
}

func (s *PostgresStore) ReopenIf(ctx context.Context, donationID id.DonationID) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE donations SET status = 'ACTIVE', ngo_id = NULL, updated_at = now()
		WHERE id = $1 AND status = 'PENDING'
	`, uuid.UUID(donationID))
	if err != nil {
		return fmt.Errorf("reopen donation: %w", err)
	}
	return s.transitionResult(ctx, res, donationID)
}

func (s *PostgresStore) ReleaseByNGO(ctx context.Context, ngoID id.UserID) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		UPDATE donation_interests SET status = 'REJECTED'
		WHERE ngo_id = $1 AND status IN ('PENDING', 'ACCEPTED')
	`, uuid.UUID(ngoID))
	if err != nil {
		return fmt.Errorf("reject interests by ngo: %w", err)
	}
	_, err = exec.ExecContext(ctx, `
		UPDATE donations SET status = 'ACTIVE', ngo_id = NULL, updated_at = now()
		WHERE ngo_id = $1 AND status = 'PENDING'
	`, uuid.UUID(ngoID))
	if err != nil {
		return fmt.Errorf("release donations by ngo: %w", err)
	}
	return nil
}

// transitionResult maps a zero-row guarded update to ErrNotFound when the
// donation is missing and ErrConflict when it exists in another state.
func (s *PostgresStore) transitionResult(ctx context.Context, res sql.Result, donationID id.DonationID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}
	if _, findErr := s.FindByID(ctx, donationID); errors.Is(findErr, sentinel.ErrNotFound) {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func (s *PostgresStore) CreateInterest(ctx context.Context, in *Interest) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		INSERT INTO donation_interests (id, donation_id, ngo_id, status, created_at)
		SELECT $1, $2, $3, $4, $5
		WHERE EXISTS (
			SELECT 1 FROM donations
			WHERE id = $2 AND status = 'ACTIVE' AND ngo_id IS NULL
		)
	`, uuid.UUID(in.ID), uuid.UUID(in.DonationID), uuid.UUID(in.NGOID),
		string(in.Status), in.CreatedAt)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert interest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert interest: %w", err)
	}
	if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) FindInterest(ctx context.Context, interestID id.InterestID) (*Interest, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		SELECT id, donation_id, ngo_id, status, created_at
		FROM donation_interests WHERE id = $1
	`, uuid.UUID(interestID))
	in, err := scanInterest(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return in, err
}

func (s *PostgresStore) ListInterestsByDonation(ctx context.Context, donationID id.DonationID) ([]*Interest, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, donation_id, ngo_id, status, created_at
		FROM donation_interests WHERE donation_id = $1 ORDER BY created_at
	`, uuid.UUID(donationID))
	if err != nil {
		return nil, fmt.Errorf("list interests by donation: %w", err)
	}
	return collectInterests(rows)
}

func (s *PostgresStore) ListInterestsByNGO(ctx context.Context, ngoID id.UserID) ([]*Interest, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, donation_id, ngo_id, status, created_at
		FROM donation_interests WHERE ngo_id = $1 ORDER BY created_at DESC
	`, uuid.UUID(ngoID))
	if err != nil {
		return nil, fmt.Errorf("list interests by ngo: %w", err)
	}
	return collectInterests(rows)
}

func (s *PostgresStore) AcceptInterestIf(ctx context.Context, interestID id.InterestID) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE donation_interests SET status = 'ACCEPTED'
		WHERE id = $1 AND status = 'PENDING'
	`, uuid.UUID(interestID))
	if err != nil {
		return fmt.Errorf("accept interest: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		if _, findErr := s.FindInterest(ctx, interestID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) RejectOpenInterests(ctx context.Context, donationID id.DonationID, except id.InterestID) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		UPDATE donation_interests SET status = 'REJECTED'
		WHERE donation_id = $1 AND id <> $2 AND status = 'PENDING'
	`, uuid.UUID(donationID), uuid.UUID(except))
	if err != nil {
		return fmt.Errorf("reject open interests: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetAcceptedInterest(ctx context.Context, donationID id.DonationID, next InterestStatus) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE donation_interests SET status = $2
		WHERE donation_id = $1 AND status = 'ACCEPTED'
	`, uuid.UUID(donationID), string(next))
	if err != nil {
		return fmt.Errorf("update accepted interest: %w", err)
	}
	return requireOneRow(res, sentinel.ErrNotFound)
}

func scanDonation(scan func(...interface{}) error) (*Donation, error) {
	var d Donation
	var did, donorID uuid.UUID
	var ngoID, broadcastID uuid.NullUUID
	var status string
	var images pq.StringArray
	err := scan(&did, &donorID, &ngoID, &broadcastID, &d.Title, &d.Description,
		&d.Category, &d.Condition, &status, &d.Location, &d.Latitude,
		&d.Longitude, &images, &d.PickupTime, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.ID = id.DonationID(did)
	d.DonorID = id.UserID(donorID)
	if ngoID.Valid {
		ngo := id.UserID(ngoID.UUID)
		d.NGOID = &ngo
	}
	if broadcastID.Valid {
		b := id.BroadcastID(broadcastID.UUID)
		d.BroadcastID = &b
	}
	d.Status = Status(status)
	d.ImageURLs = images
	return &d, nil
}

func collectDonations(rows *sql.Rows) ([]*Donation, error) {
	defer rows.Close()
	var out []*Donation
	for rows.Next() {
		d, err := scanDonation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func scanInterest(scan func(...interface{}) error) (*Interest, error) {
	var in Interest
	var iid, did, nid uuid.UUID
	var status string
	if err := scan(&iid, &did, &nid, &status, &in.CreatedAt); err != nil {
		return nil, err
	}
	in.ID = id.InterestID(iid)
	in.DonationID = id.DonationID(did)
	in.NGOID = id.UserID(nid)
	in.Status = InterestStatus(status)
	return &in, nil
}

func collectInterests(rows *sql.Rows) ([]*Interest, error) {
	defer rows.Close()
	var out []*Interest
	for rows.Next() {
		in, err := scanInterest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan interest: %w", err)
		}
		out = append(out, in)
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
