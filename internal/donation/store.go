package donation

import (
	"context"

	id "hopecycle/pkg/domain"
)

// Store persists donations and interests. The conditional transition methods
// (ClaimIf, CompleteIf, ReopenIf, AcceptInterestIf) are guarded updates: they
// return sentinel.ErrConflict when the row is not in the expected state, which
// is what keeps arbitration correct under concurrent donors and NGOs.
type Store interface {
	Create(ctx context.Context, d *Donation) error
	FindByID(ctx context.Context, donationID id.DonationID) (*Donation, error)
	Update(ctx context.Context, d *Donation) error
	Delete(ctx context.Context, donationID id.DonationID) error
	ListByDonor(ctx context.Context, donorID id.UserID) ([]*Donation, error)
	// ListMarketplace returns ACTIVE, unassigned donations, newest first.
	ListMarketplace(ctx context.Context) ([]*Donation, error)
	// CountByStatus tallies donations per lifecycle state.
	CountByStatus(ctx context.Context) (map[Status]int, error)

	// ClaimIf assigns the NGO and moves ACTIVE -> PENDING.
	ClaimIf(ctx context.Context, donationID id.DonationID, ngoID id.UserID) error
	// CompleteIf moves PENDING -> COMPLETED for the assigned NGO only.
	CompleteIf(ctx context.Context, donationID id.DonationID, ngoID id.UserID) error
	// ReopenIf moves PENDING -> ACTIVE and clears the NGO assignment.
	ReopenIf(ctx context.Context, donationID id.DonationID) error
	// ReleaseByNGO rejects the NGO's live interests and returns its PENDING
	// donations to the marketplace. Runs when the NGO account is removed, so
	// no donation is left PENDING without an assignee.
	ReleaseByNGO(ctx context.Context, ngoID id.UserID) error

	// CreateInterest returns sentinel.ErrConflict when the NGO already has a
	// live (non-rejected) interest in the donation, or when the donation is
	// no longer ACTIVE and unassigned. The second guard runs inside the
	// insert so an interest cannot land on a donation claimed concurrently.
	CreateInterest(ctx context.Context, in *Interest) error
	FindInterest(ctx context.Context, interestID id.InterestID) (*Interest, error)
	ListInterestsByDonation(ctx context.Context, donationID id.DonationID) ([]*Interest, error)
	ListInterestsByNGO(ctx context.Context, ngoID id.UserID) ([]*Interest, error)
	// AcceptInterestIf moves PENDING -> ACCEPTED.
	AcceptInterestIf(ctx context.Context, interestID id.InterestID) error
	// RejectOpenInterests rejects every PENDING interest on the donation
	// except the given one.
	RejectOpenInterests(ctx context.Context, donationID id.DonationID, except id.InterestID) error
	// SetAcceptedInterest moves the donation's ACCEPTED interest to next.
	SetAcceptedInterest(ctx context.Context, donationID id.DonationID, next InterestStatus) error
}
