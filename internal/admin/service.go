package admin

import (
	"context"
	"errors"

	"hopecycle/internal/donation"
	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"
	"hopecycle/pkg/platform/sentinel"
)

// TxRunner provides the transactional boundary for NGO removal.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service owns the admin console: the verification queue, platform stats,
// and the revenue summary. Approve/reject delegate to the profile service so
// the notification side effects live in one place.
type Service struct {
	profiles           profile.Store
	profileService     *profile.Service
	donations          donation.Store
	tx                 TxRunner
	activationFeeCents int64
}

func NewService(profiles profile.Store, profileService *profile.Service, donations donation.Store, tx TxRunner, activationFeeCents int64) *Service {
	return &Service{
		profiles:           profiles,
		profileService:     profileService,
		donations:          donations,
		tx:                 tx,
		activationFeeCents: activationFeeCents,
	}
}

// PendingVerifications lists NGOs awaiting review, oldest submission first.
func (s *Service) PendingVerifications(ctx context.Context) ([]*profile.Profile, error) {
	out, err := s.profiles.ListByVerificationStatus(ctx, profile.VerificationPending)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending verifications")
	}
	return out, nil
}

func (s *Service) ApproveVerification(ctx context.Context, ngoID id.UserID) error {
	return s.profileService.ApproveVerification(ctx, ngoID)
}

func (s *Service) RejectVerification(ctx context.Context, ngoID id.UserID) error {
	return s.profileService.RejectVerification(ctx, ngoID)
}

// Stats is the admin dashboard snapshot.
type Stats struct {
	DonationsByStatus map[donation.Status]int
	DonorCount        int
	NGOCount          int
	VerifiedNGOCount  int
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	byStatus, err := s.donations.CountByStatus(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count donations")
	}
	donors, err := s.profiles.ListByRole(ctx, profile.RoleDonor)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count donors")
	}
	ngos, err := s.profiles.ListByRole(ctx, profile.RoleNGO)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count NGOs")
	}
	verified := 0
	for _, ngo := range ngos {
		if ngo.VerificationStatus == profile.VerificationVerified {
			verified++
		}
	}
	return &Stats{
		DonationsByStatus: byStatus,
		DonorCount:        len(donors),
		NGOCount:          len(ngos),
		VerifiedNGOCount:  verified,
	}, nil
}

// Revenue summarizes activation-fee income: every PAID NGO paid the flat fee
// once.
type Revenue struct {
	PaidNGOCount       int
	ActivationFeeCents int64
	TotalCents         int64
}

func (s *Service) Revenue(ctx context.Context) (*Revenue, error) {
	paid, err := s.profiles.CountByRoleAndPayment(ctx, profile.RoleNGO, profile.PaymentPaid)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count paid NGOs")
	}
	return &Revenue{
		PaidNGOCount:       paid,
		ActivationFeeCents: s.activationFeeCents,
		TotalCents:         int64(paid) * s.activationFeeCents,
	}, nil
}

// RemoveNGO deletes an NGO account. One transaction first releases the NGO's
// donation footprint (its PENDING donations return to the marketplace, its
// live interests become REJECTED) and then drops the profile, so removal
// never strands a donation mid-pickup with no assignee.
func (s *Service) RemoveNGO(ctx context.Context, ngoID id.UserID) error {
	p, err := s.profiles.FindByID(ctx, ngoID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "ngo profile not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	if p.Role != profile.RoleNGO {
		return dErrors.New(dErrors.CodeBadRequest, "account is not an NGO")
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.donations.ReleaseByNGO(ctx, ngoID); err != nil {
			return err
		}
		return s.profiles.Delete(ctx, ngoID)
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove NGO")
	}
	return nil
}
