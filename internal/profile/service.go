package profile

import (
	"context"
	"errors"
	"time"

	"hopecycle/internal/geo"
	"hopecycle/internal/notification"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"
	"hopecycle/pkg/platform/sentinel"
)

// TxRunner provides the transactional boundary for mutations that must land
// together with their notification outbox entries.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service owns profile reads, the NGO verification workflow, and the
// capability gate other modules consult.
type Service struct {
	store    Store
	notifier *notification.Publisher
	tx       TxRunner
}

func NewService(store Store, notifier *notification.Publisher, tx TxRunner) *Service {
	return &Service{store: store, notifier: notifier, tx: tx}
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*Profile, error) {
	p, err := s.store.FindByID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}

// UpdateProfileParams carries the self-service editable fields.
type UpdateProfileParams struct {
	FullName  string
	AvatarURL string
	Location  string
	Latitude  *float64
	Longitude *float64
}

func (s *Service) Update(ctx context.Context, userID id.UserID, params UpdateProfileParams) (*Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.FullName = params.FullName
	p.AvatarURL = params.AvatarURL
	p.Location = params.Location
	p.Latitude = params.Latitude
	p.Longitude = params.Longitude
	if err := s.store.Update(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}
	return p, nil
}

// VerificationDetails is what an NGO submits for admin review.
type VerificationDetails struct {
	OrganizationName   string
	RepresentativeName string
	PhoneNumber        string
	CertificateNumber  string
	CertificateURL     string
	Location           string
}

// SubmitVerification moves an NGO into the admin review queue. Resubmission
// after rejection is allowed; resubmission while PENDING or once VERIFIED is
// not.
func (s *Service) SubmitVerification(ctx context.Context, userID id.UserID, details VerificationDetails) error {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if p.Role != RoleNGO {
		return dErrors.New(dErrors.CodeForbidden, "only NGO accounts can request verification")
	}
	switch p.VerificationStatus {
	case VerificationPending:
		return dErrors.New(dErrors.CodeInvalidState, "verification already under review")
	case VerificationApproved, VerificationVerified:
		return dErrors.New(dErrors.CodeInvalidState, "verification already granted")
	}
	if details.OrganizationName == "" || details.CertificateNumber == "" {
		return dErrors.New(dErrors.CodeBadRequest, "organization name and certificate number are required")
	}

	p.OrganizationName = details.OrganizationName
	p.RepresentativeName = details.RepresentativeName
	p.PhoneNumber = details.PhoneNumber
	p.CertificateNumber = details.CertificateNumber
	p.CertificateURL = details.CertificateURL
	p.Location = details.Location
	p.VerificationStatus = VerificationPending
	if err := s.store.Update(ctx, p); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to submit verification")
	}
	return nil
}

// ApproveVerification is an admin action: PENDING -> APPROVED. The NGO is
// then prompted for the activation payment. The notification commits with the
// status change.
func (s *Service) ApproveVerification(ctx context.Context, ngoID id.UserID) error {
	return s.reviewVerification(ctx, ngoID, VerificationApproved, notification.VerificationApproved(ngoID))
}

// RejectVerification is an admin action: PENDING -> REJECTED.
func (s *Service) RejectVerification(ctx context.Context, ngoID id.UserID) error {
	return s.reviewVerification(ctx, ngoID, VerificationRejected, notification.VerificationRejected(ngoID))
}

func (s *Service) reviewVerification(ctx context.Context, ngoID id.UserID, next VerificationStatus, note *notification.Notification) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.UpdateVerificationIf(ctx, ngoID, VerificationPending, next); err != nil {
			return err
		}
		return s.notifier.Emit(ctx, note)
	})
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "ngo profile not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeInvalidState, "verification is not pending review")
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to review verification")
	}
	return nil
}

// ActivatePayment settles the mock activation fee: APPROVED -> VERIFIED with
// payment recorded. Real payment processing is out of scope; this is the
// settlement flip the platform performs after its provider callback.
func (s *Service) ActivatePayment(ctx context.Context, userID id.UserID) (*Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Role != RoleNGO {
		return nil, dErrors.New(dErrors.CodeForbidden, "only NGO accounts pay the activation fee")
	}
	if p.VerificationStatus != VerificationApproved {
		return nil, dErrors.New(dErrors.CodeInvalidState, "verification must be approved before payment")
	}
	p.VerificationStatus = VerificationVerified
	p.PaymentStatus = PaymentPaid
	if err := s.store.Update(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment")
	}
	return p, nil
}

// RequireNGOCapability loads the profile and enforces the VERIFIED+PAID gate.
// Donation, broadcast and messaging services call this before any NGO action.
func (s *Service) RequireNGOCapability(ctx context.Context, userID id.UserID) (*Profile, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.CanAccessNGOFeatures() {
		return nil, dErrors.New(dErrors.CodeForbidden, "NGO verification and activation payment required")
	}
	return p, nil
}

// RankedNGO is one NGO with its distance from the requesting user.
type RankedNGO struct {
	Profile    *Profile
	DistanceKm float64
	Unknown    bool
}

// NearbyNGOs returns verified NGOs within the platform radius of the user,
// closest first. strict excludes NGOs without coordinates (the map view).
func (s *Service) NearbyNGOs(ctx context.Context, userID id.UserID, strict bool) ([]RankedNGO, error) {
	viewer, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	ngos, err := s.store.ListByRole(ctx, RoleNGO)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list NGOs")
	}
	ref, refKnown := viewer.Coordinates()
	ranked := geo.Nearby(ref, refKnown, ngos, strict)
	out := make([]RankedNGO, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, RankedNGO{Profile: r.Item, DistanceKm: r.DistanceKm, Unknown: r.Unknown()})
	}
	return out, nil
}

// ListByRole exposes role-scoped listings to sibling modules (broadcast
// fan-out, admin views).
func (s *Service) ListByRole(ctx context.Context, role Role) ([]*Profile, error) {
	out, err := s.store.ListByRole(ctx, role)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list profiles")
	}
	return out, nil
}

// NewProfile seeds a fresh account record at signup time.
func NewProfile(userID id.UserID, role Role, email, passwordHash, fullName string) *Profile {
	now := time.Now()
	return &Profile{
		ID:                 userID,
		Role:               role,
		Email:              email,
		PasswordHash:       passwordHash,
		FullName:           fullName,
		VerificationStatus: VerificationUnverified,
		PaymentStatus:      PaymentUnpaid,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
