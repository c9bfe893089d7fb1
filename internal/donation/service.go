package donation

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hopecycle/internal/donation/metrics"
	"hopecycle/internal/geo"
	"hopecycle/internal/notification"
	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"
	"hopecycle/pkg/platform/sentinel"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// ProfileGate is the slice of the profile service the donation module needs:
// the NGO capability gate plus plain profile reads for coordinates and
// display names.
type ProfileGate interface {
	RequireNGOCapability(ctx context.Context, userID id.UserID) (*profile.Profile, error)
	Get(ctx context.Context, userID id.UserID) (*profile.Profile, error)
}

// Notifier appends a notification (and its outbox row) in the ambient
// transaction.
type Notifier interface {
	Emit(ctx context.Context, n *notification.Notification) error
}

// TxRunner provides the transactional boundary for multi-row transitions.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service owns the donation lifecycle: listing, interest arbitration,
// pickup completion, and reopening.
type Service struct {
	store    Store
	profiles ProfileGate
	notifier Notifier
	tx       TxRunner
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func NewService(store Store, profiles ProfileGate, notifier Notifier, tx TxRunner, m *metrics.Metrics) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
		notifier: notifier,
		tx:       tx,
		metrics:  m,
		tracer:   otel.Tracer("hopecycle/donation"),
	}
}

// CreateParams carries the donor-editable listing fields.
type CreateParams struct {
	Title       string
	Description string
	Category    string
	Condition   string
	Location    string
	Latitude    *float64
	Longitude   *float64
	ImageURLs   []string
	PickupTime  string
	BroadcastID *id.BroadcastID
}

func (p CreateParams) validate() error {
	if p.Title == "" {
		return dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	if p.Category == "" {
		return dErrors.New(dErrors.CodeBadRequest, "category is required")
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return dErrors.New(dErrors.CodeBadRequest, "latitude and longitude must be set together")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, donorID id.UserID, params CreateParams) (*Donation, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	now := time.Now()
	d := &Donation{
		ID:          id.NewDonationID(),
		DonorID:     donorID,
		BroadcastID: params.BroadcastID,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		Condition:   params.Condition,
		Status:      StatusActive,
		Location:    params.Location,
		Latitude:    params.Latitude,
		Longitude:   params.Longitude,
		ImageURLs:   params.ImageURLs,
		PickupTime:  params.PickupTime,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create donation")
	}
	s.metrics.IncrementTransition("create")
	return d, nil
}

func (s *Service) Get(ctx context.Context, donationID id.DonationID) (*Donation, error) {
	d, err := s.store.FindByID(ctx, donationID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "donation not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load donation")
	}
	return d, nil
}

// ownedBy loads the donation and enforces donor ownership.
func (s *Service) ownedBy(ctx context.Context, donorID id.UserID, donationID id.DonationID) (*Donation, error) {
	d, err := s.Get(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.DonorID != donorID {
		return nil, dErrors.New(dErrors.CodeForbidden, "donation belongs to another donor")
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, donorID id.UserID, donationID id.DonationID, params CreateParams) (*Donation, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	d, err := s.ownedBy(ctx, donorID, donationID)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusActive {
		return nil, dErrors.New(dErrors.CodeInvalidState, "only active donations can be edited")
	}
	d.Title = params.Title
	d.Description = params.Description
	d.Category = params.Category
	d.Condition = params.Condition
	d.Location = params.Location
	d.Latitude = params.Latitude
	d.Longitude = params.Longitude
	d.ImageURLs = params.ImageURLs
	d.PickupTime = params.PickupTime
	if err := s.store.Update(ctx, d); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update donation")
	}
	return d, nil
}

func (s *Service) Delete(ctx context.Context, donorID id.UserID, donationID id.DonationID) error {
	d, err := s.ownedBy(ctx, donorID, donationID)
	if err != nil {
		return err
	}
	if d.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvalidState, "claimed or completed donations cannot be deleted")
	}
	if err := s.store.Delete(ctx, donationID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete donation")
	}
	s.metrics.IncrementTransition("delete")
	return nil
}

// ExpressInterest records an NGO's claim on an active donation and notifies
// the donor. The partial unique index backstops the duplicate check under
// concurrency.
func (s *Service) ExpressInterest(ctx context.Context, ngoID id.UserID, donationID id.DonationID) (*Interest, error) {
	ctx, span := s.tracer.Start(ctx, "donation.ExpressInterest",
		trace.WithAttributes(attribute.String("donation_id", donationID.String())))
	defer span.End()

	ngo, err := s.profiles.RequireNGOCapability(ctx, ngoID)
	if err != nil {
		return nil, err
	}
	d, err := s.Get(ctx, donationID)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusActive || d.NGOID != nil {
		return nil, dErrors.New(dErrors.CodeInvalidState, "donation is no longer available")
	}

	in := &Interest{
		ID:         id.NewInterestID(),
		DonationID: donationID,
		NGOID:      ngoID,
		Status:     InterestPending,
		CreatedAt:  time.Now(),
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateInterest(ctx, in); err != nil {
			return err
		}
		return s.notifier.Emit(ctx, notification.InterestReceived(d.DonorID, ngo.DisplayName(), d.Title))
	})
	if errors.Is(err, sentinel.ErrConflict) {
		s.metrics.IncrementConflict()
		return nil, dErrors.New(dErrors.CodeConflict, "interest already expressed for this donation")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to express interest")
	}
	s.metrics.IncrementInterest()
	return in, nil
}

// AcceptInterest is the donor's arbitration step. One transaction claims the
// donation, accepts the chosen interest, and rejects the rest, so at most one
// interest ever ends up ACCEPTED however many donors race.
func (s *Service) AcceptInterest(ctx context.Context, donorID id.UserID, donationID id.DonationID, interestID id.InterestID) error {
	ctx, span := s.tracer.Start(ctx, "donation.AcceptInterest",
		trace.WithAttributes(attribute.String("donation_id", donationID.String())))
	defer span.End()

	d, err := s.ownedBy(ctx, donorID, donationID)
	if err != nil {
		return err
	}
	in, err := s.store.FindInterest(ctx, interestID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "interest not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load interest")
	}
	if in.DonationID != donationID {
		return dErrors.New(dErrors.CodeBadRequest, "interest does not belong to this donation")
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.ClaimIf(ctx, donationID, in.NGOID); err != nil {
			return err
		}
		if err := s.store.AcceptInterestIf(ctx, interestID); err != nil {
			return err
		}
		if err := s.store.RejectOpenInterests(ctx, donationID, interestID); err != nil {
			return err
		}
		return s.notifier.Emit(ctx, notification.InterestAccepted(in.NGOID, d.Title))
	})
	if errors.Is(err, sentinel.ErrConflict) {
		s.metrics.IncrementConflict()
		return dErrors.New(dErrors.CodeConflict, "donation was claimed by a concurrent request")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to accept interest")
	}
	s.metrics.IncrementTransition("accept")
	return nil
}

// CompletePickup is the assigned NGO confirming the handover.
func (s *Service) CompletePickup(ctx context.Context, ngoID id.UserID, donationID id.DonationID) error {
	ctx, span := s.tracer.Start(ctx, "donation.CompletePickup",
		trace.WithAttributes(attribute.String("donation_id", donationID.String())))
	defer span.End()

	ngo, err := s.profiles.RequireNGOCapability(ctx, ngoID)
	if err != nil {
		return err
	}
	d, err := s.Get(ctx, donationID)
	if err != nil {
		return err
	}
	if d.NGOID == nil || *d.NGOID != ngoID {
		return dErrors.New(dErrors.CodeForbidden, "donation is not assigned to this NGO")
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.CompleteIf(ctx, donationID, ngoID); err != nil {
			return err
		}
		if err := s.store.SetAcceptedInterest(ctx, donationID, InterestCompleted); err != nil {
			return err
		}
		return s.notifier.Emit(ctx, notification.PickupCompleted(d.DonorID, d.Title, ngo.DisplayName()))
	})
	if errors.Is(err, sentinel.ErrConflict) {
		s.metrics.IncrementConflict()
		return dErrors.New(dErrors.CodeInvalidState, "donation is not awaiting pickup")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to complete pickup")
	}
	s.metrics.IncrementTransition("complete")
	return nil
}

// Reopen returns a claimed donation to the marketplace: the accepted interest
// is rejected and the displaced NGO is told. COMPLETED is terminal.
func (s *Service) Reopen(ctx context.Context, donorID id.UserID, donationID id.DonationID) error {
	ctx, span := s.tracer.Start(ctx, "donation.Reopen",
		trace.WithAttributes(attribute.String("donation_id", donationID.String())))
	defer span.End()

	d, err := s.ownedBy(ctx, donorID, donationID)
	if err != nil {
		return err
	}
	if d.Status != StatusPending || d.NGOID == nil {
		return dErrors.New(dErrors.CodeInvalidState, "only claimed donations can be reopened")
	}
	displaced := *d.NGOID

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.ReopenIf(ctx, donationID); err != nil {
			return err
		}
		if err := s.store.SetAcceptedInterest(ctx, donationID, InterestRejected); err != nil {
			return err
		}
		return s.notifier.Emit(ctx, notification.DonationReopened(displaced, d.Title))
	})
	if errors.Is(err, sentinel.ErrConflict) {
		s.metrics.IncrementConflict()
		return dErrors.New(dErrors.CodeConflict, "donation state changed concurrently")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to reopen donation")
	}
	s.metrics.IncrementTransition("reopen")
	return nil
}

func (s *Service) ListByDonor(ctx context.Context, donorID id.UserID) ([]*Donation, error) {
	out, err := s.store.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return out, nil
}

// ListMarketplace is the NGO browse feed: active, unassigned listings.
func (s *Service) ListMarketplace(ctx context.Context, ngoID id.UserID) ([]*Donation, error) {
	if _, err := s.profiles.RequireNGOCapability(ctx, ngoID); err != nil {
		return nil, err
	}
	out, err := s.store.ListMarketplace(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list marketplace")
	}
	return out, nil
}

// RankedDonation is a marketplace listing with its distance from the viewer.
type RankedDonation struct {
	Donation   *Donation
	DistanceKm float64
	Unknown    bool
}

// ListNearby filters the marketplace by the platform radius around the
// viewing NGO, closest first. strict excludes listings without coordinates.
func (s *Service) ListNearby(ctx context.Context, ngoID id.UserID, strict bool) ([]RankedDonation, error) {
	ngo, err := s.profiles.RequireNGOCapability(ctx, ngoID)
	if err != nil {
		return nil, err
	}
	listings, err := s.store.ListMarketplace(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list marketplace")
	}
	ref, refKnown := ngo.Coordinates()
	ranked := geo.Nearby(ref, refKnown, listings, strict)
	out := make([]RankedDonation, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, RankedDonation{Donation: r.Item, DistanceKm: r.DistanceKm, Unknown: r.Unknown()})
	}
	return out, nil
}

// ListInterests returns a donation's interests to its owner.
func (s *Service) ListInterests(ctx context.Context, donorID id.UserID, donationID id.DonationID) ([]*Interest, error) {
	if _, err := s.ownedBy(ctx, donorID, donationID); err != nil {
		return nil, err
	}
	out, err := s.store.ListInterestsByDonation(ctx, donationID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list interests")
	}
	return out, nil
}

// ListInterestsByNGO returns an NGO's own interests, newest first.
func (s *Service) ListInterestsByNGO(ctx context.Context, ngoID id.UserID) ([]*Interest, error) {
	out, err := s.store.ListInterestsByNGO(ctx, ngoID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list interests")
	}
	return out, nil
}
