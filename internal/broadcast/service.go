package broadcast

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"hopecycle/internal/geo"
	"hopecycle/internal/notification"
	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"
	"hopecycle/pkg/platform/sentinel"
)

// ProfileGate is the slice of the profile service the broadcast module needs.
type ProfileGate interface {
	RequireNGOCapability(ctx context.Context, userID id.UserID) (*profile.Profile, error)
	Get(ctx context.Context, userID id.UserID) (*profile.Profile, error)
	ListByRole(ctx context.Context, role profile.Role) ([]*profile.Profile, error)
}

// Notifier appends a notification in the ambient transaction.
type Notifier interface {
	Emit(ctx context.Context, n *notification.Notification) error
}

// TxRunner provides the transactional boundary for the fan-out.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service owns NGO broadcast appeals and their donor fan-out.
type Service struct {
	store    Store
	profiles ProfileGate
	notifier Notifier
	tx       TxRunner
	tracer   trace.Tracer
}

func NewService(store Store, profiles ProfileGate, notifier Notifier, tx TxRunner) *Service {
	return &Service{
		store:    store,
		profiles: profiles,
		notifier: notifier,
		tx:       tx,
		tracer:   otel.Tracer("hopecycle/broadcast"),
	}
}

// CreateParams carries the NGO-editable appeal fields.
type CreateParams struct {
	Title       string
	Description string
	Category    string
	Priority    Priority
}

func (p CreateParams) validate() error {
	if p.Title == "" {
		return dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	if p.Category == "" {
		return dErrors.New(dErrors.CodeBadRequest, "category is required")
	}
	if !ValidPriority(p.Priority) {
		return dErrors.New(dErrors.CodeBadRequest, "priority must be Low, Medium or High")
	}
	return nil
}

// Create publishes an appeal and notifies every donor within the platform
// radius of the NGO, in the same transaction as the appeal itself.
func (s *Service) Create(ctx context.Context, ngoID id.UserID, params CreateParams) (*Broadcast, error) {
	ctx, span := s.tracer.Start(ctx, "broadcast.Create",
		trace.WithAttributes(attribute.String("ngo_id", ngoID.String())))
	defer span.End()

	if err := params.validate(); err != nil {
		return nil, err
	}
	ngo, err := s.profiles.RequireNGOCapability(ctx, ngoID)
	if err != nil {
		return nil, err
	}
	donors, err := s.profiles.ListByRole(ctx, profile.RoleDonor)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	b := &Broadcast{
		ID:          id.NewBroadcastID(),
		NGOID:       ngoID,
		Title:       params.Title,
		Description: params.Description,
		Category:    params.Category,
		Priority:    params.Priority,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ref, refKnown := ngo.Coordinates()
	reached := geo.Nearby(ref, refKnown, donors, false)

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, b); err != nil {
			return err
		}
		for _, r := range reached {
			if err := s.notifier.Emit(ctx, notification.BroadcastAppeal(r.Item.ID, ngo.DisplayName(), b.Category)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create broadcast")
	}
	return b, nil
}

// ownedBy loads the broadcast and enforces NGO ownership.
func (s *Service) ownedBy(ctx context.Context, ngoID id.UserID, broadcastID id.BroadcastID) (*Broadcast, error) {
	b, err := s.store.FindByID(ctx, broadcastID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "broadcast not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load broadcast")
	}
	if b.NGOID != ngoID {
		return nil, dErrors.New(dErrors.CodeForbidden, "broadcast belongs to another NGO")
	}
	return b, nil
}

// UpdateParams adds the status flip to the editable fields.
type UpdateParams struct {
	CreateParams
	Status Status
}

func (s *Service) Update(ctx context.Context, ngoID id.UserID, broadcastID id.BroadcastID, params UpdateParams) (*Broadcast, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if params.Status != StatusActive && params.Status != StatusFulfilled {
		return nil, dErrors.New(dErrors.CodeBadRequest, "status must be ACTIVE or FULFILLED")
	}
	b, err := s.ownedBy(ctx, ngoID, broadcastID)
	if err != nil {
		return nil, err
	}
	b.Title = params.Title
	b.Description = params.Description
	b.Category = params.Category
	b.Priority = params.Priority
	b.Status = params.Status
	if err := s.store.Update(ctx, b); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update broadcast")
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, ngoID id.UserID, broadcastID id.BroadcastID) error {
	if _, err := s.ownedBy(ctx, ngoID, broadcastID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, broadcastID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete broadcast")
	}
	return nil
}

func (s *Service) ListByNGO(ctx context.Context, ngoID id.UserID) ([]*Broadcast, error) {
	out, err := s.store.ListByNGO(ctx, ngoID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list broadcasts")
	}
	return out, nil
}

// RankedBroadcast is an open appeal with the distance from the viewing donor
// to the NGO behind it.
type RankedBroadcast struct {
	Broadcast  *Broadcast
	NGOName    string
	DistanceKm float64
	Unknown    bool
}

// ListActiveNearby is the donor dashboard feed: open appeals ranked by
// distance to the NGO, unknown-position NGOs sorting last.
func (s *Service) ListActiveNearby(ctx context.Context, donorID id.UserID) ([]RankedBroadcast, error) {
	donor, err := s.profiles.Get(ctx, donorID)
	if err != nil {
		return nil, err
	}
	open, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list broadcasts")
	}

	located := make([]locatedBroadcast, 0, len(open))
	for _, b := range open {
		ngo, err := s.profiles.Get(ctx, b.NGOID)
		if err != nil {
			// NGO deleted since; drop the orphaned appeal from the feed.
			continue
		}
		located = append(located, locatedBroadcast{broadcast: b, ngo: ngo})
	}

	ref, refKnown := donor.Coordinates()
	ranked := geo.Nearby(ref, refKnown, located, false)
	out := make([]RankedBroadcast, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, RankedBroadcast{
			Broadcast:  r.Item.broadcast,
			NGOName:    r.Item.ngo.DisplayName(),
			DistanceKm: r.DistanceKm,
			Unknown:    r.Unknown(),
		})
	}
	return out, nil
}

// locatedBroadcast pairs an appeal with its NGO so the geo filter can rank by
// the NGO's position.
type locatedBroadcast struct {
	broadcast *Broadcast
	ngo       *profile.Profile
}

func (l locatedBroadcast) Coordinates() (geo.Point, bool) {
	return l.ngo.Coordinates()
}
