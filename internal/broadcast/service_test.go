package broadcast

import (
	"context"
	"testing"

	"hopecycle/internal/notification"
	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"
	"hopecycle/pkg/testutil"

	"github.com/stretchr/testify/suite"
)

type ServiceSuite struct {
	suite.Suite

	profiles *profile.InMemoryStore
	notes    *notification.InMemoryStore
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.profiles = profile.NewInMemoryStore()
	s.notes = notification.NewInMemoryStore()
	pub := notification.NewPublisher(s.notes)
	gate := profile.NewService(s.profiles, pub, testutil.PassthroughTx{})
	s.service = NewService(NewInMemoryStore(), gate, pub, testutil.PassthroughTx{})
}

func coord(v float64) *float64 { return &v }

func (s *ServiceSuite) seedNGO(name string, lat, lon *float64) *profile.Profile {
	p := profile.NewProfile(id.NewUserID(), profile.RoleNGO, name+"@example.com", "x", name)
	p.OrganizationName = name
	p.VerificationStatus = profile.VerificationVerified
	p.PaymentStatus = profile.PaymentPaid
	p.Latitude, p.Longitude = lat, lon
	s.Require().NoError(s.profiles.Create(context.Background(), p))
	return p
}

func (s *ServiceSuite) seedDonor(name string, lat, lon *float64) *profile.Profile {
	p := profile.NewProfile(id.NewUserID(), profile.RoleDonor, name+"@example.com", "x", name)
	p.Latitude, p.Longitude = lat, lon
	s.Require().NoError(s.profiles.Create(context.Background(), p))
	return p
}

func appealParams() CreateParams {
	return CreateParams{
		Title:       "Winter clothing drive",
		Description: "Warm clothes needed before the cold front.",
		Category:    "Clothing",
		Priority:    PriorityHigh,
	}
}

func (s *ServiceSuite) TestCreate_FanOut() {
	ctx := context.Background()

	// NGO in Dhanmondi; one donor across the neighbourhood, one in
	// Chattogram (~250 km), one with no saved location.
	ngo := s.seedNGO("Warm Hands", coord(23.7465), coord(90.3760))
	near := s.seedDonor("near-donor", coord(23.7525), coord(90.3770))
	far := s.seedDonor("far-donor", coord(22.3569), coord(91.7832))
	unlocated := s.seedDonor("unlocated-donor", nil, nil)

	s.Run("validation", func() {
		params := appealParams()
		params.Priority = "Urgent"
		_, err := s.service.Create(ctx, ngo.ID, params)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unverified NGO is gated", func() {
		stranger := profile.NewProfile(id.NewUserID(), profile.RoleNGO, "new@example.com", "x", "New Org")
		s.Require().NoError(s.profiles.Create(ctx, stranger))
		_, err := s.service.Create(ctx, stranger.ID, appealParams())
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("appeal reaches nearby and unlocated donors only", func() {
		b, err := s.service.Create(ctx, ngo.ID, appealParams())
		s.Require().NoError(err)
		s.Equal(StatusActive, b.Status)

		nearNotes, err := s.notes.ListByUser(ctx, near.ID, 10)
		s.Require().NoError(err)
		s.Require().Len(nearNotes, 1)
		s.Equal(notification.TypeRequest, nearNotes[0].Type)
		s.Contains(nearNotes[0].Body, "Warm Hands")

		unlocatedNotes, err := s.notes.ListByUser(ctx, unlocated.ID, 10)
		s.Require().NoError(err)
		s.Len(unlocatedNotes, 1)

		farNotes, err := s.notes.ListByUser(ctx, far.ID, 10)
		s.Require().NoError(err)
		s.Empty(farNotes)
	})
}

func (s *ServiceSuite) TestOwnershipAndLifecycle() {
	ctx := context.Background()
	ngo := s.seedNGO("Owner Org", coord(23.7465), coord(90.3760))
	rival := s.seedNGO("Rival Org", coord(23.7465), coord(90.3760))

	b, err := s.service.Create(ctx, ngo.ID, appealParams())
	s.Require().NoError(err)

	s.Run("another NGO cannot edit or delete", func() {
		_, err := s.service.Update(ctx, rival.ID, b.ID, UpdateParams{CreateParams: appealParams(), Status: StatusActive})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		err = s.service.Delete(ctx, rival.ID, b.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("owner marks the appeal fulfilled", func() {
		got, err := s.service.Update(ctx, ngo.ID, b.ID, UpdateParams{CreateParams: appealParams(), Status: StatusFulfilled})
		s.Require().NoError(err)
		s.Equal(StatusFulfilled, got.Status)
	})

	s.Run("owner deletes the appeal", func() {
		s.Require().NoError(s.service.Delete(ctx, ngo.ID, b.ID))
		_, err := s.service.ListByNGO(ctx, ngo.ID)
		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestListActiveNearby() {
	ctx := context.Background()
	nearNGO := s.seedNGO("Near Org", coord(23.7525), coord(90.3770))
	farNGO := s.seedNGO("Far Org", coord(22.3569), coord(91.7832))
	donor := s.seedDonor("viewer", coord(23.7465), coord(90.3760))

	_, err := s.service.Create(ctx, nearNGO.ID, appealParams())
	s.Require().NoError(err)
	_, err = s.service.Create(ctx, farNGO.ID, appealParams())
	s.Require().NoError(err)

	fulfilled, err := s.service.Create(ctx, nearNGO.ID, appealParams())
	s.Require().NoError(err)
	_, err = s.service.Update(ctx, nearNGO.ID, fulfilled.ID, UpdateParams{CreateParams: appealParams(), Status: StatusFulfilled})
	s.Require().NoError(err)

	feed, err := s.service.ListActiveNearby(ctx, donor.ID)
	s.Require().NoError(err)
	s.Require().Len(feed, 1)
	s.Equal("Near Org", feed[0].NGOName)
	s.Less(feed[0].DistanceKm, 25.0)
	s.False(feed[0].Unknown)
}
