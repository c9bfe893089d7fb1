package donation

import (
	"context"

	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"

	"go.uber.org/mock/gomock"
)

// claim runs the express/accept steps so lifecycle tests start from PENDING.
func (s *ServiceSuite) claim(donor id.UserID, d *Donation, ngo *profile.Profile) *Interest {
	ctx := context.Background()
	in, err := s.service.ExpressInterest(ctx, ngo.ID, d.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.service.AcceptInterest(ctx, donor, d.ID, in.ID))
	return in
}

func (s *ServiceSuite) TestCompletePickup() {
	ctx := context.Background()
	donor := id.NewUserID()
	d := s.seedDonation(donor, "Water Filters")

	ngo := verifiedNGO("Clean Water Org", 23.75, 90.37)
	stranger := verifiedNGO("Bystander Org", 23.70, 90.40)
	for _, p := range []*profile.Profile{ngo, stranger} {
		s.gate.EXPECT().RequireNGOCapability(gomock.Any(), p.ID).Return(p, nil).AnyTimes()
	}
	in := s.claim(donor, d, ngo)

	s.Run("unassigned NGO cannot complete", func() {
		err := s.service.CompletePickup(ctx, stranger.ID, d.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("assigned NGO completes the pickup", func() {
		s.Require().NoError(s.service.CompletePickup(ctx, ngo.ID, d.ID))

		got, err := s.store.FindByID(ctx, d.ID)
		s.Require().NoError(err)
		s.Equal(StatusCompleted, got.Status)

		closed, err := s.store.FindInterest(ctx, in.ID)
		s.Require().NoError(err)
		s.Equal(InterestCompleted, closed.Status)

		notes := s.unread(donor)
		s.Require().NotEmpty(notes)
		s.Contains(notes[0].Body, "Clean Water Org")
	})

	s.Run("completing twice is an invalid state", func() {
		err := s.service.CompletePickup(ctx, ngo.ID, d.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestReopen() {
	ctx := context.Background()
	donor := id.NewUserID()
	d := s.seedDonation(donor, "Winter Blankets")

	ngo := verifiedNGO("Night Shelter", 23.75, 90.37)
	s.gate.EXPECT().RequireNGOCapability(gomock.Any(), ngo.ID).Return(ngo, nil).AnyTimes()

	s.Run("active donation cannot be reopened", func() {
		err := s.service.Reopen(ctx, donor, d.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	in := s.claim(donor, d, ngo)

	s.Run("reopen returns the listing and displaces the NGO", func() {
		s.Require().NoError(s.service.Reopen(ctx, donor, d.ID))

		got, err := s.store.FindByID(ctx, d.ID)
		s.Require().NoError(err)
		s.Equal(StatusActive, got.Status)
		s.Nil(got.NGOID)

		displaced, err := s.store.FindInterest(ctx, in.ID)
		s.Require().NoError(err)
		s.Equal(InterestRejected, displaced.Status)

		notes := s.unread(ngo.ID)
		s.Require().NotEmpty(notes)
		s.Contains(notes[0].Body, "Winter Blankets")
	})

	s.Run("completed donation stays terminal", func() {
		done := s.seedDonation(donor, "Finished")
		s.claim(donor, done, ngo)
		s.Require().NoError(s.service.CompletePickup(ctx, ngo.ID, done.ID))

		err := s.service.Reopen(ctx, donor, done.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestListNearby() {
	ctx := context.Background()
	donor := id.NewUserID()

	// Viewer sits in Dhanmondi; the warehouse listing is ~250 km away in
	// Chattogram, the unlocated one has no coordinates at all.
	near := s.seedDonation(donor, "Nearby Chairs")
	_, err := s.service.Create(ctx, donor, CreateParams{
		Title: "Far Warehouse Stock", Category: "Furniture",
		Latitude: f64(22.3569), Longitude: f64(91.7832),
	})
	s.Require().NoError(err)
	unlocated, err := s.service.Create(ctx, donor, CreateParams{
		Title: "Unlocated Box", Category: "Misc",
	})
	s.Require().NoError(err)

	ngo := verifiedNGO("Local Aid", 23.7525, 90.3770)
	s.gate.EXPECT().RequireNGOCapability(gomock.Any(), ngo.ID).Return(ngo, nil).AnyTimes()

	s.Run("radius filter keeps near and unlocated listings", func() {
		ranked, err := s.service.ListNearby(ctx, ngo.ID, false)
		s.Require().NoError(err)
		s.Require().Len(ranked, 2)
		s.Equal(near.ID, ranked[0].Donation.ID)
		s.Less(ranked[0].DistanceKm, 25.0)
		s.Equal(unlocated.ID, ranked[1].Donation.ID)
		s.True(ranked[1].Unknown)
	})

	s.Run("strict mode drops listings without coordinates", func() {
		ranked, err := s.service.ListNearby(ctx, ngo.ID, true)
		s.Require().NoError(err)
		s.Require().Len(ranked, 1)
		s.Equal(near.ID, ranked[0].Donation.ID)
	})

	s.Run("claimed listings leave the feed", func() {
		s.Require().NoError(s.store.ClaimIf(ctx, near.ID, ngo.ID))
		ranked, err := s.service.ListNearby(ctx, ngo.ID, true)
		s.Require().NoError(err)
		s.Empty(ranked)
	})
}
