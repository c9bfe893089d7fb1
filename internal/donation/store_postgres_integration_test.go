//go:build integration

package donation_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"hopecycle/internal/donation"
	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/sentinel"
	"hopecycle/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *donation.PostgresStore
	profiles *profile.PostgresStore

	donor id.UserID
	ngo   id.UserID
	rival id.UserID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = donation.NewPostgresStore(s.postgres.DB.DB)
	s.profiles = profile.NewPostgresStore(s.postgres.DB.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.Truncate(ctx, "donation_interests", "donations", "profiles"))

	donor := profile.NewProfile(id.NewUserID(), profile.RoleDonor, "donor@example.com", "hash", "Donor")
	ngo := profile.NewProfile(id.NewUserID(), profile.RoleNGO, "ngo@example.com", "hash", "NGO")
	rival := profile.NewProfile(id.NewUserID(), profile.RoleNGO, "rival@example.com", "hash", "Rival")
	for _, p := range []*profile.Profile{donor, ngo, rival} {
		s.Require().NoError(s.profiles.Create(ctx, p))
	}
	s.donor, s.ngo, s.rival = donor.ID, ngo.ID, rival.ID
}

func (s *PostgresStoreSuite) newDonation(title string) *donation.Donation {
	now := time.Now()
	lat, lon := 23.7465, 90.3760
	return &donation.Donation{
		ID:        id.NewDonationID(),
		DonorID:   s.donor,
		Title:     title,
		Category:  "Furniture",
		Status:    donation.StatusActive,
		Latitude:  &lat,
		Longitude: &lon,
		ImageURLs: []string{"https://cdn.example.com/a.jpg", "https://cdn.example.com/b.jpg"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) newInterest(donationID id.DonationID, ngoID id.UserID) *donation.Interest {
	return &donation.Interest{
		ID:         id.NewInterestID(),
		DonationID: donationID,
		NGOID:      ngoID,
		Status:     donation.InterestPending,
		CreatedAt:  time.Now(),
	}
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	d := s.newDonation("Chairs")
	s.Require().NoError(s.store.Create(ctx, d))

	got, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal("Chairs", got.Title)
	s.Nil(got.NGOID)
	s.Len(got.ImageURLs, 2)
	s.Require().NotNil(got.Latitude)
	s.InDelta(23.7465, *got.Latitude, 1e-9)
}

func (s *PostgresStoreSuite) TestClaimGuards() {
	ctx := context.Background()
	d := s.newDonation("Rice")
	s.Require().NoError(s.store.Create(ctx, d))

	s.Run("first claim wins", func() {
		s.Require().NoError(s.store.ClaimIf(ctx, d.ID, s.ngo))
		got, err := s.store.FindByID(ctx, d.ID)
		s.Require().NoError(err)
		s.Equal(donation.StatusPending, got.Status)
		s.Require().NotNil(got.NGOID)
		s.Equal(s.ngo, *got.NGOID)
	})

	s.Run("second claim conflicts", func() {
		err := s.store.ClaimIf(ctx, d.ID, s.rival)
		s.True(errors.Is(err, sentinel.ErrConflict))
	})

	s.Run("claim of a missing donation is not found", func() {
		err := s.store.ClaimIf(ctx, id.NewDonationID(), s.ngo)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("complete requires the assigned NGO", func() {
		err := s.store.CompleteIf(ctx, d.ID, s.rival)
		s.True(errors.Is(err, sentinel.ErrConflict))
		s.Require().NoError(s.store.CompleteIf(ctx, d.ID, s.ngo))
	})
}

func (s *PostgresStoreSuite) TestLiveInterestUniqueness() {
	ctx := context.Background()
	d := s.newDonation("Books")
	s.Require().NoError(s.store.Create(ctx, d))

	first := s.newInterest(d.ID, s.ngo)
	s.Require().NoError(s.store.CreateInterest(ctx, first))

	s.Run("second live interest from the same NGO conflicts", func() {
		err := s.store.CreateInterest(ctx, s.newInterest(d.ID, s.ngo))
		s.True(errors.Is(err, sentinel.ErrConflict))
	})

	s.Run("a rejected interest frees the slot", func() {
		s.Require().NoError(s.store.RejectOpenInterests(ctx, d.ID, id.NewInterestID()))
		s.Require().NoError(s.store.CreateInterest(ctx, s.newInterest(d.ID, s.ngo)))
	})
}

func (s *PostgresStoreSuite) TestInterestRequiresOpenDonation() {
	ctx := context.Background()
	d := s.newDonation("Stationery")
	s.Require().NoError(s.store.Create(ctx, d))
	s.Require().NoError(s.store.ClaimIf(ctx, d.ID, s.ngo))

	s.Run("claimed donation rejects a late interest", func() {
		err := s.store.CreateInterest(ctx, s.newInterest(d.ID, s.rival))
		s.True(errors.Is(err, sentinel.ErrConflict))
	})

	s.Run("unknown donation rejects the insert", func() {
		err := s.store.CreateInterest(ctx, s.newInterest(id.NewDonationID(), s.rival))
		s.True(errors.Is(err, sentinel.ErrConflict))
	})
}

func (s *PostgresStoreSuite) TestReleaseByNGO() {
	ctx := context.Background()
	claimed := s.newDonation("Heaters")
	untouched := s.newDonation("Fans")
	s.Require().NoError(s.store.Create(ctx, claimed))
	s.Require().NoError(s.store.Create(ctx, untouched))

	in := s.newInterest(claimed.ID, s.ngo)
	s.Require().NoError(s.store.CreateInterest(ctx, in))
	s.Require().NoError(s.store.ClaimIf(ctx, claimed.ID, s.ngo))
	s.Require().NoError(s.store.AcceptInterestIf(ctx, in.ID))

	s.Require().NoError(s.store.ReleaseByNGO(ctx, s.ngo))

	got, err := s.store.FindByID(ctx, claimed.ID)
	s.Require().NoError(err)
	s.Equal(donation.StatusActive, got.Status)
	s.Nil(got.NGOID)

	released, err := s.store.FindInterest(ctx, in.ID)
	s.Require().NoError(err)
	s.Equal(donation.InterestRejected, released.Status)

	// Freed listings are claimable again.
	s.Require().NoError(s.store.ClaimIf(ctx, claimed.ID, s.rival))

	other, err := s.store.FindByID(ctx, untouched.ID)
	s.Require().NoError(err)
	s.Equal(donation.StatusActive, other.Status)
}

func (s *PostgresStoreSuite) TestReopenCycle() {
	ctx := context.Background()
	d := s.newDonation("Blankets")
	s.Require().NoError(s.store.Create(ctx, d))

	in := s.newInterest(d.ID, s.ngo)
	s.Require().NoError(s.store.CreateInterest(ctx, in))
	s.Require().NoError(s.store.ClaimIf(ctx, d.ID, s.ngo))
	s.Require().NoError(s.store.AcceptInterestIf(ctx, in.ID))
	s.Require().NoError(s.store.SetAcceptedInterest(ctx, d.ID, donation.InterestRejected))

	s.Require().NoError(s.store.ReopenIf(ctx, d.ID))
	got, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(donation.StatusActive, got.Status)
	s.Nil(got.NGOID)

	// The listing is claimable again, by anyone.
	s.Require().NoError(s.store.ClaimIf(ctx, d.ID, s.rival))
}

func (s *PostgresStoreSuite) TestMarketplaceFilters() {
	ctx := context.Background()
	open := s.newDonation("Open Listing")
	claimed := s.newDonation("Claimed Listing")
	s.Require().NoError(s.store.Create(ctx, open))
	s.Require().NoError(s.store.Create(ctx, claimed))
	s.Require().NoError(s.store.ClaimIf(ctx, claimed.ID, s.ngo))

	listings, err := s.store.ListMarketplace(ctx)
	s.Require().NoError(err)
	s.Require().Len(listings, 1)
	s.Equal(open.ID, listings[0].ID)

	counts, err := s.store.CountByStatus(ctx)
	s.Require().NoError(err)
	s.Equal(1, counts[donation.StatusActive])
	s.Equal(1, counts[donation.StatusPending])
}
