package admin

import (
	"context"
	"testing"

	"hopecycle/internal/donation"
	"hopecycle/internal/notification"
	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"
	"hopecycle/pkg/testutil"

	"github.com/stretchr/testify/suite"
)

const testFeeCents = 49900

type ServiceSuite struct {
	suite.Suite

	profiles  *profile.InMemoryStore
	donations *donation.InMemoryStore
	service   *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.profiles = profile.NewInMemoryStore()
	s.donations = donation.NewInMemoryStore()

	pub := notification.NewPublisher(notification.NewInMemoryStore())
	profileService := profile.NewService(s.profiles, pub, testutil.PassthroughTx{})
	s.service = NewService(s.profiles, profileService, s.donations, testutil.PassthroughTx{}, testFeeCents)
}

func (s *ServiceSuite) seed(role profile.Role, name string, status profile.VerificationStatus, payment profile.PaymentStatus) *profile.Profile {
	p := profile.NewProfile(id.NewUserID(), role, name+"@example.com", "x", name)
	p.VerificationStatus = status
	p.PaymentStatus = payment
	s.Require().NoError(s.profiles.Create(context.Background(), p))
	return p
}

func (s *ServiceSuite) TestVerificationQueue() {
	ctx := context.Background()
	pending := s.seed(profile.RoleNGO, "pending-ngo", profile.VerificationPending, profile.PaymentUnpaid)
	s.seed(profile.RoleNGO, "fresh-ngo", profile.VerificationUnverified, profile.PaymentUnpaid)

	s.Run("queue lists only pending submissions", func() {
		queue, err := s.service.PendingVerifications(ctx)
		s.Require().NoError(err)
		s.Require().Len(queue, 1)
		s.Equal(pending.ID, queue[0].ID)
	})

	s.Run("approval empties the queue", func() {
		s.Require().NoError(s.service.ApproveVerification(ctx, pending.ID))
		queue, err := s.service.PendingVerifications(ctx)
		s.Require().NoError(err)
		s.Empty(queue)
	})

	s.Run("rejecting a non-pending profile is an invalid state", func() {
		err := s.service.RejectVerification(ctx, pending.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestStats() {
	ctx := context.Background()
	donor := s.seed(profile.RoleDonor, "donor", profile.VerificationUnverified, profile.PaymentUnpaid)
	s.seed(profile.RoleDonor, "donor-two", profile.VerificationUnverified, profile.PaymentUnpaid)
	ngo := s.seed(profile.RoleNGO, "verified-ngo", profile.VerificationVerified, profile.PaymentPaid)
	s.seed(profile.RoleNGO, "pending-ngo", profile.VerificationPending, profile.PaymentUnpaid)

	active := &donation.Donation{ID: id.NewDonationID(), DonorID: donor.ID, Title: "Chairs", Category: "Furniture", Status: donation.StatusActive}
	claimed := &donation.Donation{ID: id.NewDonationID(), DonorID: donor.ID, Title: "Rice", Category: "Food", Status: donation.StatusActive}
	s.Require().NoError(s.donations.Create(ctx, active))
	s.Require().NoError(s.donations.Create(ctx, claimed))
	s.Require().NoError(s.donations.ClaimIf(ctx, claimed.ID, ngo.ID))

	stats, err := s.service.Stats(ctx)
	s.Require().NoError(err)
	s.Equal(2, stats.DonorCount)
	s.Equal(2, stats.NGOCount)
	s.Equal(1, stats.VerifiedNGOCount)
	s.Equal(1, stats.DonationsByStatus[donation.StatusActive])
	s.Equal(1, stats.DonationsByStatus[donation.StatusPending])
}

func (s *ServiceSuite) TestRevenue() {
	ctx := context.Background()
	s.seed(profile.RoleNGO, "paid-one", profile.VerificationVerified, profile.PaymentPaid)
	s.seed(profile.RoleNGO, "paid-two", profile.VerificationVerified, profile.PaymentPaid)
	s.seed(profile.RoleNGO, "unpaid", profile.VerificationApproved, profile.PaymentUnpaid)
	// Paid donors do not exist, but a donor row must never count either way.
	s.seed(profile.RoleDonor, "donor", profile.VerificationUnverified, profile.PaymentUnpaid)

	rev, err := s.service.Revenue(ctx)
	s.Require().NoError(err)
	s.Equal(2, rev.PaidNGOCount)
	s.Equal(int64(testFeeCents), rev.ActivationFeeCents)
	s.Equal(int64(2*testFeeCents), rev.TotalCents)
}

func (s *ServiceSuite) TestRemoveNGO() {
	ctx := context.Background()
	ngo := s.seed(profile.RoleNGO, "doomed-ngo", profile.VerificationVerified, profile.PaymentPaid)
	donor := s.seed(profile.RoleDonor, "innocent-donor", profile.VerificationUnverified, profile.PaymentUnpaid)

	s.Run("donor accounts cannot be removed through this path", func() {
		err := s.service.RemoveNGO(ctx, donor.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("unknown account is not found", func() {
		err := s.service.RemoveNGO(ctx, id.NewUserID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("NGO account is removed", func() {
		s.Require().NoError(s.service.RemoveNGO(ctx, ngo.ID))
		err := s.service.RemoveNGO(ctx, ngo.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestRemoveNGO_ReleasesPendingDonations() {
	ctx := context.Background()
	ngo := s.seed(profile.RoleNGO, "departing-ngo", profile.VerificationVerified, profile.PaymentPaid)
	donor := s.seed(profile.RoleDonor, "donor", profile.VerificationUnverified, profile.PaymentUnpaid)

	d := &donation.Donation{ID: id.NewDonationID(), DonorID: donor.ID, Title: "Blankets", Category: "Clothing", Status: donation.StatusActive}
	s.Require().NoError(s.donations.Create(ctx, d))
	in := &donation.Interest{ID: id.NewInterestID(), DonationID: d.ID, NGOID: ngo.ID, Status: donation.InterestPending}
	s.Require().NoError(s.donations.CreateInterest(ctx, in))
	s.Require().NoError(s.donations.ClaimIf(ctx, d.ID, ngo.ID))
	s.Require().NoError(s.donations.AcceptInterestIf(ctx, in.ID))

	s.Require().NoError(s.service.RemoveNGO(ctx, ngo.ID))

	got, err := s.donations.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(donation.StatusActive, got.Status)
	s.Nil(got.NGOID)

	released, err := s.donations.FindInterest(ctx, in.ID)
	s.Require().NoError(err)
	s.Equal(donation.InterestRejected, released.Status)
}
