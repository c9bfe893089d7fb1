package donation

import (
	"context"
	"errors"
	"time"

	"hopecycle/internal/donation/mocks"
	"hopecycle/internal/notification"
	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"
	"hopecycle/pkg/platform/sentinel"
	"hopecycle/pkg/testutil"

	"go.uber.org/mock/gomock"
)

func (s *ServiceSuite) TestExpressInterest() {
	ctx := context.Background()
	donor := id.NewUserID()
	d := s.seedDonation(donor, "School Desks")

	ngo := verifiedNGO("Bright Future", 23.75, 90.37)
	s.gate.EXPECT().RequireNGOCapability(gomock.Any(), ngo.ID).Return(ngo, nil).AnyTimes()

	s.Run("gate failure propagates", func() {
		unverified := id.NewUserID()
		s.gate.EXPECT().RequireNGOCapability(gomock.Any(), unverified).
			Return(nil, dErrors.New(dErrors.CodeForbidden, "account is not verified"))

		_, err := s.service.ExpressInterest(ctx, unverified, d.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("first interest lands and notifies the donor", func() {
		in, err := s.service.ExpressInterest(ctx, ngo.ID, d.ID)
		s.Require().NoError(err)
		s.Equal(InterestPending, in.Status)
		s.Equal(d.ID, in.DonationID)

		notes := s.unread(donor)
		s.Require().Len(notes, 1)
		s.Equal(notification.TypeRequest, notes[0].Type)
		s.Contains(notes[0].Body, "Bright Future")
		s.Contains(notes[0].Body, "School Desks")
	})

	s.Run("second interest from the same NGO conflicts", func() {
		_, err := s.service.ExpressInterest(ctx, ngo.ID, d.ID)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown donation is not found", func() {
		_, err := s.service.ExpressInterest(ctx, ngo.ID, id.NewDonationID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("claimed donation is no longer available", func() {
		claimed := s.seedDonation(donor, "Claimed Item")
		s.Require().NoError(s.store.ClaimIf(ctx, claimed.ID, id.NewUserID()))

		_, err := s.service.ExpressInterest(ctx, ngo.ID, claimed.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestAcceptInterest_Arbitration() {
	ctx := context.Background()
	donor := id.NewUserID()
	d := s.seedDonation(donor, "Rice Sacks")

	first := verifiedNGO("First Responder", 23.75, 90.37)
	second := verifiedNGO("Second Chance", 23.76, 90.38)
	for _, ngo := range []*profile.Profile{first, second} {
		s.gate.EXPECT().RequireNGOCapability(gomock.Any(), ngo.ID).Return(ngo, nil).AnyTimes()
	}

	winner, err := s.service.ExpressInterest(ctx, first.ID, d.ID)
	s.Require().NoError(err)
	loser, err := s.service.ExpressInterest(ctx, second.ID, d.ID)
	s.Require().NoError(err)

	s.Run("only the owner can accept", func() {
		err := s.service.AcceptInterest(ctx, id.NewUserID(), d.ID, winner.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("interest must belong to the donation", func() {
		foreign := s.seedDonation(donor, "Other Listing")
		err := s.service.AcceptInterest(ctx, donor, foreign.ID, winner.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("accept claims the donation and rejects siblings", func() {
		s.Require().NoError(s.service.AcceptInterest(ctx, donor, d.ID, winner.ID))

		got, err := s.store.FindByID(ctx, d.ID)
		s.Require().NoError(err)
		s.Equal(StatusPending, got.Status)
		s.Require().NotNil(got.NGOID)
		s.Equal(first.ID, *got.NGOID)

		accepted, err := s.store.FindInterest(ctx, winner.ID)
		s.Require().NoError(err)
		s.Equal(InterestAccepted, accepted.Status)

		rejected, err := s.store.FindInterest(ctx, loser.ID)
		s.Require().NoError(err)
		s.Equal(InterestRejected, rejected.Status)

		notes := s.unread(first.ID)
		s.Require().Len(notes, 1)
		s.Contains(notes[0].Body, "Rice Sacks")
	})

	s.Run("accepting again conflicts", func() {
		err := s.service.AcceptInterest(ctx, donor, d.ID, loser.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

// A notifier failure inside the transaction must fail the whole operation;
// the interest row and the notification commit or roll back together.
func (s *ServiceSuite) TestExpressInterest_NotifierFailure() {
	ctx := context.Background()
	donor := id.NewUserID()
	d := s.seedDonation(donor, "Medicine Box")

	ngo := verifiedNGO("Care Network", 23.75, 90.37)
	s.gate.EXPECT().RequireNGOCapability(gomock.Any(), ngo.ID).Return(ngo, nil)

	notifier := mocks.NewMockNotifier(s.ctrl)
	notifier.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox write failed"))

	svc := NewService(s.store, s.gate, notifier, testutil.PassthroughTx{}, nil)
	_, err := svc.ExpressInterest(ctx, ngo.ID, d.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

// The insert itself re-checks the donation state, so an interest racing an
// accept past the service's availability check still cannot land on a
// claimed donation.
func (s *ServiceSuite) TestCreateInterest_ClaimedDonationBackstop() {
	ctx := context.Background()
	donor := id.NewUserID()
	d := s.seedDonation(donor, "Raced Listing")
	s.Require().NoError(s.store.ClaimIf(ctx, d.ID, id.NewUserID()))

	err := s.store.CreateInterest(ctx, &Interest{
		ID:         id.NewInterestID(),
		DonationID: d.ID,
		NGOID:      id.NewUserID(),
		Status:     InterestPending,
		CreatedAt:  time.Now(),
	})
	s.True(errors.Is(err, sentinel.ErrConflict))
}
