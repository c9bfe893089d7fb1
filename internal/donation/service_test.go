package donation

import (
	"context"
	"testing"

	"hopecycle/internal/donation/mocks"
	"hopecycle/internal/notification"
	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"
	"hopecycle/pkg/testutil"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ServiceSuite struct {
	suite.Suite

	ctrl    *gomock.Controller
	store   *InMemoryStore
	gate    *mocks.MockProfileGate
	notes   *notification.InMemoryStore
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = NewInMemoryStore()
	s.gate = mocks.NewMockProfileGate(s.ctrl)
	s.notes = notification.NewInMemoryStore()
	s.service = NewService(s.store, s.gate, notification.NewPublisher(s.notes), testutil.PassthroughTx{}, nil)
}

func f64(v float64) *float64 { return &v }

// verifiedNGO builds a profile that passes the NGO capability gate.
func verifiedNGO(name string, lat, lon float64) *profile.Profile {
	return &profile.Profile{
		ID:                 id.NewUserID(),
		Role:               profile.RoleNGO,
		OrganizationName:   name,
		VerificationStatus: profile.VerificationVerified,
		PaymentStatus:      profile.PaymentPaid,
		Latitude:           f64(lat),
		Longitude:          f64(lon),
	}
}

func (s *ServiceSuite) seedDonation(donor id.UserID, title string) *Donation {
	d, err := s.service.Create(context.Background(), donor, CreateParams{
		Title:     title,
		Category:  "Clothing",
		Condition: "Good",
		Location:  "Dhanmondi, Dhaka",
		Latitude:  f64(23.7465),
		Longitude: f64(90.3760),
	})
	s.Require().NoError(err)
	return d
}

func (s *ServiceSuite) unread(userID id.UserID) []*notification.Notification {
	out, err := s.notes.ListByUser(context.Background(), userID, 50)
	s.Require().NoError(err)
	return out
}

func (s *ServiceSuite) TestCreate_Validation() {
	ctx := context.Background()
	donor := id.NewUserID()

	s.Run("missing title rejected", func() {
		_, err := s.service.Create(ctx, donor, CreateParams{Category: "Food"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("missing category rejected", func() {
		_, err := s.service.Create(ctx, donor, CreateParams{Title: "Rice"})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("latitude without longitude rejected", func() {
		_, err := s.service.Create(ctx, donor, CreateParams{
			Title: "Rice", Category: "Food", Latitude: f64(23.7),
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("valid listing starts active and unassigned", func() {
		d := s.seedDonation(donor, "Winter Jackets")
		s.Equal(StatusActive, d.Status)
		s.Nil(d.NGOID)

		got, err := s.service.Get(ctx, d.ID)
		s.Require().NoError(err)
		s.Equal("Winter Jackets", got.Title)
	})
}

func (s *ServiceSuite) TestUpdateDelete_Ownership() {
	ctx := context.Background()
	donor := id.NewUserID()
	other := id.NewUserID()
	d := s.seedDonation(donor, "Bookshelf")

	params := CreateParams{Title: "Bookshelf (oak)", Category: "Furniture"}

	s.Run("another donor cannot edit", func() {
		_, err := s.service.Update(ctx, other, d.ID, params)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("owner edits active listing", func() {
		got, err := s.service.Update(ctx, donor, d.ID, params)
		s.Require().NoError(err)
		s.Equal("Bookshelf (oak)", got.Title)
	})

	s.Run("claimed listing cannot be edited or deleted", func() {
		ngo := verifiedNGO("Shelter Trust", 23.75, 90.37)
		s.Require().NoError(s.store.ClaimIf(ctx, d.ID, ngo.ID))

		_, err := s.service.Update(ctx, donor, d.ID, params)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		err = s.service.Delete(ctx, donor, d.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("unknown donation is not found", func() {
		_, err := s.service.Update(ctx, donor, id.NewDonationID(), params)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestListByDonor() {
	ctx := context.Background()
	donor := id.NewUserID()
	s.seedDonation(donor, "Chairs")
	s.seedDonation(donor, "Blankets")
	s.seedDonation(id.NewUserID(), "Someone else's")

	mine, err := s.service.ListByDonor(ctx, donor)
	s.Require().NoError(err)
	s.Len(mine, 2)
}
