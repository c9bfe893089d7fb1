//go:build integration

package profile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/sentinel"
	"hopecycle/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *profile.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = profile.NewPostgresStore(s.postgres.DB.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background(), "profiles"))
}

func (s *PostgresStoreSuite) newNGO(email string) *profile.Profile {
	return profile.NewProfile(id.NewUserID(), profile.RoleNGO, email, "hash", "Test NGO")
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	p := s.newNGO("find@example.com")
	lat, lon := 23.7465, 90.3760
	p.Latitude, p.Longitude = &lat, &lon
	p.OrganizationName = "Find Org"
	s.Require().NoError(s.store.Create(ctx, p))

	byID, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Find Org", byID.OrganizationName)
	s.Require().NotNil(byID.Latitude)
	s.InDelta(23.7465, *byID.Latitude, 1e-9)

	byEmail, err := s.store.FindByEmail(ctx, "find@example.com")
	s.Require().NoError(err)
	s.Equal(p.ID, byEmail.ID)

	_, err = s.store.FindByID(ctx, id.NewUserID())
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestDuplicateEmailConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, s.newNGO("dup@example.com")))

	err := s.store.Create(ctx, s.newNGO("dup@example.com"))
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *PostgresStoreSuite) TestUpdateVerificationIf() {
	ctx := context.Background()
	p := s.newNGO("verify@example.com")
	p.VerificationStatus = profile.VerificationPending
	s.Require().NoError(s.store.Create(ctx, p))

	s.Run("guard rejects a mismatched expected state", func() {
		err := s.store.UpdateVerificationIf(ctx, p.ID, profile.VerificationApproved, profile.VerificationVerified)
		s.True(errors.Is(err, sentinel.ErrConflict))
	})

	s.Run("guard passes from the expected state", func() {
		s.Require().NoError(s.store.UpdateVerificationIf(ctx, p.ID, profile.VerificationPending, profile.VerificationApproved))
		got, err := s.store.FindByID(ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(profile.VerificationApproved, got.VerificationStatus)
	})

	s.Run("unknown profile is not found", func() {
		err := s.store.UpdateVerificationIf(ctx, id.NewUserID(), profile.VerificationPending, profile.VerificationApproved)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})
}

func (s *PostgresStoreSuite) TestRoleQueries() {
	ctx := context.Background()

	donor := profile.NewProfile(id.NewUserID(), profile.RoleDonor, "donor@example.com", "hash", "Donor")
	s.Require().NoError(s.store.Create(ctx, donor))

	paid := s.newNGO("paid@example.com")
	paid.VerificationStatus = profile.VerificationVerified
	paid.PaymentStatus = profile.PaymentPaid
	s.Require().NoError(s.store.Create(ctx, paid))
	s.Require().NoError(s.store.Create(ctx, s.newNGO("unpaid@example.com")))

	ngos, err := s.store.ListByRole(ctx, profile.RoleNGO)
	s.Require().NoError(err)
	s.Len(ngos, 2)

	count, err := s.store.CountByRoleAndPayment(ctx, profile.RoleNGO, profile.PaymentPaid)
	s.Require().NoError(err)
	s.Equal(1, count)

	pending, err := s.store.ListByVerificationStatus(ctx, profile.VerificationPending)
	s.Require().NoError(err)
	s.Empty(pending)
}
