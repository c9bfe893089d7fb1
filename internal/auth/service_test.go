package auth

import (
	"context"
	"testing"
	"time"

	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"

	"github.com/stretchr/testify/suite"
)

const testUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type ServiceSuite struct {
	suite.Suite

	profiles *profile.InMemoryStore
	sessions *InMemorySessionStore
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.profiles = profile.NewInMemoryStore()
	s.sessions = NewInMemorySessionStore()
	tokens := NewTokenService("test-signing-key", "hopecycle-test")
	s.service = NewService(s.profiles, s.sessions, tokens, time.Hour)
}

func (s *ServiceSuite) signup(email string, role profile.Role) *AuthResult {
	res, err := s.service.Signup(context.Background(), SignupParams{
		Email:    email,
		Password: "correct horse battery",
		FullName: "Test Person",
		Role:     role,
	}, ClientInfo{UserAgent: testUserAgent, IPAddress: "203.0.113.7"})
	s.Require().NoError(err)
	return res
}

func (s *ServiceSuite) TestSignup() {
	ctx := context.Background()

	s.Run("validation failures", func() {
		cases := []struct {
			name   string
			params SignupParams
		}{
			{"missing email", SignupParams{Password: "longenough", FullName: "A", Role: profile.RoleDonor}},
			{"email without at-sign", SignupParams{Email: "not-an-email", Password: "longenough", FullName: "A", Role: profile.RoleDonor}},
			{"short password", SignupParams{Email: "a@b.cd", Password: "short", FullName: "A", Role: profile.RoleDonor}},
			{"missing name", SignupParams{Email: "a@b.cd", Password: "longenough", Role: profile.RoleDonor}},
			{"admin role refused", SignupParams{Email: "a@b.cd", Password: "longenough", FullName: "A", Role: profile.RoleAdmin}},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				_, err := s.service.Signup(ctx, tc.params, ClientInfo{})
				s.Require().Error(err)
				s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
			})
		}
	})

	s.Run("successful signup opens a session", func() {
		res := s.signup("donor@example.com", profile.RoleDonor)
		s.NotEmpty(res.Token)
		s.Equal(profile.RoleDonor, res.Profile.Role)
		s.Equal(profile.VerificationUnverified, res.Profile.VerificationStatus)

		claims, err := s.service.ValidateToken(ctx, res.Token)
		s.Require().NoError(err)
		s.Equal(res.Profile.ID, claims.UserID)
		s.Equal(string(profile.RoleDonor), claims.Role)
	})

	s.Run("email is normalized and unique", func() {
		s.signup("ngo@example.com", profile.RoleNGO)
		_, err := s.service.Signup(ctx, SignupParams{
			Email:    "  NGO@Example.COM ",
			Password: "longenough",
			FullName: "Dup",
			Role:     profile.RoleNGO,
		}, ClientInfo{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *ServiceSuite) TestLogin() {
	ctx := context.Background()
	s.signup("login@example.com", profile.RoleDonor)

	s.Run("wrong password and unknown email look identical", func() {
		_, errWrong := s.service.Login(ctx, "login@example.com", "wrong password", ClientInfo{})
		_, errUnknown := s.service.Login(ctx, "nobody@example.com", "wrong password", ClientInfo{})
		s.True(dErrors.HasCode(errWrong, dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(errUnknown, dErrors.CodeUnauthorized))
		s.Equal(errWrong.Error(), errUnknown.Error())
	})

	s.Run("correct credentials issue a fresh token", func() {
		res, err := s.service.Login(ctx, "Login@Example.com", "correct horse battery", ClientInfo{UserAgent: testUserAgent})
		s.Require().NoError(err)
		s.NotEmpty(res.Token)

		claims, err := s.service.ValidateToken(ctx, res.Token)
		s.Require().NoError(err)
		s.Equal(res.Profile.ID, claims.UserID)
	})
}

func (s *ServiceSuite) TestTokenRevocation() {
	ctx := context.Background()
	res := s.signup("revoke@example.com", profile.RoleDonor)

	claims, err := s.service.ValidateToken(ctx, res.Token)
	s.Require().NoError(err)

	s.Run("logout revokes the token even though the JWT is still valid", func() {
		s.Require().NoError(s.service.Logout(ctx, claims.SessionID))
		_, err := s.service.ValidateToken(ctx, res.Token)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("logout is idempotent", func() {
		s.NoError(s.service.Logout(ctx, claims.SessionID))
	})

	s.Run("garbage token is unauthorized", func() {
		_, err := s.service.ValidateToken(ctx, "not-a-jwt")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestSessionManagement() {
	ctx := context.Background()
	res := s.signup("sessions@example.com", profile.RoleDonor)
	other := s.signup("other@example.com", profile.RoleDonor)

	second, err := s.service.Login(ctx, "sessions@example.com", "correct horse battery", ClientInfo{UserAgent: testUserAgent})
	s.Require().NoError(err)

	claims, err := s.service.ValidateToken(ctx, res.Token)
	s.Require().NoError(err)
	secondClaims, err := s.service.ValidateToken(ctx, second.Token)
	s.Require().NoError(err)
	otherClaims, err := s.service.ValidateToken(ctx, other.Token)
	s.Require().NoError(err)

	s.Run("sessions list marks the current one", func() {
		list, err := s.service.Sessions(ctx, claims.UserID, claims.SessionID)
		s.Require().NoError(err)
		s.Require().Len(list, 2)

		var current int
		for _, sess := range list {
			s.Contains(sess.Device, "Chrome")
			if sess.IsCurrent {
				current++
				s.Equal(claims.SessionID.String(), sess.SessionID)
			}
		}
		s.Equal(1, current)
	})

	s.Run("revoking another user's session is forbidden", func() {
		err := s.service.RevokeSession(ctx, otherClaims.UserID, claims.SessionID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("revoking an unknown session is not found", func() {
		err := s.service.RevokeSession(ctx, claims.UserID, id.NewSessionID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("revoking one session keeps the other alive", func() {
		s.Require().NoError(s.service.RevokeSession(ctx, claims.UserID, secondClaims.SessionID))
		_, err := s.service.ValidateToken(ctx, second.Token)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		_, err = s.service.ValidateToken(ctx, res.Token)
		s.NoError(err)
	})

	s.Run("logout-all clears every session for the user", func() {
		s.Require().NoError(s.service.LogoutAll(ctx, claims.UserID))
		_, err := s.service.ValidateToken(ctx, res.Token)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		_, err = s.service.ValidateToken(ctx, other.Token)
		s.NoError(err)
	})
}
