package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"hopecycle/internal/platform/middleware"
	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"
	"hopecycle/pkg/platform/sentinel"
)

// Service owns signup, login, and session lifecycle. It implements
// middleware.TokenValidator so the router can gate requests on it directly.
type Service struct {
	profiles   profile.Store
	sessions   SessionStore
	tokens     *TokenService
	sessionTTL time.Duration
}

func NewService(profiles profile.Store, sessions SessionStore, tokens *TokenService, sessionTTL time.Duration) *Service {
	return &Service{profiles: profiles, sessions: sessions, tokens: tokens, sessionTTL: sessionTTL}
}

// ClientInfo is what we record about the device behind a login.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// SignupParams carries a registration request.
type SignupParams struct {
	Email    string
	Password string
	FullName string
	Role     profile.Role
}

// AuthResult is a signed token plus the profile it belongs to.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Profile   *profile.Profile
}

func (s *Service) Signup(ctx context.Context, params SignupParams, client ClientInfo) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, dErrors.New(dErrors.CodeBadRequest, "a valid email is required")
	}
	if len(params.Password) < 8 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}
	if params.FullName == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "full name is required")
	}
	if !profile.ValidRole(params.Role) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "role must be DONOR or NGO")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	p := profile.NewProfile(id.NewUserID(), params.Role, email, string(hash), params.FullName)
	if err := s.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	return s.openSession(ctx, p, client)
}

func (s *Service) Login(ctx context.Context, email, password string, client ClientInfo) (*AuthResult, error) {
	p, err := s.profiles.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up account")
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	return s.openSession(ctx, p, client)
}

func (s *Service) openSession(ctx context.Context, p *profile.Profile, client ClientInfo) (*AuthResult, error) {
	now := time.Now()
	session := &Session{
		ID:         id.NewSessionID(),
		UserID:     p.ID,
		Role:       string(p.Role),
		Device:     ParseUserAgent(client.UserAgent),
		IPAddress:  client.IPAddress,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	token, err := s.tokens.Generate(p.ID, session.ID, session.Role, s.sessionTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign token")
	}
	return &AuthResult{Token: token, ExpiresAt: session.ExpiresAt, Profile: p}, nil
}

// ValidateToken checks the signature, then the session: a deleted session
// means the token was revoked, however long the JWT has left.
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*middleware.AuthClaims, error) {
	claims, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session revoked or expired")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.UserID != userID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session does not match token")
	}

	_ = s.sessions.Touch(ctx, sessionID, time.Now())

	return &middleware.AuthClaims{UserID: userID, SessionID: sessionID, Role: session.Role}, nil
}

// Logout revokes the current session only.
func (s *Service) Logout(ctx context.Context, sessionID id.SessionID) error {
	err := s.sessions.Delete(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session")
	}
	return nil
}

// LogoutAll revokes every session the user has, the current one included.
func (s *Service) LogoutAll(ctx context.Context, userID id.UserID) error {
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke sessions")
	}
	return nil
}

// RevokeSession lets a user sign out one of their other devices.
func (s *Service) RevokeSession(ctx context.Context, userID id.UserID, sessionID id.SessionID) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "session not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.UserID != userID {
		return dErrors.New(dErrors.CodeForbidden, "session belongs to another account")
	}
	return s.Logout(ctx, sessionID)
}

// Sessions lists the user's live devices, the calling session flagged.
func (s *Service) Sessions(ctx context.Context, userID id.UserID, current id.SessionID) ([]SessionSummary, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sessions")
	}
	out := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, SessionSummary{
			SessionID:  session.ID.String(),
			Device:     session.Device,
			IPAddress:  session.IPAddress,
			CreatedAt:  session.CreatedAt,
			LastSeenAt: session.LastSeenAt,
			IsCurrent:  session.ID == current,
		})
	}
	return out, nil
}
