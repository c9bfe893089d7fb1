package profile

import (
	"context"
	"strings"
	"sync"
	"time"

	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/sentinel"
)

// InMemoryStore backs tests and local runs. Semantics mirror the postgres
// store, including the conditional verification update.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*Profile
	byEmail  map[string]id.UserID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles: make(map[id.UserID]*Profile),
		byEmail:  make(map[string]id.UserID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(p.Email)
	if _, exists := s.byEmail[email]; exists {
		return sentinel.ErrConflict
	}
	stored := *p
	s.profiles[p.ID] = &stored
	s.byEmail[email] = p.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.profiles[userID]
	return &copied, nil
}

func (s *InMemoryStore) Update(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.profiles[p.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(existing.Email))
	stored := *p
	stored.UpdatedAt = time.Now()
	s.profiles[p.ID] = &stored
	s.byEmail[strings.ToLower(p.Email)] = p.ID
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byEmail, strings.ToLower(p.Email))
	delete(s.profiles, userID)
	return nil
}

func (s *InMemoryStore) ListByRole(_ context.Context, role Role) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Profile
	for _, p := range s.profiles {
		if p.Role == role {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListByVerificationStatus(_ context.Context, status VerificationStatus) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Profile
	for _, p := range s.profiles {
		if p.Role == RoleNGO && p.VerificationStatus == status {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpdateVerificationIf(_ context.Context, userID id.UserID, expect, next VerificationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if p.VerificationStatus != expect {
		return sentinel.ErrConflict
	}
	p.VerificationStatus = next
	p.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) CountByRoleAndPayment(_ context.Context, role Role, payment PaymentStatus) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, p := range s.profiles {
		if p.Role == role && p.PaymentStatus == payment {
			count++
		}
	}
	return count, nil
}
