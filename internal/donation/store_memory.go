package donation

import (
	"context"
	"sort"
	"sync"
	"time"

	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/sentinel"
)

// InMemoryStore mirrors the postgres semantics, guarded transitions included,
// so service tests exercise the same conflict paths.
type InMemoryStore struct {
	mu        sync.RWMutex
	donations map[id.DonationID]*Donation
	interests map[id.InterestID]*Interest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		donations: make(map[id.DonationID]*Donation),
		interests: make(map[id.InterestID]*Interest),
	}
}

func (s *InMemoryStore) Create(_ context.Context, d *Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.donations[d.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *d
	s.donations[d.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, donationID id.DonationID) (*Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donations[donationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (s *InMemoryStore) Update(_ context.Context, d *Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.donations[d.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *d
	cp.UpdatedAt = time.Now()
	s.donations[d.ID] = &cp
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, donationID id.DonationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.donations[donationID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.donations, donationID)
	for iid, in := range s.interests {
		if in.DonationID == donationID {
			delete(s.interests, iid)
		}
	}
	return nil
}

func (s *InMemoryStore) ListByDonor(_ context.Context, donorID id.UserID) ([]*Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Donation
	for _, d := range s.donations {
		if d.DonorID == donorID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) ListMarketplace(_ context.Context) ([]*Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Donation
	for _, d := range s.donations {
		if d.Status == StatusActive && d.NGOID == nil {
			cp := *d
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) CountByStatus(_ context.Context) (map[Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Status]int)
	for _, d := range s.donations {
		out[d.Status]++
	}
	return out, nil
}

func sortNewestFirst(ds []*Donation) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].CreatedAt.After(ds[j].CreatedAt) })
}

func (s *InMemoryStore) ClaimIf(_ context.Context, donationID id.DonationID, ngoID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[donationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if d.Status != StatusActive || d.NGOID != nil {
		return sentinel.ErrConflict
	}
	ngo := ngoID
	d.Status = StatusPending
	d.NGOID = &ngo
	d.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) CompleteIf(_ context.Context, donationID id.DonationID, ngoID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[donationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if d.Status != StatusPending || d.NGOID == nil || *d.NGOID != ngoID {
		return sentinel.ErrConflict
	}
	d.Status = StatusCompleted
	d.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) ReopenIf(_ context.Context, donationID id.DonationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[donationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if d.Status != StatusPending {
		return sentinel.ErrConflict
	}
	d.Status = StatusActive
	d.NGOID = nil
	d.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) ReleaseByNGO(_ context.Context, ngoID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range s.interests {
		if in.NGOID == ngoID && (in.Status == InterestPending || in.Status == InterestAccepted) {
			in.Status = InterestRejected
		}
	}
	now := time.Now()
	for _, d := range s.donations {
		if d.Status == StatusPending && d.NGOID != nil && *d.NGOID == ngoID {
			d.Status = StatusActive
			d.NGOID = nil
			d.UpdatedAt = now
		}
	}
	return nil
}

func (s *InMemoryStore) CreateInterest(_ context.Context, in *Interest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[in.DonationID]
	if !ok || d.Status != StatusActive || d.NGOID != nil {
		return sentinel.ErrConflict
	}
	for _, existing := range s.interests {
		if existing.DonationID == in.DonationID &&
			existing.NGOID == in.NGOID &&
			existing.Status != InterestRejected {
			return sentinel.ErrConflict
		}
	}
	cp := *in
	s.interests[in.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindInterest(_ context.Context, interestID id.InterestID) (*Interest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.interests[interestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *in
	return &cp, nil
}

func (s *InMemoryStore) ListInterestsByDonation(_ context.Context, donationID id.DonationID) ([]*Interest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Interest
	for _, in := range s.interests {
		if in.DonationID == donationID {
			cp := *in
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) ListInterestsByNGO(_ context.Context, ngoID id.UserID) ([]*Interest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Interest
	for _, in := range s.interests {
		if in.NGOID == ngoID {
			cp := *in
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) AcceptInterestIf(_ context.Context, interestID id.InterestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.interests[interestID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if in.Status != InterestPending {
		return sentinel.ErrConflict
	}
	in.Status = InterestAccepted
	return nil
}

func (s *InMemoryStore) RejectOpenInterests(_ context.Context, donationID id.DonationID, except id.InterestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range s.interests {
		if in.DonationID == donationID && in.ID != except && in.Status == InterestPending {
			in.Status = InterestRejected
		}
	}
	return nil
}

func (s *InMemoryStore) SetAcceptedInterest(_ context.Context, donationID id.DonationID, next InterestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, in := range s.interests {
		if in.DonationID == donationID && in.Status == InterestAccepted {
			in.Status = next
			return nil
		}
	}
	return sentinel.ErrNotFound
}
