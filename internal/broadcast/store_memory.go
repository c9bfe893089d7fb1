package broadcast

import (
	"context"
	"sort"
	"sync"
	"time"

	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/sentinel"
)

// InMemoryStore mirrors the postgres semantics for tests.
type InMemoryStore struct {
	mu         sync.RWMutex
	broadcasts map[id.BroadcastID]*Broadcast
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{broadcasts: make(map[id.BroadcastID]*Broadcast)}
}

func (s *InMemoryStore) Create(_ context.Context, b *Broadcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.broadcasts[b.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *b
	s.broadcasts[b.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, broadcastID id.BroadcastID) (*Broadcast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.broadcasts[broadcastID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (s *InMemoryStore) Update(_ context.Context, b *Broadcast) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.broadcasts[b.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *b
	cp.UpdatedAt = time.Now()
	s.broadcasts[b.ID] = &cp
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, broadcastID id.BroadcastID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.broadcasts[broadcastID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.broadcasts, broadcastID)
	return nil
}

func (s *InMemoryStore) ListByNGO(_ context.Context, ngoID id.UserID) ([]*Broadcast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Broadcast
	for _, b := range s.broadcasts {
		if b.NGOID == ngoID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) ListActive(_ context.Context) ([]*Broadcast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Broadcast
	for _, b := range s.broadcasts {
		if b.Status == StatusActive {
			cp := *b
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(bs []*Broadcast) {
	sort.Slice(bs, func(i, j int) bool { return bs[i].CreatedAt.After(bs[j].CreatedAt) })
}
