package notification

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	id "hopecycle/pkg/domain"
)

// InMemoryStore mirrors the postgres store's semantics for tests and local
// runs, including the outbox.
type InMemoryStore struct {
	mu            sync.RWMutex
	notifications map[id.NotificationID]*Notification
	outbox        []*OutboxEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{notifications: make(map[id.NotificationID]*Notification)}
}

func (s *InMemoryStore) Append(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *n
	s.notifications[n.ID] = &stored

	payload, err := json.Marshal(wirePayload(n))
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, &OutboxEntry{
		ID:             uuid.New(),
		NotificationID: n.ID,
		UserID:         n.UserID,
		Payload:        payload,
		CreatedAt:      time.Now(),
	})
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, limit int) ([]*Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			copied := *n
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) UnreadCount(_ context.Context, userID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, userID id.UserID, ids []id.NotificationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, nid := range ids {
		if n, ok := s.notifications[nid]; ok && n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (s *InMemoryStore) MarkAllRead(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (s *InMemoryStore) NextOutbox(_ context.Context, limit int) ([]*OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*OutboxEntry
	for _, e := range s.outbox {
		if len(out) == limit {
			break
		}
		copied := *e
		out = append(out, &copied)
	}
	return out, nil
}

func (s *InMemoryStore) MarkDispatched(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dispatched := make(map[uuid.UUID]bool, len(ids))
	for _, eid := range ids {
		dispatched[eid] = true
	}
	kept := s.outbox[:0]
	for _, e := range s.outbox {
		if !dispatched[e.ID] {
			kept = append(kept, e)
		}
	}
	s.outbox = kept
	return nil
}
