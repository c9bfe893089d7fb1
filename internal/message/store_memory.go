package message

import (
	"context"
	"sort"
	"sync"

	id "hopecycle/pkg/domain"
	"hopecycle/pkg/platform/sentinel"
)

// InMemoryStore mirrors the postgres semantics for tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	messages map[id.MessageID]*Message
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{messages: make(map[id.MessageID]*Message)}
}

func (s *InMemoryStore) Create(_ context.Context, m *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.messages[m.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *m
	s.messages[m.ID] = &cp
	return nil
}

func (s *InMemoryStore) ListConversation(_ context.Context, a, b id.UserID) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Message
	for _, m := range s.messages {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) MarkRead(_ context.Context, receiverID id.UserID, ids []id.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, mid := range ids {
		if m, ok := s.messages[mid]; ok && m.ReceiverID == receiverID {
			m.IsRead = true
		}
	}
	return nil
}

func (s *InMemoryStore) ListPartners(_ context.Context, userID id.UserID) ([]*Partner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	partners := make(map[id.UserID]*Partner)
	for _, m := range s.messages {
		var other id.UserID
		switch userID {
		case m.SenderID:
			other = m.ReceiverID
		case m.ReceiverID:
			other = m.SenderID
		default:
			continue
		}
		p, ok := partners[other]
		if !ok {
			p = &Partner{UserID: other}
			partners[other] = p
		}
		if m.CreatedAt.After(p.LastAt) {
			p.LastAt = m.CreatedAt
			p.LastMessage = m.Content
		}
		if m.ReceiverID == userID && !m.IsRead {
			p.UnreadCount++
		}
	}
	out := make([]*Partner, 0, len(partners))
	for _, p := range partners {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastAt.After(out[j].LastAt) })
	return out, nil
}
