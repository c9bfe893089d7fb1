package message

import (
	"context"
	"time"

	"hopecycle/internal/notification"
	"hopecycle/internal/profile"
	id "hopecycle/pkg/domain"
	dErrors "hopecycle/pkg/domain-errors"
)

// ProfileGate is the slice of the profile service the message module needs.
type ProfileGate interface {
	Get(ctx context.Context, userID id.UserID) (*profile.Profile, error)
}

// Notifier appends a notification in the ambient transaction.
type Notifier interface {
	Emit(ctx context.Context, n *notification.Notification) error
}

// TxRunner provides the transactional boundary for send-plus-notify.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service owns direct messaging between donors and NGOs.
type Service struct {
	store    Store
	profiles ProfileGate
	notifier Notifier
	tx       TxRunner
}

func NewService(store Store, profiles ProfileGate, notifier Notifier, tx TxRunner) *Service {
	return &Service{store: store, profiles: profiles, notifier: notifier, tx: tx}
}

// Send delivers a message and notifies the receiver in one transaction.
func (s *Service) Send(ctx context.Context, senderID, receiverID id.UserID, content string) (*Message, error) {
	if content == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "message content is required")
	}
	if senderID == receiverID {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot message yourself")
	}
	sender, err := s.profiles.Get(ctx, senderID)
	if err != nil {
		return nil, err
	}
	// Receiver must exist; a vanished account is a 404, not an orphan row.
	if _, err := s.profiles.Get(ctx, receiverID); err != nil {
		return nil, err
	}

	m := &Message{
		ID:         id.NewMessageID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, m); err != nil {
			return err
		}
		return s.notifier.Emit(ctx, notification.NewMessage(receiverID, sender.DisplayName()))
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to send message")
	}
	return m, nil
}

// Conversation returns the full thread between the caller and the other user.
func (s *Service) Conversation(ctx context.Context, userID, otherID id.UserID) ([]*Message, error) {
	out, err := s.store.ListConversation(ctx, userID, otherID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load conversation")
	}
	return out, nil
}

// MarkRead flags received messages read.
func (s *Service) MarkRead(ctx context.Context, receiverID id.UserID, ids []id.MessageID) error {
	if err := s.store.MarkRead(ctx, receiverID, ids); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark messages read")
	}
	return nil
}

// PartnerView is a counterparty enriched with the display name.
type PartnerView struct {
	Partner
	Name string
}

// Partners is the inbox list: everyone the user has exchanged messages with.
func (s *Service) Partners(ctx context.Context, userID id.UserID) ([]PartnerView, error) {
	partners, err := s.store.ListPartners(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list conversations")
	}
	out := make([]PartnerView, 0, len(partners))
	for _, p := range partners {
		view := PartnerView{Partner: *p}
		if counterparty, err := s.profiles.Get(ctx, p.UserID); err == nil {
			view.Name = counterparty.DisplayName()
		}
		out = append(out, view)
	}
	return out, nil
}
