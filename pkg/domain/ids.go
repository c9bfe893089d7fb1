package domain

import (
	"github.com/google/uuid"

	dErrors "hopecycle/pkg/domain-errors"
)

// Typed IDs keep entity references from crossing wires. A DonationID can never
// be passed where an InterestID is expected; the compiler enforces it.
type (
	UserID         uuid.UUID
	SessionID      uuid.UUID
	DonationID     uuid.UUID
	InterestID     uuid.UUID
	BroadcastID    uuid.UUID
	MessageID      uuid.UUID
	NotificationID uuid.UUID
)

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id SessionID) String() string      { return uuid.UUID(id).String() }
func (id DonationID) String() string     { return uuid.UUID(id).String() }
func (id InterestID) String() string     { return uuid.UUID(id).String() }
func (id BroadcastID) String() string    { return uuid.UUID(id).String() }
func (id MessageID) String() string      { return uuid.UUID(id).String() }
func (id NotificationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id DonationID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id InterestID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id BroadcastID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id MessageID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id NotificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewUserID and friends mint fresh identifiers.
func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewSessionID() SessionID           { return SessionID(uuid.New()) }
func NewDonationID() DonationID         { return DonationID(uuid.New()) }
func NewInterestID() InterestID         { return InterestID(uuid.New()) }
func NewBroadcastID() BroadcastID       { return BroadcastID(uuid.New()) }
func NewMessageID() MessageID           { return MessageID(uuid.New()) }
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// parseUUID enforces the invariant that IDs are valid, non-nil UUIDs.
// Parsing happens at trust boundaries (HTTP path params, JWT claims); inside
// the domain an ID is assumed well-formed.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user")
	return UserID(parsed), err
}

func ParseSessionID(raw string) (SessionID, error) {
	parsed, err := parseUUID(raw, "session")
	return SessionID(parsed), err
}

func ParseDonationID(raw string) (DonationID, error) {
	parsed, err := parseUUID(raw, "donation")
	return DonationID(parsed), err
}

func ParseInterestID(raw string) (InterestID, error) {
	parsed, err := parseUUID(raw, "interest")
	return InterestID(parsed), err
}

func ParseBroadcastID(raw string) (BroadcastID, error) {
	parsed, err := parseUUID(raw, "broadcast")
	return BroadcastID(parsed), err
}

func ParseMessageID(raw string) (MessageID, error) {
	parsed, err := parseUUID(raw, "message")
	return MessageID(parsed), err
}

func ParseNotificationID(raw string) (NotificationID, error) {
	parsed, err := parseUUID(raw, "notification")
	return NotificationID(parsed), err
}
