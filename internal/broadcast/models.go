package broadcast

import (
	"time"

	id "hopecycle/pkg/domain"
)

// Priority signals urgency on the donor feed.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func ValidPriority(p Priority) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Status marks whether the appeal still needs donations.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusFulfilled Status = "FULFILLED"
)

// Broadcast is an NGO's appeal for a category of items, fanned out to donors
// near the NGO.
type Broadcast struct {
	ID          id.BroadcastID
	NGOID       id.UserID
	Title       string
	Description string
	Category    string
	Priority    Priority
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
