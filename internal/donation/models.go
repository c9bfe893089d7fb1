package donation

import (
	"time"

	"hopecycle/internal/geo"
	id "hopecycle/pkg/domain"
)

// Status is the donation lifecycle state. ACTIVE listings sit on the
// marketplace, PENDING ones are claimed by an NGO awaiting pickup, COMPLETED
// is terminal.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// InterestStatus tracks one NGO's claim on a donation.
type InterestStatus string

const (
	InterestPending   InterestStatus = "PENDING"
	InterestAccepted  InterestStatus = "ACCEPTED"
	InterestRejected  InterestStatus = "REJECTED"
	InterestCompleted InterestStatus = "COMPLETED"
)

// Donation is a donor's item listing. NGOID is set exactly while the
// donation is not ACTIVE.
type Donation struct {
	ID          id.DonationID
	DonorID     id.UserID
	NGOID       *id.UserID
	BroadcastID *id.BroadcastID
	Title       string
	Description string
	Category    string
	Condition   string
	Status      Status
	Location    string
	Latitude    *float64
	Longitude   *float64
	ImageURLs   []string
	PickupTime  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Coordinates implements geo.Locatable.
func (d *Donation) Coordinates() (geo.Point, bool) {
	if d.Latitude == nil || d.Longitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *d.Latitude, Lon: *d.Longitude}, true
}

// Interest is an NGO's expression of interest in a donation. The donor picks
// one; the rest are rejected in the same transaction.
type Interest struct {
	ID         id.InterestID
	DonationID id.DonationID
	NGOID      id.UserID
	Status     InterestStatus
	CreatedAt  time.Time
}
