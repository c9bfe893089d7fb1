package profile

import (
	"time"

	"hopecycle/internal/geo"
	id "hopecycle/pkg/domain"
)

// Role partitions the platform's three account kinds.
type Role string

const (
	RoleDonor Role = "DONOR"
	RoleNGO   Role = "NGO"
	RoleAdmin Role = "ADMIN"
)

// ValidRole reports whether a raw role string is one we accept at signup.
// ADMIN accounts are provisioned out of band, never self-registered.
func ValidRole(r Role) bool { return r == RoleDonor || r == RoleNGO }

// VerificationStatus tracks an NGO through the admin review pipeline.
// Donors and admins stay UNVERIFIED; the field is meaningless for them.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "UNVERIFIED"
	VerificationPending    VerificationStatus = "PENDING"
	VerificationApproved   VerificationStatus = "APPROVED"
	VerificationRejected   VerificationStatus = "REJECTED"
	VerificationVerified   VerificationStatus = "VERIFIED"
)

// PaymentStatus tracks the one-time activation fee.
type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "UNPAID"
	PaymentPaid   PaymentStatus = "PAID"
)

// Profile is a donor, NGO, or admin account. The ID doubles as the auth
// subject.
type Profile struct {
	ID                 id.UserID
	Role               Role
	Email              string
	PasswordHash       string
	FullName           string
	OrganizationName   string
	RepresentativeName string
	PhoneNumber        string
	CertificateNumber  string
	CertificateURL     string
	AvatarURL          string
	Location           string
	Latitude           *float64
	Longitude          *float64
	VerificationStatus VerificationStatus
	PaymentStatus      PaymentStatus
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Coordinates implements geo.Locatable.
func (p *Profile) Coordinates() (geo.Point, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *p.Latitude, Lon: *p.Longitude}, true
}

// DisplayName prefers the organization name for NGOs.
func (p *Profile) DisplayName() string {
	if p.OrganizationName != "" {
		return p.OrganizationName
	}
	return p.FullName
}

// CanAccessNGOFeatures is the capability gate: inventory, requests, messaging
// and analytics open only after verification and payment. Enforced in
// services, not trusted to the client.
func (p *Profile) CanAccessNGOFeatures() bool {
	return p.Role == RoleNGO &&
		p.VerificationStatus == VerificationVerified &&
		p.PaymentStatus == PaymentPaid
}
