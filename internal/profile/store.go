package profile

import (
	"context"

	id "hopecycle/pkg/domain"
)

// Store persists profiles. Implementations return sentinel.ErrNotFound for
// missing rows and sentinel.ErrConflict for duplicate emails or failed
// conditional updates.
type Store interface {
	Create(ctx context.Context, p *Profile) error
	FindByID(ctx context.Context, userID id.UserID) (*Profile, error)
	FindByEmail(ctx context.Context, email string) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, userID id.UserID) error
	ListByRole(ctx context.Context, role Role) ([]*Profile, error)
	ListByVerificationStatus(ctx context.Context, status VerificationStatus) ([]*Profile, error)
	// UpdateVerificationIf transitions verification_status only when the
	// current value matches expect, so two admins reviewing the same NGO
	// cannot both apply.
	UpdateVerificationIf(ctx context.Context, userID id.UserID, expect, next VerificationStatus) error
	CountByRoleAndPayment(ctx context.Context, role Role, payment PaymentStatus) (int, error)
}
