package notification

import (
	"context"
	"time"

	id "hopecycle/pkg/domain"
)

// Publisher is the single entry point services use to emit notifications. It
// is append-only and uses the storage layer for persistence so tests can swap
// sinks easily.
type Publisher struct {
	store Store
}

func NewPublisher(store Store) *Publisher {
	return &Publisher{store: store}
}

// Emit assigns identity and timestamp, then appends. Callers running inside a
// transaction get the outbox row in the same commit.
func (p *Publisher) Emit(ctx context.Context, n *Notification) error {
	if n.ID.IsNil() {
		n.ID = id.NewNotificationID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	return p.store.Append(ctx, n)
}

// Fixed templates per transition type. Wording follows what donors and NGOs
// already see in the product.

// InterestReceived tells a donor an NGO wants their item.
func InterestReceived(donor id.UserID, ngoName, itemTitle string) *Notification {
	return &Notification{
		UserID: donor,
		Type:   TypeRequest,
		Title:  "NGO Interest!",
		Body:   ngoName + ` is interested in your item: "` + itemTitle + `".`,
		Link:   "donor-donations",
	}
}

// InterestAccepted tells an NGO the donor picked them.
func InterestAccepted(ngo id.UserID, itemTitle string) *Notification {
	return &Notification{
		UserID: ngo,
		Type:   TypeDonation,
		Title:  "Donation Request Accepted!",
		Body:   `Your request for "` + itemTitle + `" has been accepted! Start a chat to coordinate pickup.`,
		Link:   "ngo-dashboard",
	}
}

// PickupCompleted tells a donor their item was collected.
func PickupCompleted(donor id.UserID, itemTitle, ngoName string) *Notification {
	return &Notification{
		UserID: donor,
		Type:   TypeDonation,
		Title:  "Donation Completed!",
		Body:   `Your donation "` + itemTitle + `" has been successfully picked up by ` + ngoName + `. Thank you for your kindness!`,
		Link:   "donor-donations",
	}
}

// DonationReopened tells a displaced NGO the donor reversed the acceptance.
func DonationReopened(ngo id.UserID, itemTitle string) *Notification {
	return &Notification{
		UserID: ngo,
		Type:   TypeDonation,
		Title:  "Donation Reopened",
		Body:   `The donor has reopened "` + itemTitle + `" and your acceptance was withdrawn.`,
		Link:   "ngo-dashboard",
	}
}

// VerificationApproved prompts an approved NGO for the activation payment.
func VerificationApproved(ngo id.UserID) *Notification {
	return &Notification{
		UserID: ngo,
		Type:   TypeRequest,
		Title:  "Profile Approved!",
		Body:   "Your NGO verification is complete. Please proceed to make the activation payment to unlock all features.",
		Link:   "ngo-dashboard",
	}
}

// VerificationRejected tells an NGO their application was declined.
func VerificationRejected(ngo id.UserID) *Notification {
	return &Notification{
		UserID: ngo,
		Type:   TypeRequest,
		Title:  "Application Rejected",
		Body:   "Unfortunately, your NGO application was not approved at this time. Please contact support for more details.",
		Link:   "landing",
	}
}

// BroadcastAppeal tells a nearby donor an NGO needs items.
func BroadcastAppeal(donor id.UserID, ngoName, category string) *Notification {
	return &Notification{
		UserID: donor,
		Type:   TypeRequest,
		Title:  "Nearby NGO Appeal",
		Body:   ngoName + " is appealing for " + category + " items near you.",
		Link:   "donor-dashboard",
	}
}

// NewMessage tells a user they have an unread message.
func NewMessage(receiver id.UserID, senderName string) *Notification {
	return &Notification{
		UserID: receiver,
		Type:   TypeMessage,
		Title:  "New Message",
		Body:   senderName + " sent you a message.",
		Link:   "messages",
	}
}
