package domain

import "time"

// PaymentProvider identifies the processor handling a payment.
type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderMpesa  PaymentProvider = "mpesa"
)

// PaymentStatus is the state of a shipment payment.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentPaid || s == PaymentFailed
}

// CanTransitionTo reports whether the payment may move from s to next.
// Only pending moves, and only to paid or failed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s != PaymentPending && s != "" {
		return false
	}
	return next == PaymentPaid || next == PaymentFailed
}

// Payment is the payment sub-record embedded in a shipment.
// Amount is expressed in minor currency units.
type Payment struct {
	Provider  PaymentProvider `json:"provider" bson:"provider"`
	Status    PaymentStatus   `json:"status" bson:"status"`
	Reference string          `json:"reference" bson:"reference"`
	Amount    int64           `json:"amount" bson:"amount"`
	Currency  string          `json:"currency" bson:"currency"`
	UpdatedAt time.Time       `json:"updatedAt" bson:"updated_at"`
}

// WebhookEvent is the idempotency ledger entry for a processed provider event.
type WebhookEvent struct {
	ID         string          `json:"id" bson:"_id"`
	Provider   PaymentProvider `json:"provider" bson:"provider"`
	EventID    string          `json:"eventId" bson:"event_id"`
	Type       string          `json:"type" bson:"type"`
	ShipmentID string          `json:"shipmentId,omitempty" bson:"shipment_id,omitempty"`
	ReceivedAt time.Time       `json:"receivedAt" bson:"received_at"`
}

// WebhookEventID builds the ledger key for a provider event.
func WebhookEventID(provider PaymentProvider, eventID string) string {
	return string(provider) + ":" + eventID
}
