package ports

import (
	"context"
	"io"
	"time"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

// ProviderEvent is a verified notification from a payment provider.
// Status is empty for events that do not move the payment state.
type ProviderEvent struct {
	Provider   domain.PaymentProvider
	ID         string
	Type       string
	ShipmentID string
	Reference  string
	Status     domain.PaymentStatus
}

type CheckoutInput struct {
	ShipmentID string
	Amount     int64
	Currency   string
	SuccessURL string
	CancelURL  string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// CardGateway talks to the card processor (Stripe).
type CardGateway interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (*CheckoutSession, error)
	// ParseWebhook verifies the signature header and decodes payload. It
	// fails with domain.ErrInvalidSignature when verification fails.
	ParseWebhook(payload []byte, signature string) (*ProviderEvent, error)
}

type STKPushInput struct {
	ShipmentID string
	Phone      string
	Amount     int64
}

type STKPushResult struct {
	CheckoutRequestID string
	CustomerMessage   string
}

// MobileMoneyGateway talks to the mobile money processor (M-Pesa).
type MobileMoneyGateway interface {
	STKPush(ctx context.Context, in STKPushInput) (*STKPushResult, error)
	// ParseCallback authenticates the callback with token and decodes payload.
	ParseCallback(payload []byte, token string) (*ProviderEvent, error)
}

// Publisher emits domain events to the message bus.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// ObjectStore keeps binary documents addressed by path.
type ObjectStore interface {
	Put(ctx context.Context, path, contentType string, r io.Reader) error
	// Open returns domain.ErrObjectNotFound for unknown paths.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// URLSigner issues and checks time-limited download links.
type URLSigner interface {
	SignedURL(path string, ttl time.Duration) (string, error)
	// Verify returns the path a token grants access to.
	Verify(token string) (string, error)
}

// InvoiceDocument is the data printed on an invoice.
type InvoiceDocument struct {
	InvoiceID      string
	IssuedAt       time.Time
	TrackingNumber string
	ServiceSlug    string
	Origin         string
	Destination    string
	CustomerEmail  string
	PaymentStatus  string
	Currency       string
	Subtotal       int64
	VAT            int64
	Total          int64
}

type InvoiceRenderer interface {
	Render(w io.Writer, doc InvoiceDocument) error
}
