package ports

import (
	"context"
	"time"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

// ListShipmentsFilter carries all query parameters for listing shipments.
// CompanyID is always enforced by the service layer.
type ListShipmentsFilter struct {
	CompanyID   string
	Status      string    // optional
	ServiceSlug string    // optional
	Search      string    // optional: partial match on tracking_number or customer_email
	DateFrom    time.Time // optional: created_at >= DateFrom
	DateTo      time.Time // optional: created_at <= DateTo
	Page        int       // 1-based
	Limit       int
}

// ShipmentChanges holds the client-editable fields of a shipment. Nil fields
// are left untouched.
type ShipmentChanges struct {
	CustomerEmail *string
	ServiceSlug   *string
	Origin        *domain.Location
	Destination   *domain.Location
}

// Empty reports whether no field is set.
func (c ShipmentChanges) Empty() bool {
	return c.CustomerEmail == nil && c.ServiceSlug == nil && c.Origin == nil && c.Destination == nil
}

// ShipmentRepository defines persistence operations for shipments.
type ShipmentRepository interface {
	Create(ctx context.Context, s *domain.Shipment) error
	FindByID(ctx context.Context, id string) (*domain.Shipment, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error)
	// FindByPaymentReference looks up the shipment whose payment was initiated
	// with the given provider reference.
	FindByPaymentReference(ctx context.Context, provider domain.PaymentProvider, reference string) (*domain.Shipment, error)
	List(ctx context.Context, filter ListShipmentsFilter) ([]*domain.Shipment, int64, error)
	// ListDelivered returns up to limit delivered shipments of a service,
	// newest first by creation time.
	ListDelivered(ctx context.Context, serviceSlug string, limit int) ([]*domain.Shipment, error)

	Update(ctx context.Context, id string, changes ShipmentChanges, at time.Time) error
	// AppendTimeline applies entry only while the shipment is still in status
	// from. A concurrent change fails with domain.ErrInvalidTransition.
	AppendTimeline(ctx context.Context, id string, from domain.ShipmentStatus, entry domain.TimelineEntry) error
	SetEstimatedDelivery(ctx context.Context, id string, eta time.Time, at time.Time) error
	SetInvoiceURL(ctx context.Context, id string, url string, at time.Time) error
	// SetPayment records a freshly initiated payment.
	SetPayment(ctx context.Context, id string, p domain.Payment) error
	// UpdatePaymentStatus moves a pending payment to p.Status. A shipment with
	// no payment record gets one built from p. It fails with
	// domain.ErrPaymentFinalized when the payment is no longer pending.
	UpdatePaymentStatus(ctx context.Context, id string, p domain.Payment) error
}
