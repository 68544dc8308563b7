package domain

import "time"

// ShipmentStatus represents the lifecycle state of a shipment.
type ShipmentStatus string

const (
	StatusPending   ShipmentStatus = "pending"
	StatusPickedUp  ShipmentStatus = "picked-up"
	StatusInTransit ShipmentStatus = "in-transit"
	StatusCustoms   ShipmentStatus = "customs"
	StatusDelivered ShipmentStatus = "delivered"
)

// validTransitions defines the allowed state machine transitions.
var validTransitions = map[ShipmentStatus][]ShipmentStatus{
	StatusPending:   {StatusPickedUp},
	StatusPickedUp:  {StatusInTransit},
	StatusInTransit: {StatusCustoms, StatusDelivered},
	StatusCustoms:   {StatusDelivered},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s ShipmentStatus) CanTransitionTo(next ShipmentStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status.
func (s ShipmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPickedUp, StatusInTransit, StatusCustoms, StatusDelivered:
		return true
	}
	return false
}

// Location is a coarse origin or destination.
type Location struct {
	Country string `json:"country" bson:"country"`
	City    string `json:"city" bson:"city"`
}

// TimelineEntry records a single status change on a shipment.
type TimelineEntry struct {
	Status    ShipmentStatus `json:"status" bson:"status"`
	Location  string         `json:"location,omitempty" bson:"location,omitempty"`
	Timestamp time.Time      `json:"timestamp" bson:"timestamp"`
}

// Shipment is the core aggregate root.
type Shipment struct {
	ID                string          `json:"id" bson:"_id"`
	TrackingNumber    string          `json:"trackingNumber" bson:"tracking_number"`
	CompanyID         string          `json:"companyId" bson:"company_id"`
	CustomerID        string          `json:"customerId" bson:"customer_id"`
	CustomerEmail     string          `json:"customerEmail,omitempty" bson:"customer_email,omitempty"`
	ServiceSlug       string          `json:"serviceSlug" bson:"service_slug"`
	Origin            Location        `json:"origin" bson:"origin"`
	Destination       Location        `json:"destination" bson:"destination"`
	Status            ShipmentStatus  `json:"status" bson:"status"`
	Timeline          []TimelineEntry `json:"timeline" bson:"timeline"`
	Payment           *Payment        `json:"payment,omitempty" bson:"payment,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery,omitempty" bson:"estimated_delivery,omitempty"`
	InvoiceURL        string          `json:"invoiceUrl,omitempty" bson:"invoice_url,omitempty"`
	CreatedAt         time.Time       `json:"createdAt" bson:"created_at"`
	UpdatedAt         time.Time       `json:"updatedAt" bson:"updated_at"`
}

// DeliveredAt returns the timestamp of the last delivered timeline entry,
// falling back to UpdatedAt.
func (s *Shipment) DeliveredAt() time.Time {
	for i := len(s.Timeline) - 1; i >= 0; i-- {
		if s.Timeline[i].Status == StatusDelivered {
			return s.Timeline[i].Timestamp
		}
	}
	return s.UpdatedAt
}

// PaymentStatus returns the status of the payment sub-record, or empty when
// no payment was ever initiated.
func (s *Shipment) PaymentStatus() PaymentStatus {
	if s.Payment == nil {
		return ""
	}
	return s.Payment.Status
}
