package handler

import (
	"time"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

// errorResponse documents the error envelope rendered by the HTTP error handler.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// --- Request / Response types ---

type locationRequest struct {
	Country string `json:"country" validate:"required"`
	City    string `json:"city"    validate:"required"`
}

// createShipmentRequest lists the only fields a client may set. Server-owned
// fields in the body (payment, invoiceUrl, trackingNumber, ...) are dropped.
type createShipmentRequest struct {
	CompanyID     string          `json:"companyId"`
	CustomerID    string          `json:"customerId"`
	CustomerEmail string          `json:"customerEmail" validate:"omitempty,email"`
	ServiceSlug   string          `json:"serviceSlug"   validate:"required"`
	Origin        locationRequest `json:"origin"        validate:"required"`
	Destination   locationRequest `json:"destination"   validate:"required"`
}

type createShipmentResponse struct {
	OK                bool       `json:"ok"`
	ID                string     `json:"id"`
	TrackingNumber    string     `json:"trackingNumber"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
}

type shipmentUpdates struct {
	CustomerEmail *string          `json:"customerEmail" validate:"omitempty,email"`
	ServiceSlug   *string          `json:"serviceSlug"   validate:"omitempty,min=1"`
	Origin        *locationRequest `json:"origin"        validate:"omitempty"`
	Destination   *locationRequest `json:"destination"   validate:"omitempty"`
}

type updateShipmentRequest struct {
	ID        string          `json:"id"        validate:"required"`
	CompanyID string          `json:"companyId"`
	Updates   shipmentUpdates `json:"updates"`
}

type shipmentResponse struct {
	OK       bool             `json:"ok"`
	Shipment *domain.Shipment `json:"shipment"`
}

type listShipmentsResponse struct {
	Items      []*domain.Shipment `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"totalPages"`
}

type etaResponse struct {
	OK                bool      `json:"ok"`
	EstimatedDelivery time.Time `json:"estimatedDelivery"`
}

type timelineEntryRequest struct {
	Location  string     `json:"location"`
	Timestamp *time.Time `json:"timestamp"`
}

type statusUpdateRequest struct {
	TrackingNumber string               `json:"trackingNumber" validate:"required"`
	Status         string               `json:"status"         validate:"required,oneof=pending picked-up in-transit customs delivered"`
	TimelineEntry  timelineEntryRequest `json:"timelineEntry"`
}

func (l *locationRequest) toDomain() *domain.Location {
	if l == nil {
		return nil
	}
	return &domain.Location{Country: l.Country, City: l.City}
}
