package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ShipmentService struct {
	repo   ports.ShipmentRepository
	eta    ports.ETAPredictor
	logger zerolog.Logger
}

// NewShipmentService wires the shipment use cases. eta may be nil, in which
// case new shipments are created without an estimate.
func NewShipmentService(repo ports.ShipmentRepository, eta ports.ETAPredictor, logger zerolog.Logger) *ShipmentService {
	return &ShipmentService{repo: repo, eta: eta, logger: logger}
}

// Create persists a new shipment owned by in.CompanyID. Server-controlled
// fields (tracking number, status, payment, invoice) are never taken from input.
func (s *ShipmentService) Create(ctx context.Context, in ports.CreateShipmentInput) (*ports.ShipmentResult, error) {
	if in.CompanyID == "" {
		return nil, domain.ErrMissingTenantClaim
	}
	if in.ServiceSlug == "" {
		return nil, fmt.Errorf("%w: serviceSlug is required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	shipment := &domain.Shipment{
		ID:             uuid.NewString(),
		TrackingNumber: generateTrackingNumber(),
		CompanyID:      in.CompanyID,
		CustomerID:     in.CustomerID,
		CustomerEmail:  in.CustomerEmail,
		ServiceSlug:    in.ServiceSlug,
		Origin:         in.Origin,
		Destination:    in.Destination,
		Status:         domain.StatusPending,
		Timeline: []domain.TimelineEntry{
			{Status: domain.StatusPending, Location: in.Origin.City, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, shipment); err != nil {
		s.logger.Error().Err(err).Msg("failed to create shipment")
		return nil, err
	}

	s.logger.Info().Str("tracking_number", shipment.TrackingNumber).Str("company_id", in.CompanyID).Msg("shipment created")

	result := &ports.ShipmentResult{ID: shipment.ID, TrackingNumber: shipment.TrackingNumber}
	if s.eta != nil {
		eta, err := s.eta.Predict(ctx, shipment)
		if err != nil {
			s.logger.Warn().Err(err).Str("shipment_id", shipment.ID).Msg("eta prediction failed")
		} else {
			result.EstimatedDelivery = &eta
		}
	}
	return result, nil
}

// Update applies whitelisted changes to a shipment of the caller's company.
func (s *ShipmentService) Update(ctx context.Context, in ports.UpdateShipmentInput) (*domain.Shipment, error) {
	if in.Changes.Empty() {
		return nil, fmt.Errorf("%w: no updatable fields supplied", domain.ErrValidation)
	}

	shipment, err := s.owned(ctx, in.CompanyID, in.ID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, shipment.ID, in.Changes, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("update shipment: %w", err)
	}
	return s.repo.FindByID(ctx, shipment.ID)
}

func (s *ShipmentService) Get(ctx context.Context, companyID, idOrTracking string) (*domain.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, idOrTracking)
	if errors.Is(err, domain.ErrNotFound) {
		shipment, err = s.repo.FindByTrackingNumber(ctx, idOrTracking)
	}
	if err != nil {
		return nil, err
	}
	if shipment.CompanyID != companyID {
		return nil, domain.ErrTenantMismatch
	}
	return shipment, nil
}

// List returns a page of the company's shipments. The limit defaults to 20
// and is capped at 100.
func (s *ShipmentService) List(ctx context.Context, in ports.ListShipmentsInput) (*ports.ListShipmentsResult, error) {
	if in.CompanyID == "" {
		return nil, domain.ErrMissingTenantClaim
	}

	limit := in.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := in.Page
	if page < 1 {
		page = 1
	}

	items, total, err := s.repo.List(ctx, ports.ListShipmentsFilter{
		CompanyID:   in.CompanyID,
		Status:      in.Status,
		ServiceSlug: in.ServiceSlug,
		Search:      in.Search,
		DateFrom:    in.DateFrom,
		DateTo:      in.DateTo,
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list shipments: %w", err)
	}

	return &ports.ListShipmentsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

// UpdateStatus moves a shipment along its lifecycle and appends a timeline entry.
func (s *ShipmentService) UpdateStatus(ctx context.Context, in ports.StatusUpdateInput) (*domain.Shipment, error) {
	if !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, in.Status)
	}

	shipment, err := s.repo.FindByTrackingNumber(ctx, in.TrackingNumber)
	if err != nil {
		return nil, err
	}
	if shipment.CompanyID != in.CompanyID {
		return nil, domain.ErrTenantMismatch
	}
	if !shipment.Status.CanTransitionTo(in.Status) {
		return nil, fmt.Errorf("%w (from %s to %s)", domain.ErrInvalidTransition, shipment.Status, in.Status)
	}

	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	entry := domain.TimelineEntry{Status: in.Status, Location: in.Location, Timestamp: ts}
	if err := s.repo.AppendTimeline(ctx, shipment.ID, shipment.Status, entry); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			return nil, fmt.Errorf("%w (%s changed concurrently)", domain.ErrInvalidTransition, shipment.TrackingNumber)
		}
		return nil, fmt.Errorf("append timeline: %w", err)
	}

	s.logger.Info().
		Str("tracking", shipment.TrackingNumber).
		Str("from", string(shipment.Status)).
		Str("to", string(in.Status)).
		Msg("shipment status updated")

	return s.repo.FindByID(ctx, shipment.ID)
}

func (s *ShipmentService) owned(ctx context.Context, companyID, id string) (*domain.Shipment, error) {
	shipment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shipment.CompanyID != companyID {
		return nil, domain.ErrTenantMismatch
	}
	return shipment, nil
}

// generateTrackingNumber returns a tracking number in the format CS-XXXXXXXX.
func generateTrackingNumber() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("CS-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return fmt.Sprintf("CS-%08X", b)
}
