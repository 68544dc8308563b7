package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const (
	etaSampleSize     = 200
	defaultETAHorizon = 72 * time.Hour
)

// ETAService predicts delivery dates from the median transit time of
// previously delivered shipments of the same service.
type ETAService struct {
	repo ports.ShipmentRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewETAService(repo ports.ShipmentRepository, log zerolog.Logger) *ETAService {
	return &ETAService{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ETAService) Predict(ctx context.Context, shipment *domain.Shipment) (time.Time, error) {
	history, err := s.repo.ListDelivered(ctx, shipment.ServiceSlug, etaSampleSize)
	if err != nil {
		return time.Time{}, fmt.Errorf("load delivery history: %w", err)
	}

	now := s.now()
	median, ok := medianTransit(history)
	if !ok {
		median = defaultETAHorizon
	}
	eta := now.Add(median)

	if err := s.repo.SetEstimatedDelivery(ctx, shipment.ID, eta, now); err != nil {
		return time.Time{}, fmt.Errorf("store eta: %w", err)
	}

	s.log.Debug().
		Str("shipment_id", shipment.ID).
		Str("service", shipment.ServiceSlug).
		Int("samples", len(history)).
		Dur("median", median).
		Msg("eta predicted")
	return eta, nil
}

func (s *ETAService) Recompute(ctx context.Context, companyID, shipmentID string) (time.Time, error) {
	shipment, err := s.repo.FindByID(ctx, shipmentID)
	if err != nil {
		return time.Time{}, err
	}
	if shipment.CompanyID != companyID {
		return time.Time{}, domain.ErrTenantMismatch
	}
	return s.Predict(ctx, shipment)
}

// medianTransit returns the upper median of the positive transit durations
// in history. ok is false when there is no usable sample.
func medianTransit(history []*domain.Shipment) (time.Duration, bool) {
	durations := make([]time.Duration, 0, len(history))
	for _, h := range history {
		d := h.DeliveredAt().Sub(h.CreatedAt)
		if d <= 0 {
			continue
		}
		durations = append(durations, d)
	}
	if len(durations) == 0 {
		return 0, false
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	return durations[len(durations)/2], true
}
