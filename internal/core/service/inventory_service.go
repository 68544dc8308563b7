package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const TopicInventoryReserved = "inventory.reserved"

type InventoryService struct {
	inventory ports.InventoryRepository
	movements ports.MovementRepository
	tx        ports.TxManager
	pub       ports.Publisher
	log       zerolog.Logger
}

func NewInventoryService(
	inventory ports.InventoryRepository,
	movements ports.MovementRepository,
	tx ports.TxManager,
	pub ports.Publisher,
	log zerolog.Logger,
) *InventoryService {
	return &InventoryService{inventory: inventory, movements: movements, tx: tx, pub: pub, log: log}
}

// Reserve converts available stock into reserved stock for every item in a
// single transaction. Either every line is reserved and logged or none is.
func (s *InventoryService) Reserve(ctx context.Context, in ports.ReserveInput) (*ports.ReserveResult, error) {
	if in.CompanyID == "" {
		return nil, domain.ErrMissingTenantClaim
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", domain.ErrValidation)
	}
	for _, item := range in.Items {
		if item.SKU == "" || item.WarehouseID == "" || item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: each item needs sku, warehouseId and a positive quantity", domain.ErrValidation)
		}
	}

	var movements []*domain.InventoryMovement
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		// RunInTx may retry fn on transient conflicts.
		movements = movements[:0]
		now := time.Now().UTC()

		for _, item := range in.Items {
			inv, err := s.inventory.Find(ctx, in.CompanyID, item.WarehouseID, item.SKU)
			if err != nil {
				return fmt.Errorf("reserve %s@%s: %w", item.SKU, item.WarehouseID, err)
			}
			if inv.QuantityAvailable-item.Quantity < 0 {
				return fmt.Errorf("reserve %s@%s: %w (available %d, requested %d)",
					item.SKU, item.WarehouseID, domain.ErrInsufficientStock, inv.QuantityAvailable, item.Quantity)
			}
			if err := s.inventory.Reserve(ctx, inv.ID, item.Quantity); err != nil {
				return fmt.Errorf("reserve %s@%s: %w", item.SKU, item.WarehouseID, err)
			}

			m := &domain.InventoryMovement{
				ID:                uuid.NewString(),
				CompanyID:         in.CompanyID,
				SKU:               item.SKU,
				WarehouseID:       item.WarehouseID,
				Type:              domain.MovementOutbound,
				Quantity:          item.Quantity,
				RelatedShipmentID: in.ShipmentID,
				CreatedAt:         now,
			}
			if err := s.movements.Insert(ctx, m); err != nil {
				return fmt.Errorf("record movement: %w", err)
			}
			movements = append(movements, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("company_id", in.CompanyID).
		Str("shipment_id", in.ShipmentID).
		Int("items", len(movements)).
		Msg("inventory reserved")

	if err := s.pub.Publish(ctx, TopicInventoryReserved, in.CompanyID, map[string]any{
		"companyId":  in.CompanyID,
		"shipmentId": in.ShipmentID,
		"movements":  movements,
	}); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish reservation event")
	}

	return &ports.ReserveResult{Movements: movements}, nil
}

func (s *InventoryService) List(ctx context.Context, companyID, warehouseID string) ([]*domain.Inventory, error) {
	if companyID == "" {
		return nil, domain.ErrMissingTenantClaim
	}
	return s.inventory.List(ctx, companyID, warehouseID)
}
