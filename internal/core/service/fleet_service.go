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

const TopicFleetAssigned = "fleet.assigned"

type FleetService struct {
	fleet     ports.FleetRepository
	shipments ports.ShipmentRepository
	tx        ports.TxManager
	pub       ports.Publisher
	log       zerolog.Logger
}

func NewFleetService(
	fleet ports.FleetRepository,
	shipments ports.ShipmentRepository,
	tx ports.TxManager,
	pub ports.Publisher,
	log zerolog.Logger,
) *FleetService {
	return &FleetService{fleet: fleet, shipments: shipments, tx: tx, pub: pub, log: log}
}

// Assign books a vehicle and a driver for a shipment. The availability checks
// and the status flips happen in one transaction, so two concurrent attempts
// on the same vehicle or driver cannot both succeed.
func (s *FleetService) Assign(ctx context.Context, in ports.AssignInput) (*domain.VehicleAssignment, error) {
	if in.CompanyID == "" {
		return nil, domain.ErrMissingTenantClaim
	}
	if in.ShipmentID == "" || in.VehicleID == "" || in.DriverID == "" {
		return nil, fmt.Errorf("%w: shipmentId, vehicleId and driverId are required", domain.ErrValidation)
	}

	var assignment *domain.VehicleAssignment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		shipment, err := s.shipments.FindByID(ctx, in.ShipmentID)
		if err != nil {
			return err
		}
		if shipment.CompanyID != in.CompanyID {
			return domain.ErrTenantMismatch
		}

		// A session cannot serve concurrent operations, so the reads are sequential.
		vehicle, err := s.fleet.FindVehicle(ctx, in.VehicleID)
		if err != nil {
			return err
		}
		driver, err := s.fleet.FindDriver(ctx, in.DriverID)
		if err != nil {
			return err
		}

		if vehicle.CompanyID != in.CompanyID || driver.CompanyID != in.CompanyID {
			return domain.ErrTenantMismatch
		}
		if vehicle.Status != domain.VehicleAvailable {
			return domain.ErrVehicleUnavailable
		}
		if driver.Status != domain.DriverAvailable {
			return domain.ErrDriverUnavailable
		}

		assignment = &domain.VehicleAssignment{
			ID:         uuid.NewString(),
			CompanyID:  in.CompanyID,
			ShipmentID: in.ShipmentID,
			VehicleID:  in.VehicleID,
			DriverID:   in.DriverID,
			AssignedAt: time.Now().UTC(),
		}
		if err := s.fleet.CreateAssignment(ctx, assignment); err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}
		if err := s.fleet.MarkVehicle(ctx, in.VehicleID, domain.VehicleAvailable, domain.VehicleInTransit); err != nil {
			return err
		}
		return s.fleet.MarkDriver(ctx, in.DriverID, domain.DriverAvailable, domain.DriverAssigned)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("shipment_id", in.ShipmentID).
		Str("vehicle_id", in.VehicleID).
		Str("driver_id", in.DriverID).
		Msg("fleet assigned")

	if err := s.pub.Publish(ctx, TopicFleetAssigned, in.CompanyID, assignment); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish assignment event")
	}
	return assignment, nil
}
