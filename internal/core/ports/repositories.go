package ports

import (
	"context"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

type CompanyRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Company, error)
	Create(ctx context.Context, c *domain.Company) error
}

// UserRepository defines the persistence of user accounts.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create fails with domain.ErrUserExists when the email is taken.
	Create(ctx context.Context, user *domain.User) error
}

// InventoryRepository persists stock records.
type InventoryRepository interface {
	Find(ctx context.Context, companyID, warehouseID, sku string) (*domain.Inventory, error)
	List(ctx context.Context, companyID, warehouseID string) ([]*domain.Inventory, error)
	// Reserve moves qty from available to reserved. It fails with
	// domain.ErrInsufficientStock if available stock is lower than qty.
	Reserve(ctx context.Context, id string, qty int64) error
}

type MovementRepository interface {
	Insert(ctx context.Context, m *domain.InventoryMovement) error
	ListByShipment(ctx context.Context, companyID, shipmentID string) ([]*domain.InventoryMovement, error)
}

// FleetRepository persists vehicles, drivers and their assignments.
type FleetRepository interface {
	FindVehicle(ctx context.Context, id string) (*domain.Vehicle, error)
	FindDriver(ctx context.Context, id string) (*domain.Driver, error)
	// MarkVehicle flips a vehicle from `from` to `to`. It fails with
	// domain.ErrVehicleUnavailable if the vehicle is not in `from`.
	MarkVehicle(ctx context.Context, id string, from, to domain.VehicleStatus) error
	// MarkDriver flips a driver from `from` to `to`. It fails with
	// domain.ErrDriverUnavailable if the driver is not in `from`.
	MarkDriver(ctx context.Context, id string, from, to domain.DriverStatus) error
	CreateAssignment(ctx context.Context, a *domain.VehicleAssignment) error
}

// WebhookEventRepository is the idempotency ledger for provider events.
type WebhookEventRepository interface {
	// Insert fails with domain.ErrAlreadyProcessed if the event id was
	// recorded before.
	Insert(ctx context.Context, e *domain.WebhookEvent) error
}

type InvoiceRepository interface {
	// Save replaces any previous record for the same shipment.
	Save(ctx context.Context, r *domain.InvoiceRecord) error
	FindByShipment(ctx context.Context, shipmentID string) (*domain.InvoiceRecord, error)
}

// CatalogRepository stores public reference data.
type CatalogRepository interface {
	ListServices(ctx context.Context) ([]*domain.Service, error)
	ListFAQs(ctx context.Context) ([]*domain.FAQ, error)
	// InsertServiceIfAbsent reports whether s was inserted; existing ids are left untouched.
	InsertServiceIfAbsent(ctx context.Context, s *domain.Service) (bool, error)
	InsertFAQIfAbsent(ctx context.Context, f *domain.FAQ) (bool, error)
}

// AdminOpsRepository stores one-off operational markers.
type AdminOpsRepository interface {
	// FindSeedGuard returns domain.ErrNotFound when the seeder never ran.
	FindSeedGuard(ctx context.Context) (*domain.SeedGuard, error)
	SaveSeedGuard(ctx context.Context, g *domain.SeedGuard) error
}
