package ports

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

// TenantResolver authenticates a request and yields the caller's company.
type TenantResolver interface {
	// Resolve reads the credential from h. When expectedCompanyID is not
	// empty it must match the company claim of the credential.
	Resolve(ctx context.Context, h http.Header, expectedCompanyID string) (*domain.Tenant, error)
}

// ── Identity ────────────────────────────────────────────────────────────────

// RegisterInput carries a new account. Exactly one of CompanyID and
// CompanyName is expected; CompanyName creates a new company.
type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	Role        string
	CompanyID   string
	CompanyName string
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}

// ── Shipments ───────────────────────────────────────────────────────────────

// CreateShipmentInput carries the client-controlled fields of a new shipment.
type CreateShipmentInput struct {
	CompanyID     string
	CustomerID    string
	CustomerEmail string
	ServiceSlug   string
	Origin        domain.Location
	Destination   domain.Location
}

// ShipmentResult is returned after creating a shipment.
type ShipmentResult struct {
	ID                string
	TrackingNumber    string
	EstimatedDelivery *time.Time
}

type UpdateShipmentInput struct {
	CompanyID string
	ID        string
	Changes   ShipmentChanges
}

type ListShipmentsInput struct {
	CompanyID   string
	Status      string
	ServiceSlug string
	Search      string
	DateFrom    time.Time
	DateTo      time.Time
	Page        int
	Limit       int
}

type ListShipmentsResult struct {
	Items      []*domain.Shipment
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// StatusUpdateInput appends a timeline entry through the admin panel.
type StatusUpdateInput struct {
	CompanyID      string
	TrackingNumber string
	Status         domain.ShipmentStatus
	Location       string
	Timestamp      time.Time
}

type ShipmentService interface {
	Create(ctx context.Context, in CreateShipmentInput) (*ShipmentResult, error)
	Update(ctx context.Context, in UpdateShipmentInput) (*domain.Shipment, error)
	// Get accepts either a shipment id or a tracking number.
	Get(ctx context.Context, companyID, idOrTracking string) (*domain.Shipment, error)
	List(ctx context.Context, in ListShipmentsInput) (*ListShipmentsResult, error)
	UpdateStatus(ctx context.Context, in StatusUpdateInput) (*domain.Shipment, error)
}

// ETAPredictor estimates delivery dates from delivered history.
type ETAPredictor interface {
	// Predict computes and persists the estimated delivery of s.
	Predict(ctx context.Context, s *domain.Shipment) (time.Time, error)
	Recompute(ctx context.Context, companyID, shipmentID string) (time.Time, error)
}

// ── Inventory & fleet ───────────────────────────────────────────────────────

type ReserveItem struct {
	SKU         string
	WarehouseID string
	Quantity    int64
}

type ReserveInput struct {
	CompanyID  string
	ShipmentID string
	Items      []ReserveItem
}

type ReserveResult struct {
	Movements []*domain.InventoryMovement
}

type InventoryService interface {
	Reserve(ctx context.Context, in ReserveInput) (*ReserveResult, error)
	List(ctx context.Context, companyID, warehouseID string) ([]*domain.Inventory, error)
}

type AssignInput struct {
	CompanyID  string
	ShipmentID string
	VehicleID  string
	DriverID   string
}

type FleetService interface {
	Assign(ctx context.Context, in AssignInput) (*domain.VehicleAssignment, error)
}

// ── Payments ────────────────────────────────────────────────────────────────

type StripePaymentInput struct {
	CompanyID  string
	ShipmentID string
	Amount     int64
	Currency   string
	SuccessURL string
	CancelURL  string
}

type MpesaPaymentInput struct {
	CompanyID  string
	ShipmentID string
	Phone      string
	Amount     int64
}

// WebhookResult describes what a delivered provider event did.
type WebhookResult struct {
	EventID    string
	ShipmentID string
	Status     domain.PaymentStatus
	Duplicate  bool
}

type PaymentService interface {
	StartStripe(ctx context.Context, in StripePaymentInput) (*CheckoutSession, error)
	StartMpesa(ctx context.Context, in MpesaPaymentInput) (*STKPushResult, error)
	HandleStripeWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
	HandleMpesaCallback(ctx context.Context, payload []byte, token string) (*WebhookResult, error)
}

// ── Invoices & reference data ───────────────────────────────────────────────

type InvoiceResult struct {
	URL    string
	Record *domain.InvoiceRecord
}

type InvoiceService interface {
	Generate(ctx context.Context, companyID, shipmentID string) (*InvoiceResult, error)
	// Open verifies a signed download token and opens the object it names.
	Open(ctx context.Context, path, token string) (io.ReadCloser, error)
}

type SeedInput struct {
	CompanyID string
	RanBy     string
	Force     bool
}

type SeedResult struct {
	CompanyID        string
	ServicesInserted int
	FAQsInserted     int
}

type CatalogService interface {
	ListServices(ctx context.Context) ([]*domain.Service, error)
	ListFAQs(ctx context.Context) ([]*domain.FAQ, error)
	Seed(ctx context.Context, in SeedInput) (*SeedResult, error)
}
