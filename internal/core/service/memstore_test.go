package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// memStore is an in-memory database implementing every repository port.
// Transactions are serialised and roll back to a snapshot on error, which is
// enough to assert atomicity and the concurrent-booking properties.
// ---------------------------------------------------------------------------

type memData struct {
	companies   map[string]domain.Company
	users       map[string]domain.User
	shipments   map[string]*domain.Shipment
	inventory   map[string]domain.Inventory
	movements   []domain.InventoryMovement
	vehicles    map[string]domain.Vehicle
	drivers     map[string]domain.Driver
	assignments []domain.VehicleAssignment
	events      map[string]domain.WebhookEvent
	invoices    map[string]domain.InvoiceRecord
	services    map[string]domain.Service
	faqs        map[string]domain.FAQ
	guard       *domain.SeedGuard
}

type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	d    memData

	txCount int
}

func newMemStore() *memStore {
	return &memStore{d: memData{
		companies: map[string]domain.Company{},
		users:     map[string]domain.User{},
		shipments: map[string]*domain.Shipment{},
		inventory: map[string]domain.Inventory{},
		vehicles:  map[string]domain.Vehicle{},
		drivers:   map[string]domain.Driver{},
		events:    map[string]domain.WebhookEvent{},
		invoices:  map[string]domain.InvoiceRecord{},
		services:  map[string]domain.Service{},
		faqs:      map[string]domain.FAQ{},
	}}
}

func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.d.clone()
	m.txCount++
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.d = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (d memData) clone() memData {
	c := memData{
		companies:   make(map[string]domain.Company, len(d.companies)),
		users:       make(map[string]domain.User, len(d.users)),
		shipments:   make(map[string]*domain.Shipment, len(d.shipments)),
		inventory:   make(map[string]domain.Inventory, len(d.inventory)),
		movements:   append([]domain.InventoryMovement(nil), d.movements...),
		vehicles:    make(map[string]domain.Vehicle, len(d.vehicles)),
		drivers:     make(map[string]domain.Driver, len(d.drivers)),
		assignments: append([]domain.VehicleAssignment(nil), d.assignments...),
		events:      make(map[string]domain.WebhookEvent, len(d.events)),
		invoices:    make(map[string]domain.InvoiceRecord, len(d.invoices)),
		services:    make(map[string]domain.Service, len(d.services)),
		faqs:        make(map[string]domain.FAQ, len(d.faqs)),
	}
	for k, v := range d.companies {
		c.companies[k] = v
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.shipments {
		c.shipments[k] = cloneShipment(v)
	}
	for k, v := range d.inventory {
		c.inventory[k] = v
	}
	for k, v := range d.vehicles {
		c.vehicles[k] = v
	}
	for k, v := range d.drivers {
		c.drivers[k] = v
	}
	for k, v := range d.events {
		c.events[k] = v
	}
	for k, v := range d.invoices {
		c.invoices[k] = v
	}
	for k, v := range d.services {
		c.services[k] = v
	}
	for k, v := range d.faqs {
		c.faqs[k] = v
	}
	if d.guard != nil {
		g := *d.guard
		c.guard = &g
	}
	return c
}

func cloneShipment(s *domain.Shipment) *domain.Shipment {
	if s == nil {
		return nil
	}
	c := *s
	c.Timeline = append([]domain.TimelineEntry(nil), s.Timeline...)
	if s.Payment != nil {
		p := *s.Payment
		c.Payment = &p
	}
	if s.EstimatedDelivery != nil {
		t := *s.EstimatedDelivery
		c.EstimatedDelivery = &t
	}
	return &c
}

func invKey(companyID, warehouseID, sku string) string {
	return companyID + "|" + warehouseID + "|" + sku
}

// ── seeding helpers ─────────────────────────────────────────────────────────

func (m *memStore) putShipment(s *domain.Shipment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.shipments[s.ID] = cloneShipment(s)
}

func (m *memStore) shipment(id string) *domain.Shipment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneShipment(m.d.shipments[id])
}

func (m *memStore) putInventory(inv domain.Inventory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv.ID == "" {
		inv.ID = invKey(inv.CompanyID, inv.WarehouseID, inv.SKU)
	}
	m.d.inventory[inv.ID] = inv
}

func (m *memStore) stock(companyID, warehouseID, sku string) domain.Inventory {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.d.inventory {
		if inv.CompanyID == companyID && inv.WarehouseID == warehouseID && inv.SKU == sku {
			return inv
		}
	}
	return domain.Inventory{}
}

func (m *memStore) movementCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.d.movements)
}

func (m *memStore) putVehicle(v domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.vehicles[v.ID] = v
}

func (m *memStore) putDriver(d domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.drivers[d.ID] = d
}

func (m *memStore) vehicle(id string) domain.Vehicle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.vehicles[id]
}

func (m *memStore) driver(id string) domain.Driver {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.d.drivers[id]
}

func (m *memStore) assignmentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.d.assignments)
}

func (m *memStore) putCompany(c domain.Company) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.d.companies[c.ID] = c
}

// ── repository views ────────────────────────────────────────────────────────

type (
	memShipments struct{ *memStore }
	memInventory struct{ *memStore }
	memMovements struct{ *memStore }
	memFleet     struct{ *memStore }
	memEvents    struct{ *memStore }
	memInvoices  struct{ *memStore }
	memCatalog   struct{ *memStore }
	memAdminOps  struct{ *memStore }
	memCompanies struct{ *memStore }
	memUsers     struct{ *memStore }
)

var (
	_ ports.ShipmentRepository     = memShipments{}
	_ ports.InventoryRepository    = memInventory{}
	_ ports.MovementRepository     = memMovements{}
	_ ports.FleetRepository        = memFleet{}
	_ ports.WebhookEventRepository = memEvents{}
	_ ports.InvoiceRepository      = memInvoices{}
	_ ports.CatalogRepository      = memCatalog{}
	_ ports.AdminOpsRepository     = memAdminOps{}
	_ ports.CompanyRepository      = memCompanies{}
	_ ports.UserRepository         = memUsers{}
	_ ports.TxManager              = (*memStore)(nil)
)

func (r memShipments) Create(_ context.Context, s *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.d.shipments[s.ID] = cloneShipment(s)
	return nil
}

func (r memShipments) FindByID(_ context.Context, id string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.d.shipments[id]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	return cloneShipment(s), nil
}

func (r memShipments) FindByTrackingNumber(_ context.Context, tn string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.d.shipments {
		if s.TrackingNumber == tn {
			return cloneShipment(s), nil
		}
	}
	return nil, domain.ErrShipmentNotFound
}

func (r memShipments) FindByPaymentReference(_ context.Context, provider domain.PaymentProvider, ref string) (*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.d.shipments {
		if s.Payment != nil && s.Payment.Provider == provider && s.Payment.Reference == ref {
			return cloneShipment(s), nil
		}
	}
	return nil, domain.ErrShipmentNotFound
}

// List applies the same filters the Mongo repository does.
func (r memShipments) List(_ context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.Shipment
	for _, s := range r.d.shipments {
		if s.CompanyID != f.CompanyID {
			continue
		}
		if f.Status != "" && string(s.Status) != f.Status {
			continue
		}
		if f.ServiceSlug != "" && s.ServiceSlug != f.ServiceSlug {
			continue
		}
		if !f.DateFrom.IsZero() && s.CreatedAt.Before(f.DateFrom) {
			continue
		}
		if !f.DateTo.IsZero() && s.CreatedAt.After(f.DateTo) {
			continue
		}
		if f.Search != "" {
			q := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(s.TrackingNumber), q) && !strings.Contains(strings.ToLower(s.CustomerEmail), q) {
				continue
			}
		}
		matched = append(matched, cloneShipment(s))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	skip := (f.Page - 1) * f.Limit
	if skip < 0 {
		skip = 0
	}
	if skip > len(matched) {
		return []*domain.Shipment{}, total, nil
	}
	end := skip + f.Limit
	if f.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r memShipments) ListDelivered(_ context.Context, slug string, limit int) ([]*domain.Shipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Shipment
	for _, s := range r.d.shipments {
		if s.ServiceSlug == slug && s.Status == domain.StatusDelivered {
			out = append(out, cloneShipment(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memShipments) mutate(id string, fn func(s *domain.Shipment) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.d.shipments[id]
	if !ok {
		return domain.ErrShipmentNotFound
	}
	return fn(s)
}

func (r memShipments) Update(_ context.Context, id string, c ports.ShipmentChanges, at time.Time) error {
	return r.mutate(id, func(s *domain.Shipment) error {
		if c.CustomerEmail != nil {
			s.CustomerEmail = *c.CustomerEmail
		}
		if c.ServiceSlug != nil {
			s.ServiceSlug = *c.ServiceSlug
		}
		if c.Origin != nil {
			s.Origin = *c.Origin
		}
		if c.Destination != nil {
			s.Destination = *c.Destination
		}
		s.UpdatedAt = at
		return nil
	})
}

func (r memShipments) AppendTimeline(_ context.Context, id string, from domain.ShipmentStatus, e domain.TimelineEntry) error {
	return r.mutate(id, func(s *domain.Shipment) error {
		if s.Status != from {
			return domain.ErrInvalidTransition
		}
		s.Status = e.Status
		s.Timeline = append(s.Timeline, e)
		s.UpdatedAt = e.Timestamp
		return nil
	})
}

func (r memShipments) SetEstimatedDelivery(_ context.Context, id string, eta, at time.Time) error {
	return r.mutate(id, func(s *domain.Shipment) error {
		s.EstimatedDelivery = &eta
		s.UpdatedAt = at
		return nil
	})
}

func (r memShipments) SetInvoiceURL(_ context.Context, id, url string, at time.Time) error {
	return r.mutate(id, func(s *domain.Shipment) error {
		s.InvoiceURL = url
		s.UpdatedAt = at
		return nil
	})
}

func (r memShipments) SetPayment(_ context.Context, id string, p domain.Payment) error {
	return r.mutate(id, func(s *domain.Shipment) error {
		s.Payment = &p
		return nil
	})
}

func (r memShipments) UpdatePaymentStatus(_ context.Context, id string, p domain.Payment) error {
	return r.mutate(id, func(s *domain.Shipment) error {
		if s.Payment == nil {
			s.Payment = &domain.Payment{Provider: p.Provider, Reference: p.Reference, Status: domain.PaymentPending}
		}
		if s.Payment.Status != domain.PaymentPending {
			return domain.ErrPaymentFinalized
		}
		s.Payment.Status = p.Status
		s.Payment.UpdatedAt = p.UpdatedAt
		s.UpdatedAt = p.UpdatedAt
		return nil
	})
}

func (r memInventory) Find(_ context.Context, companyID, warehouseID, sku string) (*domain.Inventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.d.inventory {
		if inv.CompanyID == companyID && inv.WarehouseID == warehouseID && inv.SKU == sku {
			c := inv
			return &c, nil
		}
	}
	return nil, domain.ErrInventoryNotFound
}

func (r memInventory) List(_ context.Context, companyID, warehouseID string) ([]*domain.Inventory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Inventory
	for _, inv := range r.d.inventory {
		if inv.CompanyID != companyID || (warehouseID != "" && inv.WarehouseID != warehouseID) {
			continue
		}
		c := inv
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SKU < out[j].SKU })
	return out, nil
}

func (r memInventory) Reserve(_ context.Context, id string, qty int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.d.inventory[id]
	if !ok {
		return domain.ErrInventoryNotFound
	}
	if inv.QuantityAvailable < qty {
		return domain.ErrInsufficientStock
	}
	inv.QuantityAvailable -= qty
	inv.QuantityReserved += qty
	r.d.inventory[id] = inv
	return nil
}

func (r memMovements) Insert(_ context.Context, mv *domain.InventoryMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.d.movements = append(r.d.movements, *mv)
	return nil
}

func (r memMovements) ListByShipment(_ context.Context, companyID, shipmentID string) ([]*domain.InventoryMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.InventoryMovement
	for _, mv := range r.d.movements {
		if mv.CompanyID == companyID && mv.RelatedShipmentID == shipmentID {
			c := mv
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r memFleet) FindVehicle(_ context.Context, id string) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.d.vehicles[id]
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}
	return &v, nil
}

func (r memFleet) FindDriver(_ context.Context, id string) (*domain.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.d.drivers[id]
	if !ok {
		return nil, domain.ErrDriverNotFound
	}
	return &d, nil
}

func (r memFleet) MarkVehicle(_ context.Context, id string, from, to domain.VehicleStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.d.vehicles[id]
	if !ok || v.Status != from {
		return domain.ErrVehicleUnavailable
	}
	v.Status = to
	r.d.vehicles[id] = v
	return nil
}

func (r memFleet) MarkDriver(_ context.Context, id string, from, to domain.DriverStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.d.drivers[id]
	if !ok || d.Status != from {
		return domain.ErrDriverUnavailable
	}
	d.Status = to
	r.d.drivers[id] = d
	return nil
}

func (r memFleet) CreateAssignment(_ context.Context, a *domain.VehicleAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.d.assignments = append(r.d.assignments, *a)
	return nil
}

func (r memEvents) Insert(_ context.Context, e *domain.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.d.events[e.ID]; ok {
		return domain.ErrAlreadyProcessed
	}
	r.d.events[e.ID] = *e
	return nil
}

func (r memInvoices) Save(_ context.Context, rec *domain.InvoiceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.d.invoices[rec.ShipmentID] = *rec
	return nil
}

func (r memInvoices) FindByShipment(_ context.Context, shipmentID string) (*domain.InvoiceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.d.invoices[shipmentID]
	if !ok {
		return nil, domain.ErrInvoiceNotFound
	}
	return &rec, nil
}

func (r memCatalog) ListServices(_ context.Context) ([]*domain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Service
	for _, s := range r.d.services {
		c := s
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCatalog) ListFAQs(_ context.Context) ([]*domain.FAQ, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.FAQ
	for _, f := range r.d.faqs {
		c := f
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r memCatalog) InsertServiceIfAbsent(_ context.Context, s *domain.Service) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.d.services[s.ID]; ok {
		return false, nil
	}
	r.d.services[s.ID] = *s
	return true, nil
}

func (r memCatalog) InsertFAQIfAbsent(_ context.Context, f *domain.FAQ) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.d.faqs[f.ID]; ok {
		return false, nil
	}
	r.d.faqs[f.ID] = *f
	return true, nil
}

func (r memAdminOps) FindSeedGuard(_ context.Context) (*domain.SeedGuard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.d.guard == nil {
		return nil, domain.ErrNotFound
	}
	g := *r.d.guard
	return &g, nil
}

func (r memAdminOps) SaveSeedGuard(_ context.Context, g *domain.SeedGuard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *g
	r.d.guard = &c
	return nil
}

func (r memCompanies) FindByID(_ context.Context, id string) (*domain.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.d.companies[id]
	if !ok {
		return nil, domain.ErrCompanyNotFound
	}
	return &c, nil
}

func (r memCompanies) Create(_ context.Context, c *domain.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.d.companies[c.ID] = *c
	return nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.d.users {
		if u.Email == email {
			c := u
			return &c, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.d.users {
		if existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	r.d.users[u.ID] = *u
	return nil
}

// ---------------------------------------------------------------------------
// Collaborator stubs
// ---------------------------------------------------------------------------

type published struct {
	topic string
	key   string
}

type stubPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *stubPublisher) Publish(_ context.Context, topic, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{topic: topic, key: key})
	return p.err
}

func (p *stubPublisher) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.topic == topic {
			n++
		}
	}
	return n
}
