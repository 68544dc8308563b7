package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const defaultCurrency = "USD"

// InvoiceConfig tunes invoice amounts and download links.
type InvoiceConfig struct {
	VATRate decimal.Decimal
	LinkTTL time.Duration
}

type InvoiceService struct {
	shipments ports.ShipmentRepository
	invoices  ports.InvoiceRepository
	catalog   ports.CatalogRepository
	store     ports.ObjectStore
	signer    ports.URLSigner
	renderer  ports.InvoiceRenderer
	cfg       InvoiceConfig
	log       zerolog.Logger
}

func NewInvoiceService(
	shipments ports.ShipmentRepository,
	invoices ports.InvoiceRepository,
	catalog ports.CatalogRepository,
	store ports.ObjectStore,
	signer ports.URLSigner,
	renderer ports.InvoiceRenderer,
	cfg InvoiceConfig,
	log zerolog.Logger,
) *InvoiceService {
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 7 * 24 * time.Hour
	}
	return &InvoiceService{
		shipments: shipments,
		invoices:  invoices,
		catalog:   catalog,
		store:     store,
		signer:    signer,
		renderer:  renderer,
		cfg:       cfg,
		log:       log,
	}
}

// Generate renders the invoice of a shipment, stores it and returns a signed
// download link. A previous invoice of the same shipment is replaced.
func (s *InvoiceService) Generate(ctx context.Context, companyID, shipmentID string) (*ports.InvoiceResult, error) {
	shipment, err := s.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.CompanyID != companyID {
		return nil, domain.ErrTenantMismatch
	}

	base, currency, err := s.baseAmount(ctx, shipment)
	if err != nil {
		return nil, err
	}
	vat, total := applyVAT(base, s.cfg.VATRate)

	now := time.Now().UTC()
	doc := ports.InvoiceDocument{
		InvoiceID:      uuid.NewString(),
		IssuedAt:       now,
		TrackingNumber: shipment.TrackingNumber,
		ServiceSlug:    shipment.ServiceSlug,
		Origin:         formatLocation(shipment.Origin),
		Destination:    formatLocation(shipment.Destination),
		CustomerEmail:  shipment.CustomerEmail,
		PaymentStatus:  paymentLabel(shipment),
		Currency:       currency,
		Subtotal:       base,
		VAT:            vat,
		Total:          total,
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("render invoice: %w", err)
	}

	path := InvoicePath(shipment.ID)
	if err := s.store.Put(ctx, path, "application/pdf", &buf); err != nil {
		return nil, fmt.Errorf("store invoice: %w", err)
	}

	url, err := s.signer.SignedURL(path, s.cfg.LinkTTL)
	if err != nil {
		return nil, fmt.Errorf("sign invoice url: %w", err)
	}

	record := &domain.InvoiceRecord{
		ID:          doc.InvoiceID,
		CompanyID:   companyID,
		ShipmentID:  shipment.ID,
		StoragePath: path,
		URL:         url,
		Currency:    currency,
		Subtotal:    base,
		VAT:         vat,
		Total:       total,
		CreatedAt:   now,
	}
	if err := s.invoices.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("save invoice record: %w", err)
	}
	if err := s.shipments.SetInvoiceURL(ctx, shipment.ID, url, now); err != nil {
		return nil, fmt.Errorf("link invoice: %w", err)
	}

	s.log.Info().Str("shipment_id", shipment.ID).Str("path", path).Int64("total", total).Msg("invoice generated")
	return &ports.InvoiceResult{URL: url, Record: record}, nil
}

// Open returns the stored object at path if token grants access to it.
func (s *InvoiceService) Open(ctx context.Context, path, token string) (io.ReadCloser, error) {
	if token == "" {
		return nil, domain.ErrUnauthenticated
	}
	granted, err := s.signer.Verify(token)
	if err != nil {
		return nil, err
	}
	if granted != strings.TrimPrefix(path, "/") {
		return nil, domain.ErrForbidden
	}
	return s.store.Open(ctx, granted)
}

// baseAmount is the paid or pending payment amount, else the list price of
// the shipment's service.
func (s *InvoiceService) baseAmount(ctx context.Context, shipment *domain.Shipment) (int64, string, error) {
	if shipment.Payment != nil && shipment.Payment.Amount > 0 {
		currency := strings.ToUpper(shipment.Payment.Currency)
		if currency == "" {
			currency = defaultCurrency
		}
		return shipment.Payment.Amount, currency, nil
	}

	services, err := s.catalog.ListServices(ctx)
	if err != nil {
		return 0, "", fmt.Errorf("load services: %w", err)
	}
	for _, svc := range services {
		if svc.Slug == shipment.ServiceSlug {
			currency := svc.Currency
			if currency == "" {
				currency = defaultCurrency
			}
			return svc.BasePrice, currency, nil
		}
	}
	return 0, defaultCurrency, nil
}

// InvoicePath is the storage path of a shipment's invoice.
func InvoicePath(shipmentID string) string {
	return "invoices/" + shipmentID + ".pdf"
}

// applyVAT returns the VAT on base, rounded to the nearest minor unit, and
// the resulting total.
func applyVAT(base int64, rate decimal.Decimal) (vat, total int64) {
	vat = decimal.NewFromInt(base).Mul(rate).Round(0).IntPart()
	return vat, base + vat
}

func formatLocation(l domain.Location) string {
	switch {
	case l.City == "":
		return l.Country
	case l.Country == "":
		return l.City
	default:
		return l.City + ", " + l.Country
	}
}

func paymentLabel(s *domain.Shipment) string {
	if s.Payment == nil {
		return "unpaid"
	}
	return string(s.Payment.Status)
}
