package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

// CatalogService serves the public reference data and seeds its defaults.
type CatalogService struct {
	catalog  ports.CatalogRepository
	adminOps ports.AdminOpsRepository
	log      zerolog.Logger
}

func NewCatalogService(catalog ports.CatalogRepository, adminOps ports.AdminOpsRepository, log zerolog.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, adminOps: adminOps, log: log}
}

func (s *CatalogService) ListServices(ctx context.Context) ([]*domain.Service, error) {
	return s.catalog.ListServices(ctx)
}

func (s *CatalogService) ListFAQs(ctx context.Context) ([]*domain.FAQ, error) {
	return s.catalog.ListFAQs(ctx)
}

// Seed inserts the default services and FAQs. It runs once unless forced;
// records that already exist are left untouched.
func (s *CatalogService) Seed(ctx context.Context, in ports.SeedInput) (*ports.SeedResult, error) {
	if in.CompanyID == "" {
		return nil, fmt.Errorf("%w: a company context is required", domain.ErrValidation)
	}

	_, err := s.adminOps.FindSeedGuard(ctx)
	switch {
	case err == nil && !in.Force:
		return nil, domain.ErrSeedAlreadyRun
	case err != nil && !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("read seed guard: %w", err)
	}

	now := time.Now().UTC()
	result := &ports.SeedResult{CompanyID: in.CompanyID}

	for _, svc := range defaultServices(in.CompanyID, now) {
		inserted, err := s.catalog.InsertServiceIfAbsent(ctx, svc)
		if err != nil {
			return nil, fmt.Errorf("seed service %s: %w", svc.ID, err)
		}
		if inserted {
			result.ServicesInserted++
		}
	}
	for _, faq := range defaultFAQs(in.CompanyID, now) {
		inserted, err := s.catalog.InsertFAQIfAbsent(ctx, faq)
		if err != nil {
			return nil, fmt.Errorf("seed faq %s: %w", faq.ID, err)
		}
		if inserted {
			result.FAQsInserted++
		}
	}

	if err := s.adminOps.SaveSeedGuard(ctx, &domain.SeedGuard{
		ID:        domain.SeedGuardID,
		CompanyID: in.CompanyID,
		RanBy:     in.RanBy,
		RanAt:     now,
	}); err != nil {
		return nil, fmt.Errorf("write seed guard: %w", err)
	}

	s.log.Info().
		Str("company_id", in.CompanyID).
		Bool("forced", in.Force).
		Int("services", result.ServicesInserted).
		Int("faqs", result.FAQsInserted).
		Msg("reference data seeded")
	return result, nil
}

func defaultServices(companyID string, now time.Time) []*domain.Service {
	mk := func(id, slug, title, desc string, price int64) *domain.Service {
		return &domain.Service{
			ID:          id,
			Slug:        slug,
			Title:       title,
			Description: desc,
			BasePrice:   price,
			Currency:    defaultCurrency,
			CompanyID:   companyID,
			CreatedAt:   now,
		}
	}
	return []*domain.Service{
		mk("service_air_freight", "air-freight", "Air Freight",
			"Fast and reliable air freight for urgent, time-sensitive goods with worldwide coverage.", 15000),
		mk("service_shipping", "shipping", "Shipping",
			"Cost-effective sea and land shipping for bulk cargo.", 7500),
		mk("service_cold_storage", "cold-storage", "Cold Storage",
			"Temperature-controlled warehousing for fresh and frozen goods.", 12000),
		mk("service_customs_clearance", "customs-clearance", "Customs Clearance",
			"Customs documentation and compliance for smooth border crossings.", 20000),
	}
}

func defaultFAQs(companyID string, now time.Time) []*domain.FAQ {
	mk := func(id, q, a string, order int) *domain.FAQ {
		return &domain.FAQ{ID: id, Question: q, Answer: a, Order: order, CompanyID: companyID, CreatedAt: now}
	}
	return []*domain.FAQ{
		mk("faq_services", "What logistics services do you provide?",
			"Air freight, sea and land shipping, cold storage for perishable goods, and customs clearance.", 1),
		mk("faq_customs", "How do you handle customs clearance?",
			"We prepare the documentation, classify tariffs, calculate duties and keep shipments compliant with current trade rules.", 2),
		mk("faq_cold_storage", "Do you offer cold storage for perishable goods?",
			"Yes. Our temperature-controlled warehouses handle fresh produce, frozen food and pharmaceuticals.", 3),
		mk("faq_tracking", "How can I track my shipment?",
			"Every shipment gets a tracking number once dispatched. Enter it on the tracking page for its timeline.", 4),
		mk("faq_regions", "What regions do you operate in?",
			"We operate globally with a strong presence in East Africa and the Middle East.", 5),
	}
}
