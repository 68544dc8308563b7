package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/crownshift/logistics-api/internal/api/middleware"
	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
	"github.com/crownshift/logistics-api/internal/core/service"
)

const testSecret = "router-test-secret-router-test-secret"

type fakeShipments struct {
	err error
}

func (f *fakeShipments) Create(ctx context.Context, in ports.CreateShipmentInput) (*ports.ShipmentResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ports.ShipmentResult{ID: "shp_1", TrackingNumber: "CS-00000001"}, nil
}

func (f *fakeShipments) Update(ctx context.Context, in ports.UpdateShipmentInput) (*domain.Shipment, error) {
	return nil, f.err
}

func (f *fakeShipments) Get(ctx context.Context, companyID, idOrTracking string) (*domain.Shipment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Shipment{ID: idOrTracking, CompanyID: companyID}, nil
}

func (f *fakeShipments) List(ctx context.Context, in ports.ListShipmentsInput) (*ports.ListShipmentsResult, error) {
	return &ports.ListShipmentsResult{Page: 1, Limit: 20}, f.err
}

func (f *fakeShipments) UpdateStatus(ctx context.Context, in ports.StatusUpdateInput) (*domain.Shipment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Shipment{TrackingNumber: in.TrackingNumber, Status: in.Status}, nil
}

type fakeInventory struct {
	err error
}

func (f *fakeInventory) Reserve(ctx context.Context, in ports.ReserveInput) (*ports.ReserveResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ports.ReserveResult{}, nil
}

func (f *fakeInventory) List(ctx context.Context, companyID, warehouseID string) ([]*domain.Inventory, error) {
	return nil, f.err
}

type fakePayments struct{}

func (fakePayments) StartStripe(ctx context.Context, in ports.StripePaymentInput) (*ports.CheckoutSession, error) {
	return nil, domain.ErrPaymentFinalized
}

func (fakePayments) StartMpesa(ctx context.Context, in ports.MpesaPaymentInput) (*ports.STKPushResult, error) {
	return nil, errors.New("mpesa: dial tcp 10.0.0.1:443: connection refused")
}

func (fakePayments) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) (*ports.WebhookResult, error) {
	if signature != "valid" {
		return nil, domain.ErrInvalidSignature
	}
	return &ports.WebhookResult{EventID: "evt_1"}, nil
}

func (fakePayments) HandleMpesaCallback(ctx context.Context, payload []byte, token string) (*ports.WebhookResult, error) {
	return nil, domain.ErrInvalidSignature
}

type fakeCatalog struct{}

func (fakeCatalog) ListServices(ctx context.Context) ([]*domain.Service, error) { return nil, nil }

func (fakeCatalog) ListFAQs(ctx context.Context) ([]*domain.FAQ, error) { return nil, nil }

func (fakeCatalog) Seed(ctx context.Context, in ports.SeedInput) (*ports.SeedResult, error) {
	return &ports.SeedResult{CompanyID: in.CompanyID}, nil
}

func newTestRouter(shipments *fakeShipments, inventory *fakeInventory) *echo.Echo {
	return NewRouter(Dependencies{
		Log:       zerolog.Nop(),
		Resolver:  service.NewTenantResolver(testSecret),
		Shipments: shipments,
		Inventory: inventory,
		Payments:  fakePayments{},
		Catalog:   fakeCatalog{},
		TokenTTL:  time.Hour,
	})
}

func token(t *testing.T, role, companyID string) string {
	t.Helper()
	tok, err := service.NewTokenIssuer(testSecret, time.Hour).Issue(&domain.User{
		ID:        "u_" + role,
		Email:     role + "@example.com",
		Role:      role,
		CompanyID: companyID,
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func do(e *echo.Echo, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func envelope(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var out errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid envelope %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestRouter_ErrorEnvelopes(t *testing.T) {
	client := "Bearer " + token(t, domain.RoleClient, "co_A")
	admin := "Bearer " + token(t, domain.RoleAdmin, "co_A")

	cases := []struct {
		name      string
		shipments *fakeShipments
		inventory *fakeInventory
		method    string
		target    string
		body      string
		headers   map[string]string
		status    int
		code      string
	}{
		{
			name: "no credentials", method: http.MethodGet, target: "/api/shipments",
			status: http.StatusUnauthorized, code: "unauthenticated",
		},
		{
			name: "forged token", method: http.MethodGet, target: "/api/shipments",
			headers: map[string]string{"Authorization": "Bearer not-a-jwt"},
			status:  http.StatusUnauthorized, code: "invalid_token",
		},
		{
			name: "cross-tenant body", method: http.MethodPost, target: "/api/shipments",
			body:    `{"companyId":"co_B","serviceSlug":"air","origin":{"country":"KE","city":"N"},"destination":{"country":"UG","city":"K"}}`,
			headers: map[string]string{"Authorization": client},
			status:  http.StatusForbidden, code: "tenant_mismatch",
		},
		{
			name: "client on admin route", method: http.MethodPost, target: "/api/admin/shipments/update",
			body:    `{"trackingNumber":"CS-1","status":"picked-up"}`,
			headers: map[string]string{"Authorization": client},
			status:  http.StatusForbidden, code: "forbidden",
		},
		{
			name: "unknown shipment", shipments: &fakeShipments{err: domain.ErrShipmentNotFound},
			method: http.MethodGet, target: "/api/tracking/CS-404",
			headers: map[string]string{"Authorization": client},
			status:  http.StatusNotFound, code: "not_found",
		},
		{
			name: "insufficient stock", inventory: &fakeInventory{err: domain.ErrInsufficientStock},
			method: http.MethodPost, target: "/api/inventory/reserve",
			body:    `{"shipmentId":"shp_1","items":[{"sku":"A","warehouseId":"w1","quantity":9}]}`,
			headers: map[string]string{"Authorization": client},
			status:  http.StatusConflict, code: "insufficient_stock",
		},
		{
			name: "invalid transition", shipments: &fakeShipments{err: domain.ErrInvalidTransition},
			method: http.MethodPost, target: "/api/admin/shipments/update",
			body:    `{"trackingNumber":"CS-1","status":"delivered"}`,
			headers: map[string]string{"Authorization": admin},
			status:  http.StatusUnprocessableEntity, code: "invalid_transition",
		},
		{
			name: "validation", method: http.MethodPost, target: "/api/inventory/reserve",
			body:    `{"shipmentId":"shp_1","items":[]}`,
			headers: map[string]string{"Authorization": client},
			status:  http.StatusUnprocessableEntity, code: "validation_failed",
		},
		{
			name: "malformed json", method: http.MethodPost, target: "/api/inventory/reserve",
			body:    `{"shipmentId":`,
			headers: map[string]string{"Authorization": client},
			status:  http.StatusBadRequest, code: "bad_request",
		},
		{
			name: "payment finalized", method: http.MethodPost, target: "/api/payments/stripe",
			body:    `{"shipmentId":"shp_1","amount":100,"successUrl":"https://a.example/ok","cancelUrl":"https://a.example/no"}`,
			headers: map[string]string{"Authorization": client},
			status:  http.StatusConflict, code: "payment_finalized",
		},
		{
			name: "bad webhook signature", method: http.MethodPost, target: "/api/webhooks/stripe",
			body:   `{"id":"evt_1"}`,
			status: http.StatusBadRequest, code: "invalid_signature",
		},
		{
			name: "unknown route", method: http.MethodGet, target: "/api/nope",
			status: http.StatusNotFound, code: "not_found",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sh, inv := tc.shipments, tc.inventory
			if sh == nil {
				sh = &fakeShipments{}
			}
			if inv == nil {
				inv = &fakeInventory{}
			}
			rec := do(newTestRouter(sh, inv), tc.method, tc.target, tc.body, tc.headers)
			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if got := envelope(t, rec); got.Error != tc.code || got.Message == "" {
				t.Fatalf("unexpected envelope %+v", got)
			}
		})
	}
}

func TestRouter_InternalErrorDoesNotLeak(t *testing.T) {
	e := newTestRouter(&fakeShipments{}, &fakeInventory{})
	rec := do(e, http.MethodPost, "/api/payments/mpesa", `{"shipmentId":"shp_1","phone":"254700000001","amount":10}`,
		map[string]string{"Authorization": "Bearer " + token(t, domain.RoleClient, "co_A")})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	got := envelope(t, rec)
	if got.Error != "internal_error" || strings.Contains(got.Message, "10.0.0.1") {
		t.Fatalf("internal details leaked: %+v", got)
	}
}

func TestRouter_CookieCredential(t *testing.T) {
	e := newTestRouter(&fakeShipments{}, &fakeInventory{})
	rec := do(e, http.MethodGet, "/api/tracking/CS-1", "",
		map[string]string{"Cookie": "token=" + token(t, domain.RoleClient, "co_A")})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_PublicRoutes(t *testing.T) {
	e := newTestRouter(&fakeShipments{}, &fakeInventory{})

	for _, target := range []string{"/health", "/api/services", "/api/faqs"} {
		if rec := do(e, http.MethodGet, target, "", nil); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", target, rec.Code)
		}
	}

	rec := do(e, http.MethodPost, "/api/payments/stripe/webhook", `{"id":"evt_1"}`, map[string]string{"Stripe-Signature": "valid"})
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_SeedRequiresAdminToken(t *testing.T) {
	e := NewRouter(Dependencies{
		Log:       zerolog.Nop(),
		Resolver:  service.NewTenantResolver(testSecret),
		Catalog:   fakeCatalog{},
		SeedAdmin: middleware.SeedAdminConfig{Token: "seed-secret"},
	})

	if rec := do(e, http.MethodPost, "/api/admin/seed", `{"companyId":"co_A"}`, map[string]string{"X-Admin-Token": "wrong"}); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/admin/seed", `{"companyId":"co_A"}`, map[string]string{"X-Admin-Token": "seed-secret"}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}
