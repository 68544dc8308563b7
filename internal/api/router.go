package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/crownshift/logistics-api/docs"
	"github.com/crownshift/logistics-api/internal/api/handler"
	"github.com/crownshift/logistics-api/internal/api/middleware"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

// Dependencies are the services and settings the HTTP layer is built from.
type Dependencies struct {
	Log      zerolog.Logger
	Resolver ports.TenantResolver

	Auth      ports.AuthService
	Shipments ports.ShipmentService
	ETA       ports.ETAPredictor
	Inventory ports.InventoryService
	Fleet     ports.FleetService
	Payments  ports.PaymentService
	Invoices  ports.InvoiceService
	Catalog   ports.CatalogService

	SeedAdmin    middleware.SeedAdminConfig
	HealthChecks map[string]handler.Check
	TokenTTL     time.Duration
	SecureCookie bool
	// MetricsSubsystem disables request metrics when empty.
	MetricsSubsystem string
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.BodyLimit("2M"))
	e.Use(requestLogger(d.Log))
	if d.MetricsSubsystem != "" {
		e.Use(echoprometheus.NewMiddleware(d.MetricsSubsystem))
		e.GET("/metrics", echoprometheus.NewHandler())
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.TokenTTL, d.SecureCookie)
	shipmentHandler := handler.NewShipmentHandler(d.Shipments, d.ETA)
	opsHandler := handler.NewOperationsHandler(d.Inventory, d.Fleet)
	paymentHandler := handler.NewPaymentHandler(d.Payments)
	invoiceHandler := handler.NewInvoiceHandler(d.Invoices)
	catalogHandler := handler.NewCatalogHandler(d.Catalog)
	healthHandler := handler.NewHealthHandler(d.HealthChecks)

	// --- Health probes and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Public routes ---
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/services", catalogHandler.Services)
	api.GET("/faqs", catalogHandler.FAQs)
	api.GET("/files/*", invoiceHandler.Download)

	// --- Provider callbacks (authenticated by signature or shared secret) ---
	api.POST("/payments/stripe/webhook", paymentHandler.StripeWebhook)
	api.POST("/webhooks/stripe", paymentHandler.StripeWebhook)
	api.POST("/payments/mpesa/callback", paymentHandler.MpesaCallback)

	// --- Tenant routes ---
	tenant := middleware.Tenant(d.Resolver)
	api.POST("/shipments", shipmentHandler.Create, tenant)
	api.PUT("/shipments", shipmentHandler.Update, tenant)
	api.GET("/shipments", shipmentHandler.List, tenant)
	api.POST("/shipments/:id/eta", shipmentHandler.RecomputeETA, tenant)
	api.GET("/tracking/:id", shipmentHandler.Track, tenant)
	api.POST("/inventory/reserve", opsHandler.Reserve, tenant)
	api.GET("/inventory", opsHandler.ListInventory, tenant)
	api.POST("/fleet/assign", opsHandler.Assign, tenant)
	api.POST("/payments/stripe", paymentHandler.StartStripe, tenant)
	api.POST("/payments/mpesa", paymentHandler.StartMpesa, tenant)
	api.GET("/invoices/generate/:shipmentId", invoiceHandler.Generate, tenant)

	// --- Admin routes ---
	api.POST("/admin/shipments/update", shipmentHandler.UpdateStatus, tenant, middleware.RequireAdmin())
	api.POST("/admin/seed", catalogHandler.Seed, middleware.SeedAdmin(d.SeedAdmin, d.Resolver))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
