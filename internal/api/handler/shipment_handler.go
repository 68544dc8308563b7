package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crownshift/logistics-api/internal/api/metrics"
	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

// ShipmentHandler handles HTTP requests for shipment operations.
type ShipmentHandler struct {
	service ports.ShipmentService
	eta     ports.ETAPredictor
}

func NewShipmentHandler(service ports.ShipmentService, eta ports.ETAPredictor) *ShipmentHandler {
	return &ShipmentHandler{service: service, eta: eta}
}

// Create handles POST /api/shipments.
//
// @Summary      Create a shipment
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createShipmentRequest  true  "Shipment details"
// @Success      201   {object}  createShipmentResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/shipments [post]
func (h *ShipmentHandler) Create(c echo.Context) error {
	var req createShipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tenant, err := tenantFor(c, req.CompanyID)
	if err != nil {
		return err
	}

	customerID := req.CustomerID
	if customerID == "" {
		customerID = tenant.Identity.UserID
	}

	res, err := h.service.Create(c.Request().Context(), ports.CreateShipmentInput{
		CompanyID:     tenant.CompanyID,
		CustomerID:    customerID,
		CustomerEmail: req.CustomerEmail,
		ServiceSlug:   req.ServiceSlug,
		Origin:        *req.Origin.toDomain(),
		Destination:   *req.Destination.toDomain(),
	})
	if err != nil {
		return err
	}
	metrics.ShipmentsCreatedTotal.WithLabelValues(req.ServiceSlug).Inc()

	return c.JSON(http.StatusCreated, createShipmentResponse{
		OK:                true,
		ID:                res.ID,
		TrackingNumber:    res.TrackingNumber,
		EstimatedDelivery: res.EstimatedDelivery,
	})
}

// Update handles PUT /api/shipments.
//
// @Summary      Update whitelisted shipment fields
// @Tags         shipments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateShipmentRequest  true  "Shipment id and updates"
// @Success      200   {object}  shipmentResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/shipments [put]
func (h *ShipmentHandler) Update(c echo.Context) error {
	var req updateShipmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tenant, err := tenantFor(c, req.CompanyID)
	if err != nil {
		return err
	}

	shipment, err := h.service.Update(c.Request().Context(), ports.UpdateShipmentInput{
		CompanyID: tenant.CompanyID,
		ID:        req.ID,
		Changes: ports.ShipmentChanges{
			CustomerEmail: req.Updates.CustomerEmail,
			ServiceSlug:   req.Updates.ServiceSlug,
			Origin:        req.Updates.Origin.toDomain(),
			Destination:   req.Updates.Destination.toDomain(),
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shipmentResponse{OK: true, Shipment: shipment})
}

// Track handles GET /api/tracking/:id.
//
// @Summary      Track a shipment by id or tracking number
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment id or tracking number"
// @Success      200  {object}  domain.Shipment
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/tracking/{id} [get]
func (h *ShipmentHandler) Track(c echo.Context) error {
	tenant, err := tenantFor(c, "")
	if err != nil {
		return err
	}
	shipment, err := h.service.Get(c.Request().Context(), tenant.CompanyID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, shipment)
}

// List handles GET /api/shipments.
//
// @Summary      List the company's shipments
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        status   query     string  false  "Shipment status"
// @Param        service  query     string  false  "Service slug"
// @Param        search   query     string  false  "Tracking number or customer email fragment"
// @Param        from     query     string  false  "Created at or after (RFC3339 or YYYY-MM-DD)"
// @Param        to       query     string  false  "Created at or before (RFC3339 or YYYY-MM-DD)"
// @Param        page     query     int     false  "Page (1-based)"
// @Param        limit    query     int     false  "Page size (max 100)"
// @Success      200      {object}  listShipmentsResponse
// @Failure      422      {object}  errorResponse
// @Router       /api/shipments [get]
func (h *ShipmentHandler) List(c echo.Context) error {
	tenant, err := tenantFor(c, c.QueryParam("companyId"))
	if err != nil {
		return err
	}

	in := ports.ListShipmentsInput{
		CompanyID:   tenant.CompanyID,
		Status:      c.QueryParam("status"),
		ServiceSlug: c.QueryParam("service"),
		Search:      c.QueryParam("search"),
	}
	if in.Page, err = intParam(c, "page"); err != nil {
		return err
	}
	if in.Limit, err = intParam(c, "limit"); err != nil {
		return err
	}
	if in.DateFrom, err = dateParam(c, "from", false); err != nil {
		return err
	}
	if in.DateTo, err = dateParam(c, "to", true); err != nil {
		return err
	}

	res, err := h.service.List(c.Request().Context(), in)
	if err != nil {
		return err
	}
	items := res.Items
	if items == nil {
		items = []*domain.Shipment{}
	}
	return c.JSON(http.StatusOK, listShipmentsResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	})
}

// RecomputeETA handles POST /api/shipments/:id/eta.
//
// @Summary      Recompute the estimated delivery date
// @Tags         shipments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Shipment id"
// @Success      200  {object}  etaResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/shipments/{id}/eta [post]
func (h *ShipmentHandler) RecomputeETA(c echo.Context) error {
	tenant, err := tenantFor(c, "")
	if err != nil {
		return err
	}
	eta, err := h.eta.Recompute(c.Request().Context(), tenant.CompanyID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, etaResponse{OK: true, EstimatedDelivery: eta})
}

// UpdateStatus handles POST /api/admin/shipments/update.
//
// @Summary      Append a status change to a shipment timeline
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      statusUpdateRequest  true  "Status update"
// @Success      200   {object}  shipmentResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/admin/shipments/update [post]
func (h *ShipmentHandler) UpdateStatus(c echo.Context) error {
	var req statusUpdateRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tenant, err := tenantFor(c, "")
	if err != nil {
		return err
	}

	ts := time.Now().UTC()
	if req.TimelineEntry.Timestamp != nil {
		ts = req.TimelineEntry.Timestamp.UTC()
	}
	shipment, err := h.service.UpdateStatus(c.Request().Context(), ports.StatusUpdateInput{
		CompanyID:      tenant.CompanyID,
		TrackingNumber: req.TrackingNumber,
		Status:         domain.ShipmentStatus(req.Status),
		Location:       req.TimelineEntry.Location,
		Timestamp:      ts,
	})
	if err != nil {
		return err
	}
	metrics.ShipmentStatusUpdatesTotal.WithLabelValues(req.Status).Inc()
	return c.JSON(http.StatusOK, shipmentResponse{OK: true, Shipment: shipment})
}

func intParam(c echo.Context, name string) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrValidation, name)
	}
	return n, nil
}

// dateParam accepts RFC3339 or a bare date. A bare upper bound covers the
// whole day.
func dateParam(c echo.Context, name string, endOfDay bool) (time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be RFC3339 or YYYY-MM-DD", domain.ErrValidation, name)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
