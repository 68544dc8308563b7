package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crownshift/logistics-api/internal/api/metrics"
	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

var (
	reservationResults = map[error]string{
		domain.ErrInsufficientStock: "insufficient_stock",
		domain.ErrNotFound:          "not_found",
		domain.ErrTenantMismatch:    "tenant_mismatch",
	}
	assignmentResults = map[error]string{
		domain.ErrVehicleUnavailable: "vehicle_unavailable",
		domain.ErrDriverUnavailable:  "driver_unavailable",
		domain.ErrNotFound:           "not_found",
		domain.ErrTenantMismatch:     "tenant_mismatch",
	}
)

// OperationsHandler serves warehouse and fleet operations.
type OperationsHandler struct {
	inventory ports.InventoryService
	fleet     ports.FleetService
}

func NewOperationsHandler(inventory ports.InventoryService, fleet ports.FleetService) *OperationsHandler {
	return &OperationsHandler{inventory: inventory, fleet: fleet}
}

// Reserve handles POST /api/inventory/reserve. All items are reserved or none.
//
// @Summary      Reserve stock for a shipment
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      reserveRequest  true  "Items to reserve"
// @Success      200   {object}  reserveResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/inventory/reserve [post]
func (h *OperationsHandler) Reserve(c echo.Context) error {
	var req reserveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tenant, err := tenantFor(c, req.CompanyID)
	if err != nil {
		return err
	}

	items := make([]ports.ReserveItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, ports.ReserveItem{SKU: it.SKU, WarehouseID: it.WarehouseID, Quantity: it.Quantity})
	}
	res, err := h.inventory.Reserve(c.Request().Context(), ports.ReserveInput{
		CompanyID:  tenant.CompanyID,
		ShipmentID: req.ShipmentID,
		Items:      items,
	})
	metrics.ReservationsTotal.WithLabelValues(metrics.Result(err, reservationResults)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reserveResponse{OK: true, Movements: res.Movements})
}

// ListInventory handles GET /api/inventory.
//
// @Summary      List stock records
// @Tags         inventory
// @Produce      json
// @Security     BearerAuth
// @Param        warehouseId  query     string  false  "Restrict to one warehouse"
// @Success      200          {array}   inventoryItemResponse
// @Router       /api/inventory [get]
func (h *OperationsHandler) ListInventory(c echo.Context) error {
	tenant, err := tenantFor(c, "")
	if err != nil {
		return err
	}
	records, err := h.inventory.List(c.Request().Context(), tenant.CompanyID, c.QueryParam("warehouseId"))
	if err != nil {
		return err
	}
	out := make([]inventoryItemResponse, 0, len(records))
	for _, r := range records {
		out = append(out, inventoryItemResponse{Inventory: r, LowStock: r.LowStock()})
	}
	return c.JSON(http.StatusOK, out)
}

// Assign handles POST /api/fleet/assign.
//
// @Summary      Assign a vehicle and driver to a shipment
// @Tags         fleet
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      assignRequest  true  "Assignment"
// @Success      200   {object}  assignResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/fleet/assign [post]
func (h *OperationsHandler) Assign(c echo.Context) error {
	var req assignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tenant, err := tenantFor(c, req.CompanyID)
	if err != nil {
		return err
	}

	a, err := h.fleet.Assign(c.Request().Context(), ports.AssignInput{
		CompanyID:  tenant.CompanyID,
		ShipmentID: req.ShipmentID,
		VehicleID:  req.VehicleID,
		DriverID:   req.DriverID,
	})
	metrics.AssignmentsTotal.WithLabelValues(metrics.Result(err, assignmentResults)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, assignResponse{OK: true, Assignment: a})
}
