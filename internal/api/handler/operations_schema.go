package handler

import "github.com/crownshift/logistics-api/internal/core/domain"

type reserveItemRequest struct {
	SKU         string `json:"sku"         validate:"required"`
	WarehouseID string `json:"warehouseId" validate:"required"`
	Quantity    int64  `json:"quantity"    validate:"gt=0"`
}

type reserveRequest struct {
	CompanyID  string               `json:"companyId"`
	ShipmentID string               `json:"shipmentId"`
	Items      []reserveItemRequest `json:"items"      validate:"required,min=1,dive"`
}

type reserveResponse struct {
	OK        bool                        `json:"ok"`
	Movements []*domain.InventoryMovement `json:"movements"`
}

type inventoryItemResponse struct {
	*domain.Inventory
	LowStock bool `json:"lowStock"`
}

type assignRequest struct {
	CompanyID  string `json:"companyId"`
	ShipmentID string `json:"shipmentId" validate:"required"`
	VehicleID  string `json:"vehicleId"  validate:"required"`
	DriverID   string `json:"driverId"   validate:"required"`
}

type assignResponse struct {
	OK         bool                      `json:"ok"`
	Assignment *domain.VehicleAssignment `json:"assignment"`
}
