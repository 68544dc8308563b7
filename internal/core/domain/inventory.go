package domain

import "time"

// MovementType classifies an inventory ledger row.
type MovementType string

const (
	MovementInbound  MovementType = "inbound"
	MovementOutbound MovementType = "outbound"
	MovementTransfer MovementType = "transfer"
)

// Inventory is the stock record for one (company, warehouse, sku) triple.
// QuantityAvailable never goes below zero.
type Inventory struct {
	ID                string    `json:"id" bson:"_id"`
	CompanyID         string    `json:"companyId" bson:"company_id"`
	WarehouseID       string    `json:"warehouseId" bson:"warehouse_id"`
	SKU               string    `json:"sku" bson:"sku"`
	ProductName       string    `json:"productName,omitempty" bson:"product_name,omitempty"`
	QuantityAvailable int64     `json:"quantityAvailable" bson:"quantity_available"`
	QuantityReserved  int64     `json:"quantityReserved" bson:"quantity_reserved"`
	ReorderLevel      int64     `json:"reorderLevel" bson:"reorder_level"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updated_at"`
}

// LowStock reports whether available stock is at or below the reorder level.
func (i *Inventory) LowStock() bool {
	return i.QuantityAvailable <= i.ReorderLevel
}

// InventoryMovement is an append-only ledger row.
type InventoryMovement struct {
	ID                string       `json:"id" bson:"_id"`
	CompanyID         string       `json:"companyId" bson:"company_id"`
	SKU               string       `json:"sku" bson:"sku"`
	WarehouseID       string       `json:"warehouseId" bson:"warehouse_id"`
	Type              MovementType `json:"type" bson:"type"`
	Quantity          int64        `json:"quantity" bson:"quantity"`
	RelatedShipmentID string       `json:"relatedShipmentId,omitempty" bson:"related_shipment_id,omitempty"`
	CreatedAt         time.Time    `json:"createdAt" bson:"created_at"`
}
