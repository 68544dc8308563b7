package domain

import "time"

// InvoiceRecord is the metadata of a generated invoice document.
// Monetary fields are in minor currency units.
type InvoiceRecord struct {
	ID          string    `json:"id" bson:"_id"`
	CompanyID   string    `json:"companyId" bson:"company_id"`
	ShipmentID  string    `json:"shipmentId" bson:"shipment_id"`
	StoragePath string    `json:"storagePath" bson:"storage_path"`
	URL         string    `json:"url" bson:"url"`
	Currency    string    `json:"currency" bson:"currency"`
	Subtotal    int64     `json:"subtotal" bson:"subtotal"`
	VAT         int64     `json:"vat" bson:"vat"`
	Total       int64     `json:"total" bson:"total"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}
