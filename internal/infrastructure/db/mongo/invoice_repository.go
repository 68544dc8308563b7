package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

const collectionInvoices = "invoices"

type InvoiceRepository struct {
	col *mongo.Collection
}

func NewInvoiceRepository(db *mongo.Database) *InvoiceRepository {
	return &InvoiceRepository{col: db.Collection(collectionInvoices)}
}

// Save keeps one record per shipment; the first record's _id is retained.
func (r *InvoiceRepository) Save(ctx context.Context, rec *domain.InvoiceRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"shipment_id": rec.ShipmentID},
		bson.M{
			"$set": bson.M{
				"company_id":   rec.CompanyID,
				"storage_path": rec.StoragePath,
				"url":          rec.URL,
				"currency":     rec.Currency,
				"subtotal":     rec.Subtotal,
				"vat":          rec.VAT,
				"total":        rec.Total,
				"created_at":   rec.CreatedAt,
			},
			"$setOnInsert": bson.M{"_id": rec.ID},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepository) FindByShipment(ctx context.Context, shipmentID string) (*domain.InvoiceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec domain.InvoiceRecord
	if err := r.col.FindOne(ctx, bson.M{"shipment_id": shipmentID}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	return &rec, nil
}
