package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// indexModels lists the indexes each collection needs.
func indexModels() map[string][]mongo.IndexModel {
	unique := options.Index().SetUnique(true)
	return map[string][]mongo.IndexModel{
		collectionShipments: {
			{Keys: bson.D{{Key: "tracking_number", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "service_slug", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "payment.provider", Value: 1}, {Key: "payment.reference", Value: 1}}},
		},
		collectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		collectionInventory: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "warehouse_id", Value: 1}, {Key: "sku", Value: 1}}, Options: unique},
		},
		collectionMovements: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "related_shipment_id", Value: 1}}},
		},
		collectionVehicles: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		collectionDrivers: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		collectionAssignments: {
			{Keys: bson.D{{Key: "company_id", Value: 1}, {Key: "shipment_id", Value: 1}}},
		},
		collectionInvoices: {
			{Keys: bson.D{{Key: "shipment_id", Value: 1}}, Options: unique},
		},
	}
}

// EnsureIndexes creates every index the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for coll, models := range indexModels() {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
