package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

const (
	collectionInventory = "inventory"
	collectionMovements = "inventory_movements"
)

type InventoryRepository struct {
	col *mongo.Collection
}

func NewInventoryRepository(db *mongo.Database) *InventoryRepository {
	return &InventoryRepository{col: db.Collection(collectionInventory)}
}

func (r *InventoryRepository) Find(ctx context.Context, companyID, warehouseID, sku string) (*domain.Inventory, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var inv domain.Inventory
	err := r.col.FindOne(ctx, bson.M{"company_id": companyID, "warehouse_id": warehouseID, "sku": sku}).Decode(&inv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInventoryNotFound
		}
		return nil, fmt.Errorf("find inventory: %w", err)
	}
	return &inv, nil
}

func (r *InventoryRepository) List(ctx context.Context, companyID, warehouseID string) ([]*domain.Inventory, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"company_id": companyID}
	if warehouseID != "" {
		filter["warehouse_id"] = warehouseID
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "warehouse_id", Value: 1}, {Key: "sku", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	var items []*domain.Inventory
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}
	return items, nil
}

// Reserve is a guarded $inc: the filter only matches while enough stock is
// available, so quantity_available can never be driven below zero.
func (r *InventoryRepository) Reserve(ctx context.Context, id string, qty int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "quantity_available": bson.M{"$gte": qty}},
		bson.M{
			"$inc": bson.M{"quantity_available": -qty, "quantity_reserved": qty},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("reserve inventory: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

type MovementRepository struct {
	col *mongo.Collection
}

func NewMovementRepository(db *mongo.Database) *MovementRepository {
	return &MovementRepository{col: db.Collection(collectionMovements)}
}

func (r *MovementRepository) Insert(ctx context.Context, m *domain.InventoryMovement) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func (r *MovementRepository) ListByShipment(ctx context.Context, companyID, shipmentID string) ([]*domain.InventoryMovement, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx,
		bson.M{"company_id": companyID, "related_shipment_id": shipmentID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	var items []*domain.InventoryMovement
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode movements: %w", err)
	}
	return items, nil
}
