package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

const (
	collectionVehicles    = "vehicles"
	collectionDrivers     = "drivers"
	collectionAssignments = "vehicle_assignments"
)

type FleetRepository struct {
	vehicles    *mongo.Collection
	drivers     *mongo.Collection
	assignments *mongo.Collection
}

func NewFleetRepository(db *mongo.Database) *FleetRepository {
	return &FleetRepository{
		vehicles:    db.Collection(collectionVehicles),
		drivers:     db.Collection(collectionDrivers),
		assignments: db.Collection(collectionAssignments),
	}
}

func (r *FleetRepository) FindVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var v domain.Vehicle
	if err := r.vehicles.FindOne(ctx, bson.M{"_id": id}).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	return &v, nil
}

func (r *FleetRepository) FindDriver(ctx context.Context, id string) (*domain.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d domain.Driver
	if err := r.drivers.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDriverNotFound
		}
		return nil, fmt.Errorf("find driver: %w", err)
	}
	return &d, nil
}

func (r *FleetRepository) MarkVehicle(ctx context.Context, id string, from, to domain.VehicleStatus) error {
	ok, err := flipStatus(ctx, r.vehicles, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("mark vehicle: %w", err)
	}
	if !ok {
		return domain.ErrVehicleUnavailable
	}
	return nil
}

func (r *FleetRepository) MarkDriver(ctx context.Context, id string, from, to domain.DriverStatus) error {
	ok, err := flipStatus(ctx, r.drivers, id, string(from), string(to))
	if err != nil {
		return fmt.Errorf("mark driver: %w", err)
	}
	if !ok {
		return domain.ErrDriverUnavailable
	}
	return nil
}

func (r *FleetRepository) CreateAssignment(ctx context.Context, a *domain.VehicleAssignment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.assignments.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

// flipStatus moves a document from status `from` to `to` and reports whether
// it was still in `from`.
func flipStatus(ctx context.Context, col *mongo.Collection, id, from, to string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := col.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": bson.M{"status": to}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}
