package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const collectionShipments = "shipments"

type ShipmentRepository struct {
	col *mongo.Collection
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{col: db.Collection(collectionShipments)}
}

// Create inserts a new shipment document.
func (r *ShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, s); err != nil {
		return fmt.Errorf("insert shipment: %w", err)
	}
	return nil
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *ShipmentRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"tracking_number": trackingNumber})
}

func (r *ShipmentRepository) FindByPaymentReference(ctx context.Context, provider domain.PaymentProvider, reference string) (*domain.Shipment, error) {
	return r.findOne(ctx, bson.M{"payment.provider": provider, "payment.reference": reference})
}

func (r *ShipmentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Shipment
	if err := r.col.FindOne(ctx, filter).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns one page of shipments, newest first, plus the total match count.
func (r *ShipmentRepository) List(ctx context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listFilter(f)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count shipments: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find shipments: %w", err)
	}
	items := make([]*domain.Shipment, 0, f.Limit)
	if err := cur.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("decode shipments: %w", err)
	}
	return items, total, nil
}

// ListDelivered returns the most recent delivered shipments of a service.
func (r *ShipmentRepository) ListDelivered(ctx context.Context, serviceSlug string, limit int) ([]*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetProjection(bson.M{"created_at": 1, "updated_at": 1, "timeline": 1})

	cur, err := r.col.Find(ctx, bson.M{"service_slug": serviceSlug, "status": domain.StatusDelivered}, opts)
	if err != nil {
		return nil, fmt.Errorf("find delivered: %w", err)
	}
	var items []*domain.Shipment
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode delivered: %w", err)
	}
	return items, nil
}

func (r *ShipmentRepository) Update(ctx context.Context, id string, c ports.ShipmentChanges, at time.Time) error {
	set := bson.M{"updated_at": at}
	if c.CustomerEmail != nil {
		set["customer_email"] = *c.CustomerEmail
	}
	if c.ServiceSlug != nil {
		set["service_slug"] = *c.ServiceSlug
	}
	if c.Origin != nil {
		set["origin"] = *c.Origin
	}
	if c.Destination != nil {
		set["destination"] = *c.Destination
	}
	return r.updateByID(ctx, id, bson.M{"$set": set})
}

// AppendTimeline sets the current status and records the entry in one update.
// The filter pins the status the caller validated against.
func (r *ShipmentRepository) AppendTimeline(ctx context.Context, id string, from domain.ShipmentStatus, e domain.TimelineEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "status": from}, bson.M{
		"$set":  bson.M{"status": e.Status, "updated_at": e.Timestamp},
		"$push": bson.M{"timeline": e},
	})
	if err != nil {
		return fmt.Errorf("append timeline: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, id, domain.ErrInvalidTransition)
	}
	return nil
}

func (r *ShipmentRepository) SetEstimatedDelivery(ctx context.Context, id string, eta, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"estimated_delivery": eta, "updated_at": at}})
}

func (r *ShipmentRepository) SetInvoiceURL(ctx context.Context, id, url string, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"invoice_url": url, "updated_at": at}})
}

func (r *ShipmentRepository) SetPayment(ctx context.Context, id string, p domain.Payment) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{"payment": p, "updated_at": p.UpdatedAt}})
}

// UpdatePaymentStatus only matches a pending or absent payment, so a
// concurrent writer that already finalised it makes this a no-match instead
// of a regression. An absent sub-record takes provider and reference from p.
func (r *ShipmentRepository) UpdatePaymentStatus(ctx context.Context, id string, p domain.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, paymentUpdateFilter(id), paymentUpdatePipeline(p))
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, id, domain.ErrPaymentFinalized)
	}
	return nil
}

// missOrConflict explains a conditional update that matched nothing.
func (r *ShipmentRepository) missOrConflict(ctx context.Context, id string, conflict error) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrShipmentNotFound
	}
	return conflict
}

func paymentUpdateFilter(id string) bson.M {
	return bson.M{
		"_id": id,
		"$or": bson.A{
			bson.M{"payment.status": domain.PaymentPending},
			bson.M{"payment": bson.M{"$exists": false}},
		},
	}
}

// paymentUpdatePipeline keeps an existing provider and reference and falls
// back to p's when the sub-record is missing.
func paymentUpdatePipeline(p domain.Payment) mongo.Pipeline {
	return mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"payment": bson.M{"$mergeObjects": bson.A{
			bson.M{"provider": p.Provider, "reference": p.Reference},
			bson.M{"$ifNull": bson.A{"$payment", bson.M{}}},
			bson.M{"status": p.Status, "updated_at": p.UpdatedAt},
		}},
		"updated_at": p.UpdatedAt,
	}}}}
}

func (r *ShipmentRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update shipment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrShipmentNotFound
	}
	return nil
}

// listFilter translates the list query into a Mongo filter.
func listFilter(f ports.ListShipmentsFilter) bson.M {
	filter := bson.M{"company_id": f.CompanyID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.ServiceSlug != "" {
		filter["service_slug"] = f.ServiceSlug
	}
	if !f.DateFrom.IsZero() || !f.DateTo.IsZero() {
		created := bson.M{}
		if !f.DateFrom.IsZero() {
			created["$gte"] = f.DateFrom
		}
		if !f.DateTo.IsZero() {
			created["$lte"] = f.DateTo
		}
		filter["created_at"] = created
	}
	if f.Search != "" {
		pattern := regexp.QuoteMeta(f.Search)
		filter["$or"] = bson.A{
			bson.M{"tracking_number": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"customer_email": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return filter
}
