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

const (
	collectionServices = "services"
	collectionFAQs     = "faqs"
	collectionAdminOps = "admin_ops"
)

type CatalogRepository struct {
	services *mongo.Collection
	faqs     *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		services: db.Collection(collectionServices),
		faqs:     db.Collection(collectionFAQs),
	}
}

func (r *CatalogRepository) ListServices(ctx context.Context) ([]*domain.Service, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.services.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	var items []*domain.Service
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode services: %w", err)
	}
	return items, nil
}

func (r *CatalogRepository) ListFAQs(ctx context.Context) ([]*domain.FAQ, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.faqs.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "order", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	var items []*domain.FAQ
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode faqs: %w", err)
	}
	return items, nil
}

func (r *CatalogRepository) InsertServiceIfAbsent(ctx context.Context, s *domain.Service) (bool, error) {
	return insertIfAbsent(ctx, r.services, s)
}

func (r *CatalogRepository) InsertFAQIfAbsent(ctx context.Context, f *domain.FAQ) (bool, error) {
	return insertIfAbsent(ctx, r.faqs, f)
}

func insertIfAbsent(ctx context.Context, col *mongo.Collection, doc any) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert into %s: %w", col.Name(), err)
	}
	return true, nil
}

type AdminOpsRepository struct {
	col *mongo.Collection
}

func NewAdminOpsRepository(db *mongo.Database) *AdminOpsRepository {
	return &AdminOpsRepository{col: db.Collection(collectionAdminOps)}
}

func (r *AdminOpsRepository) FindSeedGuard(ctx context.Context) (*domain.SeedGuard, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var g domain.SeedGuard
	if err := r.col.FindOne(ctx, bson.M{"_id": domain.SeedGuardID}).Decode(&g); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find seed guard: %w", err)
	}
	return &g, nil
}

func (r *AdminOpsRepository) SaveSeedGuard(ctx context.Context, g *domain.SeedGuard) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": g.ID}, g, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save seed guard: %w", err)
	}
	return nil
}
