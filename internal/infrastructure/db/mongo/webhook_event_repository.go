package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

const collectionWebhookEvents = "webhook_events"

// WebhookEventRepository is the insert-only ledger of processed provider
// events. The event key is the document _id, so a replay hits a duplicate key.
type WebhookEventRepository struct {
	col *mongo.Collection
}

func NewWebhookEventRepository(db *mongo.Database) *WebhookEventRepository {
	return &WebhookEventRepository{col: db.Collection(collectionWebhookEvents)}
}

func (r *WebhookEventRepository) Insert(ctx context.Context, e *domain.WebhookEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyProcessed
		}
		return fmt.Errorf("insert webhook event: %w", err)
	}
	return nil
}
