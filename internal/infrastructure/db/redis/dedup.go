package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dedupTTL    = 24 * time.Hour
	dedupPrefix = "dedup:webhook:"
)

// DedupChecker remembers processed webhook event keys for dedupTTL.
// Key format: dedup:webhook:<provider>:<event_id>
type DedupChecker struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewDedupChecker(client redis.Cmdable) *DedupChecker {
	return &DedupChecker{client: client, ttl: dedupTTL}
}

// IsDuplicate reports whether key was marked within the TTL window.
func (d *DedupChecker) IsDuplicate(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, dedupPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

func (d *DedupChecker) Mark(ctx context.Context, key string) error {
	if err := d.client.Set(ctx, dedupPrefix+key, "1", d.ttl).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}
