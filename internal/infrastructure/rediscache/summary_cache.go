// Package rediscache caches computed spending summaries in Redis. The cache
// is optional: when no Redis address is configured the service computes
// summaries on every request.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tracksub/internal/domain/subscription"
	"tracksub/internal/shared/config"
)

type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ subscription.SummaryCache = (*SummaryCache)(nil)

// New returns nil when no Redis address is configured. Callers must check
// for nil before handing the cache to subscription.NewService because a
// typed nil would defeat the service's own nil check.
func New(cfg config.RedisConfig) *SummaryCache {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &SummaryCache{client: client, ttl: cfg.SummaryTTL}
}

func (c *SummaryCache) GetSummary(ctx context.Context, userID int64) (*subscription.Summary, error) {
	data, err := c.client.Get(ctx, summaryKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached summary: %w", err)
	}

	var summary subscription.Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decoding cached summary: %w", err)
	}
	return &summary, nil
}

func (c *SummaryCache) SetSummary(ctx context.Context, userID int64, summary *subscription.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding summary: %w", err)
	}
	return c.client.Set(ctx, summaryKey(userID), data, c.ttl).Err()
}

func (c *SummaryCache) Invalidate(ctx context.Context, userID int64) error {
	return c.client.Del(ctx, summaryKey(userID)).Err()
}

func (c *SummaryCache) Close() error {
	return c.client.Close()
}

func summaryKey(userID int64) string {
	return fmt.Sprintf("summary:%d", userID)
}
