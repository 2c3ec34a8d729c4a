// Package cache provides a small Redis-backed cache for open-slot browse
// results. A nil *SlotCache disables caching entirely, so the service can run
// without Redis in local development.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oiyahen/scrim-scheduler/models"
	"github.com/redis/go-redis/v9"
)

const (
	browsePrefix = "slots:browse:"
	browseTTL    = 15 * time.Second
)

// NewRedisClient connects to Redis at addr. Returns nil (caching disabled)
// when addr is empty or the server cannot be reached.
func NewRedisClient(addr string) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

type SlotCache struct {
	client *redis.Client
}

// NewSlotCache wraps a Redis client. A nil client yields a nil cache, and all
// methods on a nil cache are no-ops.
func NewSlotCache(client *redis.Client) *SlotCache {
	if client == nil {
		return nil
	}
	return &SlotCache{client: client}
}

func (c *SlotCache) GetBrowse(ctx context.Context, key string) ([]models.ScrimSlot, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, browsePrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var slots []models.ScrimSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, false
	}
	return slots, true
}

func (c *SlotCache) SetBrowse(ctx context.Context, key string, slots []models.ScrimSlot) {
	if c == nil {
		return
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	// Ошибки записи в кэш не влияют на основной поток запроса.
	_ = c.client.Set(ctx, browsePrefix+key, data, browseTTL).Err()
}

// InvalidateBrowse drops every cached browse page. Called after any slot
// mutation so stale "open" listings never outlive a claim by more than a
// failed lookup.
func (c *SlotCache) InvalidateBrowse(ctx context.Context) {
	if c == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, browsePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		_ = c.client.Del(ctx, iter.Val()).Err()
	}
}

// BrowseKey builds a deterministic cache key from browse filter values.
func BrowseKey(gameID, teamID int, region, status string, limit, offset int) string {
	return fmt.Sprintf("g%d:t%d:r%s:s%s:l%d:o%d", gameID, teamID, region, status, limit, offset)
}
