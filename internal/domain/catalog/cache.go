// internal/domain/catalog/cache.go
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a product is not cached.
var ErrCacheMiss = errors.New("cache miss")

// ProductCache keeps product snapshots in Redis.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProductCache creates a product cache with the given entry lifetime
func NewProductCache(client *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *ProductCache) Get(ctx context.Context, id uint) (*Product, error) {
	data, err := c.client.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var product Product
	if err := json.Unmarshal(data, &product); err != nil {
		return nil, fmt.Errorf("unmarshal product failed: %w", err)
	}

	return &product, nil
}

func (c *ProductCache) Set(ctx context.Context, product *Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	if err := c.client.Set(ctx, productKey(product.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *ProductCache) Delete(ctx context.Context, id uint) error {
	if err := c.client.Del(ctx, productKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func productKey(id uint) string {
	return fmt.Sprintf("catalog:product:%d", id)
}
