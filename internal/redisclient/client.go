package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/mirror_reserve.lua
var mirrorReserveScript string

//go:embed scripts/mirror_release.lua
var mirrorReleaseScript string

// Client mirrors per-size availability for the storefront. Postgres
// stays authoritative; this cache only has to be fresh enough for a
// size picker, so every operation is best-effort.
type Client struct {
	rdb           *redis.Client
	reserveScript *redis.Script
	releaseScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		reserveScript: redis.NewScript(mirrorReserveScript),
		releaseScript: redis.NewScript(mirrorReleaseScript),
	}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func stockKey(productID int64) string {
	return fmt.Sprintf("stock:%d", productID)
}

// MirrorReserve applies a reservation to the cached stock hash
func (c *Client) MirrorReserve(ctx context.Context, productID int64, size string, quantity int) error {
	_, err := c.reserveScript.Run(ctx, c.rdb, []string{stockKey(productID)}, size, quantity).Result()
	if err != nil {
		return fmt.Errorf("mirror reserve script failed: %w", err)
	}
	return nil
}

// MirrorRelease applies a stock release to the cached stock hash
func (c *Client) MirrorRelease(ctx context.Context, productID int64, size string, quantity int) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{stockKey(productID)}, size, quantity).Result()
	if err != nil {
		return fmt.Errorf("mirror release script failed: %w", err)
	}
	return nil
}

// SetStock replaces the cached stock hash for a product
func (c *Client) SetStock(ctx context.Context, productID int64, sizes map[string]int) error {
	key := stockKey(productID)

	pipe := c.rdb.Pipeline()
	pipe.Del(ctx, key)
	for size, qty := range sizes {
		pipe.HSet(ctx, key, size, qty)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// GetStock returns the cached per-size availability for a product.
// An empty map means the product is not cached.
func (c *Client) GetStock(ctx context.Context, productID int64) (map[string]int, error) {
	result, err := c.rdb.HGetAll(ctx, stockKey(productID)).Result()
	if err != nil {
		return nil, err
	}

	sizes := make(map[string]int, len(result))
	for size, raw := range result {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		sizes[size] = qty
	}
	return sizes, nil
}
