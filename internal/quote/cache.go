package quote

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Cache stores recent prices.
type Cache interface {
	GetMany(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error)
	SetMany(ctx context.Context, prices map[string]decimal.Decimal) error
}

// CachedProvider serves prices from a Cache and asks next only for the misses.
// Cache failures are logged and bypassed.
type CachedProvider struct {
	next  Provider
	cache Cache
}

// NewCachedProvider wraps next with cache.
func NewCachedProvider(next Provider, cache Cache) *CachedProvider {
	return &CachedProvider{next: next, cache: cache}
}

// Name returns the wrapped provider name.
func (p *CachedProvider) Name() string { return p.next.Name() }

// FetchPrices returns cached prices merged with fresh ones for the misses.
func (p *CachedProvider) FetchPrices(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	tickers = normalize(tickers)

	cached, err := p.cache.GetMany(ctx, tickers)
	if err != nil {
		log.Printf("quote cache read failed: %v", err)
		cached = nil
	}

	prices := positive(cached)
	var missing []string
	for _, t := range tickers {
		if _, ok := prices[t]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return prices, nil
	}

	fresh, fetchErr := p.next.FetchPrices(ctx, missing)
	fresh = positive(fresh)
	if len(fresh) > 0 {
		if err := p.cache.SetMany(ctx, fresh); err != nil {
			log.Printf("quote cache write failed: %v", err)
		}
	}
	for k, v := range fresh {
		prices[k] = v
	}

	return prices, fetchErr
}

// RedisCache is a Cache backed by Redis string keys with a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache creates a RedisCache. Keys are namespaced by currency so a
// change of reporting currency never serves stale conversions.
func NewRedisCache(client *redis.Client, currency string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "bolsamaster:quote:" + currency + ":",
		ttl:    ttl,
	}
}

// GetMany returns the cached prices among tickers.
func (c *RedisCache) GetMany(ctx context.Context, tickers []string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)
	if len(tickers) == 0 {
		return prices, nil
	}

	keys := make([]string, len(tickers))
	for i, t := range tickers {
		keys[i] = c.prefix + t
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return prices, fmt.Errorf("failed to read quote cache: %w", err)
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			continue
		}
		prices[tickers[i]] = d
	}
	return prices, nil
}

// SetMany stores prices with the cache TTL.
func (c *RedisCache) SetMany(ctx context.Context, prices map[string]decimal.Decimal) error {
	pipe := c.client.Pipeline()
	for t, v := range prices {
		pipe.Set(ctx, c.prefix+t, v.String(), c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write quote cache: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
