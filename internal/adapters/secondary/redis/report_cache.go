// Package redis caches computed range reports in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/lorrc/service-desk-analytics/internal/core/domain"
	"github.com/lorrc/service-desk-analytics/internal/core/ports"
	"github.com/lorrc/service-desk-analytics/internal/infrastructure/metrics"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "stats:report:"
	defaultTTL       = 10 * time.Minute
	scanBatch        = 100
)

// Options configures the report cache.
type Options struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// ReportCache stores range reports as JSON under a common key prefix.
type ReportCache struct {
	client  goredis.UniversalClient
	prefix  string
	ttl     time.Duration
	metrics *metrics.CacheMetrics
}

var _ ports.ReportCache = (*ReportCache)(nil)

// New connects to Redis and verifies the connection with a ping.
func New(ctx context.Context, opts Options, m *metrics.CacheMetrics) (*ReportCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewWithClient(client, opts, m), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, opts Options, m *metrics.CacheMetrics) *ReportCache {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	return &ReportCache{
		client:  client,
		prefix:  opts.KeyPrefix,
		ttl:     opts.TTL,
		metrics: m,
	}
}

// GetReports returns the cached reports for key.
func (c *ReportCache) GetReports(ctx context.Context, key string) ([]domain.RangeReport, bool, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			c.metrics.Miss()
			return nil, false, nil
		}
		c.metrics.Error()
		return nil, false, err
	}

	var reports []domain.RangeReport
	if err := json.Unmarshal(val, &reports); err != nil {
		c.metrics.Error()
		return nil, false, err
	}
	c.metrics.Hit()
	return reports, true, nil
}

// SetReports stores reports under key with the configured TTL.
func (c *ReportCache) SetReports(ctx context.Context, key string, reports []domain.RangeReport) error {
	data, err := json.Marshal(reports)
	if err != nil {
		c.metrics.Error()
		return err
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.metrics.Error()
		return err
	}
	c.metrics.Set()
	return nil
}

// Invalidate deletes every key under the cache prefix.
func (c *ReportCache) Invalidate(ctx context.Context) error {
	var keys []string
	iter := c.client.Scan(ctx, 0, c.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.metrics.Error()
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for _, key := range keys {
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.metrics.Error()
		return err
	}
	c.metrics.Dropped(len(keys))
	return nil
}

// Ping checks the server is reachable.
func (c *ReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *ReportCache) Close() error {
	return c.client.Close()
}
