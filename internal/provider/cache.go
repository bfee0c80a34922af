package provider

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"stockscreener/internal/logger"
)

const (
	cacheKeyPrefix = "quote:"
	// flightTimeout bounds a shared upstream fetch once no caller owns it.
	flightTimeout = 30 * time.Second
)

// CachedProvider keeps successful quotes in Redis for a short TTL and
// collapses concurrent misses for the same symbol into one upstream call.
// Failures are never cached. Redis problems degrade to a direct call.
type CachedProvider struct {
	next  Provider
	rdb   *redis.Client
	ttl   time.Duration
	group singleflight.Group
	log   *zap.SugaredLogger
}

// NewCachedProvider wraps next with a Redis-backed quote cache.
func NewCachedProvider(next Provider, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		next: next,
		rdb:  rdb,
		ttl:  ttl,
		log:  logger.Named("quote-cache"),
	}
}

// Name returns the wrapped provider's name.
func (c *CachedProvider) Name() string { return c.next.Name() }

// FetchQuote returns a cached quote when present, otherwise fetches and caches it.
// The shared upstream call does not inherit any one caller's cancellation;
// each caller stops waiting when its own ctx is done.
func (c *CachedProvider) FetchQuote(ctx context.Context, symbol string) (*QuoteData, error) {
	key := cacheKeyPrefix + symbol
	if q, ok := c.lookup(ctx, key); ok {
		return q, nil
	}

	ch := c.group.DoChan(symbol, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flightTimeout)
		defer cancel()

		// A flight that finished just before this one started has already cached.
		if q, ok := c.lookup(flightCtx, key); ok {
			return q, nil
		}
		q, err := c.next.FetchQuote(flightCtx, symbol)
		if err != nil {
			return nil, err
		}
		c.store(flightCtx, key, q)
		return q, nil
	})

	select {
	case <-ctx.Done():
		return nil, &FetchError{Symbol: symbol, Kind: KindUnavailable, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		q := *res.Val.(*QuoteData)
		return &q, nil
	}
}

func (c *CachedProvider) lookup(ctx context.Context, key string) (*QuoteData, bool) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warnw("quote cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var q QuoteData
	if err := json.Unmarshal(data, &q); err != nil {
		c.log.Warnw("discarding undecodable cached quote", "key", key, "error", err)
		return nil, false
	}
	return &q, true
}

func (c *CachedProvider) store(ctx context.Context, key string, q *QuoteData) {
	data, err := json.Marshal(q)
	if err != nil {
		c.log.Errorw("failed to encode quote for cache", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warnw("quote cache write failed", "key", key, "error", err)
	}
}
