// internal/service/geo/cached.go
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheTTL = 24 * time.Hour

// CachedResolver puts a Redis cache in front of another resolver. Cache
// failures never surface; the inner resolver is consulted instead.
type CachedResolver struct {
	inner  Resolver
	cache  *redis.Client
	logger *zap.Logger
}

func NewCachedResolver(inner Resolver, cache *redis.Client, logger *zap.Logger) *CachedResolver {
	return &CachedResolver{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, ip string) (*Location, error) {
	key := cacheKey(ip)

	data, err := r.cache.Get(ctx, key).Bytes()
	if err == nil {
		var loc Location
		if err := json.Unmarshal(data, &loc); err == nil {
			return &loc, nil
		}
	} else if err != redis.Nil {
		r.logger.Warn("geo cache read failed", zap.String("ip", ip), zap.Error(err))
	}

	loc, err := r.inner.Resolve(ctx, ip)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(loc); err == nil {
		if err := r.cache.Set(ctx, key, data, cacheTTL).Err(); err != nil {
			r.logger.Warn("geo cache write failed", zap.String("ip", ip), zap.Error(err))
		}
	}

	return loc, nil
}

func cacheKey(ip string) string {
	return fmt.Sprintf("geo:%s", ip)
}
