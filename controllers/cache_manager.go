package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/yashrajoria/affiliate-storefront/catalog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	CatalogCachePrefix = "catalog:v:"
	CacheVersionKey    = "catalog:version"
	DefaultCacheTTL    = 5 * time.Minute
)

// CacheManager caches the reconciled catalog. Every mutation bumps the
// version key, which orphans the cached entries of older versions until
// their TTL expires.
type CacheManager struct {
	redis  redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewCacheManager(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheManager{redis: client, ttl: ttl, logger: logger}
}

// GetCatalog returns the cached catalog for the current version, along with
// that version. A miss still reports the version so the caller can cache
// what it builds under the version it observed; zero means the version
// could not be read and nothing should be cached.
func (cm *CacheManager) GetCatalog(ctx context.Context) (*catalog.Catalog, int64, bool) {
	version, err := cm.getCacheVersion(ctx)
	if err != nil {
		return nil, 0, false
	}

	data, err := cm.redis.Get(ctx, cm.catalogKey(version)).Bytes()
	if err != nil {
		return nil, version, false
	}

	var c catalog.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		cm.logger.Warn("Failed to unmarshal cached catalog", zap.Error(err))
		return nil, version, false
	}
	return &c, version, true
}

// SetCatalog stores c under version, the version observed before c was
// built. A mutation in between has already moved readers to a newer
// version, so a stale c is never served.
func (cm *CacheManager) SetCatalog(ctx context.Context, version int64, c catalog.Catalog) error {
	if version <= 0 {
		return nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	return cm.redis.Set(ctx, cm.catalogKey(version), data, cm.ttl).Err()
}

// SetCatalogAsync caches c without holding up the response.
func (cm *CacheManager) SetCatalogAsync(version int64, c catalog.Catalog) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := cm.SetCatalog(bgCtx, version, c); err != nil {
			cm.logger.Warn("Failed to cache catalog", zap.Error(err))
		}
	}()
}

// Invalidate bumps the catalog version.
func (cm *CacheManager) Invalidate(ctx context.Context) {
	newVersion, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		cm.logger.Error("Failed to invalidate catalog cache", zap.Error(err))
		return
	}
	cm.logger.Debug("Catalog cache invalidated", zap.Int64("new_version", newVersion))
}

// getCacheVersion reads the version, initialising it on first use.
func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
		if err == nil && ver > 0 {
			return ver, nil
		}
		if errors.Is(err, redis.Nil) {
			// SetNX so a concurrent Incr is never overwritten.
			if _, err := cm.redis.SetNX(ctx, CacheVersionKey, 1, 0).Result(); err == nil {
				continue
			}
		}
		if i < maxRetries-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}
	return 0, fmt.Errorf("failed to get cache version after %d retries", maxRetries)
}

func (cm *CacheManager) catalogKey(version int64) string {
	return fmt.Sprintf("%s%d", CatalogCachePrefix, version)
}
