package cache

import (
	"context"
	"encoding/json"
	"errors"

	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/models"

	"github.com/redis/go-redis/v9"
)

// Fixed keys of the local cache layout.
const (
	ProductsKey    = "products"
	KitsKey        = "kits"
	AdminUnlockKey = "adminUnlocked_v1"
)

// LocalCache stores the locally edited products and kits as JSON arrays,
// one key each. A missing key reads as an empty array. Writes replace the
// whole array; concurrent writers race and the last write wins.
type LocalCache struct {
	client redis.Cmdable
}

func NewLocalCache(client redis.Cmdable) *LocalCache {
	return &LocalCache{client: client}
}

func (c *LocalCache) Products(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := c.getJSON(ctx, ProductsKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *LocalCache) SaveProducts(ctx context.Context, products []models.Product) error {
	if products == nil {
		products = []models.Product{}
	}
	return c.setJSON(ctx, ProductsKey, products)
}

func (c *LocalCache) Kits(ctx context.Context) ([]models.Kit, error) {
	kits := []models.Kit{}
	if err := c.getJSON(ctx, KitsKey, &kits); err != nil {
		return nil, err
	}
	return kits, nil
}

func (c *LocalCache) SaveKits(ctx context.Context, kits []models.Kit) error {
	if kits == nil {
		kits = []models.Kit{}
	}
	return c.setJSON(ctx, KitsKey, kits)
}

// Unlocked reports whether the admin gate flag is set.
func (c *LocalCache) Unlocked(ctx context.Context) (bool, error) {
	val, err := c.client.Get(ctx, AdminUnlockKey).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Store("failed to read admin unlock flag", err)
	}
	return val == "true", nil
}

func (c *LocalCache) SetUnlocked(ctx context.Context, unlocked bool) error {
	var err error
	if unlocked {
		err = c.client.Set(ctx, AdminUnlockKey, "true", 0).Err()
	} else {
		err = c.client.Del(ctx, AdminUnlockKey).Err()
	}
	if err != nil {
		return apperrors.Store("failed to write admin unlock flag", err)
	}
	return nil
}

func (c *LocalCache) getJSON(ctx context.Context, key string, dst interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return apperrors.Store("failed to read local cache key "+key, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return apperrors.Store("corrupt local cache key "+key, err)
	}
	return nil
}

func (c *LocalCache) setJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperrors.Store("failed to encode local cache key "+key, err)
	}
	if err := c.client.Set(ctx, key, data, 0).Err(); err != nil {
		return apperrors.Store("failed to write local cache key "+key, err)
	}
	return nil
}
