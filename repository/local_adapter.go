package repository

import (
	"context"
	"time"

	"github.com/yashrajoria/affiliate-storefront/cache"
	"github.com/yashrajoria/affiliate-storefront/models"
)

// LocalAdapter implements ProductRepo over the local cache. Entries get
// millisecond timestamp ids and no session is required to write.
type LocalAdapter struct {
	cache *cache.LocalCache
	now   func() time.Time
}

func NewLocalAdapter(c *cache.LocalCache) *LocalAdapter {
	return &LocalAdapter{cache: c, now: time.Now}
}

func (r *LocalAdapter) FindByID(ctx context.Context, id models.ID) (*models.Product, error) {
	products, err := r.cache.Products(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, notFound(id)
}

// FindAll returns the cached array in stored order.
func (r *LocalAdapter) FindAll(ctx context.Context) ([]models.Product, error) {
	return r.cache.Products(ctx)
}

func (r *LocalAdapter) Create(ctx context.Context, product *models.Product) (models.ID, error) {
	products, err := r.cache.Products(ctx)
	if err != nil {
		return "", err
	}

	now := r.now().UTC()
	id := models.NewTimestampID(now.UnixMilli())
	// Two creates inside one millisecond would collide.
	for r.contains(products, id) {
		now = now.Add(time.Millisecond)
		id = models.NewTimestampID(now.UnixMilli())
	}
	product.ID = id
	product.CreatedAt = &now
	product.UpdatedAt = &now
	if s, ok := sessionUser(ctx); ok {
		product.CreatedBy = s
	}

	products = append(products, *product)
	if err := r.cache.SaveProducts(ctx, products); err != nil {
		return "", err
	}
	return id, nil
}

func (r *LocalAdapter) Update(ctx context.Context, id models.ID, patch ProductPatch) error {
	products, err := r.cache.Products(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		if products[i].ID != id {
			continue
		}
		if patch.empty() {
			return nil
		}
		patch.apply(&products[i])
		now := r.now().UTC()
		products[i].UpdatedAt = &now
		if s, ok := sessionUser(ctx); ok {
			products[i].UpdatedBy = s
		}
		return r.cache.SaveProducts(ctx, products)
	}
	return notFound(id)
}

// Put inserts product under its own id, or replaces the entry that already
// carries it. Used to shadow static entries after an edit.
func (r *LocalAdapter) Put(ctx context.Context, product models.Product) error {
	products, err := r.cache.Products(ctx)
	if err != nil {
		return err
	}
	now := r.now().UTC()
	product.UpdatedAt = &now
	for i := range products {
		if products[i].ID == product.ID {
			products[i] = product
			return r.cache.SaveProducts(ctx, products)
		}
	}
	return r.cache.SaveProducts(ctx, append(products, product))
}

// Delete drops the entry. A missing id is not an error.
func (r *LocalAdapter) Delete(ctx context.Context, id models.ID) error {
	products, err := r.cache.Products(ctx)
	if err != nil {
		return err
	}
	kept := products[:0]
	for _, p := range products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return r.cache.SaveProducts(ctx, kept)
}

func (r *LocalAdapter) contains(products []models.Product, id models.ID) bool {
	for _, p := range products {
		if p.ID == id {
			return true
		}
	}
	return false
}
