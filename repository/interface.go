package repository

import (
	"context"

	"github.com/yashrajoria/affiliate-storefront/common/auth"
	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/models"
)

// ProductRepo is the product store used by the catalog services. The remote
// adapters (DynamoDB, MongoDB) and the local cache adapter all satisfy it.
type ProductRepo interface {
	FindByID(ctx context.Context, id models.ID) (*models.Product, error)
	// FindAll returns every product, newest first for remote stores.
	FindAll(ctx context.Context) ([]models.Product, error)
	// Create stores p, assigning its ID and timestamps, and returns the ID.
	Create(ctx context.Context, p *models.Product) (models.ID, error)
	Update(ctx context.Context, id models.ID, patch ProductPatch) error
	Delete(ctx context.Context, id models.ID) error
}

// ProductPatch lists the parts of a record an update rewrites. A nil field
// is left untouched.
type ProductPatch struct {
	Input *models.ProductInput
	Media *[]models.MediaItem
}

// MediaPatch is a patch that only rewrites the media list.
func MediaPatch(media []models.MediaItem) ProductPatch {
	if media == nil {
		media = []models.MediaItem{}
	}
	return ProductPatch{Media: &media}
}

func (p ProductPatch) empty() bool {
	return p.Input == nil && p.Media == nil
}

// apply copies the patch onto product.
func (p ProductPatch) apply(product *models.Product) {
	if p.Input != nil {
		p.Input.Apply(product)
	}
	if p.Media != nil {
		product.Media = append([]models.MediaItem{}, (*p.Media)...)
	}
}

// requireSession guards remote writes. Reads stay open to anonymous callers.
func requireSession(ctx context.Context) (auth.Session, error) {
	s, ok := auth.SessionFromContext(ctx)
	if !ok {
		return auth.Session{}, apperrors.Unauthenticated("You need to be logged in to perform this operation")
	}
	return s, nil
}

func notFound(id models.ID) error {
	return apperrors.NotFound("product " + id.String() + " not found")
}

func sessionUser(ctx context.Context) (string, bool) {
	s, ok := auth.SessionFromContext(ctx)
	return s.UserID, ok
}
