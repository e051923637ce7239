package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yashrajoria/affiliate-storefront/common/auth"
	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/events"
	"github.com/yashrajoria/affiliate-storefront/models"
	aws_pkg "github.com/yashrajoria/affiliate-storefront/pkg/aws"
	"github.com/yashrajoria/affiliate-storefront/repository"
	"github.com/yashrajoria/affiliate-storefront/staticdata"
	"github.com/yashrajoria/affiliate-storefront/storage"

	"go.uber.org/zap"
)

const patchMediaAttempts = 3

// MetricsRecorder counts catalog operations. *aws.MetricsClient satisfies it.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

// ProductService defines the product workflows of the admin surface.
type ProductService interface {
	CreateProduct(ctx context.Context, in models.ProductInput, uploads []models.MediaUpload) Result[*models.Product]
	UpdateProduct(ctx context.Context, id models.ID, in models.ProductInput, uploads []models.MediaUpload) Result[*models.Product]
	DeleteProduct(ctx context.Context, id models.ID) Result[models.ID]
	RemoveMediaItem(ctx context.Context, id models.ID, path string) Result[*models.Product]
	GetProduct(ctx context.Context, id models.ID) Result[*models.Product]
	ListProducts(ctx context.Context) Result[[]models.Product]
}

// origin tells where a product record lives.
type origin int

const (
	originStore origin = iota
	originLocal
	originStatic
)

type productServiceImpl struct {
	repo      repository.ProductRepo
	local     *repository.LocalAdapter
	static    staticdata.Source
	blob      storage.BlobStore
	publisher events.Publisher
	metrics   MetricsRecorder
	logger    *zap.Logger
	backoff   time.Duration
}

// NewProductService creates a ProductService. repo is the configured product
// store; local is the local cache product store, which holds edited copies
// of static entries and may be the same store as repo.
func NewProductService(
	repo repository.ProductRepo,
	local *repository.LocalAdapter,
	static staticdata.Source,
	blob storage.BlobStore,
	publisher events.Publisher,
	metrics MetricsRecorder,
	logger *zap.Logger,
) ProductService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &productServiceImpl{
		repo:      repo,
		local:     local,
		static:    static,
		blob:      blob,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		backoff:   200 * time.Millisecond,
	}
}

// authorize rejects admin writes without a session, whatever the product
// store. It runs before validation and before any blob or record write.
func (s *productServiceImpl) authorize(ctx context.Context) error {
	if _, ok := auth.SessionFromContext(ctx); !ok {
		return apperrors.Unauthenticated("You need to be logged in to perform this operation")
	}
	return nil
}

func (s *productServiceImpl) count(ctx context.Context, metric string) {
	if s.metrics == nil {
		return
	}
	if err := s.metrics.RecordCount(ctx, metric, nil); err != nil {
		s.logger.Debug("Failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}

func (s *productServiceImpl) CreateProduct(ctx context.Context, in models.ProductInput, uploads []models.MediaUpload) (res Result[*models.Product]) {
	defer recoverInto(s.logger, "create product", &res)

	if err := s.authorize(ctx); err != nil {
		return fail[*models.Product](err)
	}
	in, err := normalizeProduct(in)
	if err != nil {
		return fail[*models.Product](err)
	}

	product := &models.Product{}
	in.Apply(product)
	var media []models.MediaItem

	sg := newSaga("create_product", s.logger, s.backoff).
		step("write_record", 1, func(ctx context.Context) error {
			_, err := s.repo.Create(ctx, product)
			return err
		}).
		step("upload_media", 1, func(ctx context.Context) error {
			media = s.uploadAll(ctx, product.ID, uploads)
			return nil
		}).
		step("patch_media", patchMediaAttempts, func(ctx context.Context) error {
			if len(media) == 0 {
				return nil
			}
			return s.repo.Update(ctx, product.ID, repository.MediaPatch(media))
		})

	if err := sg.execute(ctx); err != nil {
		s.logger.Error("Failed to create product",
			zap.String("product_id", product.ID.String()),
			zap.Strings("completed_steps", sg.completed()),
			zap.Error(err),
		)
		return fail[*models.Product](err)
	}

	product.Media = media
	s.count(ctx, aws_pkg.MetricProductsCreated)
	s.publisher.Publish(ctx, events.ProductCreated, product.ID)
	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.Int("media", len(media)),
		zap.Int("uploads", len(uploads)),
	)
	return ok(product, "Product created")
}

func (s *productServiceImpl) UpdateProduct(ctx context.Context, id models.ID, in models.ProductInput, uploads []models.MediaUpload) (res Result[*models.Product]) {
	defer recoverInto(s.logger, "update product", &res)

	if err := s.authorize(ctx); err != nil {
		return fail[*models.Product](err)
	}
	in, err := normalizeProduct(in)
	if err != nil {
		return fail[*models.Product](err)
	}

	current, from, err := s.locate(ctx, id)
	if err != nil {
		return fail[*models.Product](err)
	}

	// New media is appended; existing media is never dropped by an edit.
	media := append([]models.MediaItem{}, current.Media...)
	media = append(media, s.uploadAll(ctx, id, uploads)...)

	patch := repository.ProductPatch{Input: &in, Media: &media}
	if err := s.save(ctx, from, *current, patch); err != nil {
		s.logger.Error("Failed to update product", zap.String("product_id", id.String()), zap.Error(err))
		return fail[*models.Product](err)
	}

	updated := *current
	in.Apply(&updated)
	updated.Media = media
	s.publisher.Publish(ctx, events.ProductUpdated, id)
	s.logger.Info("Product updated", zap.String("product_id", id.String()), zap.Int("media", len(media)))
	return ok(&updated, "Product updated")
}

func (s *productServiceImpl) DeleteProduct(ctx context.Context, id models.ID) (res Result[models.ID]) {
	defer recoverInto(s.logger, "delete product", &res)

	if err := s.authorize(ctx); err != nil {
		return fail[models.ID](err)
	}
	if s.inStatic(ctx, id) {
		return fail[models.ID](apperrors.Validation("static catalog entries cannot be deleted"))
	}

	current, from, err := s.locate(ctx, id)
	if err != nil {
		return fail[models.ID](err)
	}

	for _, m := range current.Media {
		if err := s.deleteBlob(ctx, m.Path); err != nil {
			s.logger.Warn("Failed to delete product media, continuing",
				zap.String("product_id", id.String()),
				zap.String("path", m.Path),
				zap.Error(err),
			)
		}
	}

	switch from {
	case originLocal:
		err = s.local.Delete(ctx, id)
	default:
		err = s.repo.Delete(ctx, id)
	}
	if err != nil {
		s.logger.Error("Failed to delete product", zap.String("product_id", id.String()), zap.Error(err))
		return fail[models.ID](err)
	}

	s.count(ctx, aws_pkg.MetricProductsDeleted)
	s.publisher.Publish(ctx, events.ProductDeleted, id)
	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return ok(id, "Product deleted")
}

func (s *productServiceImpl) RemoveMediaItem(ctx context.Context, id models.ID, path string) (res Result[*models.Product]) {
	defer recoverInto(s.logger, "remove media item", &res)

	if err := s.authorize(ctx); err != nil {
		return fail[*models.Product](err)
	}
	if path == "" {
		return fail[*models.Product](apperrors.Validation("media path is required"))
	}

	current, _, err := s.locate(ctx, id)
	if err != nil {
		return fail[*models.Product](err)
	}
	if !hasMedia(current.Media, path) {
		return fail[*models.Product](apperrors.NotFound("media item not found on product " + id.String()))
	}

	// The blob goes first; the record is only touched once it is gone.
	if err := s.deleteBlob(ctx, path); err != nil {
		s.logger.Error("Failed to delete media blob", zap.String("product_id", id.String()), zap.String("path", path), zap.Error(err))
		return fail[*models.Product](err)
	}

	current, from, err := s.locate(ctx, id)
	if err != nil {
		return fail[*models.Product](err)
	}
	kept := make([]models.MediaItem, 0, len(current.Media))
	for _, m := range current.Media {
		if m.Path != path {
			kept = append(kept, m)
		}
	}
	if err := s.save(ctx, from, *current, repository.MediaPatch(kept)); err != nil {
		s.logger.Error("Failed to rewrite product media", zap.String("product_id", id.String()), zap.Error(err))
		return fail[*models.Product](err)
	}

	updated := *current
	updated.Media = kept
	s.publisher.Publish(ctx, events.ProductMediaRemoved, id)
	s.logger.Info("Product media removed", zap.String("product_id", id.String()), zap.String("path", path))
	return ok(&updated, "Media removed")
}

func (s *productServiceImpl) GetProduct(ctx context.Context, id models.ID) (res Result[*models.Product]) {
	defer recoverInto(s.logger, "get product", &res)

	p, _, err := s.locate(ctx, id)
	if err != nil {
		return fail[*models.Product](err)
	}
	return ok(p, "")
}

func (s *productServiceImpl) ListProducts(ctx context.Context) (res Result[[]models.Product]) {
	defer recoverInto(s.logger, "list products", &res)

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return fail[[]models.Product](err)
	}
	return ok(products, "")
}

// locate finds a product in the product store, then among the local copies,
// then in the static catalog.
func (s *productServiceImpl) locate(ctx context.Context, id models.ID) (*models.Product, origin, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err == nil {
		return p, originStore, nil
	}
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		return nil, originStore, err
	}

	if s.local != nil && repository.ProductRepo(s.local) != s.repo {
		p, err := s.local.FindByID(ctx, id)
		if err == nil {
			return p, originLocal, nil
		}
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			return nil, originLocal, err
		}
	}

	if sp, found := s.findStatic(ctx, id); found {
		return sp, originStatic, nil
	}
	return nil, originStore, apperrors.NotFound("product " + id.String() + " not found")
}

// save writes patch to wherever the product lives. Static entries are
// copied into the local cache, where the edited copy shadows the original.
func (s *productServiceImpl) save(ctx context.Context, from origin, current models.Product, patch repository.ProductPatch) error {
	switch from {
	case originStore:
		return s.repo.Update(ctx, current.ID, patch)
	case originLocal:
		return s.local.Update(ctx, current.ID, patch)
	default:
		if s.local == nil {
			return apperrors.Validation("static catalog entries are read-only")
		}
		if patch.Input != nil {
			patch.Input.Apply(&current)
		}
		if patch.Media != nil {
			current.Media = *patch.Media
		}
		if sess, ok := auth.SessionFromContext(ctx); ok {
			current.UpdatedBy = sess.UserID
		}
		return s.local.Put(ctx, current)
	}
}

func (s *productServiceImpl) findStatic(ctx context.Context, id models.ID) (*models.Product, bool) {
	if s.static == nil {
		return nil, false
	}
	products, err := s.static.Products(ctx)
	if err != nil {
		s.logger.Warn("Static catalog unavailable", zap.Error(err))
		return nil, false
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], true
		}
	}
	return nil, false
}

func (s *productServiceImpl) inStatic(ctx context.Context, id models.ID) bool {
	_, found := s.findStatic(ctx, id)
	return found
}

// uploadAll stores the files one at a time so media keep their submitted
// order. Failed files are logged and skipped.
func (s *productServiceImpl) uploadAll(ctx context.Context, id models.ID, uploads []models.MediaUpload) []models.MediaItem {
	media := []models.MediaItem{}
	for _, u := range uploads {
		item, err := s.uploadOne(ctx, id, u)
		if err != nil {
			s.count(ctx, aws_pkg.MetricMediaFailed)
			s.logger.Warn("Failed to upload media, skipping",
				zap.String("product_id", id.String()),
				zap.String("filename", u.Filename),
				zap.String("kind", string(u.Kind)),
				zap.Error(err),
			)
			continue
		}
		s.count(ctx, aws_pkg.MetricMediaUploaded)
		media = append(media, item)
	}
	return media
}

func (s *productServiceImpl) uploadOne(ctx context.Context, id models.ID, u models.MediaUpload) (models.MediaItem, error) {
	if s.blob == nil {
		return models.MediaItem{}, apperrors.Store("blob store not configured", nil)
	}
	if u.Open == nil {
		return models.MediaItem{}, fmt.Errorf("no content for %s", u.Filename)
	}
	kind := u.Kind
	if kind != models.MediaVideo {
		kind = models.MediaImage
	}
	body, err := u.Open()
	if err != nil {
		return models.MediaItem{}, fmt.Errorf("open %s: %w", u.Filename, err)
	}
	defer body.Close()
	return s.blob.Upload(ctx, id, kind, u.Filename, u.ContentType, body)
}

func (s *productServiceImpl) deleteBlob(ctx context.Context, path string) error {
	if s.blob == nil {
		return apperrors.Store("blob store not configured", nil)
	}
	return s.blob.Delete(ctx, path)
}

func hasMedia(media []models.MediaItem, path string) bool {
	for _, m := range media {
		if m.Path == path {
			return true
		}
	}
	return false
}
