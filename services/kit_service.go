package services

import (
	"context"
	"time"

	"github.com/yashrajoria/affiliate-storefront/cache"
	"github.com/yashrajoria/affiliate-storefront/common/auth"
	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/events"
	"github.com/yashrajoria/affiliate-storefront/models"
	"github.com/yashrajoria/affiliate-storefront/staticdata"

	"go.uber.org/zap"
)

// KitService manages kits. Kits always live in the local cache; the static
// catalog provides read-only defaults.
type KitService interface {
	CreateKit(ctx context.Context, in models.KitInput) Result[*models.Kit]
	UpdateKit(ctx context.Context, id models.ID, in models.KitInput) Result[*models.Kit]
	DeleteKit(ctx context.Context, id models.ID) Result[models.ID]
	ListKits(ctx context.Context) Result[[]models.Kit]
}

type kitServiceImpl struct {
	cache     *cache.LocalCache
	static    staticdata.Source
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewKitService creates a KitService. Every write needs an authenticated
// session.
func NewKitService(c *cache.LocalCache, static staticdata.Source, publisher events.Publisher, logger *zap.Logger) KitService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &kitServiceImpl{
		cache:     c,
		static:    static,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *kitServiceImpl) authorize(ctx context.Context) error {
	if _, ok := auth.SessionFromContext(ctx); !ok {
		return apperrors.Unauthenticated("You need to be logged in to perform this operation")
	}
	return nil
}

func (s *kitServiceImpl) CreateKit(ctx context.Context, in models.KitInput) (res Result[*models.Kit]) {
	defer recoverInto(s.logger, "create kit", &res)

	if err := s.authorize(ctx); err != nil {
		return fail[*models.Kit](err)
	}
	in, err := normalizeKit(in)
	if err != nil {
		return fail[*models.Kit](err)
	}

	kits, err := s.cache.Kits(ctx)
	if err != nil {
		return fail[*models.Kit](err)
	}
	at := s.now()
	id := models.NewTimestampID(at.UnixMilli())
	for containsKit(kits, id) {
		at = at.Add(time.Millisecond)
		id = models.NewTimestampID(at.UnixMilli())
	}

	kit := models.Kit{ID: id}
	in.Apply(&kit)
	if err := s.cache.SaveKits(ctx, append(kits, kit)); err != nil {
		s.logger.Error("Failed to save kit", zap.Error(err))
		return fail[*models.Kit](err)
	}

	s.publisher.Publish(ctx, events.KitCreated, id)
	s.logger.Info("Kit created", zap.String("kit_id", id.String()), zap.Int("products", len(kit.ProductIDs)))
	return ok(&kit, "Kit created")
}

// UpdateKit rewrites a kit. A kit that only exists in the static catalog is
// copied into the local cache with the edit applied.
func (s *kitServiceImpl) UpdateKit(ctx context.Context, id models.ID, in models.KitInput) (res Result[*models.Kit]) {
	defer recoverInto(s.logger, "update kit", &res)

	if err := s.authorize(ctx); err != nil {
		return fail[*models.Kit](err)
	}
	in, err := normalizeKit(in)
	if err != nil {
		return fail[*models.Kit](err)
	}

	kits, err := s.cache.Kits(ctx)
	if err != nil {
		return fail[*models.Kit](err)
	}

	kit := models.Kit{ID: id}
	in.Apply(&kit)

	replaced := false
	for i := range kits {
		if kits[i].ID == id {
			kits[i] = kit
			replaced = true
			break
		}
	}
	if !replaced {
		if !s.inStatic(ctx, id) {
			return fail[*models.Kit](apperrors.NotFound("kit " + id.String() + " not found"))
		}
		kits = append(kits, kit)
	}

	if err := s.cache.SaveKits(ctx, kits); err != nil {
		s.logger.Error("Failed to save kit", zap.String("kit_id", id.String()), zap.Error(err))
		return fail[*models.Kit](err)
	}

	s.publisher.Publish(ctx, events.KitUpdated, id)
	s.logger.Info("Kit updated", zap.String("kit_id", id.String()), zap.Bool("copied_from_static", !replaced))
	return ok(&kit, "Kit updated")
}

func (s *kitServiceImpl) DeleteKit(ctx context.Context, id models.ID) (res Result[models.ID]) {
	defer recoverInto(s.logger, "delete kit", &res)

	if err := s.authorize(ctx); err != nil {
		return fail[models.ID](err)
	}
	if s.inStatic(ctx, id) {
		return fail[models.ID](apperrors.Validation("static catalog entries cannot be deleted"))
	}

	kits, err := s.cache.Kits(ctx)
	if err != nil {
		return fail[models.ID](err)
	}
	kept := make([]models.Kit, 0, len(kits))
	for _, k := range kits {
		if k.ID != id {
			kept = append(kept, k)
		}
	}
	if len(kept) == len(kits) {
		return fail[models.ID](apperrors.NotFound("kit " + id.String() + " not found"))
	}
	if err := s.cache.SaveKits(ctx, kept); err != nil {
		s.logger.Error("Failed to delete kit", zap.String("kit_id", id.String()), zap.Error(err))
		return fail[models.ID](err)
	}

	s.publisher.Publish(ctx, events.KitDeleted, id)
	s.logger.Info("Kit deleted", zap.String("kit_id", id.String()))
	return ok(id, "Kit deleted")
}

// ListKits returns the locally saved kits followed by the static kits that
// have no local copy. An unreachable static catalog yields the local kits
// alone.
func (s *kitServiceImpl) ListKits(ctx context.Context) (res Result[[]models.Kit]) {
	defer recoverInto(s.logger, "list kits", &res)

	kits, err := s.cache.Kits(ctx)
	if err != nil {
		return fail[[]models.Kit](err)
	}
	if s.static == nil {
		return ok(kits, "")
	}
	defaults, err := s.static.Kits(ctx)
	if err != nil {
		s.logger.Warn("Static catalog unavailable", zap.Error(err))
		return ok(kits, "")
	}
	for _, k := range defaults {
		if !containsKit(kits, k.ID) {
			kits = append(kits, k)
		}
	}
	return ok(kits, "")
}

func (s *kitServiceImpl) inStatic(ctx context.Context, id models.ID) bool {
	if s.static == nil {
		return false
	}
	kits, err := s.static.Kits(ctx)
	if err != nil {
		s.logger.Warn("Static catalog unavailable", zap.Error(err))
		return false
	}
	return containsKit(kits, id)
}

func containsKit(kits []models.Kit, id models.ID) bool {
	for _, k := range kits {
		if k.ID == id {
			return true
		}
	}
	return false
}
