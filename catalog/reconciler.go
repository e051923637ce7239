package catalog

import (
	"context"

	"github.com/yashrajoria/affiliate-storefront/models"
	"github.com/yashrajoria/affiliate-storefront/staticdata"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProductLister is a product source read by the reconciler.
type ProductLister interface {
	FindAll(ctx context.Context) ([]models.Product, error)
}

// LocalSource is the local cache as seen by the reconciler.
type LocalSource interface {
	Products(ctx context.Context) ([]models.Product, error)
	Kits(ctx context.Context) ([]models.Kit, error)
}

// KitView is a kit with its product references resolved.
type KitView struct {
	models.Kit
	Products []KitProduct `json:"products"`
}

// Catalog is the reconciled, display-ready catalog.
type Catalog struct {
	Products []models.Product `json:"products"`
	Kits     []KitView        `json:"kits"`
}

// Reconciler merges the local cache, the remote store and the static
// catalog. Local entries win over remote ones, which win over static ones.
type Reconciler struct {
	local  LocalSource
	remote ProductLister
	static staticdata.Source
	logger *zap.Logger
}

// NewReconciler builds a reconciler. remote may be nil when the product
// store is the local cache itself.
func NewReconciler(local LocalSource, remote ProductLister, static staticdata.Source, logger *zap.Logger) *Reconciler {
	return &Reconciler{local: local, remote: remote, static: static, logger: logger}
}

type sources struct {
	localProducts  []models.Product
	remoteProducts []models.Product
	staticProducts []models.Product
	localKits      []models.Kit
	staticKits     []models.Kit
}

// read loads every source concurrently. A failing source is logged and
// read as empty.
func (r *Reconciler) read(ctx context.Context, withKits bool) sources {
	var s sources
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.localProducts = r.guard("local products", func() ([]models.Product, error) { return r.local.Products(gctx) })
		return nil
	})
	if r.remote != nil {
		g.Go(func() error {
			s.remoteProducts = r.guard("remote products", func() ([]models.Product, error) { return r.remote.FindAll(gctx) })
			return nil
		})
	}
	if r.static != nil {
		g.Go(func() error {
			s.staticProducts = r.guard("static products", func() ([]models.Product, error) { return r.static.Products(gctx) })
			return nil
		})
	}
	if withKits {
		g.Go(func() error {
			s.localKits = r.guardKits("local kits", func() ([]models.Kit, error) { return r.local.Kits(gctx) })
			return nil
		})
		if r.static != nil {
			g.Go(func() error {
				s.staticKits = r.guardKits("static kits", func() ([]models.Kit, error) { return r.static.Kits(gctx) })
				return nil
			})
		}
	}
	_ = g.Wait()
	return s
}

func (r *Reconciler) guard(source string, load func() ([]models.Product, error)) []models.Product {
	products, err := load()
	if err != nil {
		r.logger.Warn("Catalog source unavailable, using empty list", zap.String("source", source), zap.Error(err))
		return nil
	}
	return products
}

func (r *Reconciler) guardKits(source string, load func() ([]models.Kit, error)) []models.Kit {
	kits, err := load()
	if err != nil {
		r.logger.Warn("Catalog source unavailable, using empty list", zap.String("source", source), zap.Error(err))
		return nil
	}
	return kits
}

// Products returns the merged product list without display resolution.
func (r *Reconciler) Products(ctx context.Context) []models.Product {
	s := r.read(ctx, false)
	return MergeProducts(s.localProducts, s.remoteProducts, s.staticProducts)
}

// Kits returns the merged kit list.
func (r *Reconciler) Kits(ctx context.Context) []models.Kit {
	var local, static []models.Kit
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		local = r.guardKits("local kits", func() ([]models.Kit, error) { return r.local.Kits(gctx) })
		return nil
	})
	if r.static != nil {
		g.Go(func() error {
			static = r.guardKits("static kits", func() ([]models.Kit, error) { return r.static.Kits(gctx) })
			return nil
		})
	}
	_ = g.Wait()
	return MergeKits(local, static)
}

// Catalog returns the reconciled catalog with display images and kit
// references resolved. It never fails.
func (r *Reconciler) Catalog(ctx context.Context) Catalog {
	s := r.read(ctx, true)

	products := MergeProducts(s.localProducts, s.remoteProducts, s.staticProducts)
	for i := range products {
		products[i].Image = ResolveImage(products[i])
	}

	kits := MergeKits(s.localKits, s.staticKits)
	views := make([]KitView, 0, len(kits))
	for _, k := range kits {
		views = append(views, KitView{Kit: k, Products: ResolveKitProducts(k, products)})
	}

	r.logger.Debug("Catalog reconciled",
		zap.Int("products", len(products)),
		zap.Int("kits", len(views)),
	)
	return Catalog{Products: products, Kits: views}
}
