package controllers

import (
	"context"
	"net/http"

	"github.com/yashrajoria/affiliate-storefront/catalog"
	aws_pkg "github.com/yashrajoria/affiliate-storefront/pkg/aws"
	"github.com/yashrajoria/affiliate-storefront/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogProvider builds the reconciled catalog.
type CatalogProvider interface {
	Catalog(ctx context.Context) catalog.Catalog
}

// CatalogController serves the public storefront catalog.
type CatalogController struct {
	provider CatalogProvider
	cache    *CacheManager
	metrics  services.MetricsRecorder
	logger   *zap.Logger
}

func NewCatalogController(provider CatalogProvider, cache *CacheManager, metrics services.MetricsRecorder, logger *zap.Logger) *CatalogController {
	return &CatalogController{provider: provider, cache: cache, metrics: metrics, logger: logger}
}

// GetCatalog handles GET /catalog.
func (cc *CatalogController) GetCatalog(c *gin.Context) {
	ctx := c.Request.Context()

	var version int64
	if cc.cache != nil {
		cached, v, ok := cc.cache.GetCatalog(ctx)
		if ok {
			cc.count(ctx, aws_pkg.MetricCatalogCacheHit)
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, services.Result[*catalog.Catalog]{Success: true, Data: cached})
			return
		}
		version = v
		cc.count(ctx, aws_pkg.MetricCatalogCacheMiss)
	}

	result := cc.provider.Catalog(ctx)
	if cc.cache != nil {
		cc.cache.SetCatalogAsync(version, result)
	}
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, services.Result[*catalog.Catalog]{Success: true, Data: &result})
}

func (cc *CatalogController) count(ctx context.Context, metric string) {
	if cc.metrics == nil {
		return
	}
	if err := cc.metrics.RecordCount(ctx, metric, nil); err != nil {
		cc.logger.Debug("Failed to record metric", zap.String("metric", metric), zap.Error(err))
	}
}
