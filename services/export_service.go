package services

import (
	"context"
	"encoding/json"

	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/models"

	"go.uber.org/zap"
)

// CatalogReader is the merged catalog view the exporter dumps.
type CatalogReader interface {
	Products(ctx context.Context) []models.Product
	Kits(ctx context.Context) []models.Kit
}

// ExportService renders the merged lists as JSON documents that can replace
// the bundled products.json and kits.json.
type ExportService struct {
	catalog CatalogReader
	logger  *zap.Logger
}

func NewExportService(catalog CatalogReader, logger *zap.Logger) *ExportService {
	return &ExportService{catalog: catalog, logger: logger}
}

func (s *ExportService) ExportProducts(ctx context.Context) (res Result[[]byte]) {
	defer recoverInto(s.logger, "export products", &res)
	return s.render(s.catalog.Products(ctx))
}

func (s *ExportService) ExportKits(ctx context.Context) (res Result[[]byte]) {
	defer recoverInto(s.logger, "export kits", &res)
	return s.render(s.catalog.Kits(ctx))
}

func (s *ExportService) render(v interface{}) Result[[]byte] {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fail[[]byte](apperrors.Store("failed to encode export", err))
	}
	return ok(data, "")
}
