package services

import (
	"context"
	"testing"

	"github.com/yashrajoria/affiliate-storefront/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCatalog struct {
	products []models.Product
	kits     []models.Kit
}

func (s stubCatalog) Products(context.Context) []models.Product { return s.products }
func (s stubCatalog) Kits(context.Context) []models.Kit         { return s.kits }

func TestExportService(t *testing.T) {
	svc := NewExportService(stubCatalog{
		products: []models.Product{{ID: "1700000000001", Name: "A", Link: "https://s/a"}},
		kits:     []models.Kit{},
	}, zap.NewNop())

	res := svc.ExportProducts(context.Background())
	require.True(t, res.Success)
	assert.Contains(t, string(res.Data), "\n    {\n        \"id\": 1700000000001,")

	res = svc.ExportKits(context.Background())
	require.True(t, res.Success)
	assert.Equal(t, "[]", string(res.Data))
}
