package catalog

import "github.com/yashrajoria/affiliate-storefront/models"

// PlaceholderImage is shown for products with neither an image nor media.
const PlaceholderImage = "https://via.placeholder.com/400x250?text=Sem+Imagem"

// KitProduct is a kit reference resolved against the product catalog.
type KitProduct struct {
	ID    models.ID `json:"id"`
	Name  string    `json:"name"`
	Found bool      `json:"found"`
}

// MergeProducts concatenates lists in priority order, keeping the first
// occurrence of each id. Order inside each list is preserved.
func MergeProducts(lists ...[]models.Product) []models.Product {
	seen := make(map[models.ID]struct{})
	merged := []models.Product{}
	for _, list := range lists {
		for _, p := range list {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			merged = append(merged, p)
		}
	}
	return merged
}

// MergeKits is MergeProducts for kits.
func MergeKits(lists ...[]models.Kit) []models.Kit {
	seen := make(map[models.ID]struct{})
	merged := []models.Kit{}
	for _, list := range lists {
		for _, k := range list {
			if _, dup := seen[k.ID]; dup {
				continue
			}
			seen[k.ID] = struct{}{}
			merged = append(merged, k)
		}
	}
	return merged
}

// ResolveImage returns the image to display for p.
func ResolveImage(p models.Product) string {
	if p.Image != "" {
		return p.Image
	}
	if len(p.Media) > 0 && p.Media[0].URL != "" {
		return p.Media[0].URL
	}
	return PlaceholderImage
}

// ResolveKitProducts looks up every id the kit references. Missing ids are
// reported with Found false and the name "not found".
func ResolveKitProducts(k models.Kit, products []models.Product) []KitProduct {
	byID := make(map[models.ID]string, len(products))
	for _, p := range products {
		if _, ok := byID[p.ID]; !ok {
			byID[p.ID] = p.Name
		}
	}
	out := make([]KitProduct, 0, len(k.ProductIDs))
	for _, id := range k.ProductIDs {
		name, ok := byID[id]
		if !ok {
			out = append(out, KitProduct{ID: id, Name: "not found"})
			continue
		}
		out = append(out, KitProduct{ID: id, Name: name, Found: true})
	}
	return out
}
