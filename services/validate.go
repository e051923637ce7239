package services

import (
	"net/url"
	"strings"

	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/models"
)

const (
	defaultProductName        = "Untitled product"
	defaultProductDescription = "No description available"
)

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// normalizeProduct trims the input, applies the defaults and checks the
// affiliate link.
func normalizeProduct(in models.ProductInput) (models.ProductInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)
	in.Link = strings.TrimSpace(in.Link)
	in.Category = strings.TrimSpace(in.Category)

	if in.Link == "" {
		return in, apperrors.Validation("shopeeLink is required")
	}
	if !isHTTPURL(in.Link) {
		return in, apperrors.Validation("shopeeLink must be an http(s) URL")
	}
	if in.Price != nil && in.Price.IsNegative() {
		return in, apperrors.Validation("price must not be negative")
	}
	if in.Name == "" {
		in.Name = defaultProductName
	}
	if in.Description == "" {
		in.Description = defaultProductDescription
	}
	return in, nil
}

func normalizeKit(in models.KitInput) (models.KitInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)

	if in.Name == "" || in.Description == "" || in.Image == "" {
		return in, apperrors.Validation("kit name, description and image are required")
	}
	if !isHTTPURL(in.Image) {
		return in, apperrors.Validation("kit image must be an http(s) URL")
	}
	ids := make([]models.ID, 0, len(in.ProductIDs))
	seen := map[models.ID]bool{}
	for _, id := range in.ProductIDs {
		id = models.ID(strings.TrimSpace(id.String()))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return in, apperrors.Validation("a kit needs at least one product")
	}
	in.ProductIDs = ids
	return in, nil
}
