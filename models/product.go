package models

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Folder is the blob-store subfolder holding media of this kind.
func (k MediaKind) Folder() string {
	if k == MediaVideo {
		return "videos"
	}
	return "images"
}

// MediaItem is an uploaded blob owned by exactly one product.
type MediaItem struct {
	Type MediaKind `json:"type"`
	URL  string    `json:"url"`
	Path string    `json:"path"`
}

// Product is a catalog listing with an outbound affiliate link.
type Product struct {
	ID          ID               `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	Link        string           `json:"shopeeLink"`
	Category    string           `json:"category,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Media       []MediaItem      `json:"media,omitempty"`
	CreatedBy   string           `json:"createdBy,omitempty"`
	UpdatedBy   string           `json:"updatedBy,omitempty"`
	CreatedAt   *time.Time       `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time       `json:"updatedAt,omitempty"`
}

// ProductInput carries the admin-editable fields of a product. Create and
// update both overwrite every field with the submitted values.
type ProductInput struct {
	Name        string
	Description string
	Image       string
	Link        string
	Category    string
	Price       *decimal.Decimal
}

// Apply copies the editable fields onto p.
func (in ProductInput) Apply(p *Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Image = in.Image
	p.Link = in.Link
	p.Category = in.Category
	p.Price = in.Price
}

// MediaUpload is a file waiting to be stored in the blob store.
type MediaUpload struct {
	Kind        MediaKind
	Filename    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}
