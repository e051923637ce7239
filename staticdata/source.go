package staticdata

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yashrajoria/affiliate-storefront/models"
)

//go:embed data/*.json
var bundled embed.FS

// Source provides the read-only baseline catalog.
type Source interface {
	Products(ctx context.Context) ([]models.Product, error)
	Kits(ctx context.Context) ([]models.Kit, error)
}

// HTTPSource fetches products.json and kits.json from a base URL.
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *HTTPSource) Products(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.fetch(ctx, "products.json", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *HTTPSource) Kits(ctx context.Context) ([]models.Kit, error) {
	kits := []models.Kit{}
	if err := s.fetch(ctx, "kits.json", &kits); err != nil {
		return nil, err
	}
	return kits, nil
}

func (s *HTTPSource) fetch(ctx context.Context, name string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+name, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for %s: %w", name, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("failed to fetch %s: status %d", name, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

// EmbeddedSource serves the catalog compiled into the binary.
type EmbeddedSource struct{}

func NewEmbeddedSource() EmbeddedSource { return EmbeddedSource{} }

func (EmbeddedSource) Products(context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := readBundled("data/products.json", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (EmbeddedSource) Kits(context.Context) ([]models.Kit, error) {
	kits := []models.Kit{}
	if err := readBundled("data/kits.json", &kits); err != nil {
		return nil, err
	}
	return kits, nil
}

func readBundled(name string, dst interface{}) error {
	data, err := bundled.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// New picks the HTTP source when baseURL is set, else the bundled one.
func New(baseURL string) Source {
	if baseURL == "" {
		return NewEmbeddedSource()
	}
	return NewHTTPSource(baseURL, nil)
}
