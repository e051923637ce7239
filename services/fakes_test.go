package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yashrajoria/affiliate-storefront/cache"
	"github.com/yashrajoria/affiliate-storefront/common/auth"
	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/events"
	"github.com/yashrajoria/affiliate-storefront/models"
	"github.com/yashrajoria/affiliate-storefront/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// --- Mock product repository ---

type mockProductRepo struct {
	mu             sync.Mutex
	products       map[models.ID]models.Product
	guarded        bool
	createErr      error
	updateFailures int
	updateErr      error
	panicOnFind    bool
	writes         int
	updates        []repository.ProductPatch
	nextID         int
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: map[models.ID]models.Product{}}
}

func (m *mockProductRepo) checkSession(ctx context.Context) error {
	if !m.guarded {
		return nil
	}
	if _, ok := auth.SessionFromContext(ctx); !ok {
		return apperrors.Unauthenticated("login required")
	}
	return nil
}

func (m *mockProductRepo) FindByID(_ context.Context, id models.ID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOnFind {
		panic("boom")
	}
	p, ok := m.products[id]
	if !ok {
		return nil, apperrors.NotFound("product not found")
	}
	p.Media = append([]models.MediaItem{}, p.Media...)
	return &p, nil
}

func (m *mockProductRepo) FindAll(context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProductRepo) Create(ctx context.Context, p *models.Product) (models.ID, error) {
	if err := m.checkSession(ctx); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.nextID++
	p.ID = models.ID(fmt.Sprintf("rec-%d", m.nextID))
	m.products[p.ID] = *p
	m.writes++
	return p.ID, nil
}

func (m *mockProductRepo) Update(ctx context.Context, id models.ID, patch repository.ProductPatch) error {
	if err := m.checkSession(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, patch)
	if m.updateFailures > 0 {
		m.updateFailures--
		return apperrors.Store("transient", errors.New("timeout"))
	}
	if m.updateErr != nil {
		return m.updateErr
	}
	p, ok := m.products[id]
	if !ok {
		return apperrors.NotFound("product not found")
	}
	if patch.Input != nil {
		patch.Input.Apply(&p)
	}
	if patch.Media != nil {
		p.Media = append([]models.MediaItem{}, (*patch.Media)...)
	}
	m.products[id] = p
	m.writes++
	return nil
}

func (m *mockProductRepo) Delete(ctx context.Context, id models.ID) error {
	if err := m.checkSession(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	m.writes++
	return nil
}

func (m *mockProductRepo) get(id models.ID) (models.Product, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	return p, ok
}

// --- Mock blob store ---

type mockBlobStore struct {
	mu         sync.Mutex
	failNames  map[string]bool
	failPaths  map[string]bool
	uploaded   []string
	deleted    []string
	deleteSeen []string
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{failNames: map[string]bool{}, failPaths: map[string]bool{}}
}

func (b *mockBlobStore) Upload(_ context.Context, productID models.ID, kind models.MediaKind, filename, _ string, body io.Reader) (models.MediaItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNames[filename] {
		return models.MediaItem{}, apperrors.Store("upload rejected", errors.New("quota"))
	}
	if _, err := io.ReadAll(body); err != nil {
		return models.MediaItem{}, err
	}
	path := "products/" + productID.String() + "/" + kind.Folder() + "/1_" + filename
	b.uploaded = append(b.uploaded, path)
	return models.MediaItem{Type: kind, URL: "https://cdn.test/" + path, Path: path}, nil
}

func (b *mockBlobStore) Delete(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteSeen = append(b.deleteSeen, path)
	if b.failPaths[path] {
		return apperrors.Store("delete rejected", errors.New("access denied"))
	}
	b.deleted = append(b.deleted, path)
	return nil
}

// --- Mock publisher ---

type publishedEvent struct {
	Type events.Type
	ID   models.ID
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *mockPublisher) Publish(_ context.Context, t events.Type, id models.ID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: t, ID: id})
}

// --- Static catalog stub ---

type stubStatic struct {
	products []models.Product
	kits     []models.Kit
}

func (s stubStatic) Products(context.Context) ([]models.Product, error) { return s.products, nil }
func (s stubStatic) Kits(context.Context) ([]models.Kit, error)         { return s.kits, nil }

// --- Helpers ---

func newTestCache(t *testing.T) *cache.LocalCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewLocalCache(client)
}

func upload(kind models.MediaKind, name string) models.MediaUpload {
	return models.MediaUpload{
		Kind:        kind,
		Filename:    name,
		ContentType: "application/octet-stream",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("data")), nil
		},
	}
}

func sessionCtx() context.Context {
	return auth.WithSession(context.Background(), auth.Session{UserID: "admin-1"})
}

type productFixture struct {
	svc       *productServiceImpl
	repo      *mockProductRepo
	blob      *mockBlobStore
	publisher *mockPublisher
	local     *repository.LocalAdapter
	cache     *cache.LocalCache
}

func newProductFixture(t *testing.T, static stubStatic) productFixture {
	t.Helper()
	c := newTestCache(t)
	f := productFixture{
		repo:      newMockProductRepo(),
		blob:      newMockBlobStore(),
		publisher: &mockPublisher{},
		cache:     c,
		local:     repository.NewLocalAdapter(c),
	}
	svc := NewProductService(f.repo, f.local, static, f.blob, f.publisher, nil, zap.NewNop()).(*productServiceImpl)
	svc.backoff = time.Millisecond
	f.svc = svc
	return f
}
