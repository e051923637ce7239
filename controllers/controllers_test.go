package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yashrajoria/affiliate-storefront/cache"
	"github.com/yashrajoria/affiliate-storefront/catalog"
	"github.com/yashrajoria/affiliate-storefront/common/auth"
	apperrors "github.com/yashrajoria/affiliate-storefront/common/errors"
	"github.com/yashrajoria/affiliate-storefront/models"
	"github.com/yashrajoria/affiliate-storefront/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock product service ---

type mockProductService struct {
	createIn      models.ProductInput
	createUploads []string
	result        services.Result[*models.Product]
	deleteResult  services.Result[models.ID]
	removedPath   string
}

func (m *mockProductService) CreateProduct(_ context.Context, in models.ProductInput, uploads []models.MediaUpload) services.Result[*models.Product] {
	m.createIn = in
	for _, u := range uploads {
		rc, err := u.Open()
		if err == nil {
			data, _ := io.ReadAll(rc)
			_ = rc.Close()
			m.createUploads = append(m.createUploads, string(u.Kind)+":"+u.Filename+":"+string(data))
		}
	}
	return m.result
}

func (m *mockProductService) UpdateProduct(context.Context, models.ID, models.ProductInput, []models.MediaUpload) services.Result[*models.Product] {
	return m.result
}

func (m *mockProductService) DeleteProduct(context.Context, models.ID) services.Result[models.ID] {
	return m.deleteResult
}

func (m *mockProductService) RemoveMediaItem(_ context.Context, _ models.ID, path string) services.Result[*models.Product] {
	m.removedPath = path
	return m.result
}

func (m *mockProductService) GetProduct(context.Context, models.ID) services.Result[*models.Product] {
	return m.result
}

func (m *mockProductService) ListProducts(context.Context) services.Result[[]models.Product] {
	return services.Result[[]models.Product]{Success: true, Data: []models.Product{}}
}

// --- Mock kit service ---

type mockKitService struct {
	created models.KitInput
}

func (m *mockKitService) CreateKit(_ context.Context, in models.KitInput) services.Result[*models.Kit] {
	m.created = in
	return services.Result[*models.Kit]{Success: true, Data: &models.Kit{ID: "1", Name: in.Name, ProductIDs: in.ProductIDs}}
}

func (m *mockKitService) UpdateKit(context.Context, models.ID, models.KitInput) services.Result[*models.Kit] {
	return services.Result[*models.Kit]{Success: false, Code: apperrors.KindNotFound, Status: http.StatusNotFound, Message: "kit not found"}
}

func (m *mockKitService) DeleteKit(_ context.Context, id models.ID) services.Result[models.ID] {
	return services.Result[models.ID]{Success: true, Data: id}
}

func (m *mockKitService) ListKits(context.Context) services.Result[[]models.Kit] {
	return services.Result[[]models.Kit]{Success: true, Data: []models.Kit{}}
}

// --- Catalog provider ---

type countingProvider struct {
	calls int
}

func (p *countingProvider) Catalog(context.Context) catalog.Catalog {
	p.calls++
	return catalog.Catalog{
		Products: []models.Product{{ID: "1", Name: "Mouse", Image: catalog.PlaceholderImage}},
		Kits:     []catalog.KitView{},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func productRouter(svc services.ProductService, cm *CacheManager) *gin.Engine {
	pc := NewProductController(svc, cm)
	r := gin.New()
	r.GET("/products/:id", pc.GetProduct)
	r.POST("/products", pc.CreateProduct)
	r.DELETE("/products/:id", pc.DeleteProduct)
	r.DELETE("/products/:id/media", pc.RemoveMediaItem)
	return r
}

func TestCreateProduct_Multipart(t *testing.T) {
	mr, client := newRedis(t)
	cm := NewCacheManager(client, time.Minute, zap.NewNop())
	svc := &mockProductService{result: services.Result[*models.Product]{Success: true, Data: &models.Product{ID: "p1"}}}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("name", "Mouse"))
	require.NoError(t, mw.WriteField("shopeeLink", "https://shopee.example/mouse"))
	require.NoError(t, mw.WriteField("price", "19.90"))
	fw, err := mw.CreateFormFile("images", "front.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	fw, err = mw.CreateFormFile("videos", "demo.mp4")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("mp4-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	productRouter(svc, cm).ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decode(t, w).Success)
	assert.Equal(t, "Mouse", svc.createIn.Name)
	require.NotNil(t, svc.createIn.Price)
	assert.Equal(t, "19.9", svc.createIn.Price.String())
	assert.Equal(t, []string{"image:front.png:png-bytes", "video:demo.mp4:mp4-bytes"}, svc.createUploads)

	version, err := mr.Get(CacheVersionKey)
	require.NoError(t, err)
	assert.Equal(t, "1", version, "a successful mutation bumps the catalog version")
}

func TestCreateProduct_ValidationFailure(t *testing.T) {
	svc := &mockProductService{}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(`{"name":"No link"}`))
	req.Header.Set("Content-Type", "application/json")
	productRouter(svc, nil).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "validation", env.Code)
	assert.Contains(t, env.Message, "Link")
}

func TestProductRoutes_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		result services.Result[*models.Product]
		want   int
	}{
		{"not found", services.Result[*models.Product]{Code: apperrors.KindNotFound}, http.StatusNotFound},
		{"unauthenticated", services.Result[*models.Product]{Code: apperrors.KindUnauthenticated, Status: http.StatusUnauthorized}, http.StatusUnauthorized},
		{"store failure", services.Result[*models.Product]{Code: apperrors.KindStore, Status: http.StatusBadGateway}, http.StatusBadGateway},
		{"recovered panic", services.Result[*models.Product]{Code: apperrors.KindStore, Status: http.StatusInternalServerError}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockProductService{result: tc.result}
			w := httptest.NewRecorder()
			productRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/x", nil))
			assert.Equal(t, tc.want, w.Code)
			assert.Equal(t, string(tc.result.Code), decode(t, w).Code)
		})
	}
}

func TestRemoveMediaItem_PassesPath(t *testing.T) {
	svc := &mockProductService{result: services.Result[*models.Product]{Success: true, Data: &models.Product{ID: "p1"}}}
	w := httptest.NewRecorder()
	productRouter(svc, nil).ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/products/p1/media?path=products%2Fp1%2Fimages%2F1_a.png", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "products/p1/images/1_a.png", svc.removedPath)
}

func TestGetCatalog_CachesResponse(t *testing.T) {
	_, client := newRedis(t)
	cm := NewCacheManager(client, time.Minute, zap.NewNop())
	provider := &countingProvider{}
	cc := NewCatalogController(provider, cm, nil, zap.NewNop())
	r := gin.New()
	r.GET("/catalog", cc.GetCatalog)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalog", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	var c catalog.Catalog
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &c))
	require.Len(t, c.Products, 1)

	assert.Eventually(t, func() bool {
		_, _, ok := cm.GetCatalog(context.Background())
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalog", nil))
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, 1, provider.calls)

	cm.Invalidate(context.Background())
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/catalog", nil))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 2, provider.calls)
}

func TestCacheManager_StaleWriteAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)
	cm := NewCacheManager(client, time.Minute, zap.NewNop())

	// A reader misses and starts building from the pre-mutation state.
	_, before, ok := cm.GetCatalog(ctx)
	require.False(t, ok)
	require.Positive(t, before)
	stale := catalog.Catalog{Products: []models.Product{{ID: "1", Name: "Old"}}, Kits: []catalog.KitView{}}

	// A write lands and invalidates before the reader stores its result.
	cm.Invalidate(ctx)
	require.NoError(t, cm.SetCatalog(ctx, before, stale))

	cached, after, ok := cm.GetCatalog(ctx)
	assert.False(t, ok, "stale catalog must not be served after invalidation")
	assert.Nil(t, cached)
	assert.Greater(t, after, before)

	fresh := catalog.Catalog{Products: []models.Product{{ID: "1", Name: "New"}}, Kits: []catalog.KitView{}}
	require.NoError(t, cm.SetCatalog(ctx, after, fresh))
	cached, _, ok = cm.GetCatalog(ctx)
	require.True(t, ok)
	assert.Equal(t, "New", cached.Products[0].Name)
}

func TestKitRoutes(t *testing.T) {
	svc := &mockKitService{}
	kc := NewKitController(svc, nil)
	r := gin.New()
	r.POST("/kits", kc.CreateKit)
	r.PUT("/kits/:id", kc.UpdateKit)

	body := `{"name":"Kit","description":"d","image":"https://img/k.png","productIds":[1700000000001,"abc"]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/kits", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, []models.ID{"1700000000001", "abc"}, svc.created.ProductIDs)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/kits", strings.NewReader(`{"name":"Kit","productIds":[]}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/kits/9", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type stubCatalogReader struct{}

func (stubCatalogReader) Products(context.Context) []models.Product {
	return []models.Product{{ID: "1", Name: "A"}}
}
func (stubCatalogReader) Kits(context.Context) []models.Kit { return []models.Kit{} }

func adminRouter(t *testing.T) (*gin.Engine, *auth.TokenIssuer) {
	t.Helper()
	_, client := newRedis(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	issuer := auth.NewTokenIssuer("secret", time.Hour)

	ac := NewAdminController(
		services.NewAuthService("admin@example.com", string(hash), issuer, time.Hour, zap.NewNop()),
		services.NewGate(cache.NewLocalCache(client), "open-sesame", zap.NewNop()),
		services.NewExportService(stubCatalogReader{}, zap.NewNop()),
		false,
	)
	r := gin.New()
	r.POST("/auth/login", ac.Login)
	r.POST("/auth/logout", ac.Logout)
	r.POST("/admin/unlock", ac.Unlock)
	r.GET("/admin/unlock", ac.UnlockStatus)
	r.DELETE("/admin/unlock", ac.Lock)
	r.GET("/admin/export/products", ac.ExportProducts)
	return r, issuer
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestAdmin_LoginSetsCookie(t *testing.T) {
	r, issuer := adminRouter(t)

	w := postJSON(r, "/auth/login", `{"email":"admin@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var data services.LoginResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &data))
	_, err := issuer.Parse(data.Token)
	assert.NoError(t, err)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "storefront_session=")

	w = postJSON(r, "/auth/login", `{"email":"admin@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", decode(t, w).Code)
}

func TestAdmin_LogoutClearsCookie(t *testing.T) {
	r, _ := adminRouter(t)

	login := postJSON(r, "/auth/login", `{"email":"admin@example.com","password":"pw"}`)
	require.Equal(t, http.StatusOK, login.Code)
	session := login.Result().Cookies()
	require.NotEmpty(t, session)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(session[0])
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode(t, w).Success)
	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "storefront_session", cleared[0].Name)
	assert.Empty(t, cleared[0].Value)
	assert.Negative(t, cleared[0].MaxAge)
}

func TestAdmin_UnlockFlow(t *testing.T) {
	r, _ := adminRouter(t)

	assert.Equal(t, http.StatusUnauthorized, postJSON(r, "/admin/unlock", `{"passcode":"guess"}`).Code)
	assert.Equal(t, http.StatusOK, postJSON(r, "/admin/unlock", `{"passcode":"open-sesame"}`).Code)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/unlock", nil))
	assert.Equal(t, "true", string(decode(t, w).Data))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/unlock", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin_Export(t *testing.T) {
	r, _ := adminRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/export/products", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "products.json")
	assert.Contains(t, w.Body.String(), `"id": 1`)
}
