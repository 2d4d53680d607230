package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/catalog-console/internal/catalog/domain"
	"github.com/tair/catalog-console/internal/catalog/gateway"
	"github.com/tair/catalog-console/internal/console/session"
	"github.com/tair/catalog-console/pkg/storage"
)

type stubCatalog struct {
	mu       sync.Mutex
	products []domain.Product
	nextID   int64
	fail     bool
}

func sampleCatalog() *stubCatalog {
	return &stubCatalog{
		nextID: 4,
		products: []domain.Product{
			{ID: 1, Name: "Laptop", Category: "Electronics", Price: 999.99, Rating: 4.5, Description: "Fast"},
			{ID: 2, Name: "Smartphone", Category: "Electronics", Price: 699.99, Rating: 4},
			{ID: 3, Name: "T-Shirt", Category: "Clothing", Price: 19.99, Rating: 3.2},
			{ID: 4, Name: "Jeans", Category: "Clothing", Price: 49.99, Rating: 4.1},
		},
	}
}

func manyCatalog(n int) *stubCatalog {
	c := &stubCatalog{nextID: int64(n)}
	for i := 1; i <= n; i++ {
		c.products = append(c.products, domain.Product{ID: int64(i), Name: fmt.Sprintf("Item %02d", i), Category: "Misc", Price: float64(i)})
	}
	return c
}

func (s *stubCatalog) err(op string) error {
	if s.fail {
		return &gateway.NetworkError{Op: op, Err: errors.New("connection refused")}
	}
	return nil
}

func (s *stubCatalog) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *stubCatalog) List(context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(gateway.OpList); err != nil {
		return nil, err
	}
	return append([]domain.Product(nil), s.products...), nil
}

func (s *stubCatalog) Find(ctx context.Context, id int64) (domain.Product, bool, error) {
	products, err := s.List(ctx)
	if err != nil {
		return domain.Product{}, false, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, true, nil
		}
	}
	return domain.Product{}, false, nil
}

func (s *stubCatalog) Create(_ context.Context, d domain.ProductDraft) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(gateway.OpCreate); err != nil {
		return domain.Product{}, err
	}
	s.nextID++
	p := d.WithID(s.nextID)
	s.products = append(s.products, p)
	return p, nil
}

func (s *stubCatalog) Update(_ context.Context, p domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(gateway.OpUpdate); err != nil {
		return domain.Product{}, err
	}
	for i := range s.products {
		if s.products[i].ID == p.ID {
			s.products[i] = p
		}
	}
	return p, nil
}

func (s *stubCatalog) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.err(gateway.OpDelete); err != nil {
		return err
	}
	kept := s.products[:0]
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
	return nil
}

type browser struct {
	t        *testing.T
	app      *fiber.App
	registry *session.Registry
	cookie   string
}

func newBrowser(t *testing.T, catalog *stubCatalog) (*browser, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	registry := session.NewRegistry(catalog, storage.NewMemory(), session.Options{}, time.Hour)
	h := NewHandler(registry, catalog, HandlerConfig{})
	app := NewApp(h, ServerConfig{ServiceName: "catalog-console-test"}, nil, reg)
	return &browser{t: t, app: app, registry: registry}, reg
}

func (b *browser) do(method, path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if b.cookie != "" {
		req.AddCookie(&http.Cookie{Name: ClientCookie, Value: b.cookie})
	}

	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)
	for _, ck := range resp.Cookies() {
		if ck.Name == ClientCookie {
			b.cookie = ck.Value
		}
	}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return resp, string(raw)
}

func (b *browser) page() string {
	b.t.Helper()
	resp, body := b.do(http.MethodGet, "/", nil)
	require.Equal(b.t, http.StatusOK, resp.StatusCode)
	return body
}

func (b *browser) post(path string, form url.Values) *http.Response {
	b.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	resp, _ := b.do(http.MethodPost, path, form)
	return resp
}

func (b *browser) intent(path string, form url.Values) {
	b.t.Helper()
	resp := b.post(path, form)
	require.Equal(b.t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(b.t, "/", resp.Header.Get("Location"))
}

func TestIndex_RendersCatalog(t *testing.T) {
	b, _ := newBrowser(t, sampleCatalog())

	body := b.page()
	assert.NotEmpty(t, b.cookie)
	assert.Contains(t, body, "Laptop")
	assert.Contains(t, body, "GH₵999.99")
	assert.Contains(t, body, "GH₵19.99")
	assert.Contains(t, body, "Showing 1-4 of 4 products")
	assert.NotContains(t, body, `class="pagination"`)
	assert.Contains(t, body, `<option value="Electronics" >Electronics</option>`)
}

func TestIndex_SameCookieSameSession(t *testing.T) {
	b, _ := newBrowser(t, sampleCatalog())
	b.page()
	first := b.cookie

	b.intent("/view/search", url.Values{"search": {"jeans"}})
	assert.Equal(t, first, b.cookie)
	body := b.page()
	assert.Contains(t, body, "Showing 1-1 of 1 products")
}

func TestSearchAndFilterIntents(t *testing.T) {
	b, _ := newBrowser(t, sampleCatalog())
	b.page()

	b.intent("/view/search", url.Values{"search": {"Electronics"}})
	body := b.page()
	assert.Contains(t, body, "Laptop")
	assert.Contains(t, body, "Smartphone")
	assert.NotContains(t, body, "Jeans")

	b.intent("/view/search", url.Values{"search": {""}})
	b.intent("/view/category", url.Values{"category": {"Clothing"}})
	b.intent("/view/sort", url.Values{"sort": {"price-high-low"}})
	body = b.page()
	assert.Less(t, strings.Index(body, "Jeans"), strings.Index(body, "T-Shirt"))
	assert.NotContains(t, body, "GH₵999.99")
}

func TestSessionState_SurvivesLaterRequests(t *testing.T) {
	b, _ := newBrowser(t, sampleCatalog())
	b.page()
	cookie := b.cookie

	b.intent("/view/search", url.Values{"search": {"Electronics"}})

	other := &browser{t: t, app: b.app}
	for i := 0; i < 20; i++ {
		b.intent("/view/sort", url.Values{"sort": {"price-high-low"}})
		other.do(http.MethodGet, "/api/products?search="+strings.Repeat("Q", 40+i), nil)
		other.intent("/view/search", url.Values{"search": {strings.Repeat("Z", 30)}})
	}

	assert.Equal(t, cookie, b.cookie)
	s := b.registry.Get(context.Background(), cookie)
	assert.Equal(t, "Electronics", s.State().Search)
	assert.Equal(t, 2, b.registry.Len())

	body := b.page()
	assert.Contains(t, body, `value="Electronics"`)
	assert.Contains(t, body, "Showing 1-2 of 2 products")
}

func TestEmptyState(t *testing.T) {
	b, _ := newBrowser(t, sampleCatalog())
	b.page()

	b.intent("/view/search", url.Values{"search": {"zzz"}})
	body := b.page()
	assert.Contains(t, body, "No products found")
	assert.Contains(t, body, "Try adjusting your search or filter")
	assert.NotContains(t, body, "Showing")
}

func TestPagination(t *testing.T) {
	b, _ := newBrowser(t, manyCatalog(25))

	body := b.page()
	assert.Contains(t, body, "Showing 1-10 of 25 products")
	assert.Contains(t, body, `class="pagination"`)

	b.intent("/view/page", url.Values{"page": {"3"}})
	body = b.page()
	assert.Contains(t, body, "Showing 21-25 of 25 products")
	assert.Contains(t, body, "Item 25")

	// a filter change goes back to the first page
	b.intent("/view/sort", url.Values{"sort": {"price-high-low"}})
	body = b.page()
	assert.Contains(t, body, "Showing 1-10 of 25 products")

	resp := b.post("/view/page", url.Values{"page": {"zero"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFavoriteClickDoesNotOpenDetails(t *testing.T) {
	b, _ := newBrowser(t, sampleCatalog())
	b.page()

	b.intent("/products/3/favorite", nil)
	body := b.page()
	assert.NotContains(t, body, `role="dialog"`)
	assert.Contains(t, body, `aria-pressed="true"`)

	resp, raw := b.do(http.MethodGet, "/api/favorites", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Success bool `json:"success"`
		Data    struct {
			IDs []int64 `json:"ids"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.True(t, out.Success)
	assert.Equal(t, []int64{3}, out.Data.IDs)

	resp, raw = b.do(http.MethodPost, "/api/favorites/3/toggle", url.Values{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"data":{"product_id":3,"favorite":false}}`, raw)
}

func TestDetailsEditDeleteFlow(t *testing.T) {
	catalog := sampleCatalog()
	b, _ := newBrowser(t, catalog)
	b.page()

	b.intent("/products/2/details", nil)
	body := b.page()
	assert.Contains(t, body, "<h2>Smartphone</h2>")

	b.intent("/modal/edit", nil)
	body = b.page()
	assert.Contains(t, body, "Edit Product")
	assert.Contains(t, body, `action="/products/2"`)
	assert.Contains(t, body, `value="699.99"`)

	b.intent("/products/2", url.Values{
		"name": {"Smartphone X"}, "price": {"749.5"}, "description": {""},
		"category": {"Electronics"}, "rating": {"4"},
	})
	body = b.page()
	assert.Contains(t, body, "Product Edited Successfully")
	assert.Contains(t, body, "GH₵749.50")

	b.intent("/products/2/details", nil)
	b.intent("/modal/delete", nil)
	body = b.page()
	assert.Contains(t, body, `role="alertdialog"`)

	// a delete posted for another product is refused and deletes nothing
	resp := b.post("/products/4/delete", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body = b.page()
	assert.Contains(t, body, "Jeans")
	assert.Contains(t, body, "Smartphone X")
	assert.Contains(t, body, `role="alertdialog"`)

	catalog.setFail(true)
	b.intent("/products/2/delete", nil)
	catalog.setFail(false)
	body = b.page()
	assert.Contains(t, body, "Failed to Delete Product, Please try again.")
	assert.Contains(t, body, `role="alertdialog"`)

	b.intent("/products/2/delete", nil)
	body = b.page()
	assert.Contains(t, body, "Product Deleted Successfully")
	assert.NotContains(t, body, "Smartphone X")
	assert.Contains(t, body, "Showing 1-3 of 3 products")
}

func TestAddFlow_NewCategory(t *testing.T) {
	b, _ := newBrowser(t, sampleCatalog())
	b.page()

	b.intent("/modal/add", nil)
	b.intent("/forms/add/category", url.Values{"name": {"Rake"}, "category": {"new"}})
	body := b.page()
	assert.Contains(t, body, `name="new_category"`)
	assert.Contains(t, body, `value="Rake"`)

	b.intent("/products", url.Values{
		"name": {"Rake"}, "price": {"15"}, "category": {"new"}, "new_category": {"Garden"},
	})
	body = b.page()
	assert.Contains(t, body, "Product Added Successfully")
	assert.Contains(t, body, `<option value="Garden" >Garden</option>`)
	assert.NotContains(t, body, `role="dialog"`)

	resp := b.post("/forms/other/category", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntentErrors(t *testing.T) {
	b, _ := newBrowser(t, sampleCatalog())
	b.page()

	resp, body := b.do(http.MethodPost, "/products/99/details", url.Values{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Retry")

	resp = b.post("/modal/edit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = b.post("/products/abc/delete", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = b.post("/products/1", url.Values{"name": {"x"}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListFailure(t *testing.T) {
	catalog := sampleCatalog()
	catalog.setFail(true)
	b, _ := newBrowser(t, catalog)

	body := b.page()
	assert.Contains(t, body, "Failed to load products.")
	assert.Contains(t, body, `<a href="/" class="btn">Retry</a>`)

	resp, raw := b.do(http.MethodGet, "/api/products", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"The product service is unavailable"}`, raw)

	catalog.setFail(false)
	assert.Contains(t, b.page(), "Laptop")
}

func TestAPIProducts_Stateless(t *testing.T) {
	b, _ := newBrowser(t, sampleCatalog())

	resp, raw := b.do(http.MethodGet, "/api/products?category=Clothing&sort=price-low-high", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Data PageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	require.Len(t, out.Data.Items, 2)
	assert.Equal(t, "T-Shirt", out.Data.Items[0].Name)
	assert.Equal(t, "Jeans", out.Data.Items[1].Name)
	assert.Equal(t, 2, out.Data.TotalCount)
	assert.Equal(t, 1, out.Data.From)
	assert.Equal(t, 2, out.Data.To)

	resp, raw = b.do(http.MethodGet, "/api/products?page=9", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Empty(t, out.Data.Items)
	assert.NotNil(t, out.Data.Items)

	resp, raw = b.do(http.MethodGet, "/api/categories", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"data":["Electronics","Clothing"]}`, raw)
}

func TestHTTPMetrics(t *testing.T) {
	b, reg := newBrowser(t, sampleCatalog())
	b.page()
	b.page()

	expected := `
# HELP console_http_requests_total Total number of requests to the catalog console
# TYPE console_http_requests_total counter
console_http_requests_total{method="GET",route="/",status="200"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "console_http_requests_total"))
}

func TestStaticAssets(t *testing.T) {
	b, _ := newBrowser(t, sampleCatalog())
	resp, body := b.do(http.MethodGet, "/static/console.css", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".catalog")
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "GH₵999.99", FormatPrice("GH₵", 999.99))
	assert.Equal(t, "GH₵15.00", FormatPrice("GH₵", 15))
	assert.Equal(t, "$0.50", FormatPrice("$", 0.5))
}

func TestRateLimiter(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}
	defer client.Close()

	rl := NewRateLimiter(client, 2, time.Minute)
	rl.prefix = fmt.Sprintf("test:console:ratelimit:%d:", time.Now().UnixNano())
	defer func() {
		keys, _ := client.Keys(context.Background(), rl.prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
	}()

	app := fiber.New()
	app.Post("/intent", rl.Middleware(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/intent", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/intent", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}
