package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/catalog-console/internal/catalog/domain"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	response string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	status, response := f.status, f.response
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, response)
}

func (f *fakeAPI) set(status int, response string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.response = status, response
}

func (f *fakeAPI) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func setup(t *testing.T, api *fakeAPI) (*Client, *prometheus.Registry) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	reg := prometheus.NewRegistry()
	return NewClient(Config{BaseURL: srv.URL + "/products/"}, reg), reg
}

func TestList(t *testing.T) {
	api := &fakeAPI{response: `[{"id":1,"name":"Laptop","description":"d","price":999.99,"category":"Electronics","rating":4.5}]`}
	c, reg := setup(t, api)

	products, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Product{
		{ID: 1, Name: "Laptop", Description: "d", Price: 999.99, Category: "Electronics", Rating: 4.5},
	}, products)
	assert.Equal(t, recordedRequest{Method: http.MethodGet, Path: "/products"}, api.last())

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues(OpList, "success")))
	count, err := testutil.GatherAndCount(reg, "catalog_gateway_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestList_EmptyBody(t *testing.T) {
	c, _ := setup(t, &fakeAPI{response: `null`})

	products, err := c.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, products)
	assert.Empty(t, products)
}

func TestCreate_OmitsID(t *testing.T) {
	api := &fakeAPI{status: http.StatusCreated, response: `{"id":5,"name":"Mug","description":"","price":3,"category":"Kitchen","rating":2}`}
	c, _ := setup(t, api)

	created, err := c.Create(context.Background(), domain.ProductDraft{Name: "Mug", Price: 3, Category: "Kitchen", Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.ID)

	req := api.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/products", req.Path)
	assert.NotContains(t, req.Body, "id")
	assert.Equal(t, "Mug", req.Body["name"])
}

func TestUpdate(t *testing.T) {
	api := &fakeAPI{response: `{"id":3,"name":"Jeans","price":55,"category":"Clothing","rating":4}`}
	c, _ := setup(t, api)

	updated, err := c.Update(context.Background(), domain.Product{ID: 3, Name: "Jeans", Price: 55, Category: "Clothing", Rating: 4})
	require.NoError(t, err)
	assert.Equal(t, 55.0, updated.Price)

	req := api.last()
	assert.Equal(t, http.MethodPut, req.Method)
	assert.Equal(t, "/products/3", req.Path)
	assert.Equal(t, 3.0, req.Body["id"])
}

func TestDelete(t *testing.T) {
	api := &fakeAPI{}
	c, _ := setup(t, api)

	require.NoError(t, c.Delete(context.Background(), 8))
	assert.Equal(t, recordedRequest{Method: http.MethodDelete, Path: "/products/8"}, api.last())
}

func TestNon2xxIsNetworkError(t *testing.T) {
	api := &fakeAPI{status: http.StatusInternalServerError, response: `boom`}
	c, _ := setup(t, api)
	ctx := context.Background()

	_, err := c.List(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork))

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, OpList, nerr.Op)
	assert.Equal(t, http.StatusInternalServerError, nerr.StatusCode)
	assert.Contains(t, nerr.Error(), "boom")

	api.set(http.StatusNotFound, "")
	err = c.Delete(ctx, 1)
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, http.StatusNotFound, nerr.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.requests.WithLabelValues(OpDelete, "error")))
}

func TestMalformedBodyIsNetworkError(t *testing.T) {
	c, _ := setup(t, &fakeAPI{response: `{"id":`})

	_, err := c.List(context.Background())
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(Config{BaseURL: url}, prometheus.NewRegistry())
	err := c.Ping(context.Background())
	require.ErrorIs(t, err, ErrNetwork)

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Zero(t, nerr.StatusCode)
}

func TestNewMetrics_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewMetrics(reg)
	b := NewMetrics(reg)
	assert.Same(t, a.requests, b.requests)
}
