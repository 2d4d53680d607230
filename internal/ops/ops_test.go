package ops

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	up   = pingFunc(func(context.Context) error { return nil })
	down = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func serve(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestCheckAll_Status(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Pinger
		want   string
	}{
		{"all up", map[string]Pinger{"product-api": up, "storage": up}, StatusHealthy},
		{"one down", map[string]Pinger{"product-api": down, "storage": up}, StatusDegraded},
		{"all down", map[string]Pinger{"product-api": down, "storage": down}, StatusUnhealthy},
		{"nothing to check", map[string]Pinger{}, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker("catalog-console", tt.checks)
			got := h.CheckAll(context.Background())
			assert.Equal(t, tt.want, got.Status)
			assert.Len(t, got.Dependencies, len(tt.checks))
		})
	}
}

func TestCheck_RecordsError(t *testing.T) {
	h := NewHealthChecker("catalog-console", nil)
	got := h.Check(context.Background(), "storage", down)
	assert.Equal(t, StatusUnhealthy, got.Status)
	assert.Equal(t, "connection refused", got.Error)
	assert.Equal(t, "storage", got.Name)
}

func TestRouter_Probes(t *testing.T) {
	checker := NewHealthChecker("catalog-console", map[string]Pinger{"product-api": up, "storage": up})
	router := NewRouter(checker, prometheus.NewRegistry(), []string{"*"})

	rec, body := serve(t, router, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "catalog-console", body["service"])

	rec, body = serve(t, router, "/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", body["status"])

	rec, body = serve(t, router, "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusHealthy, body["status"])
}

func TestRouter_ReadyUnavailable(t *testing.T) {
	checker := NewHealthChecker("catalog-console", map[string]Pinger{"product-api": down})
	router := NewRouter(checker, prometheus.NewRegistry(), []string{"*"})

	rec, body := serve(t, router, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "connection refused", deps["product-api"].(map[string]any)["error"])
}

func TestRouter_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "ops_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Add(3)

	router := NewRouter(NewHealthChecker("catalog-console", nil), reg, []string{"*"})
	rec, _ := serve(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ops_test_total 3")
}
