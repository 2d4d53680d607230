// Package gateway is the HTTP client for the remote product REST API.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tair/catalog-console/internal/catalog/domain"
	"github.com/tair/catalog-console/pkg/logger"
)

var tracer = otel.Tracer("catalog-gateway")

// Operation names used in errors, spans and metrics.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Config configures the product API client.
type Config struct {
	BaseURL string
	// Timeout is the http.Client timeout. Zero leaves the transport default.
	Timeout time.Duration
	// Transport is wrapped with otelhttp. Nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Client calls the product API. There are no retries.
type Client struct {
	baseURL string
	client  *http.Client
	metrics *Metrics
}

// NewClient creates a product API client whose metrics are registered on reg.
func NewClient(cfg Config, reg prometheus.Registerer) *Client {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	logger.Logger.Info().
		Str("endpoint", cfg.BaseURL).
		Dur("timeout", cfg.Timeout).
		Msg("Product API client configured")

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(base),
		},
		metrics: NewMetrics(reg),
	}
}

// List fetches the full product list.
func (c *Client) List(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, OpList, http.MethodGet, c.baseURL, nil, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// Create posts a new product and returns the record assigned by the API.
func (c *Client) Create(ctx context.Context, draft domain.ProductDraft) (domain.Product, error) {
	var created domain.Product
	err := c.do(ctx, OpCreate, http.MethodPost, c.baseURL, draft, &created)
	return created, err
}

// Update replaces the product at /{id}.
func (c *Client) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	var updated domain.Product
	err := c.do(ctx, OpUpdate, http.MethodPut, c.productURL(p.ID), p, &updated)
	return updated, err
}

// Delete removes the product at /{id}.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, OpDelete, http.MethodDelete, c.productURL(id), nil, nil)
}

// Ping checks that the product list endpoint answers with 2xx.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", http.MethodGet, c.baseURL, nil, nil)
}

// Endpoint returns the configured base URL.
func (c *Client) Endpoint() string {
	return c.baseURL
}

func (c *Client) productURL(id int64) string {
	return c.baseURL + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, op, method, url string, body, out any) (err error) {
	ctx, span := tracer.Start(ctx, "gateway."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", url),
		),
	)
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Warn(ctx).Err(err).Str("op", op).Str("url", url).Msg("Product API call failed")
		} else {
			span.SetStatus(codes.Ok, "")
			logger.Debug(ctx).Str("op", op).Dur("duration", time.Since(start)).Msg("Product API call")
		}
		c.metrics.requests.WithLabelValues(op, outcome).Inc()
		c.metrics.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		span.End()
	}()

	var reader io.Reader
	if body != nil {
		raw, merr := json.Marshal(body)
		if merr != nil {
			return &NetworkError{Op: op, Err: fmt.Errorf("encode request: %w", merr)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
