// Package repository is the data-access layer for products: reads go through the
// query cache, writes go to the product API and invalidate the cached list.
package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/catalog-console/internal/catalog/cache"
	"github.com/tair/catalog-console/internal/catalog/domain"
	"github.com/tair/catalog-console/internal/catalog/events"
	"github.com/tair/catalog-console/internal/catalog/listing"
	"github.com/tair/catalog-console/pkg/logger"
)

// ProductsKey is the cache key of the full product list.
const ProductsKey = "products"

var tracer = otel.Tracer("catalog-repository")

// ProductAPI is the remote product store.
type ProductAPI interface {
	List(ctx context.Context) ([]domain.Product, error)
	Create(ctx context.Context, draft domain.ProductDraft) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

// ChangePublisher announces successful mutations to other console instances.
type ChangePublisher interface {
	PublishProductChanged(ctx context.Context, event events.ProductChangedEvent) error
}

// Products reads and writes the catalog.
type Products struct {
	api       ProductAPI
	cache     *cache.Client
	publisher ChangePublisher
}

// NewProducts creates the repository. publisher may be nil.
func NewProducts(api ProductAPI, c *cache.Client, publisher ChangePublisher) *Products {
	return &Products{api: api, cache: c, publisher: publisher}
}

// List returns a copy of the cached product list, fetching it on a miss.
func (r *Products) List(ctx context.Context) ([]domain.Product, error) {
	products, err := cache.Fetch(ctx, r.cache, ProductsKey, r.api.List)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out, nil
}

// Categories returns the distinct categories of the full list in first-seen order.
func (r *Products) Categories(ctx context.Context) ([]string, error) {
	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	return listing.Categories(products), nil
}

// Find returns the product with id from the cached list.
func (r *Products) Find(ctx context.Context, id int64) (domain.Product, bool, error) {
	products, err := r.List(ctx)
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

func (r *Products) Create(ctx context.Context, draft domain.ProductDraft) (domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.Create",
		trace.WithAttributes(
			attribute.String("product.name", draft.Name),
			attribute.String("product.category", draft.Category),
			attribute.Float64("product.price", draft.Price),
		),
	)
	defer span.End()

	created, err := r.api.Create(ctx, draft)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Product{}, err
	}
	span.SetAttributes(attribute.Int64("product.id", created.ID))

	r.afterMutation(ctx, events.EventTypeProductCreated, created.ID, &created)
	return created, nil
}

func (r *Products) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	ctx, span := tracer.Start(ctx, "repository.Update",
		trace.WithAttributes(
			attribute.Int64("product.id", p.ID),
			attribute.String("product.name", p.Name),
		),
	)
	defer span.End()

	updated, err := r.api.Update(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Product{}, err
	}

	r.afterMutation(ctx, events.EventTypeProductUpdated, p.ID, &updated)
	return updated, nil
}

func (r *Products) Delete(ctx context.Context, id int64) error {
	ctx, span := tracer.Start(ctx, "repository.Delete",
		trace.WithAttributes(attribute.Int64("product.id", id)),
	)
	defer span.End()

	if err := r.api.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	r.afterMutation(ctx, events.EventTypeProductDeleted, id, nil)
	return nil
}

// Invalidate drops the cached list.
func (r *Products) Invalidate() {
	r.cache.Invalidate(ProductsKey)
}

// Subscribe registers fn for invalidations of the product list.
func (r *Products) Subscribe(fn func()) (unsubscribe func()) {
	return r.cache.Subscribe(ProductsKey, func(string) { fn() })
}

// HandleChange invalidates the cached list when another instance changed the catalog.
func (r *Products) HandleChange(ctx context.Context, event events.ProductChangedEvent) error {
	logger.Debug(ctx).
		Str("event_type", event.EventType).
		Str("source", event.Source).
		Msg("Remote catalog change, invalidating product list")
	r.Invalidate()
	return nil
}

func (r *Products) afterMutation(ctx context.Context, eventType string, id int64, p *domain.Product) {
	r.Invalidate()

	if r.publisher == nil {
		return
	}
	// the mutation already succeeded; a lost event only delays other instances
	if err := r.publisher.PublishProductChanged(ctx, events.ProductChangedEvent{
		EventType: eventType,
		ProductID: id,
		Product:   p,
	}); err != nil {
		logger.Warn(ctx).Err(err).Str("event_type", eventType).Msg("Failed to publish catalog change")
	}
}
