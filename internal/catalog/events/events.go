// Package events publishes and consumes catalog change events over Kafka so that
// every console instance drops its cached product list after a mutation elsewhere.
package events

import (
	"time"

	"github.com/tair/catalog-console/internal/catalog/domain"
)

// ProductChangedEvent is published after a successful mutation against the product API.
type ProductChangedEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	ProductID int64           `json:"product_id"`
	Product   *domain.Product `json:"product,omitempty"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
}

// Event types
const (
	EventTypeProductCreated = "product.created"
	EventTypeProductUpdated = "product.updated"
	EventTypeProductDeleted = "product.deleted"
)

// EventTypes lists every catalog change event type.
var EventTypes = []string{EventTypeProductCreated, EventTypeProductUpdated, EventTypeProductDeleted}

// DefaultTopic is the Kafka topic for catalog change events.
const DefaultTopic = "catalog-product-changes"

// Header keys
const (
	headerEventType = "event_type"
	headerEventID   = "event_id"
	headerSource    = "source"
)
