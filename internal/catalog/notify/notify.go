// Package notify queues the transient toast notifications shown after mutations.
package notify

import (
	"sync"
	"time"
)

// Kind is the toast style.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Messages shown after mutations.
const (
	ProductAdded   = "Product Added Successfully"
	ProductEdited  = "Product Edited Successfully"
	ProductDeleted = "Product Deleted Successfully"

	AddFailed    = "Failed to Add Product, Please try again."
	EditFailed   = "Failed to Edit Product, Please try again."
	DeleteFailed = "Failed to Delete Product, Please try again."

	FavoriteFailed = "Failed to Update Favorites, Please try again."
)

// Notification is a single toast.
type Notification struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives notifications.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Queue buffers notifications until the next render drains them.
type Queue struct {
	mu    sync.Mutex
	items []Notification
	limit int
	now   func() time.Time
}

// DefaultLimit caps how many undelivered toasts are kept.
const DefaultLimit = 5

// NewQueue creates a queue that keeps at most limit notifications, dropping the oldest.
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Queue{limit: limit, now: time.Now}
}

func (q *Queue) Success(message string) { q.push(Success, message) }

func (q *Queue) Error(message string) { q.push(Error, message) }

func (q *Queue) push(kind Kind, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = append(q.items, Notification{Kind: kind, Message: message, At: q.now()})
	if over := len(q.items) - q.limit; over > 0 {
		q.items = q.items[over:]
	}
}

// Drain returns and clears the pending notifications, oldest first.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.items
	q.items = nil
	return out
}

// Len reports the number of pending notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
