// Package domain holds the product record exchanged with the remote product API.
package domain

// Product is a catalog record as served by the product API.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
}

// ProductDraft is a product that has not been assigned an id yet.
// Create payloads are built from it so "id" never goes over the wire.
type ProductDraft struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
}

// Draft strips the id.
func (p Product) Draft() ProductDraft {
	return ProductDraft{
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Rating:      p.Rating,
	}
}

// WithID attaches an id to a draft.
func (d ProductDraft) WithID(id int64) Product {
	return Product{
		ID:          id,
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		Rating:      d.Rating,
	}
}

// StarCount is the number of filled stars shown for a rating: floor(rating) capped to [0,5].
func (p Product) StarCount() int {
	n := int(p.Rating)
	if n < 0 {
		return 0
	}
	if n > 5 {
		return 5
	}
	return n
}
