// Package forms holds the Add and Edit product form controllers. A form keeps the raw
// text of its inputs (the draft) and moves Closed → Open → Submitting → Closed on
// success or back to Open on failure.
package forms

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/tair/catalog-console/internal/catalog/domain"
)

// NewCategoryOption is the category select value that switches to a free-text category.
const NewCategoryOption = "new"

var (
	// ErrSubmitInFlight is returned when Submit is called while a submission is pending.
	ErrSubmitInFlight = errors.New("forms: submission already in flight")
	// ErrNotOpen is returned when Submit is called on a closed form.
	ErrNotOpen = errors.New("forms: form is not open")
)

// Status of a form
type Status int

const (
	Closed Status = iota
	Open
	Submitting
)

func (s Status) String() string {
	switch s {
	case Open:
		return "open"
	case Submitting:
		return "submitting"
	default:
		return "closed"
	}
}

// Fields are the raw form inputs.
type Fields struct {
	Name        string `json:"name" form:"name"`
	Price       string `json:"price" form:"price"`
	Description string `json:"description" form:"description"`
	Category    string `json:"category" form:"category"`
	Rating      string `json:"rating" form:"rating"`
}

// ParseOr parses text as a finite float and returns fallback when it is empty or not a number.
func ParseOr(text string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// Draft converts the inputs to a product draft. Price and rating use ParseOr(text, 0).
func (f Fields) Draft() domain.ProductDraft {
	return domain.ProductDraft{
		Name:        f.Name,
		Description: f.Description,
		Price:       ParseOr(f.Price, 0),
		Category:    f.Category,
		Rating:      ParseOr(f.Rating, 0),
	}
}

// FieldsFrom renders a product into form inputs.
func FieldsFrom(p domain.Product) Fields {
	return Fields{
		Name:        p.Name,
		Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		Description: p.Description,
		Category:    p.Category,
		Rating:      strconv.FormatFloat(p.Rating, 'f', -1, 64),
	}
}

// View is a read-only snapshot of a form for rendering.
type View struct {
	Status          Status
	Fields          Fields
	NewCategoryMode bool
	NewCategory     string
	Target          *domain.Product
}

func (v View) IsOpen() bool       { return v.Status != Closed }
func (v View) IsSubmitting() bool { return v.Status == Submitting }

// base is the draft state shared by both forms. Callers hold the owning form's lock.
type base struct {
	status          Status
	fields          Fields
	newCategoryMode bool
	newCategory     string
}

func (b *base) reset() {
	b.fields = Fields{}
	b.newCategoryMode = false
	b.newCategory = ""
}

func (b *base) selectCategory(v string) {
	if v == NewCategoryOption {
		b.newCategoryMode = true
		b.fields.Category = ""
		return
	}
	b.newCategoryMode = false
	b.fields.Category = v
}

// setNewCategory is ignored unless the select chose the new-category option.
func (b *base) setNewCategory(text string) {
	if !b.newCategoryMode {
		return
	}
	b.newCategory = text
	b.fields.Category = text
}

// setFields replaces the text inputs. In new-category mode the category follows the
// new-category text rather than the select.
func (b *base) setFields(f Fields) {
	category := b.fields.Category
	b.fields = f
	if b.newCategoryMode {
		b.fields.Category = category
	}
}

func (b *base) view() View {
	return View{
		Status:          b.status,
		Fields:          b.fields,
		NewCategoryMode: b.newCategoryMode,
		NewCategory:     b.newCategory,
	}
}

func (b *base) beginSubmit() error {
	switch b.status {
	case Submitting:
		return ErrSubmitInFlight
	case Closed:
		return ErrNotOpen
	}
	b.status = Submitting
	return nil
}
