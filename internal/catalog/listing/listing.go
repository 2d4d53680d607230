package listing

import (
	"sort"
	"strings"

	"github.com/tair/catalog-console/internal/catalog/domain"
)

// CategoryMatch decides whether a product category satisfies the category filter.
type CategoryMatch int

const (
	// MatchExact compares categories with case-sensitive equality.
	MatchExact CategoryMatch = iota
	// MatchFold compares categories case-insensitively.
	MatchFold
)

// ParseCategoryMatch maps "fold" to MatchFold and anything else to MatchExact.
func ParseCategoryMatch(v string) CategoryMatch {
	if strings.EqualFold(v, "fold") {
		return MatchFold
	}
	return MatchExact
}

func (m CategoryMatch) matches(filter, category string) bool {
	if m == MatchFold {
		return strings.EqualFold(filter, category)
	}
	return filter == category
}

type options struct {
	match CategoryMatch
}

// Option configures DerivePage.
type Option func(*options)

// WithCategoryMatch selects the category matching policy.
func WithCategoryMatch(m CategoryMatch) Option {
	return func(o *options) { o.match = m }
}

// Page is the derived, visible slice of the catalog.
type Page struct {
	Items      []domain.Product
	TotalCount int
	TotalPages int
	Page       int
	PageSize   int
}

// DerivePage filters, sorts and paginates products. The input slice is never modified.
//
// A page outside [1, TotalPages] yields no items; it is not an error.
func DerivePage(products []domain.Product, state State, opts ...Option) Page {
	o := options{match: MatchExact}
	for _, opt := range opts {
		opt(&o)
	}

	filtered := filter(products, state.Search, state.Category, o.match)
	sortByPrice(filtered, state.Sort)

	size := state.pageSize()
	total := len(filtered)
	page := Page{
		Items:      []domain.Product{},
		TotalCount: total,
		TotalPages: (total + size - 1) / size,
		Page:       state.Page,
		PageSize:   size,
	}

	if state.Page < 1 {
		return page
	}
	start := (state.Page - 1) * size
	if start >= total {
		return page
	}
	end := start + size
	if end > total {
		end = total
	}
	page.Items = filtered[start:end]
	return page
}

func filter(products []domain.Product, search, category string, match CategoryMatch) []domain.Product {
	term := strings.ToLower(search)
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Category), term) {
			continue
		}
		if category != "" && !match.matches(category, p.Category) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sortByPrice(products []domain.Product, opt SortOption) {
	switch opt {
	case SortPriceLowHigh:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price < products[j].Price })
	case SortPriceHighLow:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price > products[j].Price })
	}
}

// Categories returns the distinct categories of products in first-seen order.
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{}, len(products))
	out := make([]string, 0)
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Range returns the 1-based bounds for "Showing from-to of total".
// Both bounds are zero for an empty page.
func (p Page) Range() (from, to int) {
	if len(p.Items) == 0 {
		return 0, 0
	}
	from = (p.Page-1)*p.PageSize + 1
	return from, from + len(p.Items) - 1
}

// HasPagination reports whether page controls should be shown.
func (p Page) HasPagination() bool {
	return p.TotalPages > 1
}

// PageNumbers lists 1..TotalPages for the pagination control.
func (p Page) PageNumbers() []int {
	nums := make([]int, p.TotalPages)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}
