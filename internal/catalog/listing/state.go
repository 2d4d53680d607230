// Package listing derives the visible page of products from the full list and the view state.
package listing

// DefaultPageSize is the number of products shown per page.
const DefaultPageSize = 10

// SortOption orders the filtered list by price.
type SortOption string

const (
	SortNone         SortOption = ""
	SortPriceLowHigh SortOption = "price-low-high"
	SortPriceHighLow SortOption = "price-high-low"
)

// ParseSortOption maps a wire value to a SortOption; unknown values mean no sort.
func ParseSortOption(v string) SortOption {
	switch SortOption(v) {
	case SortPriceLowHigh, SortPriceHighLow:
		return SortOption(v)
	default:
		return SortNone
	}
}

// State is the view state that drives DerivePage. Use the With* setters so that
// changing a filter or the sort always sends the user back to the first page.
type State struct {
	Search   string
	Category string
	Sort     SortOption
	Page     int
	PageSize int
}

// NewState returns the initial view state.
func NewState() State {
	return State{Page: 1, PageSize: DefaultPageSize}
}

func (s State) WithSearch(term string) State {
	s.Search = term
	s.Page = 1
	return s
}

func (s State) WithCategory(category string) State {
	s.Category = category
	s.Page = 1
	return s
}

func (s State) WithSort(opt SortOption) State {
	s.Sort = opt
	s.Page = 1
	return s
}

// WithPage changes only the page. The value is not clamped.
func (s State) WithPage(page int) State {
	s.Page = page
	return s
}

func (s State) pageSize() int {
	if s.PageSize <= 0 {
		return DefaultPageSize
	}
	return s.PageSize
}
