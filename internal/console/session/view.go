package session

import (
	"context"

	"github.com/tair/catalog-console/internal/catalog/domain"
	"github.com/tair/catalog-console/internal/catalog/forms"
	"github.com/tair/catalog-console/internal/catalog/listing"
	"github.com/tair/catalog-console/internal/catalog/notify"
)

// View is everything needed to render the products page once.
type View struct {
	State      listing.State
	Page       listing.Page
	From, To   int
	Categories []string
	Favorites  map[int64]bool
	Modal      Modal
	Selected   *domain.Product
	Add        forms.View
	Edit       forms.View
	Toasts     []notify.Notification
	// Err is set when the product list could not be loaded.
	Err error
}

// View fetches the product list and derives the page. Pending toasts are drained.
func (s *Session) View(ctx context.Context) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		State:     s.state,
		Favorites: s.favorites.Snapshot(),
		Modal:     s.modal,
		Add:       s.add.View(),
		Edit:      s.edit.View(),
		Toasts:    s.toasts.Drain(),
	}
	if s.selected != nil {
		p := *s.selected
		v.Selected = &p
	}

	products, err := s.catalog.List(ctx)
	if err != nil {
		v.Err = err
		v.Categories = []string{}
		return v
	}

	v.Page = listing.DerivePage(products, s.state, listing.WithCategoryMatch(s.opts.CategoryMatch))
	v.From, v.To = v.Page.Range()
	v.Categories = listing.Categories(products)
	return v
}
