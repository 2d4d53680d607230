// Package session holds the per-browser console state: view filters, open modal,
// selected product, form drafts, favorites and pending toasts.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tair/catalog-console/internal/catalog/domain"
	"github.com/tair/catalog-console/internal/catalog/favorites"
	"github.com/tair/catalog-console/internal/catalog/forms"
	"github.com/tair/catalog-console/internal/catalog/listing"
	"github.com/tair/catalog-console/internal/catalog/notify"
	"github.com/tair/catalog-console/pkg/logger"
	"github.com/tair/catalog-console/pkg/storage"
)

var (
	// ErrNoSelection is returned by operations on the selected product when none is selected.
	ErrNoSelection = errors.New("console: no product selected")
	// ErrUnknownProduct is returned when an id is not in the current product list.
	ErrUnknownProduct = errors.New("console: unknown product")
	// ErrSelectionMismatch is returned when an intent names a product other than the selected one.
	ErrSelectionMismatch = errors.New("console: product is not the selected one")
)

// Modal identifies the dialog shown over the product table.
type Modal string

const (
	ModalNone    Modal = ""
	ModalAdd     Modal = "add"
	ModalDetails Modal = "details"
	ModalEdit    Modal = "edit"
	ModalDelete  Modal = "delete"
)

// Catalog is the product data the console works on.
type Catalog interface {
	List(ctx context.Context) ([]domain.Product, error)
	Find(ctx context.Context, id int64) (domain.Product, bool, error)
	Create(ctx context.Context, draft domain.ProductDraft) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

// Options tune how sessions derive their view.
type Options struct {
	CategoryMatch listing.CategoryMatch
}

// FormInput is one post of a product form.
type FormInput struct {
	Fields         forms.Fields
	CategoryChoice string
	NewCategory    string
}

type draftForm interface {
	SetFields(forms.Fields)
	SelectCategory(string)
	SetNewCategory(string)
}

func (in FormInput) apply(f draftForm) {
	fields := in.Fields
	fields.Category = in.CategoryChoice
	if in.CategoryChoice == forms.NewCategoryOption {
		fields.Category = in.NewCategory
	}
	f.SetFields(fields)
	f.SelectCategory(in.CategoryChoice)
	if in.CategoryChoice == forms.NewCategoryOption {
		f.SetNewCategory(in.NewCategory)
	}
}

// Session is the state of one browser. Intents are serialized by its mutex.
type Session struct {
	mu sync.Mutex

	id       string
	catalog  Catalog
	opts     Options
	state    listing.State
	modal    Modal
	selected *domain.Product

	// unix nanos; read by the registry without taking mu
	lastSeen atomic.Int64

	favorites *favorites.Store
	toasts    *notify.Queue
	add       *forms.AddForm
	edit      *forms.EditForm
}

// New creates the session for client id. Favorites are read from store, scoped to id,
// once here and written back on every toggle.
func New(ctx context.Context, id string, catalog Catalog, store storage.Storage, opts Options) *Session {
	toasts := notify.NewQueue(notify.DefaultLimit)
	favs := favorites.New(storage.Namespace(store, id))
	if _, err := favs.Load(ctx); err != nil {
		logger.Warn(ctx).Err(err).Str("client_id", id).Msg("Could not load favorites")
	}

	s := &Session{
		id:        id,
		catalog:   catalog,
		opts:      opts,
		state:     listing.NewState(),
		favorites: favs,
		toasts:    toasts,
		add:       forms.NewAddForm(catalog, toasts),
		edit:      forms.NewEditForm(catalog, toasts),
	}
	s.touch(time.Now())
	return s
}

// ID returns the client id.
func (s *Session) ID() string { return s.id }

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// State returns the current view state.
func (s *Session) State() listing.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.WithSearch(term)
}

func (s *Session) SetCategory(category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.WithCategory(category)
}

func (s *Session) SetSort(opt listing.SortOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.WithSort(opt)
}

func (s *Session) SetPage(page int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.WithPage(page)
}

// OpenAdd shows the add form.
func (s *Session) OpenAdd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeModal()
	s.add.Open()
	s.modal = ModalAdd
}

// OpenDetails selects the product and shows its details.
func (s *Session) OpenDetails(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok, err := s.catalog.Find(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProduct, id)
	}
	s.closeModal()
	s.selected = &p
	s.modal = ModalDetails
	return nil
}

// Selected returns the product whose details, edit form or delete confirmation is shown.
func (s *Session) Selected() (domain.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return domain.Product{}, false
	}
	return *s.selected, true
}

// EditSelected switches from details to the edit form of the selected product.
func (s *Session) EditSelected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return ErrNoSelection
	}
	s.edit.Open(*s.selected)
	s.modal = ModalEdit
	return nil
}

// AskDeleteSelected switches from details to the delete confirmation.
func (s *Session) AskDeleteSelected() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return ErrNoSelection
	}
	s.modal = ModalDelete
	return nil
}

// ConfirmDelete deletes the selected product, which must be id. On failure the
// confirmation stays open.
func (s *Session) ConfirmDelete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return ErrNoSelection
	}
	if s.selected.ID != id {
		return fmt.Errorf("%w: %d", ErrSelectionMismatch, id)
	}

	if err := s.catalog.Delete(ctx, id); err != nil {
		logger.Error(ctx).Err(err).Int64("product_id", id).Msg("Delete product failed")
		s.toasts.Error(notify.DeleteFailed)
		return err
	}

	logger.Info(ctx).Int64("product_id", id).Msg("Product deleted")
	s.modal = ModalNone
	s.selected = nil
	s.toasts.Success(notify.ProductDeleted)
	return nil
}

// CloseModal dismisses whichever dialog is open. Closing a form discards its draft.
func (s *Session) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeModal()
}

func (s *Session) closeModal() {
	switch s.modal {
	case ModalAdd:
		s.add.Close()
	case ModalEdit:
		s.edit.Close()
	}
	s.modal = ModalNone
}

// ToggleFavorite flips the favorite flag of id. A storage failure raises an error toast.
func (s *Session) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flags, err := s.favorites.Toggle(ctx, id)
	if err != nil {
		logger.Error(ctx).Err(err).Int64("product_id", id).Msg("Favorite toggle failed")
		s.toasts.Error(notify.FavoriteFailed)
		return s.favorites.IsFavorite(id), err
	}
	return flags[id], nil
}

// Favorites returns a copy of the favorites map.
func (s *Session) Favorites() map[int64]bool {
	return s.favorites.Snapshot()
}

// UpdateAddForm records the add form inputs without submitting.
func (s *Session) UpdateAddForm(in FormInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.apply(s.add)
}

// UpdateEditForm records the edit form inputs without submitting.
func (s *Session) UpdateEditForm(in FormInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.apply(s.edit)
}

// SubmitAdd records the inputs and creates the product.
func (s *Session) SubmitAdd(ctx context.Context, in FormInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	in.apply(s.add)
	if _, err := s.add.Submit(ctx); err != nil {
		return err
	}
	s.modal = ModalNone
	return nil
}

// SubmitEdit records the inputs and updates the selected product.
func (s *Session) SubmitEdit(ctx context.Context, in FormInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return ErrNoSelection
	}

	in.apply(s.edit)
	updated, err := s.edit.Submit(ctx)
	if err != nil {
		return err
	}
	s.selected = &updated
	s.modal = ModalNone
	return nil
}

// Click routes a click on a table row.
func (s *Session) Click(ctx context.Context, id int64, target ClickTarget) error {
	var err error
	Table{
		OnOpenDetails: func(id int64) { err = s.OpenDetails(ctx, id) },
		OnToggleFavorite: func(id int64) {
			_, err = s.ToggleFavorite(ctx, id)
		},
	}.Click(id, target)
	return err
}
