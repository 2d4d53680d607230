package forms

import (
	"context"
	"sync"

	"github.com/tair/catalog-console/internal/catalog/domain"
	"github.com/tair/catalog-console/internal/catalog/notify"
	"github.com/tair/catalog-console/pkg/logger"
)

// Creator persists a new product.
type Creator interface {
	Create(ctx context.Context, draft domain.ProductDraft) (domain.Product, error)
}

// AddForm is the "Add New Product" form.
type AddForm struct {
	mu       sync.Mutex
	base     base
	creator  Creator
	notifier notify.Notifier
}

func NewAddForm(creator Creator, notifier notify.Notifier) *AddForm {
	return &AddForm{creator: creator, notifier: notifier}
}

// Open shows the form with the current draft.
func (f *AddForm) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.base.status == Closed {
		f.base.status = Open
	}
}

// Close hides the form and discards the draft.
func (f *AddForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.base.reset()
	f.base.status = Closed
}

func (f *AddForm) SetFields(fields Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.base.setFields(fields)
}

func (f *AddForm) SelectCategory(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.base.selectCategory(v)
}

func (f *AddForm) SetNewCategory(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.base.setNewCategory(text)
}

func (f *AddForm) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.base.view()
}

// Submit creates the product from the draft. On success the draft is reset and the form
// closes; on failure it stays open with the draft intact. Either way a toast is raised.
func (f *AddForm) Submit(ctx context.Context) (domain.Product, error) {
	f.mu.Lock()
	if err := f.base.beginSubmit(); err != nil {
		f.mu.Unlock()
		return domain.Product{}, err
	}
	draft := f.base.fields.Draft()
	f.mu.Unlock()

	created, err := f.creator.Create(ctx, draft)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.base.status = Open
		logger.Error(ctx).Err(err).Str("name", draft.Name).Msg("Add product failed")
		f.notifier.Error(notify.AddFailed)
		return domain.Product{}, err
	}

	f.base.reset()
	f.base.status = Closed
	logger.Info(ctx).Int64("product_id", created.ID).Msg("Product added")
	f.notifier.Success(notify.ProductAdded)
	return created, nil
}
