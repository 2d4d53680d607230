package forms

import (
	"context"
	"sync"

	"github.com/tair/catalog-console/internal/catalog/domain"
	"github.com/tair/catalog-console/internal/catalog/notify"
	"github.com/tair/catalog-console/pkg/logger"
)

// Updater persists changes to an existing product.
type Updater interface {
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
}

// EditForm is the "Edit Product" form for one target product.
type EditForm struct {
	mu       sync.Mutex
	base     base
	target   *domain.Product
	updater  Updater
	notifier notify.Notifier
}

func NewEditForm(updater Updater, notifier notify.Notifier) *EditForm {
	return &EditForm{updater: updater, notifier: notifier}
}

// SetTarget re-seeds the draft from p when p differs from the current target.
func (f *EditForm) SetTarget(p domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setTarget(p)
}

func (f *EditForm) setTarget(p domain.Product) {
	if f.target != nil && *f.target == p {
		return
	}
	target := p
	f.target = &target
	f.base.fields = FieldsFrom(p)
	f.base.newCategoryMode = false
	f.base.newCategory = ""
}

// Open targets p and shows the form.
func (f *EditForm) Open(p domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setTarget(p)
	if f.base.status == Closed {
		f.base.status = Open
	}
}

// Close hides the form and forgets the target so the next Open re-seeds.
func (f *EditForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.base.reset()
	f.base.status = Closed
	f.target = nil
}

func (f *EditForm) SetFields(fields Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.base.setFields(fields)
}

func (f *EditForm) SelectCategory(v string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.base.selectCategory(v)
}

func (f *EditForm) SetNewCategory(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.base.setNewCategory(text)
}

func (f *EditForm) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	v := f.base.view()
	if f.target != nil {
		t := *f.target
		v.Target = &t
	}
	return v
}

// Submit sends the draft as the full replacement of the target product.
func (f *EditForm) Submit(ctx context.Context) (domain.Product, error) {
	f.mu.Lock()
	if err := f.base.beginSubmit(); err != nil {
		f.mu.Unlock()
		return domain.Product{}, err
	}
	product := f.base.fields.Draft().WithID(f.target.ID)
	f.mu.Unlock()

	updated, err := f.updater.Update(ctx, product)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.base.status = Open
		logger.Error(ctx).Err(err).Int64("product_id", product.ID).Msg("Edit product failed")
		f.notifier.Error(notify.EditFailed)
		return domain.Product{}, err
	}

	f.base.reset()
	f.base.status = Closed
	f.target = nil
	logger.Info(ctx).Int64("product_id", product.ID).Msg("Product edited")
	f.notifier.Success(notify.ProductEdited)
	return updated, nil
}
