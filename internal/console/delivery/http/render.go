package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/catalog-console/internal/catalog/domain"
	"github.com/tair/catalog-console/internal/catalog/forms"
	"github.com/tair/catalog-console/internal/catalog/listing"
	"github.com/tair/catalog-console/internal/console/session"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// DefaultCurrencySymbol prefixes every rendered price unless configured otherwise.
const DefaultCurrencySymbol = "GH₵"

func parseTemplates() *template.Template {
	return template.Must(template.New("console").ParseFS(templateFS, "templates/*.gohtml"))
}

type sortChoice struct {
	Value listing.SortOption
	Label string
}

var sortChoices = []sortChoice{
	{Value: listing.SortNone, Label: "Sort by"},
	{Value: listing.SortPriceLowHigh, Label: "Price: Low to High"},
	{Value: listing.SortPriceHighLow, Label: "Price: High to Low"},
}

// formData feeds the shared product-form template.
type formData struct {
	Name              string
	Title             string
	Action            string
	Submit            string
	Form              forms.View
	Categories        []string
	NewCategoryOption string
}

// pageData is the view model of the products page.
type pageData struct {
	session.View
	Currency    string
	SortChoices []sortChoice
	AddForm     formData
	EditForm    formData
	PrevPage    int
	NextPage    int
}

func newPageData(v session.View, currency string) pageData {
	d := pageData{
		View:        v,
		Currency:    currency,
		SortChoices: sortChoices,
		PrevPage:    max(v.Page.Page-1, 1),
		NextPage:    min(v.Page.Page+1, max(v.Page.TotalPages, 1)),
		AddForm: formData{
			Name:              "add",
			Title:             "Add New Product",
			Action:            "/products",
			Submit:            "Add Product",
			Form:              v.Add,
			Categories:        v.Categories,
			NewCategoryOption: forms.NewCategoryOption,
		},
		EditForm: formData{
			Name:              "edit",
			Title:             "Edit Product",
			Submit:            "Save Changes",
			Form:              v.Edit,
			Categories:        v.Categories,
			NewCategoryOption: forms.NewCategoryOption,
		},
	}
	if v.Edit.Target != nil {
		d.EditForm.Action = fmt.Sprintf("/products/%d", v.Edit.Target.ID)
	}
	return d
}

// Price formats v with the currency prefix and two decimals.
func (d pageData) Price(v float64) string {
	return FormatPrice(d.Currency, v)
}

// Stars returns five flags, the first StarCount of them set.
func (d pageData) Stars(p domain.Product) []bool {
	stars := make([]bool, 5)
	for i := 0; i < p.StarCount(); i++ {
		stars[i] = true
	}
	return stars
}

func (d pageData) IsFavorite(id int64) bool {
	return d.Favorites[id]
}

// FormatPrice renders a price as symbol + amount with two decimals.
func FormatPrice(symbol string, v float64) string {
	return fmt.Sprintf("%s%.2f", symbol, v)
}

type errorData struct {
	Code    int
	Message string
}

func (h *Handler) render(c *fiber.Ctx, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(buf.Bytes())
}
