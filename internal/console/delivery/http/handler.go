package http

import (
	"context"
	"errors"
	"html/template"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tair/catalog-console/internal/catalog/domain"
	"github.com/tair/catalog-console/internal/catalog/forms"
	"github.com/tair/catalog-console/internal/catalog/gateway"
	"github.com/tair/catalog-console/internal/catalog/listing"
	"github.com/tair/catalog-console/internal/console/session"
	"github.com/tair/catalog-console/pkg/logger"
)

// ClientCookie carries the id of the browser's console session.
const ClientCookie = "catalog_console_client"

// ProductLister is the read side used by the stateless JSON API.
type ProductLister interface {
	List(ctx context.Context) ([]domain.Product, error)
}

// HandlerConfig holds presentation settings.
type HandlerConfig struct {
	CurrencySymbol string
	CategoryMatch  listing.CategoryMatch
	CookieTTL      time.Duration
}

// Handler serves the console pages and its JSON API.
type Handler struct {
	registry  *session.Registry
	products  ProductLister
	cfg       HandlerConfig
	templates *template.Template
}

// NewHandler creates the console handler.
func NewHandler(registry *session.Registry, products ProductLister, cfg HandlerConfig) *Handler {
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = DefaultCurrencySymbol
	}
	if cfg.CookieTTL <= 0 {
		cfg.CookieTTL = 24 * time.Hour
	}
	return &Handler{
		registry:  registry,
		products:  products,
		cfg:       cfg,
		templates: parseTemplates(),
	}
}

// RegisterRoutes mounts all console routes. limit guards the mutating routes and may be nil.
func (h *Handler) RegisterRoutes(app fiber.Router, limit fiber.Handler) {
	mutating := []fiber.Handler{}
	if limit != nil {
		mutating = append(mutating, limit)
	}
	post := func(path string, handler fiber.Handler) {
		app.Post(path, append(mutating, handler)...)
	}

	app.Get("/", h.Index)

	post("/view/search", h.SetSearch)
	post("/view/category", h.SetCategory)
	post("/view/sort", h.SetSort)
	post("/view/page", h.SetPage)

	post("/products/:id/details", h.OpenDetails)
	post("/products/:id/favorite", h.ToggleFavorite)
	post("/modal/add", h.OpenAdd)
	post("/modal/close", h.CloseModal)
	post("/modal/edit", h.OpenEdit)
	post("/modal/delete", h.OpenDelete)
	post("/forms/:form/category", h.SelectCategory)

	post("/products", h.SubmitAdd)
	post("/products/:id", h.SubmitEdit)
	post("/products/:id/delete", h.ConfirmDelete)

	api := app.Group("/api")
	api.Get("/products", h.ListProducts)
	api.Get("/categories", h.ListCategories)
	api.Get("/favorites", h.ListFavorites)
	api.Post("/favorites/:id/toggle", append(mutating, h.ToggleFavoriteJSON)...)
}

// session returns the session of the requesting browser, issuing a client id cookie
// on first contact.
func (h *Handler) session(c *fiber.Ctx) *session.Session {
	id := c.Cookies(ClientCookie)
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     ClientCookie,
			Value:    id,
			Path:     "/",
			Expires:  time.Now().Add(h.cfg.CookieTTL),
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
		// later middleware in this request reads the id from the request header
		c.Request().Header.SetCookie(ClientCookie, id)
	}
	return h.registry.Get(c.UserContext(), id)
}

// Index renders the products page.
func (h *Handler) Index(c *fiber.Ctx) error {
	s := h.session(c)
	v := s.View(c.UserContext())
	if v.Err != nil {
		logger.Warn(c.UserContext()).Err(v.Err).Msg("Product list unavailable")
	}
	return h.render(c, fiber.StatusOK, "index", newPageData(v, h.cfg.CurrencySymbol))
}

func (h *Handler) SetSearch(c *fiber.Ctx) error {
	h.session(c).SetSearch(c.FormValue("search"))
	return back(c)
}

func (h *Handler) SetCategory(c *fiber.Ctx) error {
	h.session(c).SetCategory(c.FormValue("category"))
	return back(c)
}

func (h *Handler) SetSort(c *fiber.Ctx) error {
	h.session(c).SetSort(listing.ParseSortOption(c.FormValue("sort")))
	return back(c)
}

func (h *Handler) SetPage(c *fiber.Ctx) error {
	page, err := strconv.Atoi(c.FormValue("page"))
	if err != nil || page < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "invalid page")
	}
	h.session(c).SetPage(page)
	return back(c)
}

// OpenDetails is a click on the row body.
func (h *Handler) OpenDetails(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	return intent(c, h.session(c).Click(c.UserContext(), id, session.TargetRow))
}

// ToggleFavorite is a click on the row's favorite control.
func (h *Handler) ToggleFavorite(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	if err := h.session(c).Click(c.UserContext(), id, session.TargetFavorite); err != nil {
		// the session raised a toast
		logger.Warn(c.UserContext()).Err(err).Int64("product_id", id).Msg("Favorite not saved")
	}
	return back(c)
}

func (h *Handler) OpenAdd(c *fiber.Ctx) error {
	h.session(c).OpenAdd()
	return back(c)
}

func (h *Handler) CloseModal(c *fiber.Ctx) error {
	h.session(c).CloseModal()
	return back(c)
}

func (h *Handler) OpenEdit(c *fiber.Ctx) error {
	return intent(c, h.session(c).EditSelected())
}

func (h *Handler) OpenDelete(c *fiber.Ctx) error {
	return intent(c, h.session(c).AskDeleteSelected())
}

// SelectCategory records the form inputs after the category select changed.
func (h *Handler) SelectCategory(c *fiber.Ctx) error {
	s := h.session(c)
	switch c.Params("form") {
	case "add":
		s.UpdateAddForm(formInput(c))
	case "edit":
		s.UpdateEditForm(formInput(c))
	default:
		return fiber.NewError(fiber.StatusNotFound, "unknown form")
	}
	return back(c)
}

func (h *Handler) SubmitAdd(c *fiber.Ctx) error {
	return intent(c, h.session(c).SubmitAdd(c.UserContext(), formInput(c)))
}

func (h *Handler) SubmitEdit(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	s := h.session(c)
	if selected, ok := s.Selected(); !ok || selected.ID != id {
		return fiber.NewError(fiber.StatusConflict, "product is not being edited")
	}
	return intent(c, s.SubmitEdit(c.UserContext(), formInput(c)))
}

func (h *Handler) ConfirmDelete(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	return intent(c, h.session(c).ConfirmDelete(c.UserContext(), id))
}

func formInput(c *fiber.Ctx) session.FormInput {
	return session.FormInput{
		Fields: forms.Fields{
			Name:        c.FormValue("name"),
			Price:       c.FormValue("price"),
			Description: c.FormValue("description"),
			Rating:      c.FormValue("rating"),
		},
		CategoryChoice: c.FormValue("category"),
		NewCategory:    c.FormValue("new_category"),
	}
}

func productID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}
	return id, nil
}

// back sends the browser to the page after an intent.
func back(c *fiber.Ctx) error {
	return c.Redirect("/", fiber.StatusSeeOther)
}

// intent maps the outcome of a session operation. Failures already reported to the user
// as a toast or the error panel redirect like successes.
func intent(c *fiber.Ctx, err error) error {
	switch {
	case err == nil,
		errors.Is(err, gateway.ErrNetwork),
		errors.Is(err, forms.ErrSubmitInFlight):
		return back(c)
	case errors.Is(err, session.ErrUnknownProduct):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrNoSelection),
		errors.Is(err, session.ErrSelectionMismatch),
		errors.Is(err, forms.ErrNotOpen):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
