package http

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/tair/catalog-console/internal/catalog/domain"
	"github.com/tair/catalog-console/internal/catalog/listing"
	"github.com/tair/catalog-console/internal/catalog/notify"
)

// Response is the JSON envelope of the /api routes.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PageResponse is a derived page of products.
type PageResponse struct {
	Items      []domain.Product `json:"items"`
	TotalCount int              `json:"total_count"`
	TotalPages int              `json:"total_pages"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	From       int              `json:"from"`
	To         int              `json:"to"`
}

// FavoriteResponse is the state of one favorite flag.
type FavoriteResponse struct {
	ProductID int64 `json:"product_id"`
	Favorite  bool  `json:"favorite"`
}

// ListProducts handles GET /api/products. The page is derived from the query
// parameters only; it does not touch the browser's session.
func (h *Handler) ListProducts(c *fiber.Ctx) error {
	products, err := h.products.List(c.UserContext())
	if err != nil {
		return err
	}

	state := listing.NewState().
		WithSearch(c.Query("search")).
		WithCategory(c.Query("category")).
		WithSort(listing.ParseSortOption(c.Query("sort"))).
		WithPage(c.QueryInt("page", 1))

	page := listing.DerivePage(products, state, listing.WithCategoryMatch(h.cfg.CategoryMatch))
	from, to := page.Range()
	items := page.Items
	if items == nil {
		items = []domain.Product{}
	}

	return c.JSON(Response{
		Success: true,
		Data: PageResponse{
			Items:      items,
			TotalCount: page.TotalCount,
			TotalPages: page.TotalPages,
			Page:       page.Page,
			PageSize:   page.PageSize,
			From:       from,
			To:         to,
		},
	})
}

// ListCategories handles GET /api/categories
func (h *Handler) ListCategories(c *fiber.Ctx) error {
	products, err := h.products.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(Response{Success: true, Data: listing.Categories(products)})
}

// ListFavorites handles GET /api/favorites
func (h *Handler) ListFavorites(c *fiber.Ctx) error {
	flags := h.session(c).Favorites()
	ids := make([]int64, 0, len(flags))
	for id, on := range flags {
		if on {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return c.JSON(Response{Success: true, Data: fiber.Map{"favorites": flags, "ids": ids}})
}

// ToggleFavoriteJSON handles POST /api/favorites/:id/toggle
func (h *Handler) ToggleFavoriteJSON(c *fiber.Ctx) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	on, err := h.session(c).ToggleFavorite(c.UserContext(), id)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, notify.FavoriteFailed)
	}
	return c.JSON(Response{Success: true, Data: FavoriteResponse{ProductID: id, Favorite: on}})
}
