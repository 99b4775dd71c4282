package handlers

import (
	"github.com/gofiber/fiber/v2"

	"minimarket/internal/services"
	"minimarket/internal/validate"
)

type CatalogHandler struct {
	Catalog *services.CatalogService
}

// GET /api/v1/products?q=&category=&page=&size=
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	q := c.Query("q")
	if q != "" {
		var ok bool
		if q, ok = validate.Q(q); !ok {
			return badRequest(c, "q")
		}
	}
	page, err := h.Catalog.ListProducts(c.UserContext(), services.ProductFilter{
		Query:    q,
		Category: c.Query("category"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("size", 12),
	})
	if err != nil {
		return fail(c, "catalog.list.fail", err)
	}
	return c.JSON(page)
}

// GET /api/v1/products/:id
func (h *CatalogHandler) Product(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		return fail(c, "catalog.get.fail", err)
	}
	return c.JSON(p)
}

// GET /api/v1/categories
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, "catalog.categories.fail", err)
	}
	return c.JSON(cats)
}

// GET /api/v1/availability?productId=
func (h *CatalogHandler) Availability(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Query("productId"))
	if !ok {
		return badRequest(c, "productId")
	}
	a, err := h.Catalog.Availability(c.UserContext(), id)
	if err != nil {
		return fail(c, "catalog.availability.fail", err)
	}
	return c.JSON(a)
}
