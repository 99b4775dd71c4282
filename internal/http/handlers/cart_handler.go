package handlers

import (
	"github.com/gofiber/fiber/v2"

	"minimarket/internal/domain"
	applog "minimarket/internal/log"
	"minimarket/internal/services"
	"minimarket/internal/validate"
)

type CartHandler struct {
	Cart *services.CartService
}

type cartView struct {
	Items []domain.CartLine `json:"items"`
	Total float64           `json:"total"`
}

func viewOf(c domain.Cart) cartView {
	items := c.Lines
	if items == nil {
		items = []domain.CartLine{}
	}
	return cartView{Items: items, Total: c.Total()}
}

type cartInput struct {
	ProductID string `json:"productId" form:"productId"`
	Qty       int    `json:"qty" form:"qty"`
}

// GET /api/v1/cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cart, err := h.Cart.Get(c.UserContext(), session(c))
	if err != nil {
		// the service already handed back an empty cart
		applog.Error(c, "cart.load.fail", err, nil)
	}
	return c.JSON(viewOf(cart))
}

// POST /api/v1/cart
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in cartInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	id, ok := validate.ID(in.ProductID)
	if !ok {
		return badRequest(c, "productId")
	}
	if in.Qty == 0 {
		in.Qty = 1
	}
	qty, ok := validate.Qty(in.Qty)
	if !ok {
		return badRequest(c, "qty")
	}
	cart, err := h.Cart.Add(c.UserContext(), session(c), id, qty)
	if err != nil {
		return fail(c, "cart.add.fail", err)
	}
	return c.JSON(viewOf(cart))
}

// PUT /api/v1/cart/:productId
func (h *CartHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "productId")
	}
	var in cartInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	qty, ok := validate.Qty(in.Qty)
	if !ok {
		return badRequest(c, "qty")
	}
	cart, err := h.Cart.Update(c.UserContext(), session(c), id, qty)
	if err != nil {
		return fail(c, "cart.update.fail", err)
	}
	return c.JSON(viewOf(cart))
}

// DELETE /api/v1/cart/:productId
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("productId"))
	if !ok {
		return badRequest(c, "productId")
	}
	cart, err := h.Cart.Remove(c.UserContext(), session(c), id)
	if err != nil {
		return fail(c, "cart.remove.fail", err)
	}
	return c.JSON(viewOf(cart))
}

// DELETE /api/v1/cart
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	cart, err := h.Cart.Clear(c.UserContext(), session(c))
	if err != nil {
		return fail(c, "cart.clear.fail", err)
	}
	return c.JSON(viewOf(cart))
}
