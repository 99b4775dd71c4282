package handlers

import (
	"github.com/gofiber/fiber/v2"

	"minimarket/internal/domain"
	applog "minimarket/internal/log"
	"minimarket/internal/services"
	"minimarket/internal/validate"
)

type OrderHandler struct {
	Order  *services.OrderService
	Status *services.StatusService
}

type contactForm struct {
	Name          string `json:"nombre" form:"nombre"`
	Phone         string `json:"telefono" form:"telefono"`
	Email         string `json:"email" form:"email"`
	Address       string `json:"direccion" form:"direccion"`
	Neighborhood  string `json:"barrio" form:"barrio"`
	PaymentMethod string `json:"metodo_pago" form:"metodo_pago"`
	// Total is whatever the client displayed. It is logged, never trusted.
	Total float64 `json:"total" form:"total"`
}

// POST /api/v1/orders
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var in contactForm
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "body")
	}
	contact := domain.ContactInfo{
		Name:          in.Name,
		Phone:         in.Phone,
		Email:         in.Email,
		Address:       in.Address,
		Neighborhood:  in.Neighborhood,
		PaymentMethod: in.PaymentMethod,
	}
	o, err := h.Order.Place(c.UserContext(), session(c), contact)
	if err != nil {
		return fail(c, "order.place.fail", err)
	}
	applog.Audit(c, "order.place", map[string]any{
		"order_id":     o.ID,
		"server_total": o.Total,
		"client_total": in.Total,
		"mismatch":     in.Total != 0 && in.Total != o.Total,
	})
	return c.Status(fiber.StatusCreated).JSON(o)
}

// GET /api/v1/orders
func (h *OrderHandler) History(c *fiber.Ctx) error {
	u := currentUser(c)
	orders, err := h.Status.History(c.UserContext(), u.ID)
	if err != nil {
		return fail(c, "orders.history.fail", err)
	}
	return c.JSON(orders)
}

// load fetches the order named in the path if the caller owns it or is an
// admin. Anything else looks like a missing order.
func (h *OrderHandler) load(c *fiber.Ctx) (domain.Order, error) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o, err := h.Status.Get(c.UserContext(), id)
	if err != nil {
		return domain.Order{}, err
	}
	u := currentUser(c)
	if u == nil || (u.ID != o.UserID && !u.IsAdmin()) {
		applog.Security(c, "access.denied.order", map[string]any{"order_id": id})
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

// GET /api/v1/orders/:id
func (h *OrderHandler) View(c *fiber.Ctx) error {
	o, err := h.load(c)
	if err != nil {
		return fail(c, "orders.get.fail", err)
	}
	return c.JSON(o)
}

// GET /api/v1/orders/:id/receipt
func (h *OrderHandler) Receipt(c *fiber.Ctx) error {
	o, err := h.load(c)
	if err != nil {
		return fail(c, "orders.receipt.fail", err)
	}
	return c.JSON(services.ComputeReceipt(o))
}

// GET /orders/:id/receipt
func (h *OrderHandler) ReceiptPage(c *fiber.Ctx) error {
	o, err := h.load(c)
	if err != nil {
		if code, _ := statusFor(err); code == fiber.StatusNotFound {
			return notFoundPage(c, "Order not found")
		}
		return err
	}
	return render(c, "receipt", fiber.Map{"Receipt": services.ComputeReceipt(o)})
}
