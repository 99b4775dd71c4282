package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"

	"minimarket/internal/domain"
	applog "minimarket/internal/log"
	"minimarket/internal/services"
	"minimarket/internal/validate"
)

// StreamHeartbeat is how often an idle order stream sends a comment line.
var StreamHeartbeat = 15 * time.Second

type AdminHandler struct {
	Catalog *services.CatalogService
	Status  *services.StatusService
	Users   *services.UserService
}

func actor(c *fiber.Ctx) string {
	if u := currentUser(c); u != nil {
		return u.ID
	}
	return ""
}

// POST /api/v1/admin/products
func (h *AdminHandler) CreateProduct(c *fiber.Ctx) error {
	var p domain.Product
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, "body")
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), p)
	if err != nil {
		return fail(c, "admin.products.create.fail", err)
	}
	applog.Audit(c, "admin.products.create", map[string]any{"product_id": p.ID})
	return c.Status(fiber.StatusCreated).JSON(p)
}

// PUT /api/v1/admin/products/:id
func (h *AdminHandler) UpdateProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	var p domain.Product
	if err := c.BodyParser(&p); err != nil {
		return badRequest(c, "body")
	}
	p.ID = id
	p, err := h.Catalog.UpdateProduct(c.UserContext(), p)
	if err != nil {
		return fail(c, "admin.products.update.fail", err)
	}
	applog.Audit(c, "admin.products.update", map[string]any{"product_id": id, "price": p.Price, "stock": p.Stock})
	return c.JSON(p)
}

// DELETE /api/v1/admin/products/:id
func (h *AdminHandler) DeleteProduct(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	if err := h.Catalog.DeleteProduct(c.UserContext(), id); err != nil {
		return fail(c, "admin.products.delete.fail", err)
	}
	applog.Audit(c, "admin.products.delete", map[string]any{"product_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}

func statusFilter(c *fiber.Ctx) (domain.OrderStatus, error) {
	raw := c.Query("status")
	if raw == "" {
		return "", nil
	}
	return domain.ParseStatus(raw)
}

// GET /api/v1/admin/orders?status=
func (h *AdminHandler) Orders(c *fiber.Ctx) error {
	st, err := statusFilter(c)
	if err != nil {
		return fail(c, "admin.orders.list.fail", err)
	}
	orders, err := h.Status.ListAll(c.UserContext(), st)
	if err != nil {
		return fail(c, "admin.orders.list.fail", err)
	}
	return c.JSON(orders)
}

// POST /api/v1/admin/orders/:id/status
func (h *AdminHandler) SetStatus(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	var in struct {
		Status string `json:"status" form:"status"`
	}
	if err := c.BodyParser(&in); err != nil || in.Status == "" {
		return badRequest(c, "status")
	}
	o, err := h.Status.SetStatus(c.UserContext(), id, domain.OrderStatus(in.Status), actor(c))
	if err != nil {
		return fail(c, "admin.orders.update.fail", err)
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": o.Status})
	return c.JSON(o)
}

// GET /api/v1/admin/ranking
func (h *AdminHandler) Ranking(c *fiber.Ctx) error {
	rank, err := h.Status.Ranking(c.UserContext())
	if err != nil {
		return fail(c, "admin.ranking.fail", err)
	}
	return c.JSON(rank)
}

// GET /api/v1/admin/orders/stream?status=
//
// Server-sent events: one "orders" event per snapshot of the matching
// orders, starting with the current state.
func (h *AdminHandler) Stream(c *fiber.Ctx) error {
	st, err := statusFilter(c)
	if err != nil {
		return fail(c, "admin.orders.stream.fail", err)
	}
	var match func(domain.Order) bool
	if st != "" {
		match = func(o domain.Order) bool { return o.Status == st }
	}
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := h.Status.Subscribe(ctx, match)
	if err != nil {
		cancel()
		return fail(c, "admin.orders.stream.fail", err)
	}
	applog.Info(c, "admin.orders.stream.open", map[string]any{"status": st})

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer sub.Close()
		tick := time.NewTicker(StreamHeartbeat)
		defer tick.Stop()
		for {
			select {
			case orders, ok := <-sub.C:
				if !ok {
					return
				}
				body, err := json.Marshal(orders)
				if err != nil {
					log.Error().Err(err).Msg("stream: encode snapshot")
					continue
				}
				fmt.Fprintf(w, "event: orders\ndata: %s\n\n", body)
			case <-tick.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				log.Debug().Err(err).Msg("stream: client went away")
				return
			}
		}
	}))
	return nil
}

// GET /api/v1/admin/users
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Users.List(c.UserContext())
	if err != nil {
		return fail(c, "admin.users.list.fail", err)
	}
	return c.JSON(users)
}

// PUT /api/v1/admin/users/:id/role
func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	var in struct {
		Role string `json:"role" form:"role"`
	}
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "role")
	}
	if in.Role != domain.RoleAdmin && in.Role != domain.RoleCustomer {
		return badRequest(c, "role")
	}
	if err := h.Users.SetRole(c.UserContext(), id, in.Role); err != nil {
		return fail(c, "admin.users.role.fail", err)
	}
	applog.Audit(c, "admin.users.role", map[string]any{"user_id": id, "role": in.Role})
	return c.SendStatus(fiber.StatusNoContent)
}

// DELETE /api/v1/admin/users/:id
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return badRequest(c, "id")
	}
	if id == actor(c) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "cannot delete yourself"})
	}
	if err := h.Users.Delete(c.UserContext(), id, actor(c)); err != nil {
		return fail(c, "admin.users.delete.fail", err)
	}
	applog.Audit(c, "admin.users.delete", map[string]any{"user_id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
