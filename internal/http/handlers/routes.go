package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "minimarket/internal/log"
)

// Mount registers every route on app. Global middleware (request id,
// access log, headers) is the caller's concern.
func Mount(app *fiber.App, d *Deps) {
	app.Use(Attach(d.Auth))

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/signup", d.AuthHandler.Signup)
	auth.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, try again later"})
		},
	}), d.AuthHandler.Login)
	auth.Post("/logout", d.AuthHandler.Logout)
	auth.Get("/me", d.AuthHandler.Me)

	api.Get("/products", d.CatalogHandler.Products)
	api.Get("/products/:id", d.CatalogHandler.Product)
	api.Get("/categories", d.CatalogHandler.Categories)
	api.Get("/availability", limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|avail"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.availability.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), d.CatalogHandler.Availability)

	api.Get("/cart", d.CartHandler.View)
	api.Post("/cart", d.CartHandler.Add)
	api.Put("/cart/:productId", d.CartHandler.Update)
	api.Delete("/cart/:productId", d.CartHandler.Remove)
	api.Delete("/cart", d.CartHandler.Clear)

	orders := api.Group("/orders", RequireUser())
	orders.Post("/", d.OrderHandler.Place)
	orders.Get("/", d.OrderHandler.History)
	orders.Get("/:id", d.OrderHandler.View)
	orders.Get("/:id/receipt", d.OrderHandler.Receipt)

	admin := api.Group("/admin", RequireAdmin())
	admin.Post("/products", d.AdminHandler.CreateProduct)
	admin.Put("/products/:id", d.AdminHandler.UpdateProduct)
	admin.Delete("/products/:id", d.AdminHandler.DeleteProduct)
	admin.Get("/orders", d.AdminHandler.Orders)
	admin.Get("/orders/stream", d.AdminHandler.Stream)
	admin.Post("/orders/:id/status", d.AdminHandler.SetStatus)
	admin.Get("/ranking", d.AdminHandler.Ranking)
	admin.Get("/users", d.AdminHandler.ListUsers)
	admin.Put("/users/:id/role", d.AdminHandler.SetRole)
	admin.Delete("/users/:id", d.AdminHandler.DeleteUser)

	app.Get("/orders/:id/receipt", d.OrderHandler.ReceiptPage)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return notFoundPage(c, "Page not found")
	})
}
