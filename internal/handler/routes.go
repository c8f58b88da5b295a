package handler

import "github.com/gofiber/fiber/v2"

type Handlers struct {
	Auth    *AuthHandler
	Product *ProductHandler
	Sale    *SaleHandler
	Report  *ReportHandler
}

// Register mounts the API under /api. admin guards every back-office route.
func Register(app *fiber.App, h Handlers, admin fiber.Handler) {
	api := app.Group("/api")

	api.Post("/auth/login", h.Auth.Login)

	products := api.Group("/products")
	products.Get("/", h.Product.List)
	products.Get("/filter", h.Product.Filter)
	products.Get("/:id", h.Product.Get)
	products.Post("/", admin, h.Product.Create)
	products.Patch("/inventory/:product_id/:color_id/:age_range_id?", admin, h.Product.DecreaseQuantity)
	products.Patch("/:id", admin, h.Product.Update)
	products.Delete("/:id", admin, h.Product.Delete)

	api.Get("/categories", h.Product.Categories)
	api.Get("/colors", h.Product.Colors)

	api.Post("/sales", h.Sale.Create)
	api.Get("/sales", admin, h.Sale.List)

	api.Post("/reports/sales", admin, h.Report.GenerateSales)
}
