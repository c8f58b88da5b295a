package handler

import (
	"boutique-store/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SaleHandler struct {
	sales service.SaleService
}

func NewSaleHandler(sales service.SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// POST /api/sales
func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var req service.CreateSaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	receipt, err := h.sales.CreateSale(c.UserContext(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Sale completed successfully!",
		"data":    receipt,
	})
}

// GET /api/sales
func (h *SaleHandler) List(c *fiber.Ctx) error {
	summary, err := h.sales.SalesSummary(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":            true,
		"product_count":      summary.ProductCount,
		"total_sales_amount": summary.TotalSalesAmount,
		"data":               summary.Products,
	})
}
