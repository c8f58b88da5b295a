package handler

import (
	"boutique-store/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	reports service.ReportService
}

func NewReportHandler(reports service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// POST /api/reports/sales runs the archival job now.
func (h *ReportHandler) GenerateSales(c *fiber.Ctx) error {
	result, err := h.reports.GenerateSalesReport(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	message := "Report sent and data cleaned successfully!"
	if result.SalesExported == 0 {
		message = "No sales to report"
	}
	return c.JSON(fiber.Map{"success": true, "message": message, "data": result})
}
