package handlers

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"tallybot/internal/export"
	"tallybot/internal/services"
)

// ExportHandler streams the ledger as a spreadsheet download.
type ExportHandler struct {
	Ledger *services.LedgerService
}

func (h *ExportHandler) Download(c *fiber.Ctx) error {
	batches, err := h.Ledger.AllBatches()
	if err != nil {
		return fail(c, "export", err)
	}
	sales, err := h.Ledger.AllSales()
	if err != nil {
		return fail(c, "export", err)
	}

	var buf bytes.Buffer
	if err := export.Workbook(&buf, batches, sales); err != nil {
		return fail(c, "export", err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="ledger.xlsx"`)
	return c.Send(buf.Bytes())
}
