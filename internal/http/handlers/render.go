package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"tallybot/internal/domain"
	applog "tallybot/internal/log"
	"tallybot/internal/paging"
	"tallybot/internal/repos"
	"tallybot/internal/services"
)

// money renders an amount with 2-digit rounding. Presentation only; stored
// and aggregated values keep full precision.
func money(d decimal.Decimal) string { return d.StringFixed(2) }

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrExhausted), errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, action string, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		// The log entry carries the real error; the client gets nothing
		// internal.
		applog.Error(c, action, err, nil)
		return c.Status(status).JSON(fiber.Map{"error": "something went wrong, please try again"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func pageMeta[T any](p paging.Page[T]) fiber.Map {
	return fiber.Map{
		"index":       p.Index,
		"total_pages": p.TotalPages,
		"has_prev":    p.HasPrev,
		"has_next":    p.HasNext,
	}
}

func batchView(b domain.Batch) fiber.Map {
	return fiber.Map{
		"id":         b.ID,
		"date":       b.Date,
		"name":       b.Name,
		"color":      b.Color,
		"size":       b.Size,
		"quantity":   b.Quantity,
		"unit_price": money(b.UnitPrice),
		"total_cost": money(b.TotalCost),
		"remaining":  b.Remaining,
	}
}

func batchViews(batches []domain.Batch) []fiber.Map {
	out := make([]fiber.Map, 0, len(batches))
	for _, b := range batches {
		out = append(out, batchView(b))
	}
	return out
}

func saleView(r repos.SaleRecord) fiber.Map {
	return fiber.Map{
		"id":           r.SaleID,
		"date":         r.SaleDate,
		"name":         r.Name,
		"color":        r.Color,
		"size":         r.Size,
		"sale_price":   money(r.UnitSalePrice),
		"profit":       money(r.Profit),
		"days_to_sell": r.DaysToSell,
		"method":       string(domain.NormalizeMethod(r.Method)),
	}
}

func saleViews(records []repos.SaleRecord) []fiber.Map {
	out := make([]fiber.Map, 0, len(records))
	for _, r := range records {
		out = append(out, saleView(r))
	}
	return out
}

func summaryView(sum services.Summary) fiber.Map {
	return fiber.Map{
		"total_profit":  money(sum.TotalProfit),
		"total_revenue": money(sum.TotalRevenue),
		"count":         sum.Count,
		"avg_profit":    money(sum.AvgProfit),
		"avg_days":      sum.AvgDays,
	}
}

// fieldName maps a capture step to its prompt field for the client.
func fieldName(s services.Step) string {
	switch s {
	case services.StepDate:
		return "date"
	case services.StepName:
		return "name"
	case services.StepColor:
		return "color"
	case services.StepSize:
		return "size"
	case services.StepQuantity:
		return "quantity"
	case services.StepPrice:
		return "price"
	case services.StepBatch:
		return "batch"
	case services.StepSalePrice:
		return "sale_price"
	case services.StepMethod:
		return "method"
	default:
		return ""
	}
}
