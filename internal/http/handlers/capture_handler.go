package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"tallybot/internal/domain"
	applog "tallybot/internal/log"
	"tallybot/internal/services"
)

// CaptureHandler serves the multi-step purchase and sale capture commands.
type CaptureHandler struct {
	Capture  *services.CaptureService
	Sessions *services.SessionRegistry
}

func (h *CaptureHandler) StartPurchase(c *fiber.Ctx, conversation string) error {
	sess := h.Capture.StartPurchase()
	h.Sessions.Put(conversation, sess)
	return c.JSON(fiber.Map{"type": "prompt", "flow": "purchase", "field": fieldName(sess.Step)})
}

func (h *CaptureHandler) SubmitField(c *fiber.Ctx, conversation string, cmd Command) error {
	sess := h.Sessions.Get(conversation)
	reply, err := h.Capture.SubmitText(sess, cmd.Text)
	if err != nil {
		return fail(c, "capture.submit", err)
	}
	switch {
	case reply.Cancelled:
		h.Sessions.Clear(conversation)
		return c.JSON(fiber.Map{"type": "cancelled"})
	case reply.Invalid != "":
		return c.JSON(fiber.Map{"type": "prompt", "field": fieldName(reply.Next), "error": reply.Invalid})
	case reply.Batch != nil:
		h.Sessions.Clear(conversation)
		applog.Audit(c, "purchase.recorded", map[string]any{"batch": reply.Batch.ID})
		return c.JSON(fiber.Map{"type": "purchase_recorded", "batch": batchView(*reply.Batch)})
	case reply.Next == services.StepMethod:
		return c.JSON(fiber.Map{
			"type":    "choose_method",
			"methods": []string{string(domain.MethodDelivery), string(domain.MethodMeeting)},
		})
	default:
		return c.JSON(fiber.Map{"type": "prompt", "field": fieldName(reply.Next)})
	}
}

func (h *CaptureHandler) StartSale(c *fiber.Ctx, conversation string, cmd Command) error {
	sess, choices, err := h.Capture.StartSale(cmd.Page)
	if err != nil {
		return fail(c, "sale.start", err)
	}
	if sess == nil {
		return c.JSON(fiber.Map{"type": "empty", "message": "nothing in stock to sell"})
	}
	h.Sessions.Put(conversation, sess)
	return c.JSON(fiber.Map{
		"type":  "choose_batch",
		"page":  pageMeta(choices.Page),
		"items": batchViews(choices.Page.Items),
	})
}

func (h *CaptureHandler) SalePage(c *fiber.Ctx, conversation string, cmd Command) error {
	sess := h.Sessions.Get(conversation)
	if sess == nil || sess.Flow != services.FlowSale || sess.Step != services.StepBatch {
		return fail(c, "sale.page", domain.ErrInvalidInput)
	}
	choices, err := h.Capture.SalePage(cmd.Page)
	if err != nil {
		return fail(c, "sale.page", err)
	}
	return c.JSON(fiber.Map{
		"type":  "choose_batch",
		"page":  pageMeta(choices.Page),
		"items": batchViews(choices.Page.Items),
	})
}

func (h *CaptureHandler) SelectBatch(c *fiber.Ctx, conversation string, cmd Command) error {
	sess := h.Sessions.Get(conversation)
	b, err := h.Capture.SelectBatch(sess, cmd.BatchID)
	if err != nil {
		return fail(c, "sale.select", err)
	}
	return c.JSON(fiber.Map{
		"type":  "prompt",
		"flow":  "sale",
		"field": fieldName(services.StepSalePrice),
		"batch": batchView(b),
	})
}

func (h *CaptureHandler) SelectMethod(c *fiber.Ctx, conversation string, cmd Command) error {
	sess := h.Sessions.Get(conversation)
	receipt, err := h.Capture.SelectMethod(sess, cmd.Method)
	if err != nil {
		h.Sessions.Clear(conversation)
		if errors.Is(err, domain.ErrExhausted) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"type":    "unavailable",
				"message": "item is no longer available",
			})
		}
		return fail(c, "sale.commit", err)
	}
	h.Sessions.Clear(conversation)
	applog.Audit(c, "sale.recorded", map[string]any{"sale": receipt.Sale.ID, "batch": receipt.Batch.ID})
	return c.JSON(fiber.Map{
		"type":         "sale_recorded",
		"name":         receipt.Batch.Name,
		"color":        receipt.Batch.Color,
		"size":         receipt.Batch.Size,
		"sale_price":   money(receipt.Sale.UnitPrice),
		"profit":       money(receipt.Sale.Profit),
		"margin_pct":   receipt.Margin.StringFixed(1),
		"method":       string(receipt.Sale.Method),
		"days_to_sell": receipt.Sale.DaysToSell,
		"remaining":    receipt.Remaining,
	})
}

func (h *CaptureHandler) Cancel(c *fiber.Ctx, conversation string) error {
	h.Capture.Cancel(h.Sessions.Get(conversation))
	h.Sessions.Clear(conversation)
	return c.JSON(fiber.Map{"type": "cancelled"})
}
