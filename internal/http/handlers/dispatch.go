package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "tallybot/internal/log"
	"tallybot/internal/services"
)

// CommandHandler decodes one conversational command per request and routes it
// to the owning handler. Commands other than authorize require the
// conversation to have passed the gate.
type CommandHandler struct {
	Auth    *AuthHandler
	AuthSvc *services.AuthService
	Capture *CaptureHandler
	Reports *ReportHandler
}

func (h *CommandHandler) Dispatch(c *fiber.Ctx) error {
	conversation := c.Params("conversation")
	if conversation == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing conversation"})
	}

	cmd, err := DecodeCommand(c.Body())
	if err != nil {
		return fail(c, "command.decode", err)
	}
	applog.Info(c, "command", map[string]any{"kind": string(cmd.Kind)})

	if cmd.Kind == CmdAuthorize {
		return h.Auth.Authorize(c, conversation, cmd)
	}

	ok, err := h.AuthSvc.IsAuthorized(conversation)
	if err != nil {
		return fail(c, "gate.check", err)
	}
	if !ok {
		applog.Security(c, "gate.blocked", nil)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"type": "unauthorized", "message": "authorize first"})
	}

	switch cmd.Kind {
	case CmdStartPurchase:
		return h.Capture.StartPurchase(c, conversation)
	case CmdSubmitField:
		return h.Capture.SubmitField(c, conversation, cmd)
	case CmdStartSale:
		return h.Capture.StartSale(c, conversation, cmd)
	case CmdSalePage:
		return h.Capture.SalePage(c, conversation, cmd)
	case CmdSelectBatch:
		return h.Capture.SelectBatch(c, conversation, cmd)
	case CmdSelectMethod:
		return h.Capture.SelectMethod(c, conversation, cmd)
	case CmdCancel:
		return h.Capture.Cancel(c, conversation)
	case CmdPeriodSales:
		return h.Reports.PeriodSales(c, cmd)
	case CmdItemSales:
		return h.Reports.ItemSales(c, cmd)
	case CmdListItems:
		return h.Reports.ListItems(c)
	case CmdInventory:
		return h.Reports.Inventory(c)
	case CmdLiquidity:
		return h.Reports.Liquidity(c)
	case CmdStatistics:
		return h.Reports.Statistics(c)
	case CmdBrowseDelete:
		return h.Reports.BrowseDelete(c, cmd)
	case CmdDeleteRecord:
		return h.Reports.DeleteRecord(c, cmd)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown command"})
	}
}
