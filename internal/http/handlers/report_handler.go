package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "tallybot/internal/log"
	"tallybot/internal/paging"
	"tallybot/internal/services"
)

// detailLimit caps how many sale lines a report shows; aggregates always
// cover the full matching set.
const detailLimit = 15

// liquidityLimit caps the displayed ranking.
const liquidityLimit = 10

// ReportHandler serves analytics, inventory and record-deletion commands.
type ReportHandler struct {
	Analytics *services.AnalyticsService
	Ledger    *services.LedgerService
}

func (h *ReportHandler) PeriodSales(c *fiber.Ctx, cmd Command) error {
	return h.salesReport(c, cmd, "")
}

func (h *ReportHandler) ItemSales(c *fiber.Ctx, cmd Command) error {
	return h.salesReport(c, cmd, cmd.Item)
}

func (h *ReportHandler) salesReport(c *fiber.Ctx, cmd Command, scope string) error {
	filter, err := h.Analytics.ResolvePeriod(cmd.Period)
	if err != nil {
		return fail(c, "report.period", err)
	}
	sum, records, err := h.Analytics.Detail(filter, scope, detailLimit)
	if err != nil {
		return fail(c, "report.sales", err)
	}
	out := fiber.Map{
		"type":    "sales_report",
		"period":  filter.Label,
		"summary": summaryView(sum),
		"sales":   saleViews(records),
	}
	if scope != "" {
		out["item"] = scope
	}
	return c.JSON(out)
}

func (h *ReportHandler) ListItems(c *fiber.Ctx) error {
	items, err := h.Analytics.ItemsWithSalesHistory()
	if err != nil {
		return fail(c, "report.items", err)
	}
	return c.JSON(fiber.Map{"type": "items", "items": items})
}

func (h *ReportHandler) Inventory(c *fiber.Ctx) error {
	rep, err := h.Ledger.Inventory()
	if err != nil {
		return fail(c, "report.inventory", err)
	}
	groups := make([]fiber.Map, 0, len(rep.Groups))
	for _, g := range rep.Groups {
		variants := make([]fiber.Map, 0, len(g.Variants))
		for _, v := range g.Variants {
			variants = append(variants, fiber.Map{
				"color":      v.Color,
				"size":       v.Size,
				"remaining":  v.Remaining,
				"unit_price": money(v.UnitPrice),
				"date":       v.Date,
			})
		}
		groups = append(groups, fiber.Map{
			"name":           g.Name,
			"variants":       variants,
			"total_quantity": g.TotalQuantity,
			"total_value":    money(g.TotalValue),
		})
	}
	return c.JSON(fiber.Map{
		"type":        "inventory",
		"groups":      groups,
		"positions":   rep.Positions,
		"total_units": rep.TotalUnits,
		"total_value": money(rep.TotalValue),
	})
}

func (h *ReportHandler) Liquidity(c *fiber.Ctx) error {
	rows, err := h.Analytics.LiquidityRanking()
	if err != nil {
		return fail(c, "report.liquidity", err)
	}
	if len(rows) > liquidityLimit {
		rows = rows[:liquidityLimit]
	}
	out := make([]fiber.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, fiber.Map{
			"name":        r.Name,
			"color":       r.Color,
			"size":        r.Size,
			"avg_days":    r.AvgDays,
			"avg_profit":  money(r.AvgProfit),
			"sales_count": r.SalesCount,
			"tier":        r.Tier(),
		})
	}
	return c.JSON(fiber.Map{"type": "liquidity", "items": out})
}

func (h *ReportHandler) Statistics(c *fiber.Ctx) error {
	st, err := h.Analytics.Statistics()
	if err != nil {
		return fail(c, "report.statistics", err)
	}
	methods := make([]fiber.Map, 0, len(st.Methods))
	for _, m := range st.Methods {
		methods = append(methods, fiber.Map{
			"method":    string(m.Method),
			"count":     m.Count,
			"share_pct": m.Share,
			"profit":    money(m.Profit),
		})
	}
	return c.JSON(fiber.Map{
		"type":             "statistics",
		"sales":            st.Sales,
		"revenue":          money(st.Revenue),
		"profit":           money(st.Profit),
		"avg_profit":       money(st.AvgProfit),
		"avg_days":         st.AvgDays,
		"avg_margin_pct":   st.AvgMarginPct,
		"roi_pct":          st.ROIPct,
		"investment":       money(st.Investment),
		"best_item":        st.BestItem,
		"best_item_profit": money(st.BestItemProfit),
		"best_item_sales":  st.BestItemSales,
		"stock_units":      st.StockUnits,
		"stock_value":      money(st.StockValue),
		"methods":          methods,
	})
}

func (h *ReportHandler) BrowseDelete(c *fiber.Ctx, cmd Command) error {
	switch cmd.Target {
	case TargetPurchase:
		batches, err := h.Ledger.AllBatches()
		if err != nil {
			return fail(c, "delete.browse", err)
		}
		page, err := paging.Paginate(batches, paging.Clamp(cmd.Page, len(batches), paging.DefaultPageSize), paging.DefaultPageSize)
		if err != nil {
			return fail(c, "delete.browse", err)
		}
		return c.JSON(fiber.Map{
			"type":   "delete_choices",
			"target": cmd.Target,
			"page":   pageMeta(page),
			"items":  batchViews(page.Items),
		})
	default:
		sales, err := h.Ledger.AllSales()
		if err != nil {
			return fail(c, "delete.browse", err)
		}
		page, err := paging.Paginate(sales, paging.Clamp(cmd.Page, len(sales), paging.DefaultPageSize), paging.DefaultPageSize)
		if err != nil {
			return fail(c, "delete.browse", err)
		}
		return c.JSON(fiber.Map{
			"type":   "delete_choices",
			"target": cmd.Target,
			"page":   pageMeta(page),
			"items":  saleViews(page.Items),
		})
	}
}

func (h *ReportHandler) DeleteRecord(c *fiber.Ctx, cmd Command) error {
	var err error
	if cmd.Target == TargetPurchase {
		err = h.Ledger.DeleteBatch(cmd.RecordID)
	} else {
		err = h.Ledger.DeleteSale(cmd.RecordID)
	}
	if err != nil {
		return fail(c, "delete.record", err)
	}
	applog.Audit(c, "record.deleted", map[string]any{"target": cmd.Target, "id": cmd.RecordID})
	return c.JSON(fiber.Map{"type": "deleted", "target": cmd.Target, "id": cmd.RecordID})
}
