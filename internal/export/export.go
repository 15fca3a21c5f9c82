// Package export renders already-computed ledger data into a spreadsheet.
// It performs no business logic of its own.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"tallybot/internal/domain"
	"tallybot/internal/repos"
)

// Workbook writes a spreadsheet with one sheet of purchase batches and one of
// sales. Amounts are rounded to two digits here, at presentation time only.
func Workbook(w io.Writer, batches []domain.Batch, sales []repos.SaleRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const stockSheet = "Inventory"
	if err := f.SetSheetName("Sheet1", stockSheet); err != nil {
		return err
	}
	if err := setRow(f, stockSheet, 1, []any{
		"Date", "Name", "Color", "Size", "Quantity", "Unit price", "Total cost", "Remaining",
	}); err != nil {
		return err
	}
	for i, b := range batches {
		row := []any{
			b.Date, b.Name, b.Color, b.Size, b.Quantity,
			b.UnitPrice.StringFixed(2), b.TotalCost.StringFixed(2), b.Remaining,
		}
		if err := setRow(f, stockSheet, i+2, row); err != nil {
			return err
		}
	}

	const salesSheet = "Sales"
	if _, err := f.NewSheet(salesSheet); err != nil {
		return err
	}
	if err := setRow(f, salesSheet, 1, []any{
		"Sale date", "Name", "Color", "Size", "Sale price", "Purchase price",
		"Profit", "Days to sell", "Method",
	}); err != nil {
		return err
	}
	for i, s := range sales {
		row := []any{
			s.SaleDate, s.Name, s.Color, s.Size,
			s.UnitSalePrice.StringFixed(2), s.UnitPurchasePrice.StringFixed(2),
			s.Profit.StringFixed(2), s.DaysToSell, string(domain.NormalizeMethod(s.Method)),
		}
		if err := setRow(f, salesSheet, i+2, row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell for row %d: %w", row, err)
	}
	return f.SetSheetRow(sheet, cell, &values)
}
