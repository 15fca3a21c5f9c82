package domain

import "github.com/shopspring/decimal"

// SaleMethod enumerates how a sale was handed over.
type SaleMethod string

const (
	MethodDelivery SaleMethod = "delivery"
	MethodMeeting  SaleMethod = "meeting"
)

// Valid reports whether m is a known sale method.
func (m SaleMethod) Valid() bool {
	return m == MethodDelivery || m == MethodMeeting
}

// NormalizeMethod maps raw stored values to a SaleMethod. Legacy rows that
// predate method tracking come back empty and default to delivery.
func NormalizeMethod(s string) SaleMethod {
	if m := SaleMethod(s); m.Valid() {
		return m
	}
	return MethodDelivery
}

// Batch is one purchase lot of a single item variant. Remaining starts at
// Quantity and stays within [0, Quantity] for the life of the row.
type Batch struct {
	ID        string          `db:"id"`
	Date      string          `db:"date"` // day-first, see dates.Format
	Name      string          `db:"name"`
	Color     string          `db:"color"`
	Size      string          `db:"size"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"price_per_unit"`
	TotalCost decimal.Decimal `db:"total_cost"`
	Remaining int             `db:"remaining_quantity"`
	CreatedAt string          `db:"created_at"`
}

// SaleEvent is one unit-disposal transaction against a batch.
type SaleEvent struct {
	ID         string          `db:"id"`
	BatchID    string          `db:"purchase_id"`
	Date       string          `db:"sale_date"`
	Quantity   int             `db:"quantity_sold"`
	UnitPrice  decimal.Decimal `db:"sale_price_per_unit"`
	Total      decimal.Decimal `db:"total_sale"`
	Profit     decimal.Decimal `db:"profit"`
	DaysToSell int             `db:"days_to_sell"`
	Method     SaleMethod      `db:"sale_method"`
	CreatedAt  string          `db:"created_at"`
}

// MarginOver returns the sale margin as a percentage of the purchase price.
func (s SaleEvent) MarginOver(purchasePrice decimal.Decimal) decimal.Decimal {
	if purchasePrice.IsZero() {
		return decimal.Zero
	}
	return s.UnitPrice.Sub(purchasePrice).Div(purchasePrice).Mul(decimal.NewFromInt(100))
}
