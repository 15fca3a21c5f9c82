package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tallybot/internal/dates"
	"tallybot/internal/domain"
	"tallybot/internal/repos"
)

// LedgerService is the source of truth for purchase batches and sale events.
type LedgerService struct {
	Ledger *repos.LedgerRepo
}

func NewLedgerService(ledger *repos.LedgerRepo) *LedgerService {
	return &LedgerService{Ledger: ledger}
}

// CreateBatch persists a new purchase lot with remaining = quantity.
func (s *LedgerService) CreateBatch(date dates.Date, name, color, size string, quantity int, unitPrice decimal.Decimal) (domain.Batch, error) {
	if date.IsZero() {
		return domain.Batch{}, fmt.Errorf("%w: missing purchase date", domain.ErrInvalidInput)
	}
	if name == "" || color == "" || size == "" {
		return domain.Batch{}, fmt.Errorf("%w: name, color and size are required", domain.ErrInvalidInput)
	}
	if quantity <= 0 {
		return domain.Batch{}, fmt.Errorf("%w: quantity must be positive", domain.ErrInvalidInput)
	}
	if !unitPrice.IsPositive() {
		return domain.Batch{}, fmt.Errorf("%w: unit price must be positive", domain.ErrInvalidInput)
	}

	b := domain.Batch{
		ID:        uuid.NewString(),
		Date:      date.String(),
		Name:      name,
		Color:     color,
		Size:      size,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		TotalCost: unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
		Remaining: quantity,
	}
	if err := s.Ledger.InsertBatch(b); err != nil {
		return domain.Batch{}, err
	}
	return b, nil
}

// SellableBatches lists batches with stock left, newest purchase first.
func (s *LedgerService) SellableBatches() ([]domain.Batch, error) {
	return s.Ledger.ListSellable()
}

// AllBatches lists every batch for record browsing.
func (s *LedgerService) AllBatches() ([]domain.Batch, error) {
	return s.Ledger.ListBatches()
}

// AllSales lists every sale with batch context, newest first.
func (s *LedgerService) AllSales() ([]repos.SaleRecord, error) {
	return s.Ledger.ListSales(repos.SaleFilter{})
}

// SaleReceipt is the structured confirmation of a committed sale.
type SaleReceipt struct {
	Sale      domain.SaleEvent
	Batch     domain.Batch
	Margin    decimal.Decimal // percent
	Remaining int             // units left after this sale
}

// RecordSale disposes one unit of the batch at the given price, dated today.
func (s *LedgerService) RecordSale(batchID string, unitSalePrice decimal.Decimal, method domain.SaleMethod) (SaleReceipt, error) {
	return s.RecordSaleOn(batchID, unitSalePrice, method, dates.Today())
}

// RecordSaleOn is RecordSale with an explicit sale date, used by tests and
// legacy import paths.
func (s *LedgerService) RecordSaleOn(batchID string, unitSalePrice decimal.Decimal, method domain.SaleMethod, on dates.Date) (SaleReceipt, error) {
	if !unitSalePrice.IsPositive() {
		return SaleReceipt{}, fmt.Errorf("%w: sale price must be positive", domain.ErrInvalidInput)
	}
	if !method.Valid() {
		return SaleReceipt{}, fmt.Errorf("%w: unknown sale method %q", domain.ErrInvalidInput, method)
	}

	b, err := s.Ledger.GetBatch(batchID)
	if err != nil {
		return SaleReceipt{}, err
	}
	purchased, err := dates.Parse(b.Date)
	if err != nil {
		return SaleReceipt{}, fmt.Errorf("batch %s has unreadable date %q: %w", b.ID, b.Date, err)
	}

	// A sale dated before the purchase would yield negative days; clamp to
	// zero rather than reject, so same-day entries across timezones pass.
	days := purchased.DaysUntil(on)
	if days < 0 {
		days = 0
	}

	const qty = 1
	sale := domain.SaleEvent{
		ID:         uuid.NewString(),
		BatchID:    b.ID,
		Date:       on.String(),
		Quantity:   qty,
		UnitPrice:  unitSalePrice,
		Total:      unitSalePrice.Mul(decimal.NewFromInt(qty)),
		Profit:     unitSalePrice.Sub(b.UnitPrice).Mul(decimal.NewFromInt(qty)),
		DaysToSell: days,
		Method:     method,
	}
	if err := s.Ledger.InsertSale(sale); err != nil {
		return SaleReceipt{}, err
	}

	return SaleReceipt{
		Sale:      sale,
		Batch:     b,
		Margin:    sale.MarginOver(b.UnitPrice),
		Remaining: b.Remaining - qty,
	}, nil
}

// DeleteSale removes a sale event and returns its unit to the batch.
func (s *LedgerService) DeleteSale(saleID string) error {
	return s.Ledger.DeleteSale(saleID)
}

// DeleteBatch removes a batch; batches with sales attached are refused.
func (s *LedgerService) DeleteBatch(batchID string) error {
	return s.Ledger.DeleteBatch(batchID)
}

// Variant is one purchase lot line inside an inventory group.
type Variant struct {
	Color     string
	Size      string
	Remaining int
	UnitPrice decimal.Decimal
	Date      string
}

// InventoryGroup is the remaining stock of one item name.
type InventoryGroup struct {
	Name          string
	Variants      []Variant
	TotalQuantity int
	TotalValue    decimal.Decimal
}

// InventoryReport is the full grouped stock picture.
type InventoryReport struct {
	Groups     []InventoryGroup
	Positions  int
	TotalUnits int
	TotalValue decimal.Decimal
}

// Inventory groups remaining stock by item name. Variant order follows
// insertion order within each group.
func (s *LedgerService) Inventory() (InventoryReport, error) {
	batches, err := s.Ledger.ListStock()
	if err != nil {
		return InventoryReport{}, err
	}

	var rep InventoryReport
	for _, b := range batches {
		value := b.UnitPrice.Mul(decimal.NewFromInt(int64(b.Remaining)))
		if n := len(rep.Groups); n == 0 || rep.Groups[n-1].Name != b.Name {
			rep.Groups = append(rep.Groups, InventoryGroup{Name: b.Name})
		}
		g := &rep.Groups[len(rep.Groups)-1]
		g.Variants = append(g.Variants, Variant{
			Color:     b.Color,
			Size:      b.Size,
			Remaining: b.Remaining,
			UnitPrice: b.UnitPrice,
			Date:      b.Date,
		})
		g.TotalQuantity += b.Remaining
		g.TotalValue = g.TotalValue.Add(value)
		rep.TotalUnits += b.Remaining
		rep.TotalValue = rep.TotalValue.Add(value)
	}
	rep.Positions = len(rep.Groups)
	return rep, nil
}
