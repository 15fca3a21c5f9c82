package repos

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"tallybot/internal/domain"
)

// LedgerRepo owns all purchase/sale persistence. Compound mutations (sale
// insert + batch decrement, sale delete + batch restore) run inside a single
// transaction so the remaining-quantity invariant survives interruption.
type LedgerRepo struct{ db *sqlx.DB }

func NewLedgerRepo(db *sqlx.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// SaleFilter bounds sale queries by sortable date key and optional item name.
// Empty fields mean unbounded / unscoped.
type SaleFilter struct {
	LowerKey string // inclusive, YYYYMMDD
	UpperKey string // inclusive, YYYYMMDD
	Name     string
}

// SaleRecord is a sale joined with its batch context, used by analytics and
// record browsing.
type SaleRecord struct {
	SaleID            string          `db:"id"`
	BatchID           string          `db:"purchase_id"`
	SaleDate          string          `db:"sale_date"`
	Name              string          `db:"name"`
	Color             string          `db:"color"`
	Size              string          `db:"size"`
	Quantity          int             `db:"quantity_sold"`
	UnitSalePrice     decimal.Decimal `db:"sale_price_per_unit"`
	UnitPurchasePrice decimal.Decimal `db:"price_per_unit"`
	Total             decimal.Decimal `db:"total_sale"`
	Profit            decimal.Decimal `db:"profit"`
	DaysToSell        int             `db:"days_to_sell"`
	Method            string          `db:"sale_method"`
}

func (r *LedgerRepo) InsertBatch(b domain.Batch) error {
	_, err := r.db.Exec(`
		INSERT INTO purchases
		  (id, date, name, color, size, quantity, price_per_unit, total_cost, remaining_quantity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Date, b.Name, b.Color, b.Size, b.Quantity, b.UnitPrice, b.TotalCost, b.Remaining)
	return err
}

func (r *LedgerRepo) GetBatch(id string) (domain.Batch, error) {
	var b domain.Batch
	err := r.db.Get(&b, `
		SELECT id, date, name, color, size, quantity, price_per_unit, total_cost,
		       remaining_quantity, created_at
		FROM purchases WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Batch{}, domain.ErrNotFound
	}
	return b, err
}

// ListSellable returns batches with stock left, newest purchase first then
// name ascending. Recomputed on every call.
func (r *LedgerRepo) ListSellable() ([]domain.Batch, error) {
	var out []domain.Batch
	err := r.db.Select(&out, fmt.Sprintf(`
		SELECT id, date, name, color, size, quantity, price_per_unit, total_cost,
		       remaining_quantity, created_at
		FROM purchases
		WHERE remaining_quantity > 0
		ORDER BY %s DESC, name ASC
	`, dateKey("date")))
	return out, err
}

// ListBatches returns every batch, newest purchase first. Drives the
// delete-record browser.
func (r *LedgerRepo) ListBatches() ([]domain.Batch, error) {
	var out []domain.Batch
	err := r.db.Select(&out, fmt.Sprintf(`
		SELECT id, date, name, color, size, quantity, price_per_unit, total_cost,
		       remaining_quantity, created_at
		FROM purchases
		ORDER BY %s DESC
	`, dateKey("date")))
	return out, err
}

// ListStock returns batches with stock left grouped for the inventory report:
// name ascending, insertion order within a name. rowid is the insertion
// sequence; created_at only has second granularity.
func (r *LedgerRepo) ListStock() ([]domain.Batch, error) {
	var out []domain.Batch
	err := r.db.Select(&out, `
		SELECT id, date, name, color, size, quantity, price_per_unit, total_cost,
		       remaining_quantity, created_at
		FROM purchases
		WHERE remaining_quantity > 0
		ORDER BY name ASC, rowid ASC
	`)
	return out, err
}

// InsertSale records a sale event and decrements the owning batch's remaining
// quantity in one transaction. The decrement is guarded, so of two concurrent
// sales of the last unit exactly one succeeds and the other sees ErrExhausted.
func (r *LedgerRepo) InsertSale(s domain.SaleEvent) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var remaining int
	err = tx.Get(&remaining, `SELECT remaining_quantity FROM purchases WHERE id = ?`, s.BatchID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	if remaining < s.Quantity {
		return domain.ErrExhausted
	}

	res, err := tx.Exec(`
		UPDATE purchases SET remaining_quantity = remaining_quantity - ?
		WHERE id = ? AND remaining_quantity >= ?
	`, s.Quantity, s.BatchID, s.Quantity)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrExhausted
	}

	if _, err := tx.Exec(`
		INSERT INTO sales
		  (id, purchase_id, sale_date, quantity_sold, sale_price_per_unit,
		   total_sale, profit, days_to_sell, sale_method)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.BatchID, s.Date, s.Quantity, s.UnitPrice, s.Total, s.Profit, s.DaysToSell, string(s.Method)); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteSale removes a sale event and restores its quantity to the owning
// batch, atomically. The restore exactly undoes a prior decrement, so it can
// never push remaining past the original quantity.
func (r *LedgerRepo) DeleteSale(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var ref struct {
		BatchID  string `db:"purchase_id"`
		Quantity int    `db:"quantity_sold"`
	}
	err = tx.Get(&ref, `SELECT purchase_id, quantity_sold FROM sales WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`
		UPDATE purchases SET remaining_quantity = remaining_quantity + ?
		WHERE id = ?
	`, ref.Quantity, ref.BatchID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM sales WHERE id = ?`, id); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteBatch removes a batch that has no dependent sales.
func (r *LedgerRepo) DeleteBatch(id string) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var refs int
	if err := tx.Get(&refs, `SELECT COUNT(*) FROM sales WHERE purchase_id = ?`, id); err != nil {
		return err
	}
	if refs > 0 {
		return domain.ErrConflict
	}

	res, err := tx.Exec(`DELETE FROM purchases WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}

	return tx.Commit()
}

// ListSales returns joined sale records matching the filter, newest sale date
// first. Aggregation over the result set happens in the service layer with
// decimal arithmetic, so stored amounts never pass through floats.
func (r *LedgerRepo) ListSales(f SaleFilter) ([]SaleRecord, error) {
	q := `
		SELECT s.id, s.purchase_id, s.sale_date, p.name, p.color, p.size,
		       s.quantity_sold, s.sale_price_per_unit, p.price_per_unit,
		       s.total_sale, s.profit, s.days_to_sell, s.sale_method
		FROM sales s
		JOIN purchases p ON p.id = s.purchase_id
		WHERE 1=1`
	args := []any{}
	key := dateKey("s.sale_date")
	if f.Name != "" {
		q += ` AND p.name = ?`
		args = append(args, f.Name)
	}
	if f.LowerKey != "" {
		q += ` AND ` + key + ` >= ?`
		args = append(args, f.LowerKey)
	}
	if f.UpperKey != "" {
		q += ` AND ` + key + ` <= ?`
		args = append(args, f.UpperKey)
	}
	q += fmt.Sprintf(` ORDER BY %s DESC, s.created_at DESC`, key)

	var out []SaleRecord
	err := r.db.Select(&out, q, args...)
	return out, err
}

// ItemNamesWithSales returns the distinct item names that have at least one
// sale, ascending.
func (r *LedgerRepo) ItemNamesWithSales() ([]string, error) {
	var out []string
	err := r.db.Select(&out, `
		SELECT DISTINCT p.name
		FROM purchases p
		JOIN sales s ON s.purchase_id = p.id
		ORDER BY p.name ASC
	`)
	return out, err
}
