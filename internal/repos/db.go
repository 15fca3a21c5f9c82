package repos

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	// Transactions take the write lock up front and a blocked writer waits
	// out busy_timeout instead of failing with SQLITE_BUSY. A sale racing
	// another sale of the last unit then re-reads the committed decrement
	// and reports Exhausted.
	if !strings.Contains(dsn, "?") {
		dsn += "?_txlock=immediate&_pragma=busy_timeout(5000)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Older databases predate method tracking on sales.
	if err := migrateLegacySales(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Purchase batches
CREATE TABLE IF NOT EXISTS purchases(
  id TEXT PRIMARY KEY,
  date TEXT NOT NULL,
  name TEXT NOT NULL,
  color TEXT NOT NULL,
  size TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  price_per_unit NUMERIC NOT NULL CHECK (price_per_unit > 0),
  total_cost NUMERIC NOT NULL,
  remaining_quantity INTEGER NOT NULL CHECK (remaining_quantity >= 0),
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_purchases_name      ON purchases(name);
CREATE INDEX IF NOT EXISTS idx_purchases_remaining ON purchases(remaining_quantity);

-- Sale events (one unit disposed per row)
CREATE TABLE IF NOT EXISTS sales(
  id TEXT PRIMARY KEY,
  purchase_id TEXT NOT NULL REFERENCES purchases(id) ON DELETE RESTRICT,
  sale_date TEXT NOT NULL,
  quantity_sold INTEGER NOT NULL,
  sale_price_per_unit NUMERIC NOT NULL,
  total_sale NUMERIC NOT NULL,
  profit NUMERIC NOT NULL,
  days_to_sell INTEGER NOT NULL,
  sale_method TEXT NOT NULL DEFAULT 'delivery',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_sales_purchase ON sales(purchase_id);

-- Conversations that passed the access gate
CREATE TABLE IF NOT EXISTS authorized_conversations(
  conversation_id TEXT PRIMARY KEY,
  display_name TEXT,
  authorized_at TEXT DEFAULT CURRENT_TIMESTAMP
);
`
	_, err := db.Exec(schema)
	return err
}

// migrateLegacySales adds the sale_method column to sales tables created
// before method tracking existed. Unset legacy rows read back as delivery.
func migrateLegacySales(db *sqlx.DB) error {
	var cols []string
	if err := db.Select(&cols, `SELECT name FROM pragma_table_info('sales')`); err != nil {
		return err
	}
	for _, c := range cols {
		if c == "sale_method" {
			return nil
		}
	}
	if _, err := db.Exec(`ALTER TABLE sales ADD COLUMN sale_method TEXT NOT NULL DEFAULT 'delivery'`); err != nil {
		return fmt.Errorf("migrate sales.sale_method: %w", err)
	}
	return nil
}

// dateKey turns a stored day-first date column into a string that sorts
// chronologically (YYYYMMDD). The stored format itself does not.
func dateKey(col string) string {
	return fmt.Sprintf("substr(%[1]s,7,4) || substr(%[1]s,4,2) || substr(%[1]s,1,2)", col)
}
