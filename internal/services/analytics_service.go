package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tallybot/internal/dates"
	"tallybot/internal/domain"
	"tallybot/internal/repos"
)

// PeriodKind names a relative analytics window.
type PeriodKind string

const (
	PeriodToday        PeriodKind = "today"
	PeriodLast7        PeriodKind = "week"
	PeriodLast14       PeriodKind = "2weeks"
	PeriodLast30       PeriodKind = "month"
	PeriodCurrentMonth PeriodKind = "current_month"
	PeriodMonthYear    PeriodKind = "month_year"
	PeriodAllTime      PeriodKind = "all"
)

// PeriodSpec selects a sale-date window: a named relative window or an
// explicit (month, year) pair.
type PeriodSpec struct {
	Kind  PeriodKind
	Month time.Month // PeriodMonthYear only
	Year  int        // PeriodMonthYear only
}

// PeriodFilter is a resolved window: optional inclusive bounds plus a label.
type PeriodFilter struct {
	Lower    dates.Date
	Upper    dates.Date
	HasLower bool
	HasUpper bool
	Label    string
}

func (f PeriodFilter) saleFilter(scope string) repos.SaleFilter {
	sf := repos.SaleFilter{Name: scope}
	if f.HasLower {
		sf.LowerKey = f.Lower.Key()
	}
	if f.HasUpper {
		sf.UpperKey = f.Upper.Key()
	}
	return sf
}

// Summary aggregates a set of sales. Zero matching sales yield the zero
// Summary, never an error.
type Summary struct {
	TotalProfit  decimal.Decimal
	TotalRevenue decimal.Decimal
	Count        int
	AvgProfit    decimal.Decimal
	AvgDays      float64
}

// LiquidityRow ranks one item variant by how fast it sells.
type LiquidityRow struct {
	Name       string
	Color      string
	Size       string
	AvgDays    float64
	AvgProfit  decimal.Decimal
	SalesCount int
}

// Tier classifies avg days-to-sell for display. Pure presentation.
func (r LiquidityRow) Tier() string {
	switch {
	case r.AvgDays <= 7:
		return "very high"
	case r.AvgDays <= 30:
		return "high"
	case r.AvgDays <= 90:
		return "medium"
	default:
		return "low"
	}
}

// AnalyticsService computes period-filtered aggregates, sale listings and
// liquidity rankings over the ledger.
type AnalyticsService struct {
	Ledger *repos.LedgerRepo
}

func NewAnalyticsService(ledger *repos.LedgerRepo) *AnalyticsService {
	return &AnalyticsService{Ledger: ledger}
}

// ResolvePeriod maps a period spec to concrete date bounds and a label.
// Relative windows are anchored at the current date.
func (s *AnalyticsService) ResolvePeriod(spec PeriodSpec) (PeriodFilter, error) {
	today := dates.Today()
	switch spec.Kind {
	case PeriodToday:
		return PeriodFilter{Lower: today, HasLower: true, Label: "today"}, nil
	case PeriodLast7:
		return PeriodFilter{Lower: today.AddDays(-7), HasLower: true, Label: "last 7 days"}, nil
	case PeriodLast14:
		return PeriodFilter{Lower: today.AddDays(-14), HasLower: true, Label: "last 14 days"}, nil
	case PeriodLast30:
		return PeriodFilter{Lower: today.AddDays(-30), HasLower: true, Label: "last 30 days"}, nil
	case PeriodCurrentMonth:
		first := today.FirstOfMonth()
		return PeriodFilter{
			Lower: first, HasLower: true,
			Label: fmt.Sprintf("%s %d", today.Month(), today.Year()),
		}, nil
	case PeriodMonthYear:
		if spec.Month < time.January || spec.Month > time.December || spec.Year <= 0 {
			return PeriodFilter{}, fmt.Errorf("%w: bad month/year %d/%d", domain.ErrInvalidInput, spec.Month, spec.Year)
		}
		first, last := dates.MonthSpan(spec.Month, spec.Year)
		return PeriodFilter{
			Lower: first, HasLower: true,
			Upper: last, HasUpper: true,
			Label: fmt.Sprintf("%s %d", spec.Month, spec.Year),
		}, nil
	case PeriodAllTime:
		return PeriodFilter{Label: "all time"}, nil
	default:
		return PeriodFilter{}, fmt.Errorf("%w: unknown period %q", domain.ErrInvalidInput, spec.Kind)
	}
}

// Aggregate sums profit, revenue, counts and averages over the filtered
// sales, optionally scoped to a single item name.
func (s *AnalyticsService) Aggregate(f PeriodFilter, scope string) (Summary, error) {
	records, err := s.Ledger.ListSales(f.saleFilter(scope))
	if err != nil {
		return Summary{}, err
	}
	return summarize(records), nil
}

// Detail returns the filtered sales newest-first, truncated to limit for
// display, together with the aggregate over the full (untruncated) set.
func (s *AnalyticsService) Detail(f PeriodFilter, scope string, limit int) (Summary, []repos.SaleRecord, error) {
	records, err := s.Ledger.ListSales(f.saleFilter(scope))
	if err != nil {
		return Summary{}, nil, err
	}
	sum := summarize(records)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return sum, records, nil
}

func summarize(records []repos.SaleRecord) Summary {
	var sum Summary
	if len(records) == 0 {
		return sum
	}
	days := 0
	for _, rec := range records {
		sum.TotalProfit = sum.TotalProfit.Add(rec.Profit)
		sum.TotalRevenue = sum.TotalRevenue.Add(rec.Total)
		days += rec.DaysToSell
	}
	sum.Count = len(records)
	n := decimal.NewFromInt(int64(sum.Count))
	sum.AvgProfit = sum.TotalProfit.Div(n)
	sum.AvgDays = float64(days) / float64(sum.Count)
	return sum
}

// LiquidityRanking groups all sales by item variant and orders the groups by
// average days-to-sell ascending, then average profit descending.
func (s *AnalyticsService) LiquidityRanking() ([]LiquidityRow, error) {
	records, err := s.Ledger.ListSales(repos.SaleFilter{})
	if err != nil {
		return nil, err
	}

	type acc struct {
		row    LiquidityRow
		days   int
		profit decimal.Decimal
	}
	byVariant := map[[3]string]*acc{}
	var order [][3]string
	for _, rec := range records {
		key := [3]string{rec.Name, rec.Color, rec.Size}
		a, ok := byVariant[key]
		if !ok {
			a = &acc{row: LiquidityRow{Name: rec.Name, Color: rec.Color, Size: rec.Size}}
			byVariant[key] = a
			order = append(order, key)
		}
		a.days += rec.DaysToSell
		a.profit = a.profit.Add(rec.Profit)
		a.row.SalesCount++
	}

	out := make([]LiquidityRow, 0, len(order))
	for _, key := range order {
		a := byVariant[key]
		n := decimal.NewFromInt(int64(a.row.SalesCount))
		a.row.AvgDays = float64(a.days) / float64(a.row.SalesCount)
		a.row.AvgProfit = a.profit.Div(n)
		out = append(out, a.row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AvgDays != out[j].AvgDays {
			return out[i].AvgDays < out[j].AvgDays
		}
		return out[i].AvgProfit.GreaterThan(out[j].AvgProfit)
	})
	return out, nil
}

// ItemsWithSalesHistory returns item names with at least one sale, ascending.
func (s *AnalyticsService) ItemsWithSalesHistory() ([]string, error) {
	return s.Ledger.ItemNamesWithSales()
}

// MethodStats is the per-sale-method slice of the statistics report.
type MethodStats struct {
	Method domain.SaleMethod
	Count  int
	Share  float64 // percent of all sales
	Profit decimal.Decimal
}

// BusinessStats is the overall statistics report.
type BusinessStats struct {
	Sales        int
	Revenue      decimal.Decimal
	Profit       decimal.Decimal
	AvgProfit    decimal.Decimal
	AvgDays      float64
	AvgMarginPct float64
	ROIPct       float64
	Investment   decimal.Decimal

	BestItem       string
	BestItemProfit decimal.Decimal
	BestItemSales  int

	StockUnits int
	StockValue decimal.Decimal

	Methods []MethodStats
}

// Statistics computes the all-time business report: totals, ROI against the
// full purchase investment, the most profitable item, stock on hand and the
// per-method breakdown.
func (s *AnalyticsService) Statistics() (BusinessStats, error) {
	records, err := s.Ledger.ListSales(repos.SaleFilter{})
	if err != nil {
		return BusinessStats{}, err
	}
	batches, err := s.Ledger.ListBatches()
	if err != nil {
		return BusinessStats{}, err
	}

	var st BusinessStats
	for _, b := range batches {
		st.Investment = st.Investment.Add(b.TotalCost)
		if b.Remaining > 0 {
			st.StockUnits += b.Remaining
			st.StockValue = st.StockValue.Add(b.UnitPrice.Mul(decimal.NewFromInt(int64(b.Remaining))))
		}
	}
	if len(records) == 0 {
		return st, nil
	}

	sum := summarize(records)
	st.Sales = sum.Count
	st.Revenue = sum.TotalRevenue
	st.Profit = sum.TotalProfit
	st.AvgProfit = sum.AvgProfit
	st.AvgDays = sum.AvgDays

	// Margin over cost of goods sold; ROI over everything ever purchased.
	if cogs := st.Revenue.Sub(st.Profit); cogs.IsPositive() {
		st.AvgMarginPct = st.Profit.Div(cogs).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	if st.Investment.IsPositive() {
		st.ROIPct = st.Profit.Div(st.Investment).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	profitByItem := map[string]decimal.Decimal{}
	salesByItem := map[string]int{}
	byMethod := map[domain.SaleMethod]*MethodStats{}
	var methodOrder []domain.SaleMethod
	for _, rec := range records {
		profitByItem[rec.Name] = profitByItem[rec.Name].Add(rec.Profit)
		salesByItem[rec.Name]++

		m := domain.NormalizeMethod(rec.Method)
		ms, ok := byMethod[m]
		if !ok {
			ms = &MethodStats{Method: m}
			byMethod[m] = ms
			methodOrder = append(methodOrder, m)
		}
		ms.Count++
		ms.Profit = ms.Profit.Add(rec.Profit)
	}

	for name, profit := range profitByItem {
		if st.BestItem == "" || profit.GreaterThan(st.BestItemProfit) ||
			(profit.Equal(st.BestItemProfit) && name < st.BestItem) {
			st.BestItem = name
			st.BestItemProfit = profit
			st.BestItemSales = salesByItem[name]
		}
	}

	sort.Slice(methodOrder, func(i, j int) bool { return methodOrder[i] < methodOrder[j] })
	for _, m := range methodOrder {
		ms := byMethod[m]
		ms.Share = float64(ms.Count) / float64(st.Sales) * 100
		st.Methods = append(st.Methods, *ms)
	}
	return st, nil
}
