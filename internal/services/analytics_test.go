package services_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"tallybot/internal/dates"
	"tallybot/internal/domain"
	"tallybot/internal/services"
)

type fixture struct {
	ledger    *services.LedgerService
	analytics *services.AnalyticsService
}

func newAnalytics(t *testing.T) fixture {
	t.Helper()
	ledger := newLedger(t)
	return fixture{ledger: ledger, analytics: services.NewAnalyticsService(ledger.Ledger)}
}

func (f fixture) sell(t *testing.T, batchID, price, date string, method domain.SaleMethod) {
	t.Helper()
	if _, err := f.ledger.RecordSaleOn(batchID, dec(price), method, dates.MustParse(date)); err != nil {
		t.Fatal(err)
	}
}

func TestResolvePeriodBounds(t *testing.T) {
	f := newAnalytics(t)

	p, err := f.analytics.ResolvePeriod(services.PeriodSpec{
		Kind: services.PeriodMonthYear, Month: time.February, Year: 2024,
	})
	if err != nil {
		t.Fatal(err)
	}
	if p.Lower.String() != "01.02.2024" || p.Upper.String() != "29.02.2024" {
		t.Fatalf("want Feb 2024 bounds, got %s..%s", p.Lower, p.Upper)
	}
	if !p.HasLower || !p.HasUpper {
		t.Fatal("explicit month needs both bounds")
	}

	all, err := f.analytics.ResolvePeriod(services.PeriodSpec{Kind: services.PeriodAllTime})
	if err != nil {
		t.Fatal(err)
	}
	if all.HasLower || all.HasUpper {
		t.Fatal("all time must be unbounded")
	}

	if _, err := f.analytics.ResolvePeriod(services.PeriodSpec{Kind: "quarter"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown kind: want ErrInvalidInput, got %v", err)
	}
	if _, err := f.analytics.ResolvePeriod(services.PeriodSpec{Kind: services.PeriodMonthYear, Month: 13, Year: 2024}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("month 13: want ErrInvalidInput, got %v", err)
	}
}

func TestAggregateMonthWindow(t *testing.T) {
	f := newAnalytics(t)
	b, err := f.ledger.CreateBatch(dates.MustParse("01.01.2024"), "jacket", "black", "m", 10, dec("100"))
	if err != nil {
		t.Fatal(err)
	}
	f.sell(t, b.ID, "150", "10.01.2024", domain.MethodDelivery) // +50, 9 days
	f.sell(t, b.ID, "130", "31.01.2024", domain.MethodMeeting)  // +30, 30 days
	f.sell(t, b.ID, "170", "05.02.2024", domain.MethodDelivery) // outside January

	p, err := f.analytics.ResolvePeriod(services.PeriodSpec{
		Kind: services.PeriodMonthYear, Month: time.January, Year: 2024,
	})
	if err != nil {
		t.Fatal(err)
	}
	sum, err := f.analytics.Aggregate(p, "")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 2 {
		t.Fatalf("want 2 January sales, got %d", sum.Count)
	}
	if !sum.TotalProfit.Equal(dec("80")) {
		t.Fatalf("want profit 80, got %s", sum.TotalProfit)
	}
	if !sum.TotalRevenue.Equal(dec("280")) {
		t.Fatalf("want revenue 280, got %s", sum.TotalRevenue)
	}
	if !sum.AvgProfit.Equal(dec("40")) {
		t.Fatalf("want avg profit 40, got %s", sum.AvgProfit)
	}
	if sum.AvgDays != 19.5 {
		t.Fatalf("want avg days 19.5, got %v", sum.AvgDays)
	}
}

func TestAllTimeAggregateEqualsPerDaySum(t *testing.T) {
	f := newAnalytics(t)
	b, err := f.ledger.CreateBatch(dates.MustParse("01.01.2024"), "jacket", "black", "m", 6, dec("100"))
	if err != nil {
		t.Fatal(err)
	}
	days := []string{"05.01.2024", "05.01.2024", "12.01.2024", "20.01.2024", "20.01.2024"}
	prices := []string{"150", "130", "160", "110", "145"}
	for i := range days {
		f.sell(t, b.ID, prices[i], days[i], domain.MethodDelivery)
	}

	all, err := f.analytics.Aggregate(services.PeriodFilter{Label: "all time"}, "")
	if err != nil {
		t.Fatal(err)
	}

	// Summing single-day aggregates reconstructs the all-time one: totals
	// and counts add up, the day average is the count-weighted mean.
	var sum services.Summary
	var weightedDays float64
	for _, day := range []string{"05.01.2024", "12.01.2024", "20.01.2024"} {
		d := dates.MustParse(day)
		one, err := f.analytics.Aggregate(services.PeriodFilter{
			Lower: d, Upper: d, HasLower: true, HasUpper: true,
		}, "")
		if err != nil {
			t.Fatal(err)
		}
		sum.TotalProfit = sum.TotalProfit.Add(one.TotalProfit)
		sum.TotalRevenue = sum.TotalRevenue.Add(one.TotalRevenue)
		sum.Count += one.Count
		weightedDays += one.AvgDays * float64(one.Count)
	}

	if all.Count != sum.Count || all.Count != len(days) {
		t.Fatalf("counts differ: all %d, per-day %d", all.Count, sum.Count)
	}
	if !all.TotalProfit.Equal(sum.TotalProfit) {
		t.Fatalf("profit differs: all %s, per-day %s", all.TotalProfit, sum.TotalProfit)
	}
	if !all.TotalRevenue.Equal(sum.TotalRevenue) {
		t.Fatalf("revenue differs: all %s, per-day %s", all.TotalRevenue, sum.TotalRevenue)
	}
	if want := weightedDays / float64(sum.Count); all.AvgDays != want {
		t.Fatalf("avg days differ: all %v, weighted %v", all.AvgDays, want)
	}
}

func TestAggregateEmptyWindowIsZero(t *testing.T) {
	f := newAnalytics(t)

	p, err := f.analytics.ResolvePeriod(services.PeriodSpec{
		Kind: services.PeriodMonthYear, Month: time.March, Year: 2020,
	})
	if err != nil {
		t.Fatal(err)
	}
	sum, err := f.analytics.Aggregate(p, "")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 0 || !sum.TotalProfit.IsZero() || sum.AvgDays != 0 {
		t.Fatalf("want zero summary, got %+v", sum)
	}
}

func TestDetailTruncatesListNotAggregate(t *testing.T) {
	f := newAnalytics(t)
	b, err := f.ledger.CreateBatch(dates.MustParse("01.01.2024"), "jacket", "black", "m", 30, dec("100"))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		f.sell(t, b.ID, "110", fmt.Sprintf("%02d.01.2024", i+2), domain.MethodDelivery)
	}

	p, _ := f.analytics.ResolvePeriod(services.PeriodSpec{Kind: services.PeriodAllTime})
	sum, records, err := f.analytics.Detail(p, "", 15)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 15 {
		t.Fatalf("want list truncated to 15, got %d", len(records))
	}
	if sum.Count != 20 {
		t.Fatalf("aggregate covers the full set, want 20 got %d", sum.Count)
	}
	if !sum.TotalProfit.Equal(dec("200")) {
		t.Fatalf("want profit 200, got %s", sum.TotalProfit)
	}
	if records[0].SaleDate != "21.01.2024" {
		t.Fatalf("newest sale first, got %s", records[0].SaleDate)
	}
}

func TestDetailScopedToItem(t *testing.T) {
	f := newAnalytics(t)
	jacket, _ := f.ledger.CreateBatch(dates.MustParse("01.01.2024"), "jacket", "black", "m", 5, dec("100"))
	boots, _ := f.ledger.CreateBatch(dates.MustParse("01.01.2024"), "boots", "brown", "42", 5, dec("80"))
	f.sell(t, jacket.ID, "150", "10.01.2024", domain.MethodDelivery)
	f.sell(t, boots.ID, "100", "12.01.2024", domain.MethodDelivery)

	p, _ := f.analytics.ResolvePeriod(services.PeriodSpec{Kind: services.PeriodAllTime})
	sum, records, err := f.analytics.Detail(p, "jacket", 0)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Count != 1 || len(records) != 1 || records[0].Name != "jacket" {
		t.Fatalf("want only jacket sales, got %+v", records)
	}

	names, err := f.analytics.ItemsWithSalesHistory()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "boots" {
		t.Fatalf("want [boots jacket], got %v", names)
	}
}

func TestLiquidityRanking(t *testing.T) {
	f := newAnalytics(t)
	fast, _ := f.ledger.CreateBatch(dates.MustParse("01.01.2024"), "scarf", "red", "one", 5, dec("20"))
	slow, _ := f.ledger.CreateBatch(dates.MustParse("01.01.2024"), "jacket", "black", "m", 5, dec("100"))
	rich, _ := f.ledger.CreateBatch(dates.MustParse("01.01.2024"), "boots", "brown", "42", 5, dec("80"))

	// scarf: avg 3 days, avg profit 10
	f.sell(t, fast.ID, "30", "03.01.2024", domain.MethodDelivery)
	f.sell(t, fast.ID, "30", "05.01.2024", domain.MethodDelivery)
	// boots: avg 3 days, avg profit 40; ties with scarf on days, wins on profit
	f.sell(t, rich.ID, "120", "04.01.2024", domain.MethodMeeting)
	// jacket: 45 days
	f.sell(t, slow.ID, "200", "15.02.2024", domain.MethodDelivery)

	rows, err := f.analytics.LiquidityRanking()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("want 3 variants, got %d", len(rows))
	}
	if rows[0].Name != "boots" || rows[1].Name != "scarf" || rows[2].Name != "jacket" {
		t.Fatalf("want [boots scarf jacket], got [%s %s %s]", rows[0].Name, rows[1].Name, rows[2].Name)
	}
	if rows[1].SalesCount != 2 || rows[1].AvgDays != 3 {
		t.Fatalf("scarf row wrong: %+v", rows[1])
	}
	if rows[0].Tier() != "very high" || rows[2].Tier() != "medium" {
		t.Fatalf("tier labels wrong: %s / %s", rows[0].Tier(), rows[2].Tier())
	}
}

func TestStatistics(t *testing.T) {
	f := newAnalytics(t)
	jacket, _ := f.ledger.CreateBatch(dates.MustParse("01.01.2024"), "jacket", "black", "m", 4, dec("100"))
	boots, _ := f.ledger.CreateBatch(dates.MustParse("01.01.2024"), "boots", "brown", "42", 2, dec("50"))

	f.sell(t, jacket.ID, "150", "11.01.2024", domain.MethodDelivery) // +50
	f.sell(t, jacket.ID, "160", "21.01.2024", domain.MethodMeeting)  // +60
	f.sell(t, boots.ID, "70", "06.01.2024", domain.MethodDelivery)   // +20

	st, err := f.analytics.Statistics()
	if err != nil {
		t.Fatal(err)
	}
	if st.Sales != 3 {
		t.Fatalf("want 3 sales, got %d", st.Sales)
	}
	// investment 4*100 + 2*50 = 500
	if !st.Investment.Equal(dec("500")) {
		t.Fatalf("want investment 500, got %s", st.Investment)
	}
	if !st.Profit.Equal(dec("130")) {
		t.Fatalf("want profit 130, got %s", st.Profit)
	}
	// ROI = 130/500, margin = 130/(380-130)
	if st.ROIPct != 26 {
		t.Fatalf("want ROI 26, got %v", st.ROIPct)
	}
	if st.AvgMarginPct != 52 {
		t.Fatalf("want margin 52, got %v", st.AvgMarginPct)
	}
	if st.BestItem != "jacket" || !st.BestItemProfit.Equal(dec("110")) || st.BestItemSales != 2 {
		t.Fatalf("best item wrong: %s %s x%d", st.BestItem, st.BestItemProfit, st.BestItemSales)
	}
	// stock left: 2 jackets + 1 boots = 3 units, 2*100 + 1*50 = 250
	if st.StockUnits != 3 || !st.StockValue.Equal(dec("250")) {
		t.Fatalf("stock wrong: %d units, %s", st.StockUnits, st.StockValue)
	}

	if len(st.Methods) != 2 {
		t.Fatalf("want 2 methods, got %d", len(st.Methods))
	}
	delivery := st.Methods[0]
	if delivery.Method != domain.MethodDelivery || delivery.Count != 2 || !delivery.Profit.Equal(dec("70")) {
		t.Fatalf("delivery slice wrong: %+v", delivery)
	}
	if delivery.Share < 66.6 || delivery.Share > 66.7 {
		t.Fatalf("want ~66.7%% delivery share, got %v", delivery.Share)
	}
}

func TestStatisticsNoSales(t *testing.T) {
	f := newAnalytics(t)
	if _, err := f.ledger.CreateBatch(dates.MustParse("01.01.2024"), "jacket", "black", "m", 4, dec("100")); err != nil {
		t.Fatal(err)
	}

	st, err := f.analytics.Statistics()
	if err != nil {
		t.Fatal(err)
	}
	if st.Sales != 0 || !st.Profit.IsZero() {
		t.Fatalf("want empty sales stats, got %+v", st)
	}
	// Investment and stock still count with no sales.
	if !st.Investment.Equal(dec("400")) || st.StockUnits != 4 {
		t.Fatalf("want investment 400 and 4 units, got %s / %d", st.Investment, st.StockUnits)
	}
}
