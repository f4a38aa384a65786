package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	apperrors "portfolio-backtest/internal/errors"
	"portfolio-backtest/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(name string) *Run {
	return &Run{
		Name:                 name,
		Start:                time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC),
		End:                  time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		StartCash:            1000000,
		FinalValue:           1120000,
		TotalReturn:          0.12,
		AnnualizedReturn:     0.12,
		AnnualizedVolatility: 0.08,
		SharpeRatio:          1.5,
		MaxDrawdown:          -0.05,
	}
}

func TestRunRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, testRun("alpha"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == 0 {
		t.Fatal("run id not assigned")
	}

	got, err := s.GetRun(ctx, "alpha")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.ID != id || got.FinalValue != 1120000 || got.SharpeRatio != 1.5 {
		t.Errorf("run = %+v", got)
	}
	if !got.Start.Equal(time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", got.Start)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	if !apperrors.Is(err, apperrors.ErrDataNotFound) {
		t.Errorf("err = %v, want ErrDataNotFound", err)
	}
}

func TestSaveRunReplacesSameName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SaveRun(ctx, testRun("alpha"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := s.SaveOrders(ctx, first, []*models.Order{sampleOrder(1, "AAA")}); err != nil {
		t.Fatalf("SaveOrders: %v", err)
	}

	updated := testRun("alpha")
	updated.FinalValue = 999
	second, err := s.SaveRun(ctx, updated)
	if err != nil {
		t.Fatalf("SaveRun replace: %v", err)
	}
	if second == first {
		t.Error("replacement kept the old id")
	}

	got, err := s.GetRun(ctx, "alpha")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.FinalValue != 999 {
		t.Errorf("FinalValue = %v, want 999", got.FinalValue)
	}

	// Dependent rows of the replaced run must be gone.
	orders, err := s.GetOrders(ctx, first, OrderFilter{})
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("stale orders survived: %d", len(orders))
	}
}

func TestListAndDeleteRuns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"one", "two"} {
		if _, err := s.SaveRun(ctx, testRun(name)); err != nil {
			t.Fatalf("SaveRun %s: %v", name, err)
		}
	}

	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len = %d", len(runs))
	}
	if runs[0].Name != "two" {
		t.Errorf("newest first, got %q", runs[0].Name)
	}

	if err := s.DeleteRun(ctx, "one"); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if err := s.DeleteRun(ctx, "one"); err != nil {
		t.Errorf("repeated delete should be a no-op: %v", err)
	}
	runs, _ = s.ListRuns(ctx)
	if len(runs) != 1 || runs[0].Name != "two" {
		t.Errorf("runs after delete = %+v", runs)
	}
}

func sampleOrder(day int, ticker string) *models.Order {
	return &models.Order{
		Day:        day,
		Date:       time.Date(2018, 1, 2+day, 0, 0, 0, 0, time.UTC),
		Type:       models.OrderBuy,
		Ticker:     ticker,
		Quantity:   100,
		Price:      10,
		Value:      1000,
		Commission: 1,
		Cost:       1001,
		Status:     models.OrderCompleted,
		Purpose:    models.PurposeEnterLong,
	}
}

func TestOrderRoundTripAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, testRun("orders"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	failed := sampleOrder(2, "BBB")
	failed.Status = models.OrderNotCompleted
	failed.Message = "not enough liquidity to complete"
	failed.Purpose = models.PurposeEnterShort

	orders := []*models.Order{
		sampleOrder(1, "AAA"),
		failed,
		sampleOrder(3, "AAA"),
	}
	if err := s.SaveOrders(ctx, id, orders); err != nil {
		t.Fatalf("SaveOrders: %v", err)
	}

	all, err := s.GetOrders(ctx, id, OrderFilter{})
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d", len(all))
	}
	if all[0].Day != 1 || all[2].Day != 3 {
		t.Errorf("not ordered by day: %+v", all)
	}
	if all[1].Message != "not enough liquidity to complete" {
		t.Errorf("message = %q", all[1].Message)
	}
	if all[0].Type != models.OrderBuy || all[1].Status != models.OrderNotCompleted {
		t.Errorf("enum round-trip failed: %+v", all)
	}

	byTicker, _ := s.GetOrders(ctx, id, OrderFilter{Ticker: "AAA"})
	if len(byTicker) != 2 {
		t.Errorf("ticker filter = %d rows", len(byTicker))
	}
	byStatus, _ := s.GetOrders(ctx, id, OrderFilter{Status: string(models.OrderNotCompleted)})
	if len(byStatus) != 1 || byStatus[0].Ticker != "BBB" {
		t.Errorf("status filter = %+v", byStatus)
	}
	byPurpose, _ := s.GetOrders(ctx, id, OrderFilter{Purpose: models.PurposeEnterShort})
	if len(byPurpose) != 1 {
		t.Errorf("purpose filter = %d rows", len(byPurpose))
	}
	limited, _ := s.GetOrders(ctx, id, OrderFilter{Limit: 2})
	if len(limited) != 2 {
		t.Errorf("limit = %d rows", len(limited))
	}
}

func TestExpenseRoundTripAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, testRun("expenses"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	expenses := []models.Expense{
		{Day: 1, Date: time.Date(2018, 1, 3, 0, 0, 0, 0, time.UTC), Type: models.ExpenseCommission, Ticker: "AAA", Value: 1.5, Purpose: models.PurposeEnterLong},
		{Day: 1, Date: time.Date(2018, 1, 3, 0, 0, 0, 0, time.UTC), Type: models.ExpenseFundFees, Value: 80},
		{Day: 2, Date: time.Date(2018, 1, 4, 0, 0, 0, 0, time.UTC), Type: models.ExpenseFundFees, Value: 81},
	}
	if err := s.SaveExpenses(ctx, id, expenses); err != nil {
		t.Fatalf("SaveExpenses: %v", err)
	}

	all, err := s.GetExpenses(ctx, id, ExpenseFilter{})
	if err != nil {
		t.Fatalf("GetExpenses: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d", len(all))
	}
	if all[0].Type != models.ExpenseCommission || all[0].Ticker != "AAA" {
		t.Errorf("round-trip = %+v", all[0])
	}
	if all[1].Ticker != "" {
		t.Errorf("fund fee ticker = %q, want empty", all[1].Ticker)
	}

	fees, _ := s.GetExpenses(ctx, id, ExpenseFilter{Type: string(models.ExpenseFundFees)})
	if len(fees) != 2 {
		t.Errorf("type filter = %d rows", len(fees))
	}
	byTicker, _ := s.GetExpenses(ctx, id, ExpenseFilter{Ticker: "AAA"})
	if len(byTicker) != 1 || byTicker[0].Value != 1.5 {
		t.Errorf("ticker filter = %+v", byTicker)
	}
}

func TestDailyRowRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, testRun("daily"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	rows := []DailyRow{
		{Day: 0, Date: time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC), Value: 1000000, CashFundValue: 1000000},
		{Day: 1, Date: time.Date(2018, 1, 3, 0, 0, 0, 0, time.UTC), Value: 1010000, LongValue: 900000, ShortValue: -200000, LongCount: 10, ShortCount: 5, NetExposurePct: 0.693, GrossExposurePct: 1.089, GrossLeverage: 1.1},
	}
	if err := s.SaveDailyRows(ctx, id, rows); err != nil {
		t.Fatalf("SaveDailyRows: %v", err)
	}

	got, err := s.GetDailyRows(ctx, id)
	if err != nil {
		t.Fatalf("GetDailyRows: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[1].ShortValue != -200000 || got[1].ShortCount != 5 || got[1].GrossExposurePct != 1.089 || got[1].GrossLeverage != 1.1 {
		t.Errorf("row = %+v", got[1])
	}

	// Re-saving a day overwrites instead of duplicating.
	rows[1].Value = 1015000
	if err := s.SaveDailyRows(ctx, id, rows[1:]); err != nil {
		t.Fatalf("SaveDailyRows overwrite: %v", err)
	}
	got, _ = s.GetDailyRows(ctx, id)
	if len(got) != 2 || got[1].Value != 1015000 {
		t.Errorf("overwrite = %+v", got)
	}
}

func TestAttributionTotals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, testRun("attr"))
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	d1 := time.Date(2018, 1, 3, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2018, 1, 4, 0, 0, 0, 0, time.UTC)
	position := []AttributionRow{
		{Date: d1, Column: "AAA", Value: 0.01},
		{Date: d2, Column: "AAA", Value: 0.02},
		{Date: d2, Column: "FUND_FEES", Value: -0.001},
	}
	book := []AttributionRow{
		{Date: d1, Column: "LONG", Value: 0.01},
		{Date: d2, Column: "LONG", Value: 0.02},
	}
	if err := s.SaveAttribution(ctx, id, ScopePosition, position); err != nil {
		t.Fatalf("SaveAttribution: %v", err)
	}
	if err := s.SaveAttribution(ctx, id, ScopeBook, book); err != nil {
		t.Fatalf("SaveAttribution: %v", err)
	}

	totals, err := s.GetAttributionTotals(ctx, id, ScopePosition)
	if err != nil {
		t.Fatalf("GetAttributionTotals: %v", err)
	}
	if len(totals) != 2 {
		t.Fatalf("totals = %v", totals)
	}
	if diff := totals["AAA"] - 0.03; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("AAA total = %v", totals["AAA"])
	}

	bookTotals, _ := s.GetAttributionTotals(ctx, id, ScopeBook)
	if len(bookTotals) != 1 {
		t.Errorf("scopes leaked: %v", bookTotals)
	}
}
