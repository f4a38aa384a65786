// Package integration holds end-to-end tests exercising the full backtest
// pipeline: market data, simulation, attribution and persistence.
package integration

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"portfolio-backtest/internal/analysis"
	"portfolio-backtest/internal/attribution"
	"portfolio-backtest/internal/engine"
	"portfolio-backtest/internal/marketdata"
	"portfolio-backtest/internal/models"
	"portfolio-backtest/internal/store"
	"portfolio-backtest/internal/strategy"
)

func tradingDays(n int) []time.Time {
	out := make([]time.Time, 0, n)
	d := time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)
	for len(out) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return out
}

// driftUniverse builds open, close and volume tables for tickers whose
// prices compound at fixed daily drifts from 100.
func driftUniverse(dates []time.Time, drifts map[string]float64) (open, closeT, volume *marketdata.Table) {
	tickers := make([]string, 0, len(drifts))
	for t := range drifts {
		tickers = append(tickers, t)
	}
	open = marketdata.NewTable(dates, tickers)
	closeT = marketdata.NewTable(dates, tickers)
	volume = marketdata.NewTable(dates, tickers)
	for t, drift := range drifts {
		price := 100.0
		for _, d := range dates {
			open.Set(d, t, price)
			closeT.Set(d, t, price)
			volume.Set(d, t, 1e6)
			price *= 1 + drift
		}
	}
	return open, closeT, volume
}

func TestFullBacktestPipeline(t *testing.T) {
	dates := tradingDays(30)
	drifts := map[string]float64{
		"AAA": 0.015,
		"BBB": 0.010,
		"CCC": 0.005,
		"DDD": 0.000,
		"EEE": -0.010,
		"FFF": -0.015,
	}
	open, closeT, volume := driftUniverse(dates, drifts)

	params := engine.Params{
		Name:        "integration",
		Start:       dates[0],
		End:         dates[len(dates)-1].AddDate(0, 0, 1),
		StartCash:   1000000,
		NumberLong:  2,
		NumberShort: 1,
		TargetLong:  0.6,
		TargetShort: 0.2,
		Commission:  0.001,
		FundFees:    0.02,
	}

	momentum := strategy.NewMomentum(strategy.MomentumConfig{
		NumberLong:  params.NumberLong,
		NumberShort: params.NumberShort,
		TargetLong:  params.TargetLong,
		TargetShort: params.TargetShort,
		Lookback:    5,
	}, strategy.Schedule{Weekly: true}, closeT, volume, zerolog.Nop())

	sim, err := engine.New(params, engine.Inputs{Open: open, Close: closeT, Volume: volume}, momentum, zerolog.Nop())
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	if err := sim.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	values := sim.EODValues()
	if len(values) != len(dates) {
		t.Fatalf("len(values) = %d, want %d", len(values), len(dates))
	}

	// Cash is swept into the cash fund at every end of day.
	for day := range dates {
		if c := sim.Cash().At(day, models.PhaseEOD); c != 0 {
			t.Errorf("day %d: eod cash = %v, want 0", day, c)
		}
	}

	// The first Monday with a full lookback window triggers a weekly
	// rebalance, after which the books hold the drift leaders and laggard.
	last := len(dates) - 1
	tickers := sim.Tickers()
	positions := sim.EODPositions(last)
	byTicker := make(map[string]float64, len(tickers))
	for i, tk := range tickers {
		byTicker[tk] = positions[i]
	}
	if byTicker["AAA"] <= 0 || byTicker["BBB"] <= 0 {
		t.Errorf("long book = AAA %v, BBB %v", byTicker["AAA"], byTicker["BBB"])
	}
	if byTicker["FFF"] >= 0 {
		t.Errorf("short book FFF = %v", byTicker["FFF"])
	}
	if byTicker["CCC"] != 0 || byTicker["DDD"] != 0 {
		t.Errorf("unselected tickers hold positions: CCC %v, DDD %v", byTicker["CCC"], byTicker["DDD"])
	}

	stats := analysis.ComputeStats(values, nil)
	if stats.FinalValue != values[last] {
		t.Errorf("FinalValue = %v, want %v", stats.FinalValue, values[last])
	}
	if stats.MaxDrawdown > 0 {
		t.Errorf("MaxDrawdown = %v, want <= 0", stats.MaxDrawdown)
	}

	result, err := attribution.Compute(sim)
	if err != nil {
		t.Fatalf("attribution.Compute: %v", err)
	}

	// With the only external flow on day 0, daily contributions telescope
	// into the total growth factor.
	var total float64
	for day := 1; day <= last; day++ {
		total += result.RowTotal(day)
	}
	wantTotal := values[last]/values[0] - 1
	if math.Abs(total-wantTotal) > 1e-9 {
		t.Errorf("contribution total = %v, want %v", total, wantTotal)
	}

	books := attribution.ByBook(result, sim)
	var long float64
	for _, v := range books.Column(attribution.ColumnLong) {
		long += v
	}
	if long <= 0 {
		t.Errorf("long book contribution = %v, want positive", long)
	}

	// Persist the run and read it back.
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	runID, err := st.SaveRun(ctx, &store.Run{
		Name:        params.Name,
		Start:       params.Start,
		End:         params.End,
		StartCash:   params.StartCash,
		FinalValue:  stats.FinalValue,
		TotalReturn: stats.TotalReturn,
	})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if err := st.SaveOrders(ctx, runID, sim.Orders().All()); err != nil {
		t.Fatalf("SaveOrders: %v", err)
	}

	grossLeverage := analysis.GrossLeverage(sim.Summaries())
	if grossLeverage[last] <= 0 {
		t.Errorf("final gross leverage = %v, want positive", grossLeverage[last])
	}
	rows := make([]store.DailyRow, len(values))
	for day, summary := range sim.Summaries() {
		rows[day] = store.DailyRow{
			Day:           day,
			Date:          sim.Calendar().Date(day),
			Value:         summary.Value,
			CashFundValue: summary.CashFundValue,
			LongValue:     summary.LongValue,
			ShortValue:    summary.ShortValue,
			LongCount:     summary.LongCount,
			ShortCount:    summary.ShortCount,
			GrossLeverage: grossLeverage[day],
		}
	}
	if err := st.SaveDailyRows(ctx, runID, rows); err != nil {
		t.Fatalf("SaveDailyRows: %v", err)
	}

	saved, err := st.GetRun(ctx, params.Name)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if saved.FinalValue != stats.FinalValue {
		t.Errorf("persisted FinalValue = %v, want %v", saved.FinalValue, stats.FinalValue)
	}
	daily, err := st.GetDailyRows(ctx, runID)
	if err != nil {
		t.Fatalf("GetDailyRows: %v", err)
	}
	if len(daily) != len(dates) {
		t.Errorf("persisted days = %d, want %d", len(daily), len(dates))
	}
	orders, err := st.GetOrders(ctx, runID, store.OrderFilter{Status: string(models.OrderCompleted)})
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}
	if len(orders) == 0 {
		t.Error("no completed orders persisted")
	}
}
