// Package attribution decomposes daily portfolio returns into per-position,
// per-sector and per-book contributions from the completed ledger history.
package attribution

import (
	"sort"
	"time"

	"portfolio-backtest/internal/calendar"
	apperrors "portfolio-backtest/internal/errors"
	"portfolio-backtest/internal/ledger"
	"portfolio-backtest/internal/marketdata"
	"portfolio-backtest/internal/models"
)

// Synthetic column names carried alongside the asset columns.
const (
	ColumnLong  = "LONG"
	ColumnShort = "SHORT"
)

// Source is the read-only view of a completed simulation the attribution
// engine consumes. *engine.Simulation satisfies it.
type Source interface {
	Done() bool
	Calendar() *calendar.Calendar
	Tickers() []string
	EODValues() []float64
	PositionValues() [][]float64
	CashFundValues() []float64
	EODPositions(day int) []float64
	Orders() *ledger.OrderBook
	Expenses() *ledger.ExpenseBook
}

// Result is a date×column matrix of return contributions. Columns are the
// tickers that held value at some point during the run, plus the CASH_FUND,
// FUND_FEES and COMMISSION pass-through columns. Row zero is all zeros;
// each later row times the previous day's factor scales contributions so
// that column sums compound into the cumulative return.
type Result struct {
	Dates         []time.Time
	Columns       []string
	Factor        []float64
	Contributions [][]float64

	index map[string]int
}

// Column returns one column's contribution series, or nil when absent.
func (r *Result) Column(name string) []float64 {
	c, ok := r.index[name]
	if !ok {
		return nil
	}
	out := make([]float64, len(r.Contributions))
	for t := range r.Contributions {
		out[t] = r.Contributions[t][c]
	}
	return out
}

// RowTotal sums a day's contributions across all columns.
func (r *Result) RowTotal(day int) float64 {
	var sum float64
	for _, v := range r.Contributions[day] {
		sum += v
	}
	return sum
}

// ColumnTotals sums every column over the whole run, keyed by column name.
func (r *Result) ColumnTotals() map[string]float64 {
	out := make(map[string]float64, len(r.Columns))
	for c, name := range r.Columns {
		var sum float64
		for t := range r.Contributions {
			sum += r.Contributions[t][c]
		}
		out[name] = sum
	}
	return out
}

// Compute builds the per-position attribution of a completed run. For each
// asset column the day's contribution is the change in close-valued
// position value net of that day's order notional, divided by the previous
// day's portfolio value and scaled by the previous day's factor. The
// cash-fund column works the same way off fund value and sweep orders; the
// expense columns pass the negated daily expense totals through the same
// scaling. Division by a zero previous value yields zero.
func Compute(src Source) (*Result, error) {
	if !src.Done() {
		return nil, apperrors.ErrSimulationNotRun
	}

	cal := src.Calendar()
	days := cal.Len()
	values := src.EODValues()
	posVal := src.PositionValues()
	tickers := src.Tickers()

	// Asset columns keep only tickers that ever held value.
	active := make([]int, 0, len(tickers))
	for j := range tickers {
		for t := 0; t < days; t++ {
			if posVal[t][j] != 0 {
				active = append(active, j)
				break
			}
		}
	}

	columns := make([]string, 0, len(active)+3)
	for _, j := range active {
		columns = append(columns, tickers[j])
	}
	columns = append(columns, models.CashFundTicker, string(models.ExpenseFundFees), string(models.ExpenseCommission))
	index := make(map[string]int, len(columns))
	for c, name := range columns {
		index[name] = c
	}
	cashFundCol := index[models.CashFundTicker]
	feesCol := index[string(models.ExpenseFundFees)]
	commissionCol := index[string(models.ExpenseCommission)]

	// Completed-order notional per (day, column).
	orderVal := make([][]float64, days)
	for t := range orderVal {
		orderVal[t] = make([]float64, len(columns))
	}
	for _, o := range src.Orders().All() {
		if o.Status != models.OrderCompleted {
			continue
		}
		if c, ok := index[o.Ticker]; ok {
			orderVal[o.Day][c] += o.Value
		}
	}

	// Negated expense totals per (day, type).
	expVal := make([][]float64, days)
	for t := range expVal {
		expVal[t] = make([]float64, len(columns))
	}
	for _, e := range src.Expenses().All() {
		switch e.Type {
		case models.ExpenseFundFees:
			expVal[e.Day][feesCol] -= e.Value
		case models.ExpenseCommission:
			expVal[e.Day][commissionCol] -= e.Value
		}
	}

	factor := make([]float64, days)
	if days > 0 && values[0] != 0 {
		for t := 0; t < days; t++ {
			factor[t] = values[t] / values[0]
		}
	}

	cashFundVal := src.CashFundValues()
	contrib := make([][]float64, days)
	for t := range contrib {
		contrib[t] = make([]float64, len(columns))
		if t == 0 || values[t-1] == 0 {
			continue
		}
		scale := factor[t-1] / values[t-1]
		for i, j := range active {
			contrib[t][i] = (posVal[t][j] - posVal[t-1][j] - orderVal[t][i]) * scale
		}
		contrib[t][cashFundCol] = (cashFundVal[t] - cashFundVal[t-1] - orderVal[t][cashFundCol]) * scale
		contrib[t][feesCol] = expVal[t][feesCol] * scale
		contrib[t][commissionCol] = expVal[t][commissionCol] * scale
	}

	return &Result{
		Dates:         cal.Dates(),
		Columns:       columns,
		Factor:        factor,
		Contributions: contrib,
		index:         index,
	}, nil
}

// BySector folds a per-position result into sector columns. Columns with no
// sector mapping, the cash-fund and expense columns included, stand as
// their own sector.
func BySector(r *Result, sectors marketdata.SectorMap) *Result {
	seen := make(map[string]bool)
	var columns []string
	for _, name := range r.Columns {
		sector := sectors.Sector(name)
		if !seen[sector] {
			seen[sector] = true
			columns = append(columns, sector)
		}
	}
	sort.Strings(columns)

	names := make(map[string]int, len(columns))
	for g, name := range columns {
		names[name] = g
	}
	colOf := make([]int, len(r.Columns))
	for c, name := range r.Columns {
		colOf[c] = names[sectors.Sector(name)]
	}

	contrib := make([][]float64, len(r.Contributions))
	for t := range contrib {
		contrib[t] = make([]float64, len(columns))
		for c, v := range r.Contributions[t] {
			contrib[t][colOf[c]] += v
		}
	}
	return &Result{
		Dates:         r.Dates,
		Columns:       columns,
		Factor:        r.Factor,
		Contributions: contrib,
		index:         names,
	}
}

// ByBook folds a per-position result into LONG and SHORT book columns using
// each day's end-of-day position sign, a zero or positive position counting
// long. The cash-fund and expense columns pass through unchanged.
func ByBook(r *Result, src Source) *Result {
	columns := []string{
		ColumnLong,
		ColumnShort,
		models.CashFundTicker,
		string(models.ExpenseFundFees),
		string(models.ExpenseCommission),
	}
	index := make(map[string]int, len(columns))
	for c, name := range columns {
		index[name] = c
	}

	tickers := src.Tickers()
	tickIdx := make(map[string]int, len(tickers))
	for j, t := range tickers {
		tickIdx[t] = j
	}

	contrib := make([][]float64, len(r.Contributions))
	for t := range contrib {
		contrib[t] = make([]float64, len(columns))
		positions := src.EODPositions(t)
		for c, name := range r.Columns {
			v := r.Contributions[t][c]
			switch name {
			case models.CashFundTicker, string(models.ExpenseFundFees), string(models.ExpenseCommission):
				contrib[t][index[name]] += v
			default:
				j, ok := tickIdx[name]
				if ok && positions[j] < 0 {
					contrib[t][index[ColumnShort]] += v
				} else {
					contrib[t][index[ColumnLong]] += v
				}
			}
		}
	}
	return &Result{
		Dates:         r.Dates,
		Columns:       columns,
		Factor:        r.Factor,
		Contributions: contrib,
		index:         index,
	}
}
