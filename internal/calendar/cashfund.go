package calendar

import (
	"math"
	"time"

	"portfolio-backtest/internal/marketdata"
)

// CashFundNAV is the valuation path of the synthetic money-market
// instrument, aligned to a calendar. The NAV for day t is the cumulative
// risk-free growth up to day t−1: today's valuation uses yesterday's
// compounded rate.
type CashFundNAV struct {
	cal  *Calendar
	vals []float64
}

// BuildCashFundNAV compounds the risk-free-rate series into a NAV path over
// the calendar: cumulative product of (1+rate) on the rate's own index,
// reindexed to the calendar, lagged one day, then forward- and
// backward-filled at the boundaries. A nil or empty rate series degrades to
// a flat unit NAV (zero-rate assumption).
func BuildCashFundNAV(cal *Calendar, rates *marketdata.Series) *CashFundNAV {
	n := cal.Len()
	vals := make([]float64, n)

	if rates == nil || rates.Len() == 0 {
		for i := range vals {
			vals[i] = 1.0
		}
		return &CashFundNAV{cal: cal, vals: vals}
	}

	// Cumulative growth on the rate series' own index.
	cum := marketdata.NewSeries(rates.Dates(), cumprod(rates.Values()))

	// Reindex to the calendar and lag by one day.
	for i := 0; i < n; i++ {
		vals[i] = math.NaN()
		if i == 0 {
			continue
		}
		if v, ok := cum.At(cal.Date(i - 1)); ok {
			vals[i] = v
		}
	}

	// Forward fill, then backward fill the leading gap.
	last := math.NaN()
	for i := 0; i < n; i++ {
		if math.IsNaN(vals[i]) {
			vals[i] = last
		} else {
			last = vals[i]
		}
	}
	next := math.NaN()
	for i := n - 1; i >= 0; i-- {
		if math.IsNaN(vals[i]) {
			vals[i] = next
		} else {
			next = vals[i]
		}
	}
	// A rate series disjoint from the calendar leaves no anchor at all.
	for i := range vals {
		if math.IsNaN(vals[i]) {
			vals[i] = 1.0
		}
	}

	return &CashFundNAV{cal: cal, vals: vals}
}

func cumprod(rates []float64) []float64 {
	out := make([]float64, len(rates))
	acc := 1.0
	for i, r := range rates {
		acc *= 1 + r
		out[i] = acc
	}
	return out
}

// At returns the NAV for a day index.
func (n *CashFundNAV) At(day int) float64 {
	return n.vals[day]
}

// AtDate returns the NAV for a calendar date.
func (n *CashFundNAV) AtDate(date time.Time) (float64, bool) {
	i, ok := n.cal.Index(date)
	if !ok {
		return 0, false
	}
	return n.vals[i], true
}

// Values returns the NAV path aligned to the calendar.
func (n *CashFundNAV) Values() []float64 {
	return n.vals
}
