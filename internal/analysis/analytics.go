// Package analysis derives performance analytics from a completed run's
// end-of-day value series.
package analysis

import (
	"math"

	"portfolio-backtest/internal/models"
)

// TradingDaysPerYear is the annualization basis for volatility and Sharpe.
const TradingDaysPerYear = 252

// Returns computes simple daily returns from a value series. The first
// element is zero, as is any return following a zero value.
func Returns(values []float64) []float64 {
	out := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1] != 0 {
			out[i] = values[i]/values[i-1] - 1
		}
	}
	return out
}

// NAV normalizes a value series to its first element. A zero first element
// yields an all-zero series.
func NAV(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || values[0] == 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / values[0]
	}
	return out
}

// CumulativeReturn compounds a daily return series.
func CumulativeReturn(returns []float64) []float64 {
	out := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		acc *= 1 + r
		out[i] = acc - 1
	}
	return out
}

// Drawdown computes the running drawdown of a value series relative to its
// running maximum.
func Drawdown(values []float64) []float64 {
	out := make([]float64, len(values))
	var peak float64
	for i, v := range values {
		if v > peak {
			peak = v
		}
		if peak != 0 {
			out[i] = v/peak - 1
		}
	}
	return out
}

// MaxDrawdown returns the deepest drawdown of a value series, as a
// non-positive fraction.
func MaxDrawdown(values []float64) float64 {
	var worst float64
	for _, d := range Drawdown(values) {
		if d < worst {
			worst = d
		}
	}
	return worst
}

// AnnualizedReturn compounds a value series into a per-year growth rate.
func AnnualizedReturn(values []float64) float64 {
	if len(values) < 2 || values[0] <= 0 || values[len(values)-1] <= 0 {
		return 0
	}
	total := values[len(values)-1] / values[0]
	years := float64(len(values)-1) / TradingDaysPerYear
	return math.Pow(total, 1/years) - 1
}

// AnnualizedVolatility computes the annualized standard deviation of a
// daily return series.
func AnnualizedVolatility(returns []float64) float64 {
	return stddev(returns) * math.Sqrt(TradingDaysPerYear)
}

// SharpeRatio computes the annualized Sharpe of a daily return series over
// a daily risk-free series. riskFree may be nil for a zero-rate baseline.
func SharpeRatio(returns, riskFree []float64) float64 {
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r
		if riskFree != nil && i < len(riskFree) {
			excess[i] -= riskFree[i]
		}
	}
	sd := stddev(excess)
	if sd == 0 {
		return 0
	}
	return mean(excess) / sd * math.Sqrt(TradingDaysPerYear)
}

// RollingVolatility computes the trailing annualized volatility of a daily
// return series. Entries before a full window are zero.
func RollingVolatility(returns []float64, window int) []float64 {
	out := make([]float64, len(returns))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(returns); i++ {
		out[i] = stddev(returns[i-window+1:i+1]) * math.Sqrt(TradingDaysPerYear)
	}
	return out
}

// GrossLeverage computes per-day gross exposure, the sum of absolute
// position values excluding the cash fund, over the full position sum
// including it. Days with a zero position sum yield zero.
func GrossLeverage(summaries []models.DailySummary) []float64 {
	out := make([]float64, len(summaries))
	for i, s := range summaries {
		total := s.LongValue + s.ShortValue + s.CashFundValue
		if total != 0 {
			out[i] = (s.LongValue - s.ShortValue) / total
		}
	}
	return out
}

// PainIndex computes the trailing mean drawdown magnitude of a value
// series, as a non-negative fraction. Entries before a full window are
// zero.
func PainIndex(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window < 1 {
		return out
	}
	dd := Drawdown(values)
	for i := window - 1; i < len(dd); i++ {
		var sum float64
		for _, d := range dd[i-window+1 : i+1] {
			sum += d
		}
		out[i] = -sum / float64(window)
	}
	return out
}

// RollingSharpe computes the trailing annualized Sharpe of a daily return
// series over a daily risk-free series. riskFree may be nil for a
// zero-rate baseline; entries before a full window or with zero dispersion
// are zero.
func RollingSharpe(returns, riskFree []float64, window int) []float64 {
	out := make([]float64, len(returns))
	if window <= 1 {
		return out
	}
	excess := make([]float64, len(returns))
	for i, r := range returns {
		excess[i] = r
		if riskFree != nil && i < len(riskFree) {
			excess[i] -= riskFree[i]
		}
	}
	for i := window - 1; i < len(excess); i++ {
		w := excess[i-window+1 : i+1]
		if sd := stddev(w); sd != 0 {
			out[i] = mean(w) / sd * math.Sqrt(TradingDaysPerYear)
		}
	}
	return out
}

// OrderNotionalByDay sums the absolute completed-order notional per day,
// cash-fund sweeps excluded.
func OrderNotionalByDay(orders []*models.Order, days int) []float64 {
	out := make([]float64, days)
	for _, o := range orders {
		if o.Status != models.OrderCompleted || o.Ticker == models.CashFundTicker {
			continue
		}
		if o.Day >= 0 && o.Day < days {
			out[o.Day] += math.Abs(o.Value)
		}
	}
	return out
}

// Turnover computes the total completed order notional magnitude per day
// over portfolio value, cash-fund sweeps excluded.
func Turnover(orderNotional, values []float64) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < len(orderNotional) && values[i] != 0 {
			out[i] = math.Abs(orderNotional[i]) / values[i]
		}
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}
