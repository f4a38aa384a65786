// Package models provides domain models for the backtest engine.
package models

// TargetAllocation maps tickers to target portfolio-value fractions for the
// long and short books. Short fractions carry the sign convention: they are
// negative.
type TargetAllocation struct {
	Long  map[string]float64
	Short map[string]float64
}

// NewTargetAllocation returns an empty allocation.
func NewTargetAllocation() TargetAllocation {
	return TargetAllocation{
		Long:  make(map[string]float64),
		Short: make(map[string]float64),
	}
}

// DailySummary holds the derived end-of-day portfolio metrics.
type DailySummary struct {
	Value            float64
	CashFundValue    float64
	LongValue        float64 // sum of positive position values
	ShortValue       float64 // sum of negative position values
	LongCount        int
	ShortCount       int
	NetExposure      float64 // long + short
	GrossExposure    float64 // long − short
	NetExposurePct   float64
	GrossExposurePct float64
}
