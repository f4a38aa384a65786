package analysis

// Stats bundles the headline metrics of a completed run.
type Stats struct {
	FinalValue           float64
	TotalReturn          float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	MaxDrawdown          float64
}

// ComputeStats derives the headline metrics from an end-of-day value series
// and an optional daily risk-free return series.
func ComputeStats(values, riskFree []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	rets := Returns(values)
	st := Stats{
		FinalValue:           values[len(values)-1],
		AnnualizedReturn:     AnnualizedReturn(values),
		AnnualizedVolatility: AnnualizedVolatility(rets),
		SharpeRatio:          SharpeRatio(rets, riskFree),
		MaxDrawdown:          MaxDrawdown(values),
	}
	if values[0] != 0 {
		st.TotalReturn = values[len(values)-1]/values[0] - 1
	}
	return st
}
