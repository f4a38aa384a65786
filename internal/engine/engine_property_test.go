package engine

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"portfolio-backtest/internal/marketdata"
	"portfolio-backtest/internal/models"
)

// Property: over any price path and any order flow, every execution phase
// ends with exactly zero cash, the value identity holds at each valued
// phase, and each day's opening state equals the previous day's closing
// state.

const propertyDays = 6

func pathTable(dates []time.Time, ticker string, path []float64) *marketdata.Table {
	tbl := marketdata.NewTable(dates, []string{ticker})
	for i, date := range dates {
		tbl.Set(date, ticker, path[i])
	}
	return tbl
}

func runPropertySim(t *testing.T, path []float64, quantities []int) (*Simulation, bool) {
	t.Helper()
	dates := testDates(propertyDays)

	strat := &script{open: map[int]func(*Simulation){}}
	for day := 1; day < propertyDays; day++ {
		qty := float64(quantities[day%len(quantities)])
		if qty == 0 {
			continue
		}
		d := day
		strat.open[d] = func(sim *Simulation) {
			typ := models.OrderBuy
			if qty < 0 {
				typ = models.OrderSell
			}
			sim.Orders().Append(&models.Order{
				Day:      sim.Day(),
				Date:     sim.Date(),
				Type:     typ,
				Ticker:   "AAA",
				Quantity: qty,
				Status:   models.OrderRegistered,
				Purpose:  models.PurposeEnterLong,
			})
		}
	}

	params := testParams(dates)
	params.Commission = 0.001
	params.FundFees = 0.02
	openPath := make([]float64, len(path))
	for i, p := range path {
		openPath[i] = p * 1.02
	}
	openTbl := pathTable(dates, "AAA", openPath)
	closeTbl := pathTable(dates, "AAA", path)
	sim, err := New(params, Inputs{Open: openTbl, Close: closeTbl}, strat, zerolog.Nop())
	if err != nil {
		return nil, false
	}
	if err := sim.Run(); err != nil {
		return nil, false
	}
	return sim, true
}

func TestProperty_CashIsZeroAfterExecutionPhases(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("cash is exactly zero after every auction", prop.ForAll(
		func(path []float64, quantities []int) bool {
			sim, ok := runPropertySim(t, path, quantities)
			if !ok {
				return false
			}
			for day := 0; day < sim.Calendar().Len(); day++ {
				if sim.Cash().At(day, models.PhasePostOpen) != 0 {
					return false
				}
				if sim.Cash().At(day, models.PhaseEOD) != 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(propertyDays, gen.Float64Range(5, 50)),
		gen.SliceOfN(propertyDays, gen.IntRange(-40, 40).Map(func(n int) int { return n * 10 })),
	))

	properties.TestingRun(t)
}

func TestProperty_ValueIdentityAllPhases(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("value identity holds at every valued phase", prop.ForAll(
		func(path []float64, quantities []int) bool {
			sim, ok := runPropertySim(t, path, quantities)
			if !ok {
				return false
			}
			for day := 0; day < sim.Calendar().Len(); day++ {
				date := sim.Calendar().Date(day)
				openPrice, _ := sim.OpenTable().At(date, "AAA")
				closePrice, _ := sim.CloseTable().At(date, "AAA")
				checks := []struct {
					ph    models.Phase
					price float64
				}{
					{models.PhasePostOpen, openPrice},
					{models.PhasePreClose, openPrice},
					{models.PhaseEOD, closePrice},
				}
				for _, c := range checks {
					pos := sim.Positions().At(day, c.ph, "AAA")
					want := pos*c.price +
						sim.CashFund().At(day, c.ph)*sim.CashFundNAV().At(day) +
						sim.Cash().At(day, c.ph) -
						sim.FeeProvision().At(day, c.ph)
					if math.Abs(sim.Value().At(day, c.ph)-want) > 1e-6 {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOfN(propertyDays, gen.Float64Range(5, 50)),
		gen.SliceOfN(propertyDays, gen.IntRange(-40, 40).Map(func(n int) int { return n * 10 })),
	))

	properties.TestingRun(t)
}

func TestProperty_CompletedOrderIdentities(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("completed orders satisfy value and cost identities", prop.ForAll(
		func(path []float64, quantities []int) bool {
			sim, ok := runPropertySim(t, path, quantities)
			if !ok {
				return false
			}
			for _, o := range sim.Orders().All() {
				if o.Status != models.OrderCompleted {
					continue
				}
				if math.Abs(o.Value-o.Quantity*o.Price) > 1e-9 {
					return false
				}
				if math.Abs(o.Cost-(o.Value+o.Commission)) > 1e-9 {
					return false
				}
				if o.Ticker == models.CashFundTicker && o.Commission != 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(propertyDays, gen.Float64Range(5, 50)),
		gen.SliceOfN(propertyDays, gen.IntRange(-40, 40).Map(func(n int) int { return n * 10 })),
	))

	properties.TestingRun(t)
}
